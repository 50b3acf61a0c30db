// Package staticinject is the `inject` configuration-driven plugin: it
// recognizes a list of injection objects under its own pluginConfig and
// turns them into context injections verbatim, with no tools of its own.
// Converting its output into internal/inject.Injection values with
// FromConfig set is the bot wiring layer's job (the "plugin-dynamic wins
// over static config" tie-break only matters once injections from other
// plugins are mixed in).
package staticinject

import (
	"context"
	"fmt"

	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
)

// ID is this plugin's registry name; the bot wiring layer checks this to
// decide which injections in a build are config-sourced vs plugin-dynamic.
const ID = "inject"

// Descriptor builds the static config-driven injection plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          ID,
		Description: "injects operator-configured text fragments into context",
		Priority:    plugin.PriorityCore,
		ContextInjection: func(ctx context.Context, pi pluginapi.Interface) ([]plugin.ProvidedInjection, error) {
			raw, ok := pi.PluginConfig()["injections"]
			if !ok {
				return nil, nil
			}
			entries, ok := raw.([]interface{})
			if !ok {
				return nil, fmt.Errorf("staticinject: pluginConfig.injections must be a list")
			}

			out := make([]plugin.ProvidedInjection, 0, len(entries))
			for i, e := range entries {
				m, ok := e.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("staticinject: injections[%d] must be an object", i)
				}

				id, _ := m["id"].(string)
				content, _ := m["content"].(string)
				if id == "" || content == "" {
					return nil, fmt.Errorf("staticinject: injections[%d] requires id and content", i)
				}

				depth := 0
				if v, ok := m["depth"].(float64); ok {
					depth = int(v)
				}
				anchor := "latest"
				if v, ok := m["anchor"].(string); ok && v != "" {
					anchor = v
				}
				priority := 0
				if v, ok := m["priority"].(float64); ok {
					priority = int(v)
				}

				out = append(out, plugin.ProvidedInjection{
					ID:          id,
					Text:        content,
					TargetDepth: depth,
					Anchor:      anchor,
					Priority:    priority,
				})
			}
			return out, nil
		},
	}
}
