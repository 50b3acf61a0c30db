// Package skillsplugin exposes the bot's YAML-defined skills (internal/skills)
// through the plugin runtime: always-triggered skills become a settled
// context injection, and any skill can be invoked explicitly by name through
// the run_skill tool (list_skills lists them); skills are not exposed as
// individual tools.
package skillsplugin

import (
	"context"
	"fmt"

	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/skills"
)

// Descriptor builds the skills plugin over an already-loaded Manager.
func Descriptor(manager *skills.Manager) plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "skills",
		Description: "surfaces always-active skill instructions and runs skills on request",
		Priority:    plugin.PriorityNormal,
		Persona:     "Skills",
		ContextInjection: func(ctx context.Context, pi pluginapi.Interface) ([]plugin.ProvidedInjection, error) {
			prompt := manager.GetSystemPrompts()
			if prompt == "" {
				return nil, nil
			}
			// No lastModifiedAt: this injection is "settled" at targetDepth
			// immediately — it doesn't age, since the always-
			// active prompt set doesn't change within an activation.
			return []plugin.ProvidedInjection{{
				ID:          "always",
				Text:        prompt,
				TargetDepth: 0,
				Anchor:      "latest",
				AsSystem:    true,
			}}, nil
		},
		Tools: []plugin.Tool{
			listSkillsTool(manager),
			runSkillTool(manager),
		},
	}
}

func listSkillsTool(manager *skills.Manager) plugin.Tool {
	return plugin.Tool{
		Name:        "list_skills",
		Description: "list the skills available to run",
		InputSchema: plugin.Object(map[string]plugin.Schema{}),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			all := manager.List()
			out := make([]map[string]string, 0, len(all))
			for _, s := range all {
				out = append(out, map[string]string{"name": s.Name, "description": s.Description})
			}
			return out, nil
		},
	}
}

func runSkillTool(manager *skills.Manager) plugin.Tool {
	return plugin.Tool{
		Name:        "run_skill",
		Description: "run a named skill against a message",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"name":    plugin.String(),
			"message": plugin.String(),
		}, "name", "message"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			name, _ := input["name"].(string)
			message, _ := input["message"].(string)

			skill, ok := manager.Get(name)
			if !ok {
				return nil, fmt.Errorf("skillsplugin: unknown skill %q", name)
			}
			result, err := manager.Execute(ctx, skill, message)
			if err != nil {
				return nil, err
			}
			return map[string]string{"result": result}, nil
		},
	}
}
