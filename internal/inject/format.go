package inject

import "strings"

// Render formats one placed injection into a single transcript string.
// AsSystem injections are prefixed "System>[{pluginId}]: ";
// otherwise the entry is rendered under the plugin's persona name. A list
// of structured content blocks is rendered block-wise, inlined.
func Render(inj Injection, persona string) string {
	var body string
	if len(inj.Content.Blocks) > 0 {
		parts := make([]string, 0, len(inj.Content.Blocks))
		for _, b := range inj.Content.Blocks {
			parts = append(parts, b.Text)
		}
		body = strings.Join(parts, "\n")
	} else {
		body = inj.Content.Text
	}

	if inj.AsSystem {
		return "System>[" + inj.PluginID + "]: " + body
	}
	if persona == "" {
		persona = inj.PluginID
	}
	return persona + ": " + body
}

// RenderTranscript turns placed entries into a flat string slice, applying
// Render to every injected entry and passing original messages through
// unchanged. personaOf resolves a plugin id to its display persona.
func RenderTranscript(entries []Entry, personaOf func(pluginID string) string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Injected != nil {
			persona := ""
			if personaOf != nil {
				persona = personaOf(e.Injected.PluginID)
			}
			out = append(out, Render(*e.Injected, persona))
			continue
		}
		out = append(out, e.Original)
	}
	return out
}
