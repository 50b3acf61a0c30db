// Package notes adapts the bot's old per-user memory store into a
// channel-scoped plugin: every note a user asks the bot to remember lives
// in that channel's plugin state, searchable by keyword relevance with this
// package's own scoring (query coverage boosted by importance and access
// count), not the original memory store's.
package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

// entry is one remembered note, serialized as part of the channel blob.
type entry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Keywords    []string  `json:"keywords"`
	Importance  int       `json:"importance"`
	CreatedAt   time.Time `json:"createdAt"`
	AccessCount int       `json:"accessCount"`
}

func loadEntries(pi pluginapi.Interface) ([]entry, error) {
	blob, err := pi.GetState(pi.ConfiguredScope())
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var entries []entry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("notes: corrupt state: %w", err)
	}
	return entries, nil
}

func saveEntries(pi pluginapi.Interface, entries []entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return pi.SetState(pi.ConfiguredScope(), pluginstate.Blob(data))
}

// Descriptor builds the notes plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "notes",
		Description: "remembers and recalls short notes from the conversation",
		Priority:    plugin.PriorityNormal,
		Persona:     "Notes",
		Tools: []plugin.Tool{
			rememberTool(),
			searchTool(),
			listTool(),
			forgetTool(),
		},
	}
}

func rememberTool() plugin.Tool {
	return plugin.Tool{
		Name:        "remember",
		Description: "store a short note for later recall in this conversation",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"content":    plugin.String(),
			"importance": plugin.Integer(),
		}, "content"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			content, _ := input["content"].(string)
			importance := 5
			if v, ok := input["importance"].(float64); ok {
				importance = int(v)
			}
			if importance < 1 {
				importance = 1
			}
			if importance > 10 {
				importance = 10
			}

			entries, err := loadEntries(pi)
			if err != nil {
				return nil, err
			}
			e := entry{
				ID:         uuid.New().String()[:12],
				Type:       detectType(content),
				Content:    content,
				Keywords:   extractKeywords(content),
				Importance: importance,
				CreatedAt:  time.Now(),
			}
			entries = append(entries, e)
			if err := saveEntries(pi, entries); err != nil {
				return nil, err
			}
			return map[string]string{"id": e.ID}, nil
		},
	}
}

func searchTool() plugin.Tool {
	return plugin.Tool{
		Name:        "search",
		Description: "find notes relevant to a query",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"query": plugin.String(),
			"limit": plugin.Integer(),
		}, "query"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			query, _ := input["query"].(string)
			limit := 5
			if v, ok := input["limit"].(float64); ok && int(v) > 0 {
				limit = int(v)
			}

			entries, err := loadEntries(pi)
			if err != nil {
				return nil, err
			}

			queryWords := strings.Fields(strings.ToLower(query))
			type scored struct {
				e     entry
				score float64
			}
			var results []scored
			for _, e := range entries {
				if s := relevance(e, queryWords); s > 0 {
					results = append(results, scored{e, s})
				}
			}
			sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
			if len(results) > limit {
				results = results[:limit]
			}

			matched := make([]entry, 0, len(results))
			for i := range results {
				results[i].e.AccessCount++
				matched = append(matched, results[i].e)
			}

			// Persist updated access counts for the entries that matched.
			if len(matched) > 0 {
				byID := make(map[string]entry, len(matched))
				for _, e := range matched {
					byID[e.ID] = e
				}
				for i, e := range entries {
					if updated, ok := byID[e.ID]; ok {
						entries[i] = updated
					}
				}
				if err := saveEntries(pi, entries); err != nil {
					return nil, err
				}
			}

			return matched, nil
		},
	}
}

func listTool() plugin.Tool {
	return plugin.Tool{
		Name:        "list",
		Description: "list stored notes, optionally filtered by type",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"type": plugin.String("fact", "preference", "event", "note"),
		}),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			entries, err := loadEntries(pi)
			if err != nil {
				return nil, err
			}
			memType, _ := input["type"].(string)
			if memType == "" {
				return entries, nil
			}
			filtered := make([]entry, 0, len(entries))
			for _, e := range entries {
				if e.Type == memType {
					filtered = append(filtered, e)
				}
			}
			return filtered, nil
		},
	}
}

func forgetTool() plugin.Tool {
	return plugin.Tool{
		Name:        "forget",
		Description: "delete a previously stored note by id",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"id": plugin.String(),
		}, "id"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			id, _ := input["id"].(string)
			entries, err := loadEntries(pi)
			if err != nil {
				return nil, err
			}
			kept := make([]entry, 0, len(entries))
			removed := false
			for _, e := range entries {
				if e.ID == id {
					removed = true
					continue
				}
				kept = append(kept, e)
			}
			if err := saveEntries(pi, kept); err != nil {
				return nil, err
			}
			return map[string]bool{"removed": removed}, nil
		},
	}
}

// keywordLimit caps how many words a note indexes for search.
const keywordLimit = 8

// extractKeywords indexes a note by its longest distinct words. Requiring
// at least four letters filters function words in any language without a
// stopword list, which matters for a bot that sees mixed-language chat.
func extractKeywords(content string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(strings.ToLower(content)) {
		w = strings.Trim(w, ".,!?;:'\"()[]")
		if len(w) < 4 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > keywordLimit {
		words = words[:keywordLimit]
	}
	sort.Strings(words)
	return words
}

// typeMarkers classify a note by the words it contains; first matching
// class wins, in the order preference, event, fact.
var typeMarkers = []struct {
	kind    string
	markers []string
}{
	{"preference", []string{"prefer", "prefers", "favorite", "favourite", "likes", "hates", "suka", "favorit"}},
	{"event", []string{"today", "yesterday", "tomorrow", "tonight", "kemarin", "besok", "tadi"}},
	{"fact", []string{"name", "named", "called", "born", "lives", "nama", "adalah"}},
}

func detectType(content string) string {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(content)) {
		words[strings.Trim(w, ".,!?;:'\"")] = true
	}
	for _, tm := range typeMarkers {
		for _, marker := range tm.markers {
			if words[marker] {
				return tm.kind
			}
		}
	}
	return "note"
}

// relevance scores a note by what fraction of the query it covers, with a
// keyword hit worth twice a bare substring hit, boosted by the note's
// importance and by how often it has been recalled before.
func relevance(e entry, queryWords []string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	kw := make(map[string]bool, len(e.Keywords))
	for _, k := range e.Keywords {
		kw[k] = true
	}
	contentLower := strings.ToLower(e.Content)

	var hits float64
	for _, w := range queryWords {
		switch {
		case kw[w]:
			hits += 2
		case strings.Contains(contentLower, w):
			hits++
		}
	}
	if hits == 0 {
		return 0
	}

	score := hits / float64(len(queryWords))
	score *= 1 + float64(e.Importance)/10
	score *= 1 + float64(e.AccessCount)/20
	return score
}
