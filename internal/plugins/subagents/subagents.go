// Package subagents adapts the bot's sub-agent orchestrator into an
// epic-scoped plugin: every spawn/status/cancel transition is appended as
// an epic event, and the current roster is whatever Reducer folds those
// events into — so a forked thread inherits its parent's agent history up
// to the fork point for free, instead of the
// original registry's own flat JSON persistence file.
package subagents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

// Status mirrors the original subagent registry's lifecycle states.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// MaxDepth bounds sub-agent nesting, same limit the original registry defaulted to.
const MaxDepth = 5

// MaxAgents bounds the roster size per epic.
const MaxAgents = 50

type agentSnapshot struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parentId,omitempty"`
	Name        string    `json:"name,omitempty"`
	Task        string    `json:"task"`
	Status      Status    `json:"status"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type roster struct {
	Agents map[string]agentSnapshot `json:"agents"`
}

// event is one epic delta: either a spawn or a status transition.
type event struct {
	Type     string     `json:"type"` // "spawn" or "transition"
	ID       string     `json:"id"`
	ParentID string     `json:"parentId,omitempty"`
	Name     string     `json:"name,omitempty"`
	Task     string     `json:"task,omitempty"`
	Status   Status     `json:"status,omitempty"`
	Result   string     `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
	At       time.Time  `json:"at"`
}

// Reducer folds the epic event log into the current agent roster. Pass it
// to activation.BindOptions.Reducer when binding this plugin; without it
// GetState falls back to channel semantics and GetStateAtMessage returns nil.
var Reducer pluginstate.Reducer = pluginstate.ReducerFunc(reduce)

func reduce(state, delta pluginstate.Blob) (pluginstate.Blob, error) {
	var r roster
	if state != nil {
		if err := json.Unmarshal(state, &r); err != nil {
			return nil, fmt.Errorf("subagents: corrupt roster: %w", err)
		}
	}
	if r.Agents == nil {
		r.Agents = make(map[string]agentSnapshot)
	}

	var e event
	if err := json.Unmarshal(delta, &e); err != nil {
		return nil, fmt.Errorf("subagents: corrupt event: %w", err)
	}

	switch e.Type {
	case "spawn":
		r.Agents[e.ID] = agentSnapshot{
			ID:        e.ID,
			ParentID:  e.ParentID,
			Name:      e.Name,
			Task:      e.Task,
			Status:    StatusPending,
			CreatedAt: e.At,
		}
	case "transition":
		// A transition can land on the same message as its spawn, in which
		// case the spawn event was replaced and the agent is unknown here;
		// fold it into a stub rather than poisoning the whole log.
		a, ok := r.Agents[e.ID]
		if !ok {
			a = agentSnapshot{ID: e.ID, CreatedAt: e.At}
		}
		a.Status = e.Status
		a.Result = e.Result
		a.Error = e.Error
		if e.Status == StatusComplete || e.Status == StatusFailed || e.Status == StatusCanceled {
			at := e.At
			a.CompletedAt = &at
		}
		r.Agents[e.ID] = a
	default:
		return nil, fmt.Errorf("subagents: unknown event type %q", e.Type)
	}

	return json.Marshal(r)
}

func loadRoster(pi pluginapi.Interface) (roster, error) {
	blob, err := pi.GetState(pluginstate.ScopeEpic)
	if err != nil {
		return roster{}, err
	}
	var r roster
	if blob != nil {
		if err := json.Unmarshal(blob, &r); err != nil {
			return roster{}, fmt.Errorf("subagents: corrupt roster: %w", err)
		}
	}
	if r.Agents == nil {
		r.Agents = make(map[string]agentSnapshot)
	}
	return r, nil
}

func appendEvent(pi pluginapi.Interface, e event) error {
	e.At = time.Now()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return pi.SetState(pluginstate.ScopeEpic, pluginstate.Blob(data))
}

func depthOf(r roster, parentID string) int {
	depth := 0
	current := parentID
	for current != "" && depth < MaxDepth+1 {
		a, ok := r.Agents[current]
		if !ok {
			break
		}
		current = a.ParentID
		depth++
	}
	return depth
}

// Descriptor builds the subagents plugin.
func Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "subagents",
		Description: "tracks delegated sub-agent tasks scoped to this thread",
		Priority:    plugin.PriorityNormal,
		Persona:     "Subagents",
		Tools: []plugin.Tool{
			spawnTool(),
			transitionTool(),
			listTool(),
		},
	}
}

func spawnTool() plugin.Tool {
	return plugin.Tool{
		Name:        "spawn",
		Description: "record a new delegated sub-agent task",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"task":     plugin.String(),
			"name":     plugin.String(),
			"parentId": plugin.String(),
		}, "task"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			task, _ := input["task"].(string)
			name, _ := input["name"].(string)
			parentID, _ := input["parentId"].(string)

			r, err := loadRoster(pi)
			if err != nil {
				return nil, err
			}
			if len(r.Agents) >= MaxAgents {
				return nil, fmt.Errorf("subagents: max agents limit reached (%d)", MaxAgents)
			}
			if parentID != "" {
				if _, ok := r.Agents[parentID]; !ok {
					return nil, fmt.Errorf("subagents: unknown parent %q", parentID)
				}
				if depthOf(r, parentID) >= MaxDepth {
					return nil, fmt.Errorf("subagents: max nesting depth reached (%d)", MaxDepth)
				}
			}

			id := uuid.New().String()[:8]
			if err := appendEvent(pi, event{Type: "spawn", ID: id, ParentID: parentID, Name: name, Task: task}); err != nil {
				return nil, err
			}
			return map[string]string{"id": id}, nil
		},
	}
}

func transitionTool() plugin.Tool {
	return plugin.Tool{
		Name:        "transition",
		Description: "update a sub-agent's status once it completes, fails, or is canceled",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"id":     plugin.String(),
			"status": plugin.String("running", "complete", "failed", "canceled"),
			"result": plugin.String(),
			"error":  plugin.String(),
		}, "id", "status"),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			id, _ := input["id"].(string)
			status, _ := input["status"].(string)
			result, _ := input["result"].(string)
			errMsg, _ := input["error"].(string)

			r, err := loadRoster(pi)
			if err != nil {
				return nil, err
			}
			if _, ok := r.Agents[id]; !ok {
				return nil, fmt.Errorf("subagents: unknown agent %q", id)
			}

			if err := appendEvent(pi, event{Type: "transition", ID: id, Status: Status(status), Result: result, Error: errMsg}); err != nil {
				return nil, err
			}
			return map[string]bool{"ok": true}, nil
		},
	}
}

func listTool() plugin.Tool {
	return plugin.Tool{
		Name:        "list",
		Description: "list sub-agents tracked for this thread",
		InputSchema: plugin.Object(map[string]plugin.Schema{
			"parentId": plugin.String(),
		}),
		Handler: func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error) {
			r, err := loadRoster(pi)
			if err != nil {
				return nil, err
			}
			parentID, _ := input["parentId"].(string)

			out := make([]agentSnapshot, 0, len(r.Agents))
			for _, a := range r.Agents {
				if parentID != "" && a.ParentID != parentID {
					continue
				}
				out = append(out, a)
			}
			sort.Slice(out, func(i, j int) bool {
				if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
					return out[i].CreatedAt.Before(out[j].CreatedAt)
				}
				return out[i].ID < out[j].ID
			})
			return out, nil
		},
	}
}
