package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/kusandriadi/relaybot/internal/activation"
	"github.com/kusandriadi/relaybot/internal/config"
	"github.com/kusandriadi/relaybot/internal/inject"
	"github.com/kusandriadi/relaybot/internal/llm"
	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
	"github.com/kusandriadi/relaybot/internal/plugins/staticinject"
	"github.com/kusandriadi/relaybot/internal/plugins/subagents"
	"github.com/kusandriadi/relaybot/internal/router"
	"github.com/kusandriadi/relaybot/internal/util"
)

// messageWindow caps how many message ids ActivationHandler remembers per
// channel for depth/anchor calculations — older ids age out
// the same way a real transcript would scroll past them.
const messageWindow = 200

// maxToolIterations bounds the tool-call / re-prompt loop: a
// misbehaving tool or a model stuck repeating the same call can't hang an
// activation forever.
const maxToolIterations = 4

var toolCallPattern = regexp.MustCompile("(?s)```tool_call\\s*\\n(.*?)\\n```")

// ActivationHandler is the domain-stack wiring point: it turns
// a raw router.Message into a bound activation, augments the outgoing
// transcript with every enabled plugin's context injections, and runs the
// tool-call loop against internal/plugin.Dispatcher for whatever the model
// asks to invoke.
type ActivationHandler struct {
	store      *pluginstate.Store
	registry   *plugin.Registry
	dispatcher *plugin.Dispatcher
	sender     activation.Sender
	enabled    []plugin.Descriptor
	configs    map[string]map[string]interface{}
	botName    string
	logger     *slog.Logger

	mu      sync.Mutex
	windows map[string][]string
}

// NewActivationHandler builds the handler over an already-populated plugin
// Registry; cfg.Plugins.Enabled selects which descriptors participate
// (empty means "everything registered"), resolved in priority order.
func NewActivationHandler(cfg *config.Config, store *pluginstate.Store, registry *plugin.Registry, sender activation.Sender, logger *slog.Logger) (*ActivationHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var enabled []plugin.Descriptor
	if len(cfg.Plugins.Enabled) > 0 {
		var err error
		enabled, err = registry.Enabled(cfg.Plugins.Enabled)
		if err != nil {
			return nil, fmt.Errorf("activation handler: %w", err)
		}
	} else {
		enabled = registry.List()
	}

	return &ActivationHandler{
		store:      store,
		registry:   registry,
		dispatcher: plugin.NewDispatcher(registry, logger.With("component", "dispatch")),
		sender:     sender,
		enabled:    enabled,
		configs:    cfg.Plugins.Settings,
		botName:    cfg.Bot.Name,
		logger:     logger.With("component", "activation"),
		windows:    make(map[string][]string),
	}, nil
}

// Build starts a new activation for an inbound message: it mints a message
// id, slides the channel's message-id window forward, and returns a
// Context Factory scoped to this exchange plus the minted id.
func (h *ActivationHandler) Build(msg *router.Message) (*activation.Factory, string) {
	channelID := msg.Platform + ":" + msg.ChatID
	currentID := mintMessageID()

	h.mu.Lock()
	window := append(h.windows[channelID], currentID)
	if len(window) > messageWindow {
		window = window[len(window)-messageWindow:]
	}
	h.windows[channelID] = append([]string(nil), window...)
	ordered := h.windows[channelID]
	h.mu.Unlock()

	return activation.New(h.store, h.sender, h.botName, "", channelID, currentID, ordered, h.logger), currentID
}

// mintMessageID produces a message id that sorts lexically in the order it
// was minted: internal/pluginstate keeps an epic's EventLog sorted by
// MessageID and ForkEvents cuts it at a MessageID threshold,
// so ids here carry a fixed-width nanosecond timestamp prefix rather than
// being pure random bytes.
func mintMessageID() string {
	return fmt.Sprintf("%020d-%s", time.Now().UnixNano(), util.RandomID(8))
}

// HandleThreadCreated forks every enabled plugin's epic event log from a
// parent channel into a newly-created child thread channel, up through the
// last message this handler minted for the parent.
// Platform adapters call this when they observe a thread/topic being opened
// from a tracked channel.
func (h *ActivationHandler) HandleThreadCreated(parentChannelID, childChannelID string) {
	h.mu.Lock()
	window := h.windows[parentChannelID]
	var uptoID string
	if len(window) > 0 {
		uptoID = window[len(window)-1]
	}
	h.windows[childChannelID] = append([]string(nil), window...)
	h.mu.Unlock()

	if uptoID == "" {
		return
	}
	for _, d := range h.enabled {
		if err := h.store.ForkEvents(d.ID, parentChannelID, childChannelID, uptoID); err != nil {
			h.logger.Warn("fork plugin state failed", "plugin", d.ID, "from", parentChannelID, "to", childChannelID, "error", err)
		}
	}
}

// bindOptions resolves the per-plugin BindOptions this
// handler knows how to supply: the subagents plugin needs its own reducer
// to fold its epic event log; every plugin binds with whatever config the
// operator set under plugins.settings.<id>.
func (h *ActivationHandler) bindOptions(d plugin.Descriptor) activation.BindOptions {
	opts := activation.BindOptions{PluginConfig: h.configs[d.ID]}
	if d.ID == "subagents" {
		opts.Reducer = subagents.Reducer
	}
	return opts
}

// Augment asks every enabled plugin for its current context injections and
// places them into messages per internal/inject's depth/anchor rules,
// returning a new transcript ready to hand to internal/llm.Router.Chat.
func (h *ActivationHandler) Augment(ctx context.Context, factory *activation.Factory, messages []llm.Message) []llm.Message {
	transcript := make([]string, len(messages))
	for i, m := range messages {
		transcript[i] = m.Content
	}
	ids := factory.MessageIDs()

	var injections []inject.Injection
	for _, d := range h.enabled {
		if d.ContextInjection == nil {
			continue
		}
		pi := factory.BindWithOptions(d, h.bindOptions(d))
		provided, err := d.ContextInjection(ctx, pi)
		if err != nil {
			h.logger.Warn("plugin context injection failed", "plugin", d.ID, "error", err)
			continue
		}
		for _, p := range provided {
			anchor := inject.Anchor(p.Anchor)
			if anchor == "" {
				anchor = inject.AnchorLatest
			}
			injections = append(injections, inject.Injection{
				PluginID:       d.ID,
				ID:             p.ID,
				Content:        inject.Content{Text: p.Text},
				TargetDepth:    inject.EffectiveDepth(p.LastModifiedAt, p.TargetDepth, ids),
				Anchor:         anchor,
				LastModifiedAt: p.LastModifiedAt,
				Priority:       p.Priority,
				AsSystem:       p.AsSystem,
				FromConfig:     d.ID == staticinject.ID,
			})
		}
	}

	if len(injections) == 0 {
		return messages
	}

	personas := make(map[string]string, len(h.enabled))
	for _, d := range h.enabled {
		personas[d.ID] = d.Persona
	}

	entries := inject.Place(transcript, injections)
	out := make([]llm.Message, 0, len(entries))
	origIdx := 0
	for _, e := range entries {
		if e.Injected != nil {
			role := "user"
			if e.Injected.AsSystem {
				role = "system"
			}
			out = append(out, llm.Message{Role: role, Content: inject.Render(*e.Injected, personas[e.Injected.PluginID])})
			continue
		}
		out = append(out, messages[origIdx])
		origIdx++
	}
	return out
}

// toolCall is the JSON shape a model emits inside a ```tool_call fenced
// block to invoke a plugin tool. Carried over plain text since the llm
// Router has no structured function-calling of its own.
type toolCall struct {
	Plugin string                 `json:"plugin"`
	Tool   string                 `json:"tool"`
	Input  map[string]interface{} `json:"input"`
}

// extractToolCalls pulls every ```tool_call block out of a model response.
// A malformed block is skipped and logged rather than failing the whole
// turn — a model retry is cheaper than surfacing a parse error to the user.
func (h *ActivationHandler) extractToolCalls(text string) []toolCall {
	matches := toolCallPattern.FindAllStringSubmatch(text, -1)
	calls := make([]toolCall, 0, len(matches))
	for _, m := range matches {
		var c toolCall
		if err := json.Unmarshal([]byte(m[1]), &c); err != nil {
			h.logger.Warn("malformed tool_call block", "error", err)
			continue
		}
		calls = append(calls, c)
	}
	return calls
}

// ChatFunc matches internal/llm.Router.Chat's signature, kept as its own
// type so RunTurn can be driven by a fake in tests without a real provider.
type ChatFunc func(ctx context.Context, userID string, messages []llm.Message) (*llm.Response, error)

// RunTurn drives the augment -> complete -> dispatch-tool-calls -> re-complete
// loop for one inbound message. It returns the final assistant-facing text.
func (h *ActivationHandler) RunTurn(ctx context.Context, factory *activation.Factory, userID string, messages []llm.Message, chat ChatFunc) (string, error) {
	working := append([]llm.Message(nil), messages...)
	working = h.Augment(ctx, factory, working)

	var last *llm.Response
	for i := 0; i < maxToolIterations; i++ {
		resp, err := chat(ctx, userID, working)
		if err != nil {
			return "", err
		}
		last = resp

		calls := h.extractToolCalls(resp.Content)
		if len(calls) == 0 {
			return resp.Content, nil
		}

		working = append(working, llm.Message{Role: "assistant", Content: resp.Content})
		for _, c := range calls {
			result, callErr := h.dispatcher.Dispatch(ctx, c.Plugin, c.Tool, c.Input, factory)
			working = append(working, llm.Message{Role: "system", Content: formatToolResult(c, result, callErr)})
		}
	}

	if last != nil {
		return last.Content, nil
	}
	return "", nil
}

func formatToolResult(c toolCall, result interface{}, err error) string {
	if err != nil {
		return fmt.Sprintf("tool_result %s.%s error: %v", c.Plugin, c.Tool, err)
	}
	encoded, mErr := json.Marshal(result)
	if mErr != nil {
		return fmt.Sprintf("tool_result %s.%s: %v", c.Plugin, c.Tool, result)
	}
	return fmt.Sprintf("tool_result %s.%s: %s", c.Plugin, c.Tool, encoded)
}
