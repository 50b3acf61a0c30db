package activation

import (
	"log/slog"
	"sync"

	"github.com/kusandriadi/relaybot/internal/plugin"
	"github.com/kusandriadi/relaybot/internal/pluginapi"
	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

// Sender is the host-provided message I/O a bound plugin can call. It is
// richer than router.Platform.Send (it returns the sent message's id and
// supports pinning), so the bot wiring layer adapts each platform to it
// rather than passing router.Platform straight through.
type Sender interface {
	SendMessage(channelID, content string) ([]string, error)
	PinMessage(channelID, messageID string) error
}

// BindOptions carries the optional arguments a bind accepts. All fields
// are optional; the zero value means "channel has no ancestry",
// "no reducer supplied", and "no per-plugin config" respectively.
type BindOptions struct {
	Inheritance  pluginstate.Inheritance
	Reducer      pluginstate.Reducer
	PluginConfig map[string]interface{}
}

// Factory is the Context Factory: one instance per activation, wrapping the
// State Store and a frozen transcript snapshot. Binding a plugin twice in
// the same activation returns the same pluginapi.Interface instance, so a
// tool call later in the activation sees the same inheritance/reducer the
// injection-building pass bound it with.
type Factory struct {
	mu      sync.Mutex
	store   *pluginstate.Store
	sender  Sender
	botName string
	guildID string
	snap    *snapshot
	logger  *slog.Logger
	bound   map[string]*boundInterface
}

// New creates a Context Factory for one activation. The cache directory is
// already owned by store.
func New(store *pluginstate.Store, sender Sender, botName, guildID, channelID, currentMessageID string, orderedMessageIDs []string, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		store:   store,
		sender:  sender,
		botName: botName,
		guildID: guildID,
		snap:    newSnapshot(channelID, currentMessageID, orderedMessageIDs),
		logger:  logger,
		bound:   make(map[string]*boundInterface),
	}
}

// UpdateMessageIDs replaces the frozen transcript snapshot. This must only
// happen between activations, never during one build of
// injections — callers are trusted to respect that; the factory does not
// itself detect a build in progress.
func (f *Factory) UpdateMessageIDs(newList []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.replace(newList)
}

// MessageIDs returns a copy of the frozen ordered message-id snapshot,
// oldest to newest.
func (f *Factory) MessageIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.snap.orderedMessageIDs...)
}

// BindWithOptions is the full bind(pluginDescriptor, inheritanceInfo?,
// reducer?, pluginConfig?) operation. The first call for a given plugin ID
// in this activation wins; later calls (including plain Bind) return the
// same bound instance regardless of the options passed.
func (f *Factory) BindWithOptions(d plugin.Descriptor, opts BindOptions) pluginapi.Interface {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.bound[d.ID]; ok {
		return existing
	}

	bi := &boundInterface{
		factory:      f,
		pluginID:     d.ID,
		inheritance:  opts.Inheritance,
		reducer:      opts.Reducer,
		pluginConfig: opts.PluginConfig,
		scope:        configuredScope(opts.PluginConfig),
	}
	f.bound[d.ID] = bi
	return bi
}

// Bind satisfies the narrow seam internal/plugin.Dispatcher depends on. A
// tool call always follows an earlier BindWithOptions from the injection-
// building pass in the same activation, so this just returns the cached
// instance; a plugin bound for the first time via plain Bind gets channel
// scope, no reducer, and no config — the same defaults BindOptions{} would
// produce.
func (f *Factory) Bind(d plugin.Descriptor) pluginapi.Interface {
	return f.BindWithOptions(d, BindOptions{})
}

func configuredScope(pluginConfig map[string]interface{}) pluginstate.Scope {
	raw, ok := pluginConfig["state_scope"]
	if !ok {
		return pluginstate.ScopeChannel
	}
	s, ok := raw.(string)
	if !ok {
		return pluginstate.ScopeChannel
	}
	switch pluginstate.Scope(s) {
	case pluginstate.ScopeGlobal, pluginstate.ScopeChannel, pluginstate.ScopeEpic:
		return pluginstate.Scope(s)
	default:
		return pluginstate.ScopeChannel
	}
}
