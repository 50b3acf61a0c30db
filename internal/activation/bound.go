package activation

import (
	"fmt"
	"time"

	"github.com/kusandriadi/relaybot/internal/pluginstate"
)

// boundInterface is the pluginapi.Interface a plugin receives from one
// Bind/BindWithOptions call. It closes over the Factory it
// was bound from, so ChannelID/CurrentMessageID/ContextMessageIDs always
// reflect the factory's current frozen snapshot even if UpdateMessageIDs
// runs between activations that reuse the same Factory.
type boundInterface struct {
	factory      *Factory
	pluginID     string
	inheritance  pluginstate.Inheritance
	reducer      pluginstate.Reducer
	pluginConfig map[string]interface{}
	scope        pluginstate.Scope
}

func (b *boundInterface) ChannelID() string        { return b.factory.snap.channelID }
func (b *boundInterface) GuildID() string          { return b.factory.guildID }
func (b *boundInterface) CurrentMessageID() string { return b.factory.snap.currentMessageID }
func (b *boundInterface) BotName() string          { return b.factory.botName }

func (b *boundInterface) ConfiguredScope() pluginstate.Scope       { return b.scope }
func (b *boundInterface) PluginConfig() map[string]interface{}     { return b.pluginConfig }
func (b *boundInterface) InheritanceInfo() pluginstate.Inheritance { return b.inheritance }

func (b *boundInterface) ContextMessageIDs() map[string]struct{} {
	return b.factory.snap.liveSet
}

func (b *boundInterface) MessagesSinceID(id *string) int {
	return b.factory.snap.messagesSinceID(id)
}

// GetState reads the configured scope. Epic reads without a
// reducer fall back to channel semantics with a logged warning, since an
// epic blob cannot be derived without one to fold the event log.
func (b *boundInterface) GetState(scope pluginstate.Scope) (pluginstate.Blob, error) {
	switch scope {
	case pluginstate.ScopeGlobal:
		return b.factory.store.GetGlobal(b.pluginID)
	case pluginstate.ScopeChannel:
		blob, _, err := b.factory.store.GetChannel(b.pluginID, b.factory.snap.channelID, b.inheritance)
		return blob, err
	case pluginstate.ScopeEpic:
		return b.getEpicState()
	default:
		return nil, fmt.Errorf("activation: unknown scope %q", scope)
	}
}

func (b *boundInterface) getEpicState() (pluginstate.Blob, error) {
	if b.reducer == nil {
		b.factory.logger.Warn("epic scope requires a reducer at bind time; falling back to channel semantics",
			"plugin", b.pluginID, "channel", b.factory.snap.channelID, "error", pluginstate.ErrReducerRequired)
		blob, _, err := b.factory.store.GetChannel(b.pluginID, b.factory.snap.channelID, b.inheritance)
		return blob, err
	}

	log, err := b.factory.store.GetEvents(b.pluginID, b.factory.snap.channelID)
	if err != nil {
		return nil, err
	}
	return pluginstate.Replay(log, nil, b.factory.snap.liveSet, b.reducer)
}

// SetState writes the configured scope. Epic writes append a StateEvent
// keyed by the activation's currentMessageId rather than folding a reducer
// immediately — folding happens lazily on read.
func (b *boundInterface) SetState(scope pluginstate.Scope, v pluginstate.Blob) error {
	switch scope {
	case pluginstate.ScopeGlobal:
		return b.factory.store.SetGlobal(b.pluginID, v)
	case pluginstate.ScopeChannel:
		msgID := b.factory.snap.currentMessageID
		return b.factory.store.SetChannel(b.pluginID, b.factory.snap.channelID, v, &msgID)
	case pluginstate.ScopeEpic:
		return b.factory.store.AppendOrReplaceEvent(b.pluginID, b.factory.snap.channelID, pluginstate.StateEvent{
			MessageID: b.factory.snap.currentMessageID,
			Timestamp: time.Now(),
			Delta:     v,
		})
	default:
		return fmt.Errorf("activation: unknown scope %q", scope)
	}
}

// GetStateAtMessage replays epic state up to id, filtered to the frozen
// contextMessageIds for rollback semantics. Without a
// reducer this cannot be derived at all; it logs a warning and returns
// (nil, nil) rather than failing the caller.
func (b *boundInterface) GetStateAtMessage(id string) (pluginstate.Blob, error) {
	if b.reducer == nil {
		b.factory.logger.Warn("GetStateAtMessage requires a reducer at bind time",
			"plugin", b.pluginID, "channel", b.factory.snap.channelID, "error", pluginstate.ErrReducerRequired)
		return nil, nil
	}

	log, err := b.factory.store.GetEvents(b.pluginID, b.factory.snap.channelID)
	if err != nil {
		return nil, err
	}
	return pluginstate.Replay(log, &id, b.factory.snap.liveSet, b.reducer)
}

func (b *boundInterface) SendMessage(content string) ([]string, error) {
	return b.factory.sender.SendMessage(b.factory.snap.channelID, content)
}

func (b *boundInterface) PinMessage(messageID string) error {
	return b.factory.sender.PinMessage(b.factory.snap.channelID, messageID)
}
