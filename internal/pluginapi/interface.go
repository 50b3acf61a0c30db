// Package pluginapi declares the narrow, plugin-facing contract a plugin
// author writes against. It depends only on pluginstate's
// data types so it can sit between internal/plugin (which declares tool
// handlers against it) and internal/activation (which implements it),
// without the two importing each other.
package pluginapi

import "github.com/kusandriadi/relaybot/internal/pluginstate"

// Unbounded represents "+∞" for MessagesSinceID, returned when the
// reference message id is nil or not present in the activation's frozen
// message-id sequence.
const Unbounded = int(^uint(0) >> 1) // math.MaxInt

// Interface is what a plugin receives once bound to an activation.
// All methods are scoped to the plugin and channel the
// Context Factory bound them to.
type Interface interface {
	ChannelID() string
	GuildID() string
	CurrentMessageID() string
	BotName() string

	// ContextMessageIDs returns the frozen set of message ids live in this
	// activation's transcript — used by plugins that need to check
	// liveness themselves (e.g. before trusting a stored reference id).
	ContextMessageIDs() map[string]struct{}

	// MessagesSinceID returns how many messages have arrived after id, or
	// Unbounded if id is nil or absent from the frozen sequence.
	MessagesSinceID(id *string) int

	ConfiguredScope() pluginstate.Scope
	PluginConfig() map[string]interface{}

	GetState(scope pluginstate.Scope) (pluginstate.Blob, error)
	SetState(scope pluginstate.Scope, v pluginstate.Blob) error

	// GetStateAtMessage replays epic state up to id using the frozen
	// contextMessageIds for rollback filtering. Requires a reducer to have
	// been supplied at bind time; returns (nil, nil) with a logged warning
	// otherwise.
	GetStateAtMessage(id string) (pluginstate.Blob, error)

	InheritanceInfo() pluginstate.Inheritance

	// SendMessage and PinMessage are host-provided pass-throughs; the
	// plugin runtime does not interpret their results.
	SendMessage(content string) ([]string, error)
	PinMessage(messageID string) error
}
