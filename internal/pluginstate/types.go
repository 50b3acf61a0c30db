package pluginstate

import (
	"encoding/json"
	"time"
)

// Blob is an opaque, plugin-defined value. The state manager never
// interprets its contents; it only serializes and caches it.
type Blob = json.RawMessage

// ChannelMetadata carries the lastModifiedMessageId and ancestry hints that
// travel alongside a channel-scoped blob.
type ChannelMetadata struct {
	LastModifiedMessageID *string `json:"lastModifiedMessageId"`
	ParentChannelID        string  `json:"parentChannelId,omitempty"`
	HistoryOriginChannelID string  `json:"historyOriginChannelId,omitempty"`
}

// Inheritance describes where a channel's state should come from when its
// own file is absent. Both fields are optional; HistoryOriginChannelID is
// consulted before ParentChannelID.
type Inheritance struct {
	ParentChannelID        string
	HistoryOriginChannelID string
}

// channelFile is the on-disk shape of a channel-scoped state file.
type channelFile struct {
	State    Blob            `json:"state"`
	Metadata ChannelMetadata `json:"metadata"`
}

// StateEvent is one epic delta, keyed by a chronologically-ordered message
// id (lexicographic compare assumed to match temporal order).
type StateEvent struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
	Delta     Blob      `json:"delta"`
}

// EventLog is a channel's ordered (by MessageID) sequence of StateEvents.
type EventLog []StateEvent

// Reducer folds one epic delta into an accumulated state. Supplied by the
// plugin at bind time; the state manager treats it as an opaque function.
type Reducer interface {
	Apply(state Blob, delta Blob) (Blob, error)
}

// ReducerFunc adapts a plain function to the Reducer interface.
type ReducerFunc func(state Blob, delta Blob) (Blob, error)

func (f ReducerFunc) Apply(state Blob, delta Blob) (Blob, error) { return f(state, delta) }

type globalCacheEntry struct {
	blob   Blob
	loaded bool
}

type channelCacheEntry struct {
	blob     Blob
	metadata ChannelMetadata
	loaded   bool
}

type pluginCache struct {
	global  globalCacheEntry
	channel map[string]channelCacheEntry
	events  map[string]EventLog
}

func newPluginCache() *pluginCache {
	return &pluginCache{
		channel: make(map[string]channelCacheEntry),
		events:  make(map[string]EventLog),
	}
}
