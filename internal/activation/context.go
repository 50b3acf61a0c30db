// Package activation is the Context Factory. It
// freezes a transcript snapshot once per activation and binds plugin
// descriptors to a concrete pluginapi.Interface backed by the State Store.
package activation

import "github.com/kusandriadi/relaybot/internal/pluginapi"

// snapshot is the frozen orderedMessageIds view an activation builds its
// injections against. It never changes mid-build; updateMessageIds replaces
// it wholesale between activations.
type snapshot struct {
	channelID         string
	currentMessageID  string
	orderedMessageIDs []string
	posOf             map[string]int
	liveSet           map[string]struct{}
}

func newSnapshot(channelID, currentMessageID string, orderedMessageIDs []string) *snapshot {
	s := &snapshot{channelID: channelID, currentMessageID: currentMessageID}
	s.replace(orderedMessageIDs)
	return s
}

func (s *snapshot) replace(orderedMessageIDs []string) {
	ids := make([]string, len(orderedMessageIDs))
	copy(ids, orderedMessageIDs)
	pos := make(map[string]int, len(ids))
	live := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		pos[id] = i
		live[id] = struct{}{}
	}
	s.orderedMessageIDs = ids
	s.posOf = pos
	s.liveSet = live
}

// messagesSinceID returns how many messages in the frozen sequence arrived
// after id, or pluginapi.Unbounded if id is nil or not present.
func (s *snapshot) messagesSinceID(id *string) int {
	if id == nil {
		return pluginapi.Unbounded
	}
	pos, ok := s.posOf[*id]
	if !ok {
		return pluginapi.Unbounded
	}
	return len(s.orderedMessageIDs) - 1 - pos
}
