package pluginstate

import "sort"

// sortEvents keeps an EventLog ordered by MessageID ascending, matching the
// on-disk invariant. Ordering is by MessageID only — the
// Timestamp field is informational.
func sortEvents(log EventLog) {
	sort.SliceStable(log, func(i, j int) bool {
		return log[i].MessageID < log[j].MessageID
	})
}

// Replay reconstructs epic state by folding a channel's EventLog through
// reducer, in MessageID order.
//
//   - uptoMessageID == nil replays the whole log.
//   - liveMessageIDs == nil disables rollback filtering entirely (used when
//     the caller is certain no messages have been deleted).
//   - liveMessageIDs != nil: any event whose MessageID is absent from the
//     set is skipped — this is the rollback mechanism for deleted messages.
//
// Replay is a pure function of (log, uptoMessageID, liveMessageIDs,
// reducer); two calls with equal inputs return equal state.
func Replay(log EventLog, uptoMessageID *string, liveMessageIDs map[string]struct{}, reducer Reducer) (Blob, error) {
	var state Blob
	for _, event := range log {
		if uptoMessageID != nil && event.MessageID > *uptoMessageID {
			break
		}
		if liveMessageIDs != nil {
			if _, live := liveMessageIDs[event.MessageID]; !live {
				continue
			}
		}
		next, err := reducer.Apply(state, event.Delta)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}
