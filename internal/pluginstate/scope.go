package pluginstate

// resolveInheritance implements the Scope Resolver: when a
// channel has no state of its own, it consults historyOriginChannelId
// first, then parentChannelId. Resolution is read-only
// and one-shot — the returned blob is a value copy, never a reference to
// the ancestor's cached blob, so a subsequent write by the child can never
// mutate the ancestor.
//
// Must be called with s.mu held.
func (s *Store) resolveInheritance(pluginID string, inh Inheritance) (Blob, ChannelMetadata, error) {
	if inh.HistoryOriginChannelID != "" {
		blob, meta, found, err := s.loadChannelOrCache(pluginID, inh.HistoryOriginChannelID)
		if err != nil {
			return nil, ChannelMetadata{}, err
		}
		if found {
			return copyBlob(blob), ChannelMetadata{
				LastModifiedMessageID:  meta.LastModifiedMessageID,
				HistoryOriginChannelID: inh.HistoryOriginChannelID,
			}, nil
		}
	}

	if inh.ParentChannelID != "" {
		blob, meta, found, err := s.loadChannelOrCache(pluginID, inh.ParentChannelID)
		if err != nil {
			return nil, ChannelMetadata{}, err
		}
		if found {
			return copyBlob(blob), ChannelMetadata{
				LastModifiedMessageID: meta.LastModifiedMessageID,
				ParentChannelID:       inh.ParentChannelID,
			}, nil
		}
	}

	return nil, ChannelMetadata{LastModifiedMessageID: nil}, nil
}
