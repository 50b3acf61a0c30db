package pluginstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is the process-singleton State Store. Its in-memory
// caches are authoritative for the running process; the on-disk tree under
// {cacheDir}/plugins/ is the durability layer. One Store owns one cacheDir;
// running two processes against the same cacheDir is unsupported.
type Store struct {
	mu       sync.Mutex
	cacheDir string
	logger   *slog.Logger
	caches   map[string]*pluginCache // pluginID -> cache
}

// New creates a State Store rooted at cacheDir.
func New(cacheDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cacheDir: cacheDir,
		logger:   logger,
		caches:   make(map[string]*pluginCache),
	}
}

func (s *Store) cacheFor(pluginID string) *pluginCache {
	c, ok := s.caches[pluginID]
	if !ok {
		c = newPluginCache()
		s.caches[pluginID] = c
	}
	return c
}

// writeAtomic writes data to path via a temp sibling + rename, so a crash
// mid-write can never leave a half-written file behind.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrIOFailure, filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrIOFailure, path, err)
	}
	return nil
}

func readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %v", ErrIOFailure, path, err)
	}
	return data, true, nil
}

// GetGlobal returns a plugin's global blob, or nil if none has ever been set.
func (s *Store) GetGlobal(pluginID string) (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.cacheFor(pluginID)
	if cache.global.loaded {
		return cache.global.blob, nil
	}

	path, err := globalPath(s.cacheDir, pluginID)
	if err != nil {
		return nil, err
	}
	data, exists, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		cache.global = globalCacheEntry{blob: nil, loaded: true}
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrCorruptData, path)
	}
	cache.global = globalCacheEntry{blob: Blob(data), loaded: true}
	return cache.global.blob, nil
}

// SetGlobal writes a plugin's global blob to disk, then updates the cache so
// a subsequent read sees it; a failed write leaves the cache unchanged.
func (s *Store) SetGlobal(pluginID string, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := globalPath(s.cacheDir, pluginID)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, blob); err != nil {
		return err
	}
	s.cacheFor(pluginID).global = globalCacheEntry{blob: blob, loaded: true}
	return nil
}

// GetChannel returns a plugin's channel-scoped blob and metadata, applying
// Scope Resolver inheritance when the channel has no state of its own.
// A miss with no applicable inheritance returns
// (nil, {LastModifiedMessageID: nil}, nil) — not an error.
func (s *Store) GetChannel(pluginID, channelID string, inh Inheritance) (Blob, ChannelMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.cacheFor(pluginID)
	if entry, ok := cache.channel[channelID]; ok {
		return entry.blob, entry.metadata, nil
	}

	blob, meta, loaded, err := s.loadChannelFile(pluginID, channelID)
	if err != nil {
		return nil, ChannelMetadata{}, err
	}
	if loaded {
		cache.channel[channelID] = channelCacheEntry{blob: blob, metadata: meta, loaded: true}
		return blob, meta, nil
	}

	return s.resolveInheritance(pluginID, inh)
}

// loadChannelOrCache consults the cache first, falling back to disk,
// without triggering inheritance resolution (used internally to read a
// parent/history-origin channel's own file).
func (s *Store) loadChannelOrCache(pluginID, channelID string) (Blob, ChannelMetadata, bool, error) {
	cache := s.cacheFor(pluginID)
	if entry, ok := cache.channel[channelID]; ok {
		return entry.blob, entry.metadata, entry.loaded, nil
	}
	blob, meta, loaded, err := s.loadChannelFile(pluginID, channelID)
	if err != nil {
		return nil, ChannelMetadata{}, false, err
	}
	if loaded {
		cache.channel[channelID] = channelCacheEntry{blob: blob, metadata: meta, loaded: true}
	}
	return blob, meta, loaded, nil
}

func (s *Store) loadChannelFile(pluginID, channelID string) (Blob, ChannelMetadata, bool, error) {
	path, err := channelPath(s.cacheDir, pluginID, channelID)
	if err != nil {
		return nil, ChannelMetadata{}, false, err
	}
	data, exists, err := readFile(path)
	if err != nil {
		return nil, ChannelMetadata{}, false, err
	}
	if !exists {
		return nil, ChannelMetadata{}, false, nil
	}
	var cf channelFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, ChannelMetadata{}, false, fmt.Errorf("%w: %s: %v", ErrCorruptData, path, err)
	}
	return cf.State, cf.Metadata, true, nil
}

func copyBlob(b Blob) Blob {
	if b == nil {
		return nil
	}
	cp := make(Blob, len(b))
	copy(cp, b)
	return cp
}

// SetChannel writes a plugin's channel-scoped blob. messageID, if non-nil,
// is recorded as the new LastModifiedMessageID. Writing always creates a
// physical file for the channel; a parent reached via inheritance is never
// mutated.
func (s *Store) SetChannel(pluginID, channelID string, blob Blob, messageID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := channelPath(s.cacheDir, pluginID, channelID)
	if err != nil {
		return err
	}

	meta := ChannelMetadata{LastModifiedMessageID: messageID}
	cf := channelFile{State: blob, Metadata: meta}
	data, err := json.Marshal(cf)
	if err != nil {
		return fmt.Errorf("%w: marshal channel state: %v", ErrCorruptData, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}

	s.cacheFor(pluginID).channel[channelID] = channelCacheEntry{blob: blob, metadata: meta, loaded: true}
	return nil
}

// GetEvents returns a channel's epic EventLog, sorted by MessageID ascending.
func (s *Store) GetEvents(pluginID, channelID string) (EventLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEventsLocked(pluginID, channelID)
}

func (s *Store) getEventsLocked(pluginID, channelID string) (EventLog, error) {
	cache := s.cacheFor(pluginID)
	if log, ok := cache.events[channelID]; ok {
		return log, nil
	}

	path, err := epicPath(s.cacheDir, pluginID, channelID)
	if err != nil {
		return nil, err
	}
	data, exists, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var log EventLog
	if exists {
		if err := json.Unmarshal(data, &log); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptData, path, err)
		}
	}
	sortEvents(log)
	cache.events[channelID] = log
	return log, nil
}

func (s *Store) writeEventsLocked(pluginID, channelID string, log EventLog) error {
	path, err := epicPath(s.cacheDir, pluginID, channelID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("%w: marshal event log: %v", ErrCorruptData, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	s.cacheFor(pluginID).events[channelID] = log
	return nil
}

// AppendOrReplaceEvent appends a StateEvent to a channel's log, replacing
// any existing event for the same MessageID — at most one event exists per
// (channelID, messageID). The log is kept sorted by MessageID.
func (s *Store) AppendOrReplaceEvent(pluginID, channelID string, event StateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.getEventsLocked(pluginID, channelID)
	if err != nil {
		return err
	}

	replaced := false
	next := make(EventLog, 0, len(log)+1)
	for _, e := range log {
		if e.MessageID == event.MessageID {
			next = append(next, event)
			replaced = true
			continue
		}
		next = append(next, e)
	}
	if !replaced {
		next = append(next, event)
	}
	sortEvents(next)

	return s.writeEventsLocked(pluginID, channelID, next)
}

// ForkEvents copies every event with MessageID <= uptoMessageID from the
// parent channel's log into toChannelID's log.
// Subsequent appends to either log diverge independently.
func (s *Store) ForkEvents(pluginID, fromChannelID, toChannelID, uptoMessageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parentLog, err := s.getEventsLocked(pluginID, fromChannelID)
	if err != nil {
		return err
	}

	forked := make(EventLog, 0, len(parentLog))
	for _, e := range parentLog {
		if e.MessageID <= uptoMessageID {
			forked = append(forked, e)
		}
	}
	sortEvents(forked)

	return s.writeEventsLocked(pluginID, toChannelID, forked)
}
