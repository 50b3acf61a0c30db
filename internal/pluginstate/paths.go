// Package pluginstate is the scoped state manager: it maps plugin state
// onto disk paths, caches blobs and event logs in memory, resolves channel
// inheritance, and replays epic event logs through a plugin-supplied
// reducer. It owns every file under {cacheDir}/plugins/ — no other
// package reads or writes those paths directly.
package pluginstate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Scope is the consistency model a piece of plugin state is stored under.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeChannel Scope = "channel"
	ScopeEpic    Scope = "epic"
)

// validIdentifier rejects path-traversal-shaped plugin/channel ids. Unlike
// util.SanitizeFilename (which silently rewrites unsafe characters), the
// state manager must reject them outright — a rewritten id would silently
// collide two distinct channels.
func validIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)
	}
	if strings.ContainsAny(id, "/\\\x00") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}

// globalPath returns the on-disk path for a plugin's global blob.
func globalPath(cacheDir, pluginID string) (string, error) {
	if err := validIdentifier(pluginID); err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "plugins", pluginID, "global.json"), nil
}

// channelPath returns the on-disk path for a plugin's channel blob.
func channelPath(cacheDir, pluginID, channelID string) (string, error) {
	if err := validIdentifier(pluginID); err != nil {
		return "", err
	}
	if err := validIdentifier(channelID); err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "plugins", pluginID, "channel", channelID+".json"), nil
}

// epicPath returns the on-disk path for a plugin's epic event log.
func epicPath(cacheDir, pluginID, channelID string) (string, error) {
	if err := validIdentifier(pluginID); err != nil {
		return "", err
	}
	if err := validIdentifier(channelID); err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "plugins", pluginID, "epic", channelID+".json"), nil
}
