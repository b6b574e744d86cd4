// Package config locates the per-user data directory and loads the two
// configuration layers: settings (credentials and endpoints, JSON plus
// environment) and preferences (behaviour, TOML).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	EventsFilename   = "events.json"
	SettingsFilename = "settings.json"
	StateFilename    = "state.db"
)

// Paths holds every file location used for one user.
type Paths struct {
	User     string
	Dir      string
	Events   string
	Settings string
	State    string
}

// NewPaths lays out $home/.yew.d/<user>/cal/.
func NewPaths(home, user string) Paths {
	dir := filepath.Join(home, ".yew.d", user, "cal")
	return Paths{
		User:     user,
		Dir:      dir,
		Events:   filepath.Join(dir, EventsFilename),
		Settings: filepath.Join(dir, SettingsFilename),
		State:    filepath.Join(dir, StateFilename),
	}
}

// DefaultPaths uses the home directory of the current process.
func DefaultPaths(user string) (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("locate home directory: %w", err)
	}
	return NewPaths(home, user), nil
}

// Ensure creates the data directory.
func (p Paths) Ensure() error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p.Dir, err)
	}
	return nil
}
