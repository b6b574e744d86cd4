package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const PreferencesFilename = ".yewcal.toml"

type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	CalendarID   string `toml:"calendar_id"`
	MaxResults   int    `toml:"max_results"`
}

type CalDAVConfig struct {
	Name         string `toml:"name"`
	ServerURL    string `toml:"server_url"`
	CalendarPath string `toml:"calendar_path"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	HorizonDays  int    `toml:"horizon_days"`
}

type ICSConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Preferences tune behaviour rather than credentials.
type Preferences struct {
	DefaultTimezone  string                  `toml:"default_timezone"`
	ImpendingMinutes int                     `toml:"impending_minutes"`
	ChatChannel      string                  `toml:"chat_channel"`
	VerbosityLevel   int                     `toml:"verbosity_level"`
	Google           GoogleConfig            `toml:"google"`
	CalDAVs          map[string]CalDAVConfig `toml:"caldav"`
	Feeds            map[string]ICSConfig    `toml:"ics"`
}

// DefaultPreferences returns the values used when no file sets them.
func DefaultPreferences() *Preferences {
	return &Preferences{
		ImpendingMinutes: 15,
		ChatChannel:      "#random",
		VerbosityLevel:   1,
		Google: GoogleConfig{
			CalendarID: "primary",
			MaxResults: 10,
		},
		CalDAVs: map[string]CalDAVConfig{},
		Feeds:   map[string]ICSConfig{},
	}
}

// PreferenceDirs lists the directories searched for the preferences file:
// the working directory first, then $HOME/.config/yewcal.
func PreferenceDirs(home string) []string {
	return []string{".", filepath.Join(home, ".config", "yewcal")}
}

// LoadPreferences reads the first preferences file found in dirs. It returns
// the file used, or "" when none exists and defaults apply.
func LoadPreferences(dirs ...string) (*Preferences, string, error) {
	prefs := DefaultPreferences()
	for _, dir := range dirs {
		path := filepath.Join(dir, PreferencesFilename)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("read preferences %s: %w", path, err)
		}
		if _, err := toml.Decode(string(data), prefs); err != nil {
			return nil, "", fmt.Errorf("decode preferences %s: %w", path, err)
		}
		prefs.fill()
		return prefs, path, nil
	}
	return prefs, "", nil
}

func (p *Preferences) fill() {
	d := DefaultPreferences()
	if p.ImpendingMinutes <= 0 {
		p.ImpendingMinutes = d.ImpendingMinutes
	}
	if p.ChatChannel == "" {
		p.ChatChannel = d.ChatChannel
	}
	if p.Google.CalendarID == "" {
		p.Google.CalendarID = d.Google.CalendarID
	}
	if p.Google.MaxResults <= 0 {
		p.Google.MaxResults = d.Google.MaxResults
	}
	for name, c := range p.CalDAVs {
		if c.HorizonDays <= 0 {
			c.HorizonDays = 30
		}
		if c.Name == "" {
			c.Name = name
		}
		p.CalDAVs[name] = c
	}
	for name, f := range p.Feeds {
		if f.Name == "" {
			f.Name = name
			p.Feeds[name] = f
		}
	}
}
