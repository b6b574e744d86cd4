package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bobuk/yewcal/internal/config"
	"github.com/bobuk/yewcal/internal/importer"
)

// googleAccount keys the stored OAuth token.
const googleAccount = "google"

// googleSource authorizes against Google, prompting for a code when no
// usable token is stored.
func (a *app) googleSource(ctx context.Context) (importer.Source, error) {
	cfg, err := a.googleOAuthConfig()
	if err != nil {
		return nil, err
	}
	db, err := a.openState(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.getClient(ctx, cfg, db, googleAccount)
	if err != nil {
		return nil, err
	}
	return NewGoogleSource(ctx, client, a.prefs.Google.CalendarID, a.env.Now, a.opts.googleOptions...)
}

// caldavSource builds the source for a configured server. The name may be
// omitted when exactly one server is configured.
func (a *app) caldavSource(name string) (importer.Source, error) {
	name, err := pickConfigured("CalDAV server", "caldav", name, keys(a.prefs.CalDAVs))
	if err != nil {
		return nil, err
	}
	server := a.prefs.CalDAVs[name]
	if server.Name == "" {
		server.Name = name
	}
	return NewCalDAVSource(server, a.env.Now)
}

func (a *app) icsSource(name string) (importer.Source, error) {
	name, err := pickConfigured("ICS feed", "ics", name, keys(a.prefs.Feeds))
	if err != nil {
		return nil, err
	}
	feed := a.prefs.Feeds[name]
	if feed.Name == "" {
		feed.Name = name
	}
	return NewICSSource(feed, a.env.Now)
}

func pickConfigured(kind, section, name string, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no %s configured; add a [%s.<name>] section to %s", kind, section, config.PreferencesFilename)
	}
	if name == "" {
		if len(names) > 1 {
			return "", fmt.Errorf("several %ss configured, pick one of: %s", kind, strings.Join(names, ", "))
		}
		return names[0], nil
	}
	for _, n := range names {
		if n == name {
			return n, nil
		}
	}
	return "", fmt.Errorf("%s '%s' not found in configuration", kind, name)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
