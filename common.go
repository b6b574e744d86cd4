package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/config"
	"github.com/bobuk/yewcal/internal/dates"
	"github.com/bobuk/yewcal/internal/logging"
	"github.com/bobuk/yewcal/internal/prompt"
	"github.com/bobuk/yewcal/internal/state"
	"github.com/bobuk/yewcal/internal/tz"
)

// app is the state shared by every command once the root flags are parsed.
type app struct {
	opts  rootOptions
	user  string
	debug bool

	out       io.Writer
	paths     config.Paths
	settings  *config.Settings
	prefs     *config.Preferences
	prefsPath string
	resolver  *tz.Resolver
	env       dates.Env
	dates     *dates.Interpreter
	term      *prompt.Terminal
	logger    *slog.Logger
	db        *state.DB
}

func (a *app) init(cmd *cobra.Command) error {
	if a.user == "" {
		a.user = calendar.CurrentUser()
	}
	a.out = cmd.OutOrStdout()
	a.logger = logging.New(cmd.ErrOrStderr(), a.debug)
	cmd.SetContext(logging.ContextWithLogger(cmd.Context(), a.logger))

	a.paths = config.NewPaths(a.opts.home, a.user)
	settings, err := config.LoadSettings(a.paths.Settings)
	if err != nil {
		return err
	}
	a.settings = settings

	prefs, used, err := config.LoadPreferences(config.PreferenceDirs(a.opts.home)...)
	if err != nil {
		return err
	}
	a.prefs, a.prefsPath = prefs, used

	a.resolver = tz.NewResolver(a.opts.zones)
	loc, zone, err := a.defaultZone()
	if err != nil {
		return err
	}
	now := a.opts.now
	if now == nil {
		now = time.Now
	}
	a.env = dates.Env{Now: now, Location: loc, Zone: zone}
	a.dates = &dates.Interpreter{Parser: a.opts.parser, Resolver: a.resolver, Env: a.env}
	a.term = prompt.New(cmd.InOrStdin(), a.out)

	a.logger.Debug("initialized",
		slog.String("user", a.user),
		slog.String("events", a.paths.Events),
		slog.String("preferences", a.prefsPath),
		slog.String("zone", zone))
	return nil
}

// defaultZone resolves the configured zone, or the process zone when none is
// configured.
func (a *app) defaultZone() (*time.Location, string, error) {
	name := a.prefs.DefaultTimezone
	if name == "" {
		name = a.opts.localZone
	}
	if name == "" {
		name = "UTC"
	}
	loc, canonical, err := a.resolver.Location(name)
	if err == nil {
		return loc, canonical, nil
	}
	if fallback, lerr := time.LoadLocation(name); lerr == nil {
		a.logger.Debug("zone not in database, loaded directly", slog.String("zone", name))
		return fallback, name, nil
	}
	return nil, "", fmt.Errorf("default timezone: %w", err)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func (a *app) openStore() (*calendar.Store, error) {
	return calendar.Open(a.paths.Events, a.env.Now)
}

func (a *app) builder() *calendar.Builder {
	return &calendar.Builder{Dates: a.dates, User: a.user}
}

// openState opens the sqlite state database once per command.
func (a *app) openState(ctx context.Context) (*state.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := a.paths.Ensure(); err != nil {
		return nil, err
	}
	db, err := state.Open(ctx, a.paths.State)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) googleOAuthConfig() (*oauth2.Config, error) {
	g := a.prefs.Google
	if g.ClientID == "" || g.ClientSecret == "" {
		return nil, fmt.Errorf("google: client_id and client_secret must be set in %s", config.PreferencesFilename)
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}, nil
}

func (a *app) getTokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(a.out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	code, err := a.term.Prompt("Authorization code", "")
	if err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	if code == "" {
		return nil, errors.New("empty authorization code")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("retrieve token from web: %w", err)
	}
	return tok, nil
}

func (a *app) authorize(ctx context.Context, cfg *oauth2.Config, db *state.DB, account string) (*http.Client, error) {
	tok, err := a.getTokenFromWeb(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.SaveToken(ctx, account, tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return cfg.Client(ctx, tok), nil
}

// getClient returns an authorized client for account, asking for a new token
// when none is stored or the stored one was revoked. Refreshed tokens are
// written back.
func (a *app) getClient(ctx context.Context, cfg *oauth2.Config, db *state.DB, account string) (*http.Client, error) {
	tok, err := db.Token(ctx, account)
	if errors.Is(err, state.ErrNoToken) {
		a.printVerbosely(1, "  ❗️ No token found for account %s. Obtaining a new token.\n", account)
		return a.authorize(ctx, cfg, db, account)
	}
	if err != nil {
		return nil, err
	}

	fresh, err := cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		if strings.Contains(err.Error(), "expired or revoked") {
			a.printVerbosely(1, "  ❗️ Token expired or revoked for account %s. Obtaining a new token.\n", account)
			return a.authorize(ctx, cfg, db, account)
		}
		return nil, fmt.Errorf("refresh token for account %s: %w", account, err)
	}
	if fresh.AccessToken != tok.AccessToken {
		a.printVerbosely(2, "Token refreshed for account %s.\n", account)
		if err := db.SaveToken(ctx, account, fresh); err != nil {
			return nil, fmt.Errorf("save token: %w", err)
		}
	}
	return cfg.Client(ctx, fresh), nil
}

// printVerbosely prints progress lines up to the configured verbosity_level:
//
//	0 - nothing but errors
//	1 - what is being done
//	2 - every event touched
//	3 - everything
func (a *app) printVerbosely(verbosity int, format string, args ...any) {
	if verbosity <= a.prefs.VerbosityLevel {
		fmt.Fprintf(a.out, format, args...)
	}
}
