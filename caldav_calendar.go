package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/bobuk/yewcal/internal/config"
	"github.com/bobuk/yewcal/internal/importer"
)

// defaultHorizonDays bounds the CalDAV query when the server config has none.
const defaultHorizonDays = 30

// CalDAVSource reads events from one calendar collection on a CalDAV server.
type CalDAVSource struct {
	client  *caldav.Client
	name    string
	path    string
	horizon time.Duration
	now     func() time.Time
}

func NewCalDAVSource(cfg config.CalDAVConfig, now func() time.Time) (*CalDAVSource, error) {
	baseURL, err := url.Parse(cfg.ServerURL)
	if err != nil || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid CalDAV server URL %q", cfg.ServerURL)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if cfg.Username != "" && cfg.Password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	}
	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	days := cfg.HorizonDays
	if days <= 0 {
		days = defaultHorizonDays
	}
	return &CalDAVSource{
		client:  c,
		name:    cfg.Name,
		path:    cfg.CalendarPath,
		horizon: time.Duration(days) * 24 * time.Hour,
		now:     now,
	}, nil
}

func (c *CalDAVSource) Name() string { return "caldav:" + c.name }

// calendarPath returns the configured collection, or the first calendar the
// server reports for the authenticated user.
func (c *CalDAVSource) calendarPath(ctx context.Context) (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	calendars, err := c.client.FindCalendars(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	for _, cal := range calendars {
		if len(cal.SupportedComponentSet) == 0 || containsFold(cal.SupportedComponentSet, ical.CompEvent) {
			c.path = cal.Path
			return c.path, nil
		}
	}
	return "", errors.New("no event calendar found on server")
}

func (c *CalDAVSource) Events(ctx context.Context, limit int) ([]importer.ExternalEvent, error) {
	path, err := c.calendarPath(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: now,
				End:   now.Add(c.horizon),
			}},
		},
	}
	objects, err := c.client.QueryCalendar(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []importer.ExternalEvent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		evs, err := caldavEvents(obj.Data.Component)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", obj.Path, err)
		}
		result = append(result, evs...)
	}
	return upcoming(result, now, limit), nil
}

// caldavEvents converts the VEVENT children of a VCALENDAR. Overridden
// instances of a recurring event share its UID and are skipped.
func caldavEvents(cal *ical.Component) ([]importer.ExternalEvent, error) {
	var result []importer.ExternalEvent
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent || comp.Props.Get(ical.PropRecurrenceID) != nil {
			continue
		}
		ev := importer.ExternalEvent{
			ID:          getTextProp(comp.Props, ical.PropUID),
			Summary:     getTextProp(comp.Props, ical.PropSummary),
			Description: getTextProp(comp.Props, ical.PropDescription),
			Repeats:     importer.RepeatsFromRRule(getTextProp(comp.Props, ical.PropRecurrenceRule)),
		}
		start := comp.Props.Get(ical.PropDateTimeStart)
		if start == nil {
			return nil, fmt.Errorf("event %s has no DTSTART", ev.ID)
		}
		ev.Timezone = start.Params.Get(ical.ParamTimezoneID)
		ev.AllDay = start.ValueType() == ical.ValueDate || !strings.Contains(start.Value, "T")

		var err error
		if ev.Start, err = caldavTime(start); err != nil {
			return nil, fmt.Errorf("event %s start: %w", ev.ID, err)
		}
		if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
			if ev.End, err = caldavTime(end); err != nil {
				return nil, fmt.Errorf("event %s end: %w", ev.ID, err)
			}
		} else if d := comp.Props.Get(ical.PropDuration); d != nil {
			dur, err := d.Duration()
			if err != nil {
				return nil, fmt.Errorf("event %s duration: %w", ev.ID, err)
			}
			ev.End = ev.Start.Add(dur)
		}
		result = append(result, ev)
	}
	return result, nil
}

// caldavTime reads a date or date-time. A TZID the zone database does not
// know is dropped and the value read as UTC.
func caldavTime(prop *ical.Prop) (time.Time, error) {
	t, err := prop.DateTime(time.UTC)
	if err == nil || prop.Params.Get(ical.ParamTimezoneID) == "" {
		return t, err
	}
	bare := *prop
	bare.Params = make(ical.Params)
	if v := prop.Params.Get(ical.ParamValue); v != "" {
		bare.Params.Set(ical.ParamValue, v)
	}
	return bare.DateTime(time.UTC)
}

func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
