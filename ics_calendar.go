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

	ical "github.com/arran4/golang-ical"

	"github.com/bobuk/yewcal/internal/config"
	"github.com/bobuk/yewcal/internal/importer"
	"github.com/bobuk/yewcal/internal/logging"
)

// ICSSource reads a published iCalendar feed over HTTP.
type ICSSource struct {
	client *http.Client
	name   string
	url    string
	now    func() time.Time
}

func NewICSSource(cfg config.ICSConfig, now func() time.Time) (*ICSSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("ics feed %s: url is empty", cfg.Name)
	}
	return &ICSSource{
		client: &http.Client{Timeout: 15 * time.Second},
		name:   cfg.Name,
		url:    cfg.URL,
		now:    now,
	}, nil
}

func (s *ICSSource) Name() string { return "ics:" + s.name }

func (s *ICSSource) Events(ctx context.Context, limit int) ([]importer.ExternalEvent, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	logger := logging.FromContext(ctx)
	var result []importer.ExternalEvent
	for _, ve := range cal.Events() {
		ev, err := icsEvent(ve)
		if err != nil {
			logger.Warn("skipping feed event", slog.String("feed", s.name), slog.Any("error", err))
			continue
		}
		result = append(result, ev)
	}
	return upcoming(result, s.now(), limit), nil
}

func (s *ICSSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read feed: %w", err)
	}
	if len(b) == 0 {
		return "", errors.New("empty ICS body")
	}
	return string(b), nil
}

// icsEvent converts a VEVENT. Overridden instances are rejected, their UID
// belongs to the recurring master.
func icsEvent(ve *ical.VEvent) (importer.ExternalEvent, error) {
	var ev importer.ExternalEvent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.ID = uid.Value
	if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
		return ev, fmt.Errorf("event %s: overridden instance", ev.ID)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.Repeats = importer.RepeatsFromRRule(p.Value)
	}

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return ev, fmt.Errorf("event %s: missing DTSTART", ev.ID)
	}
	ev.Timezone = icsParam(start, "TZID")
	ev.AllDay = strings.EqualFold(icsParam(start, "VALUE"), "DATE") || !strings.Contains(start.Value, "T")

	var err error
	if ev.AllDay {
		if ev.Start, err = time.Parse("20060102", start.Value); err != nil {
			return ev, fmt.Errorf("event %s start: %w", ev.ID, err)
		}
		if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
			ev.End, _ = time.Parse("20060102", end.Value)
		}
		return ev, nil
	}

	if ev.Start, err = ve.GetStartAt(); err != nil {
		if ev.Start, err = icsWallTime(start.Value); err != nil {
			return ev, fmt.Errorf("event %s start: %w", ev.ID, err)
		}
	}
	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil {
		if ev.End, err = ve.GetEndAt(); err != nil {
			ev.End, _ = icsWallTime(end.Value)
		}
	}
	return ev, nil
}

func icsParam(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// icsWallTime reads a date-time without its zone, for TZIDs the zone
// database does not know.
func icsWallTime(v string) (time.Time, error) {
	return time.Parse("20060102T150405", strings.TrimSuffix(strings.TrimSpace(v), "Z"))
}
