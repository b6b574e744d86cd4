// Package importer offers events from an external calendar one at a time
// and stores the accepted ones.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/logging"
	"github.com/bobuk/yewcal/internal/tz"
)

// ExternalEvent is an event as read from a provider.
type ExternalEvent struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Repeats     calendar.Repeats
	// Timezone is the provider's zone name; empty means the default zone.
	Timezone string
	Data     map[string]any
}

// Duration is End minus Start, or zero when End is missing or not after Start.
func (e ExternalEvent) Duration() time.Duration {
	if e.End.IsZero() || !e.End.After(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Source is an external calendar provider.
type Source interface {
	// Name is stored as the source of imported entries.
	Name() string
	Events(ctx context.Context, limit int) ([]ExternalEvent, error)
}

type Confirmer interface {
	Confirm(label string) (bool, error)
}

// Recorder keeps a log of imported events.
type Recorder interface {
	RecordImport(ctx context.Context, source, externalID, uid string, at time.Time) error
}

// Report counts what happened during a run.
type Report struct {
	Offered  int
	Imported int
	Skipped  int
	Rejected int
}

// Importer runs the interactive import loop.
type Importer struct {
	Store    *calendar.Store
	Builder  *calendar.Builder
	Confirm  Confirmer
	Recorder Recorder
	Out      io.Writer
}

// Run fetches up to limit events from src. Events whose id is already stored
// as an external id, or was already offered during this run, are skipped.
// Each remaining event is shown and, when confirmed, stored.
func (im *Importer) Run(ctx context.Context, src Source, limit int) (Report, error) {
	var report Report
	logger := logging.FromContext(ctx)

	events, err := src.Events(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("fetch %s events: %w", src.Name(), err)
	}
	logger.Debug("fetched external events", slog.String("source", src.Name()), slog.Int("count", len(events)))

	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if existing := im.Store.FindExternal(ev.ID); existing != nil || seen[ev.ID] {
			report.Skipped++
			if existing != nil {
				fmt.Fprintf(im.Out, "skipping existing event: %s\n", existing)
			} else {
				fmt.Fprintf(im.Out, "skipping repeated event: %s\n", ev.ID)
			}
			continue
		}
		seen[ev.ID] = true
		report.Offered++

		start := ev.Start.Format(time.RFC3339)
		if ev.AllDay {
			start = ev.Start.Format("2006-01-02") + " (all day)"
		}
		fmt.Fprintln(im.Out)
		fmt.Fprintf(im.Out, "Summary     : %s\n", ev.Summary)
		fmt.Fprintf(im.Out, "Start       : %s\n", start)
		fmt.Fprintf(im.Out, "Timezone    : %s\n", ev.Timezone)

		ok, err := im.Confirm.Confirm("Take this event?")
		if err != nil {
			return report, err
		}
		if !ok {
			report.Rejected++
			fmt.Fprintln(im.Out, "SKIPPING")
			continue
		}

		entry, err := im.build(ev, src.Name())
		if err != nil {
			return report, fmt.Errorf("build entry for %s: %w", ev.ID, err)
		}
		if _, _, err := im.Store.Upsert(entry); err != nil {
			return report, err
		}
		report.Imported++
		fmt.Fprintf(im.Out, "TAKING: %s\n", entry)

		if im.Recorder != nil {
			if err := im.Recorder.RecordImport(ctx, src.Name(), ev.ID, entry.UID, entry.Created); err != nil {
				logger.Warn("failed to record import", slog.String("external_id", ev.ID), slog.Any("error", err))
			}
		}
	}
	return report, nil
}

// build turns ev into an entry. A zone the resolver does not know falls back
// to the default zone. All-day events start at midnight of their date in the
// entry zone.
func (im *Importer) build(ev ExternalEvent, source string) (*calendar.Entry, error) {
	if ev.AllDay {
		ev.Start, ev.End, ev.Timezone = im.allDay(ev)
	}
	p := calendar.NewEntry{
		Summary:     ev.Summary,
		Description: ev.Description,
		At:          ev.Start,
		Timezone:    ev.Timezone,
		Repeats:     ev.Repeats,
		ExternalID:  ev.ID,
		Source:      source,
		Data:        ev.Data,
	}
	if !ev.End.IsZero() && !ev.End.Before(ev.Start) {
		d := ev.Duration()
		p.Duration = &d
	}
	entry, err := im.Builder.Build(p)
	if errors.Is(err, tz.ErrNotFound) && p.Timezone != "" {
		p.Timezone = ""
		entry, err = im.Builder.Build(p)
	}
	return entry, err
}

func (im *Importer) allDay(ev ExternalEvent) (start, end time.Time, zone string) {
	d := im.Builder.Dates
	zone = ev.Timezone
	loc, canonical, err := d.Resolver.Location(zone)
	if err != nil || zone == "" {
		loc, canonical, err = d.Resolver.Location(d.Env.Zone)
		if err != nil {
			return ev.Start, ev.End, ev.Timezone
		}
	}
	y, m, day := ev.Start.Date()
	start = time.Date(y, m, day, 0, 0, 0, 0, loc)
	days := 1
	if ev.End.After(ev.Start) {
		days = int(ev.End.Sub(ev.Start).Round(24*time.Hour) / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
	}
	return start, start.AddDate(0, 0, days), canonical
}
