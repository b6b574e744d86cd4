package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bobuk/yewcal/internal/importer"
)

const googleSourceName = "googlecal"

// GoogleSource reads upcoming events from one Google calendar.
type GoogleSource struct {
	service    *gcal.Service
	calendarID string
	now        func() time.Time
}

func NewGoogleSource(ctx context.Context, client *http.Client, calendarID string, now func() time.Time, opts ...option.ClientOption) (*GoogleSource, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleSource{service: service, calendarID: calendarID, now: now}, nil
}

func (g *GoogleSource) Name() string { return googleSourceName }

// Events lists single instances that have not ended yet, in start order.
func (g *GoogleSource) Events(ctx context.Context, limit int) ([]importer.ExternalEvent, error) {
	call := g.service.Events.List(g.calendarID).
		Context(ctx).
		TimeMin(g.now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if limit > 0 {
		call = call.MaxResults(int64(limit))
	}
	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]importer.ExternalEvent, 0, len(events.Items))
	for _, item := range events.Items {
		ev, err := googleEvent(item, events.TimeZone)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return upcoming(result, time.Time{}, limit), nil
}

// googleEvent converts an API event. The start's own zone wins over the
// calendar zone.
func googleEvent(item *gcal.Event, calendarZone string) (importer.ExternalEvent, error) {
	ev := importer.ExternalEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Timezone:    calendarZone,
		Repeats:     importer.RepeatsFromRecurrence(item.Recurrence),
	}
	if item.Start == nil {
		return ev, fmt.Errorf("event %s has no start", item.Id)
	}
	if item.Start.TimeZone != "" {
		ev.Timezone = item.Start.TimeZone
	}

	var err error
	ev.Start, ev.AllDay, err = googleTime(item.Start)
	if err != nil {
		return ev, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	if item.End != nil {
		if ev.End, _, err = googleTime(item.End); err != nil {
			return ev, fmt.Errorf("event %s end: %w", item.Id, err)
		}
	}

	if item.ConferenceData != nil {
		raw, err := json.Marshal(item.ConferenceData)
		if err != nil {
			return ev, fmt.Errorf("event %s conference data: %w", item.Id, err)
		}
		if err := json.Unmarshal(raw, &ev.Data); err != nil {
			return ev, fmt.Errorf("event %s conference data: %w", item.Id, err)
		}
	}
	return ev, nil
}

func googleTime(dt *gcal.EventDateTime) (time.Time, bool, error) {
	switch {
	case dt.DateTime != "":
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t, false, err
	case dt.Date != "":
		t, err := time.Parse(time.DateOnly, dt.Date)
		return t, true, err
	}
	return time.Time{}, false, errors.New("neither dateTime nor date is set")
}
