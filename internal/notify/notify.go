// Package notify sends reminders about upcoming entries by mail, chat and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/dates"
	"github.com/bobuk/yewcal/internal/logging"
	"github.com/bobuk/yewcal/internal/render"
)

// ErrNotConfigured is returned when a channel has no sender.
var ErrNotConfigured = errors.New("notification channel not configured")

// Result is what a remote service answered. A rejected request is a Result
// with Delivered false, not an error.
type Result struct {
	Delivered  bool
	StatusCode int
	Body       string
}

func (r Result) String() string {
	return fmt.Sprintf("delivered=%t status=%d", r.Delivered, r.StatusCode)
}

// Message is a plain text mail.
type Message struct {
	To      []string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

type ChatPoster interface {
	Post(ctx context.Context, channel, text string) (Result, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (Result, error)
}

// Notifier routes reminders to the configured channels.
type Notifier struct {
	Mailer  Mailer
	Chat    ChatPoster
	SMS     SMSSender
	Email   string
	Mobile  string
	Channel string
}

// TodaysEvents returns today's entries ordered by start.
func TodaysEvents(entries []*calendar.Entry, env dates.Env) []*calendar.Entry {
	return calendar.SortByStart(calendar.Filter(entries, calendar.Today(env)))
}

// ImpendingEvents returns the entries starting within the next minutes.
func ImpendingEvents(entries []*calendar.Entry, env dates.Env, minutes int) []*calendar.Entry {
	return calendar.SortByStart(calendar.Filter(entries, calendar.Impending(env, minutes)))
}

// NotifyToday mails the list of today's entries.
func (n *Notifier) NotifyToday(ctx context.Context, entries []*calendar.Entry, env dates.Env) (Result, error) {
	if n.Mailer == nil {
		return Result{}, fmt.Errorf("mail: %w", ErrNotConfigured)
	}
	if n.Email == "" {
		return Result{}, fmt.Errorf("mail: %w: no recipient address", ErrNotConfigured)
	}
	today := TodaysEvents(entries, env)
	body := render.Summary(today)
	if body == "" {
		body = "No events today.\n"
	}
	logging.FromContext(ctx).Debug("sending today's events", slog.Int("count", len(today)))
	return n.Mailer.Send(ctx, Message{
		To:      []string{n.Email},
		Subject: "Today's events",
		Text:    body,
	})
}

// Reminder is the chat and SMS text for one entry.
func Reminder(e *calendar.Entry) string {
	return fmt.Sprintf("%s at %s", e.Summary, e.Dt.Format(time.RFC3339))
}

// NotifyImpending posts one chat message per impending entry and, with sms,
// texts it as well. It stops at the first transport error.
func (n *Notifier) NotifyImpending(ctx context.Context, entries []*calendar.Entry, env dates.Env, minutes int, sms bool) ([]Result, error) {
	if n.Chat == nil {
		return nil, fmt.Errorf("chat: %w", ErrNotConfigured)
	}
	if sms && (n.SMS == nil || n.Mobile == "") {
		return nil, fmt.Errorf("sms: %w", ErrNotConfigured)
	}
	logger := logging.FromContext(ctx)
	var results []Result
	for _, e := range ImpendingEvents(entries, env, minutes) {
		text := Reminder(e)
		r, err := n.Chat.Post(ctx, n.Channel, text)
		if err != nil {
			return results, fmt.Errorf("post reminder for %s: %w", e.ShortID(), err)
		}
		logger.Debug("chat reminder", slog.String("uid", e.UID), slog.Bool("delivered", r.Delivered))
		results = append(results, r)
		if !sms {
			continue
		}
		r, err = n.SMS.SendSMS(ctx, n.Mobile, text)
		if err != nil {
			return results, fmt.Errorf("text reminder for %s: %w", e.ShortID(), err)
		}
		logger.Debug("sms reminder", slog.String("uid", e.UID), slog.Bool("delivered", r.Delivered))
		results = append(results, r)
	}
	return results, nil
}
