package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/dates"
)

type capturedRequest struct {
	Path     string
	Form     map[string][]string
	User     string
	Pass     string
	HasAuth  bool
	AuthHead string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			t.Errorf("parse form: %v", err)
		}
		user, pass, ok := r.BasicAuth()
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			Path: r.URL.Path, Form: r.PostForm, User: user, Pass: pass, HasAuth: ok,
			AuthHead: r.Header.Get("Authorization"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func formValue(form map[string][]string, key string) string {
	if len(form[key]) == 0 {
		return ""
	}
	return form[key][0]
}

func TestMailgun_Send(t *testing.T) {
	t.Parallel()

	srv, reqs := newServer(t, http.StatusOK, `{"id":"<1@mg>","message":"Queued. Thank you."}`)
	m := &Mailgun{APIURL: srv.URL + "/v3/mg.example.com/", APIKey: "key-abc", From: "info@example.com", Client: srv.Client()}

	r, err := m.Send(context.Background(), Message{To: []string{"me@example.com"}, Subject: "Today's events", Text: "09:30 standup\n"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !r.Delivered || r.StatusCode != http.StatusOK || !strings.Contains(r.Body, "Queued") {
		t.Fatalf("unexpected result %+v", r)
	}
	got := (*reqs)[0]
	if got.Path != "/v3/mg.example.com/messages" {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if !got.HasAuth || got.User != "api" || got.Pass != "key-abc" {
		t.Fatalf("unexpected basic auth %q:%q", got.User, got.Pass)
	}
	if formValue(got.Form, "to") != "me@example.com" || formValue(got.Form, "from") != "info@example.com" ||
		formValue(got.Form, "text") != "09:30 standup\n" {
		t.Fatalf("unexpected form %v", got.Form)
	}
}

func TestMailgun_RejectedIsNotAnError(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t, http.StatusUnauthorized, "Forbidden")
	m := &Mailgun{APIURL: srv.URL + "/v3/mg.example.com", APIKey: "bad", From: "info@example.com", Client: srv.Client()}
	r, err := m.Send(context.Background(), Message{To: []string{"me@example.com"}, Subject: "s", Text: "t"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if r.Delivered || r.StatusCode != http.StatusUnauthorized || r.Body != "Forbidden" {
		t.Fatalf("unexpected result %+v", r)
	}

	if _, err := (&Mailgun{}).Send(context.Background(), Message{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := (&Mailgun{APIURL: "https://api.mailgun.net", APIKey: "k"}).Send(context.Background(), Message{}); err == nil {
		t.Fatalf("expected an error for a URL without domain")
	}
}

func TestSlack_Post(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"accepted", http.StatusOK, `{"ok":true,"channel":"C1","ts":"1710406800.000100"}`, true, false},
		{"rejected in body", http.StatusOK, `{"ok":false,"error":"channel_not_found"}`, false, false},
		{"server error", http.StatusInternalServerError, `oops`, false, false},
		{"unparseable", http.StatusOK, `<html>`, false, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, reqs := newServer(t, tc.status, tc.body)
			s := &Slack{APIURL: srv.URL + "/api", Token: "xoxb-1", Client: srv.Client()}
			r, err := s.Post(context.Background(), "#random", "standup at 09:30")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", r)
				}
				return
			}
			if err != nil {
				t.Fatalf("Post returned error: %v", err)
			}
			if r.Delivered != tc.want || r.StatusCode != tc.status {
				t.Fatalf("unexpected result %+v", r)
			}
			got := (*reqs)[0]
			if got.Path != "/api/chat.postMessage" {
				t.Fatalf("unexpected path %q", got.Path)
			}
			if got.AuthHead != "Bearer xoxb-1" && formValue(got.Form, "token") != "xoxb-1" {
				t.Fatalf("token not sent: %+v", got)
			}
			if formValue(got.Form, "channel") != "#random" || formValue(got.Form, "text") != "standup at 09:30" {
				t.Fatalf("unexpected form %v", got.Form)
			}
		})
	}

	if _, err := (&Slack{}).Post(context.Background(), "#random", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTwilio_SendSMS(t *testing.T) {
	t.Parallel()

	srv, reqs := newServer(t, http.StatusCreated, `{"sid":"SM1","status":"queued"}`)
	tw := &Twilio{APIURL: srv.URL, AccountSID: "AC123", AuthToken: "tok", From: "+15550000", Client: srv.Client()}
	r, err := tw.SendSMS(context.Background(), "+447700900000", "standup")
	if err != nil {
		t.Fatalf("SendSMS returned error: %v", err)
	}
	if !r.Delivered || r.Body != "SM1" {
		t.Fatalf("expected delivery, got %+v", r)
	}
	got := (*reqs)[0]
	if got.Path != "/2010-04-01/Accounts/AC123/Messages.json" || got.User != "AC123" || got.Pass != "tok" {
		t.Fatalf("unexpected request %+v", got)
	}
	if formValue(got.Form, "To") != "+447700900000" || formValue(got.Form, "From") != "+15550000" || formValue(got.Form, "Body") != "standup" {
		t.Fatalf("unexpected form %v", got.Form)
	}

	srv, _ = newServer(t, http.StatusBadRequest, `{"code":21211,"message":"Invalid 'To' Phone Number","status":400}`)
	tw.APIURL, tw.Client = srv.URL, srv.Client()
	r, err = tw.SendSMS(context.Background(), "bogus", "x")
	if err != nil || r.Delivered || r.StatusCode != http.StatusBadRequest || !strings.Contains(r.Body, "Invalid") {
		t.Fatalf("expected undelivered result, got %+v, %v", r, err)
	}

	if _, err := (&Twilio{}).SendSMS(context.Background(), "+447700900000", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSMTP_Validation(t *testing.T) {
	t.Parallel()

	if _, err := (&SMTP{}).Send(context.Background(), Message{To: []string{"me@example.com"}}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	s := &SMTP{Host: "localhost", Port: 2525, From: "not an address"}
	if _, err := s.Send(context.Background(), Message{To: []string{"me@example.com"}}); err == nil {
		t.Fatalf("expected invalid sender error")
	}
	s.From = "cal@example.com"
	m, err := s.message(Message{To: []string{"me@example.com"}, Subject: "Today's events", Text: "body"})
	if err != nil {
		t.Fatalf("message returned error: %v", err)
	}
	if got := m.GetTo(); len(got) != 1 || got[0].Address != "me@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
}

type fakeMailer struct{ sent []Message }

func (f *fakeMailer) Send(_ context.Context, msg Message) (Result, error) {
	f.sent = append(f.sent, msg)
	return Result{Delivered: true, StatusCode: 200}, nil
}

type fakeChat struct {
	channels, texts []string
	err             error
}

func (f *fakeChat) Post(_ context.Context, channel, text string) (Result, error) {
	if f.err != nil {
		return Result{}, f.err
	}
	f.channels = append(f.channels, channel)
	f.texts = append(f.texts, text)
	return Result{Delivered: true, StatusCode: 200}, nil
}

type fakeSMS struct{ to, bodies []string }

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) (Result, error) {
	f.to = append(f.to, to)
	f.bodies = append(f.bodies, body)
	return Result{Delivered: true, StatusCode: 201}, nil
}

func fixture(t *testing.T) (dates.Env, []*calendar.Entry) {
	t.Helper()
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, london)
	env := dates.Env{Now: func() time.Time { return now }, Location: london, Zone: "Europe/London"}
	entry := func(id, summary string, at time.Time) *calendar.Entry {
		return &calendar.Entry{UID: id + "-0000-4000-8000-000000000000", Summary: summary, Dt: at, Timezone: "Europe/London"}
	}
	return env, []*calendar.Entry{
		entry("00000001", "lunch", now.Add(3*time.Hour)),
		entry("00000002", "standup", now.Add(10*time.Minute)),
		entry("00000003", "tomorrow thing", now.Add(24*time.Hour)),
		entry("00000004", "breakfast", now.Add(-time.Hour)),
	}
}

func TestNotifyToday(t *testing.T) {
	t.Parallel()

	env, entries := fixture(t)
	mailer := &fakeMailer{}
	n := &Notifier{Mailer: mailer, Email: "me@example.com"}
	r, err := n.NotifyToday(context.Background(), entries, env)
	if err != nil || !r.Delivered {
		t.Fatalf("NotifyToday = %+v, %v", r, err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.Subject != "Today's events" || msg.To[0] != "me@example.com" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Text != "08:00 breakfast\n09:10 standup\n12:00 lunch\n" {
		t.Fatalf("unexpected body %q", msg.Text)
	}

	if _, err := (&Notifier{}).NotifyToday(context.Background(), entries, env); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := (&Notifier{Mailer: mailer}).NotifyToday(context.Background(), entries, env); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without recipient, got %v", err)
	}
}

func TestNotifyImpending(t *testing.T) {
	t.Parallel()

	env, entries := fixture(t)
	chat, sms := &fakeChat{}, &fakeSMS{}
	n := &Notifier{Chat: chat, SMS: sms, Mobile: "+447700900000", Channel: "#random"}

	results, err := n.NotifyImpending(context.Background(), entries, env, 15, false)
	if err != nil {
		t.Fatalf("NotifyImpending returned error: %v", err)
	}
	if len(results) != 1 || len(chat.texts) != 1 || len(sms.bodies) != 0 {
		t.Fatalf("expected a single chat reminder, got %d results %v %v", len(results), chat.texts, sms.bodies)
	}
	if chat.channels[0] != "#random" || chat.texts[0] != "standup at 2024-03-14T09:10:00Z" {
		t.Fatalf("unexpected reminder %q to %q", chat.texts[0], chat.channels[0])
	}

	results, err = n.NotifyImpending(context.Background(), entries, env, 240, true)
	if err != nil {
		t.Fatalf("NotifyImpending returned error: %v", err)
	}
	if len(results) != 4 || len(sms.bodies) != 2 || sms.to[0] != "+447700900000" {
		t.Fatalf("expected chat and sms for two entries, got %d results, sms %v", len(results), sms.bodies)
	}

	if results, err := n.NotifyImpending(context.Background(), entries, env, 0, false); err != nil || len(results) != 0 {
		t.Fatalf("zero window must send nothing, got %v, %v", results, err)
	}

	boom := errors.New("boom")
	failing := &Notifier{Chat: &fakeChat{err: boom}}
	if _, err := failing.NotifyImpending(context.Background(), entries, env, 15, false); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, err := (&Notifier{Chat: chat}).NotifyImpending(context.Background(), entries, env, 15, true); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for sms, got %v", err)
	}
}
