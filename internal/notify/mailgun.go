package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends mail through the Mailgun messages API. The last path segment
// of APIURL names the sending domain, as in https://api.mailgun.net/v3/mg.example.com.
type Mailgun struct {
	APIURL string
	APIKey string
	From   string
	Client *http.Client
}

func (m *Mailgun) client() (*mailgun.MailgunImpl, error) {
	u, err := url.Parse(strings.TrimRight(m.APIURL, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid Mailgun API URL %q", m.APIURL)
	}
	domain := path.Base(u.Path)
	if domain == "." || domain == "/" {
		return nil, fmt.Errorf("no domain in Mailgun API URL %q", m.APIURL)
	}
	u.Path = strings.TrimRight(path.Dir(u.Path), "/")

	mg := mailgun.NewMailgun(domain, m.APIKey)
	mg.SetAPIBase(u.String())
	if m.Client != nil {
		mg.SetClient(m.Client)
	}
	return mg, nil
}

// Send implements Mailer. A reply outside 2xx is returned as an undelivered
// Result.
func (m *Mailgun) Send(ctx context.Context, msg Message) (Result, error) {
	if m.APIKey == "" {
		return Result{}, fmt.Errorf("mailgun: %w: MG_API_KEY is empty", ErrNotConfigured)
	}
	mg, err := m.client()
	if err != nil {
		return Result{}, fmt.Errorf("mailgun: %w", err)
	}

	status, id, err := mg.Send(ctx, mg.NewMessage(m.From, msg.Subject, msg.Text, msg.To...))
	var rejected *mailgun.UnexpectedResponseError
	if errors.As(err, &rejected) {
		return Result{StatusCode: rejected.Actual, Body: string(rejected.Data)}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("mailgun: %w", err)
	}
	return Result{Delivered: true, StatusCode: http.StatusOK, Body: strings.TrimSpace(status + " " + id)}, nil
}
