package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Twilio sends text messages through the Messages resource.
type Twilio struct {
	APIURL     string
	AccountSID string
	AuthToken  string
	From       string
	Client     *http.Client
}

// apiHost sends the SDK's requests to base, bound to ctx. The generated
// Twilio services have a fixed host and take no context.
type apiHost struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (h apiHost) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(h.ctx)
	r.URL.Scheme, r.URL.Host, r.Host = h.base.Scheme, h.base.Host, ""
	return h.next.RoundTrip(r)
}

func (t *Twilio) rest(ctx context.Context) (*twilio.RestClient, error) {
	next := http.DefaultTransport
	if t.Client != nil && t.Client.Transport != nil {
		next = t.Client.Transport
	}
	httpClient := &http.Client{Transport: next}
	if t.APIURL != "" {
		base, err := url.Parse(strings.TrimRight(t.APIURL, "/"))
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("invalid Twilio API URL %q", t.APIURL)
		}
		httpClient.Transport = apiHost{ctx: ctx, base: base, next: next}
	}

	c := &twclient.Client{
		Credentials: twclient.NewCredentials(t.AccountSID, t.AuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(t.AccountSID)
	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}), nil
}

// SendSMS implements SMSSender. Errors reported by the API come back as
// undelivered Results.
func (t *Twilio) SendSMS(ctx context.Context, to, body string) (Result, error) {
	if t.AccountSID == "" || t.AuthToken == "" {
		return Result{}, fmt.Errorf("twilio: %w: account sid or auth token is empty", ErrNotConfigured)
	}
	rest, err := t.rest(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("twilio: %w", err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.From)
	params.SetBody(body)
	msg, err := rest.Api.CreateMessage(params)
	var rejected *twclient.TwilioRestError
	if errors.As(err, &rejected) {
		return Result{StatusCode: rejected.Status, Body: rejected.Message}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("twilio: %w", err)
	}
	r := Result{Delivered: true, StatusCode: http.StatusCreated}
	if msg.Sid != nil {
		r.Body = *msg.Sid
	}
	return r, nil
}
