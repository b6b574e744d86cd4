package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
)

// Slack posts messages with chat.postMessage.
type Slack struct {
	APIURL   string
	Token    string
	Username string
	Client   *http.Client
}

// Post implements ChatPoster. Slack answers 200 even for rejected messages;
// those and non-200 replies come back as undelivered Results.
func (s *Slack) Post(ctx context.Context, channel, text string) (Result, error) {
	if s.Token == "" {
		return Result{}, fmt.Errorf("slack: %w: SLACK_TOKEN is empty", ErrNotConfigured)
	}
	opts := []slack.Option{slack.OptionAPIURL(strings.TrimRight(s.APIURL, "/") + "/")}
	if s.Client != nil {
		opts = append(opts, slack.OptionHTTPClient(s.Client))
	}
	msg := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if s.Username != "" {
		msg = append(msg, slack.MsgOptionUsername(s.Username))
	}

	ch, ts, err := slack.New(s.Token, opts...).PostMessageContext(ctx, channel, msg...)
	var (
		status   slack.StatusCodeError
		rejected slack.SlackErrorResponse
	)
	switch {
	case errors.As(err, &status):
		return Result{StatusCode: status.Code, Body: status.Status}, nil
	case errors.As(err, &rejected):
		return Result{StatusCode: http.StatusOK, Body: rejected.Err}, nil
	case err != nil:
		return Result{}, fmt.Errorf("slack: %w", err)
	}
	return Result{Delivered: true, StatusCode: http.StatusOK, Body: strings.TrimSpace(ch + " " + ts)}, nil
}
