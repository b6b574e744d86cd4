package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTP) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	return mail.NewClient(s.Host, opts...)
}

func (s *SMTP) message(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	return m, nil
}

// Send implements Mailer. SMTP has no response body; a completed exchange
// counts as delivered.
func (s *SMTP) Send(ctx context.Context, msg Message) (Result, error) {
	if s.Host == "" {
		return Result{}, fmt.Errorf("smtp: %w: SMTP_HOST is empty", ErrNotConfigured)
	}
	m, err := s.message(msg)
	if err != nil {
		return Result{}, fmt.Errorf("smtp: %w", err)
	}
	c, err := s.client()
	if err != nil {
		return Result{}, fmt.Errorf("smtp: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return Result{}, fmt.Errorf("smtp: %w", err)
	}
	return Result{Delivered: true, StatusCode: 250}, nil
}
