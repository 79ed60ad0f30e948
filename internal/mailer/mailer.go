package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTP wraps one reusable go-mail client. Built once at bootstrap and shared;
// callers never construct their own transport.
type SMTP struct {
	client *mail.Client
	from   string
}

func NewSMTP(host string, port int, user, pass, from string) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(pass),
		)
	}
	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{client: c, from: from}, nil
}

func (s *SMTP) Send(ctx context.Context, to, subject, html string) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return err
	}
	if err := m.To(to); err != nil {
		return err
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)
	return s.client.DialAndSendWithContext(ctx, m)
}
