// Package mailer delivers verification mail over SMTP.  The core never
// depends on the concrete client: handlers take the Mailer interface so
// tests can substitute a fake.
package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wneessen/go-mail"

	"github.com/tganiev/table-reservation/internal/config"
)

// Mailer sends a verification token to a freshly registered address.
// A send failure must be reported to the caller: the account stays
// unverified until a mail actually went out and was acted on.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, token string) error
}

// SMTP is the production Mailer backed by go-mail.
type SMTP struct {
	host    string
	port    int
	user    string
	pass    string
	from    string
	baseURL string
}

func NewSMTP(cfg config.Config) *SMTP {
	return &SMTP{
		host:    cfg.SMTPHost,
		port:    cfg.SMTPPort,
		user:    cfg.SMTPUser,
		pass:    cfg.SMTPPass,
		from:    cfg.MailFrom,
		baseURL: cfg.BaseURL,
	}
}

// SendVerification mails a confirmation link carrying the raw token.
// The connection is dialed per send; registration volume does not
// justify a held-open SMTP session.
func (m *SMTP) SendVerification(ctx context.Context, to, username, token string) error {
	opts := []mail.Option{mail.WithPort(m.port)}
	if m.user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.user),
			mail.WithPassword(m.pass),
		)
	}
	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	link := fmt.Sprintf("%s/v1/auth/verify?email=%s&token=%s",
		m.baseURL, url.QueryEscape(to), url.QueryEscape(token))

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject("Confirm your email")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nfollow this link to confirm your email and activate your account:\n\n%s\n\nThe link is valid for one hour. If you did not register, ignore this message.\n",
		username, link))

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}
