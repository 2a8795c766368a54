package email

import (
	"context"
	"fmt"
	"net/smtp"

	"golang.org/x/time/rate"

	"reviewhub/internal/config"
)

// CodeSender delivers a confirmation code to a user out-of-band. The transport
// and message content are a collaborator concern; only "a code reaches the
// user" matters to the registration flow.
type CodeSender interface {
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// SMTPSender sends confirmation codes over plain SMTP. Outbound sends are
// throttled so a burst of signups cannot flood the relay.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	limiter  *rate.Limiter
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	perSecond := rate.Limit(float64(cfg.MailPerMinute) / 60.0)
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		limiter:  rate.NewLimiter(perSecond, cfg.MailPerMinute),
	}
}

func (s *SMTPSender) SendConfirmationCode(ctx context.Context, to, username, code string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttle: %w", err)
	}

	subject := "Your reviewhub confirmation code"
	body := fmt.Sprintf(`Hi %s!

Thanks for signing up.

Exchange this confirmation code for an access token at /api/v1/auth/token:

%s

If you didn't sign up, ignore this email.
`, username, code)

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", s.from, to, subject, body)

	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
