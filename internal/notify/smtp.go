package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"text/template"
	"time"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/resilience"
	"brokerage-chat/backend/shared/observability"

	"github.com/go-mail/mail/v2"
)

const smtpTimeout = 10 * time.Second

var leadBody = template.Must(template.New("lead").Parse(`A visitor started a chat on the website.

Name:    {{.Name}}
Email:   {{.Email}}
Phone:   {{.Phone}}
Session: {{.ID}}
Started: {{.CreatedAt.Format "2006-01-02 15:04 MST"}}
`))

// SMTPNotifier mails each lead to the office inbox
type SMTPNotifier struct {
	cfg     config.SMTPConfig
	breaker *resilience.CircuitBreaker

	// tlsConfig is used for STARTTLS and implicit TLS on port 465
	tlsConfig *tls.Config
}

// NewSMTPNotifier creates a notifier guarded by its own circuit breaker
func NewSMTPNotifier(cfg config.SMTPConfig, log *logger.Logger) *SMTPNotifier {
	bc := resilience.DefaultConfig("smtp")
	bc.Timeout = 15 * time.Second
	return &SMTPNotifier{
		cfg:       cfg,
		breaker:   resilience.New(bc, log),
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
	}
}

func (n *SMTPNotifier) NotifyNewLead(ctx context.Context, session *models.ChatSession) error {
	msg, err := buildMessage(n.cfg.From, n.cfg.To, session)
	if err != nil {
		return err
	}

	err = n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.send(ctx, msg)
	})
	if err != nil {
		observability.RecordNotification("failed")
		return fmt.Errorf("send lead notification: %w", err)
	}
	observability.RecordNotification("sent")
	return nil
}

// dialer upgrades plain connections with STARTTLS when the relay offers it.
// Credentials are never sent in the clear: with a username configured the
// upgrade is mandatory.
func (n *SMTPNotifier) dialer(ctx context.Context) *mail.Dialer {
	d := mail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	d.TLSConfig = n.tlsConfig
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	if n.cfg.Username != "" {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	d.RetryFailure = false
	d.Timeout = smtpTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d.Timeout {
			d.Timeout = left
		}
	}
	return d
}

func (n *SMTPNotifier) send(ctx context.Context, msg *mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.dialer(ctx).DialAndSend(msg)
}

func buildMessage(from string, to []string, session *models.ChatSession) (*mail.Message, error) {
	var body bytes.Buffer
	if err := leadBody.Execute(&body, session); err != nil {
		return nil, fmt.Errorf("render lead body: %w", err)
	}

	m := mail.NewMessage(mail.SetEncoding(mail.Unencoded))
	m.SetHeader("From", from)
	// SetHeader encodes values in place
	m.SetHeader("To", append([]string(nil), to...)...)
	m.SetHeader("Reply-To", session.Email)
	m.SetHeader("Subject", "New chat lead: "+session.Name)
	m.SetBody("text/plain", body.String())

	return m, nil
}
