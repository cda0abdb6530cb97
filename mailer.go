package auth

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the delivery settings for the SMTP mailer
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer delivers messages through an SMTP relay
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
	logger   Logger
}

// NewSMTPMailer builds a mailer from the given settings
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create SMTP client")
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		logger:   defLogger{},
	}, nil
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Send delivers the message through the configured relay
func (m *SMTPMailer) Send(ctx context.Context, msg MailMessage) error {
	mm := mail.NewMsg()

	var err error
	if m.fromName != "" {
		err = mm.FromFormat(m.fromName, m.from)
	} else {
		err = mm.From(m.from)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid mail sender address")
	}

	if msg.ToName != "" {
		err = mm.AddToFormat(msg.ToName, msg.To)
	} else {
		err = mm.To(msg.To)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid mail recipient address")
	}

	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		m.logger.Error("mailer failed to deliver message to %s: %v", msg.To, err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email")
	}

	return nil
}

var _ Mailer = (*SMTPMailer)(nil)

// DebugMailer writes messages to the log instead of delivering them.
// Used when no SMTP relay is configured.
type DebugMailer struct {
	Logger Logger
}

func (m DebugMailer) Send(_ context.Context, msg MailMessage) error {
	logger := m.Logger
	if logger == nil {
		logger = defLogger{}
	}

	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Println(print.MaybePrettyJSON(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
	}))
	fmt.Println("=========================================")
	logger.Info("debug mailer dropped message for %s (%s)", msg.To, msg.Subject)
	return nil
}

var _ Mailer = DebugMailer{}
