package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/metrics"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
)

// Sender is the part of *mail.Client the notifier needs.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPOption func(*SMTPNotifier)

type SMTPNotifier struct {
	sender     Sender
	from       string
	expiresIn  string
	maxRetries uint64
	baseDelay  time.Duration
	metrics    *metrics.Metrics
}

// NewSMTPClient builds a go-mail client from config. Port 465 uses implicit
// TLS; other ports require STARTTLS.
func NewSMTPClient(cfg config.SMTPConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return mail.NewClient(cfg.Host, opts...)
}

func NewSMTPNotifier(sender Sender, from string, m *metrics.Metrics, opts ...SMTPOption) *SMTPNotifier {
	n := &SMTPNotifier{
		sender:     sender,
		from:       from,
		expiresIn:  "1 hour",
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		metrics:    m,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WithRetry sets how many times a failed delivery is retried and the first
// backoff delay.
func WithRetry(maxRetries uint64, baseDelay time.Duration) SMTPOption {
	return func(n *SMTPNotifier) {
		n.maxRetries = maxRetries
		if baseDelay > 0 {
			n.baseDelay = baseDelay
		}
	}
}

// WithExpiryText sets the lifetime shown in the email body.
func WithExpiryText(expiresIn string) SMTPOption {
	return func(n *SMTPNotifier) {
		if expiresIn != "" {
			n.expiresIn = expiresIn
		}
	}
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	msg, err := n.buildResetMessage(to, resetURL)
	if err != nil {
		n.record(metrics.OutcomeError)
		return err
	}

	attempt := 0
	backoff := retry.WithMaxRetries(n.maxRetries, retry.NewExponential(n.baseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if sendErr := n.sender.DialAndSendWithContext(ctx, msg); sendErr != nil {
			logrus.WithError(sendErr).
				WithField("attempt", attempt).
				Warn("smtp delivery attempt failed")
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		n.record(metrics.OutcomeError)
		return fmt.Errorf("send password reset email: %w", err)
	}

	n.record(metrics.OutcomeSuccess)
	return nil
}

func (n *SMTPNotifier) buildResetMessage(to, resetURL string) (*mail.Msg, error) {
	body, err := renderResetEmail(resetURL, n.expiresIn)
	if err != nil {
		return nil, fmt.Errorf("render reset email: %w", err)
	}

	msg := mail.NewMsg()
	if err = msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err = msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, err.Error())
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (n *SMTPNotifier) record(outcome string) {
	if n.metrics != nil {
		n.metrics.RecordMailDelivery(KindPasswordReset, outcome)
	}
}
