package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/selvaggiesteban/form-tester/internal/config"
)

// Mailer errors.
var (
	// ErrHardBounce means the server permanently rejected the recipient.
	// The address must be suppressed and never contacted again.
	ErrHardBounce = errors.New("recipient permanently rejected")

	// ErrNotConfigured means SMTP settings are incomplete.
	ErrNotConfigured = errors.New("smtp is not configured")
)

// Message is one outgoing email.
type Message struct {
	// To is the recipient address.
	To string

	// Subject is the subject line.
	Subject string

	// Body is the plain-text body.
	Body string
}

// Mailer sends messages through one SMTP account.
//
// Design decision: We drive the SMTP conversation command by command
// instead of using smtp.SendMail because the caller needs to know WHICH
// command failed. A 55x reply to RCPT is a hard bounce that feeds the
// suppression list; the same code during DATA is a content rejection and
// must not suppress the address.
type Mailer struct {
	cfg config.SMTPConfig

	// dialTimeout bounds the TCP connect.
	dialTimeout time.Duration
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithDialTimeout sets the TCP connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(m *Mailer) {
		m.dialTimeout = d
	}
}

// New creates a Mailer for the given SMTP account.
func New(cfg config.SMTPConfig, opts ...Option) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = config.DefaultSMTPPort
	}

	m := &Mailer{
		cfg:         cfg,
		dialTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Send delivers one message. It returns ErrHardBounce (wrapped) when the
// recipient is permanently rejected, and other errors for transient or
// configuration failures.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Configured() {
		return ErrNotConfigured
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer client.Close()

	// STARTTLS when the server offers it. Plain submission ports
	// require it before AUTH anyway.
	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	if m.cfg.User != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("sender rejected: %w", err)
	}

	if err := client.Rcpt(msg.To); err != nil {
		if isPermanentReject(err) {
			return fmt.Errorf("%w: %s: %v", ErrHardBounce, msg.To, err)
		}
		return fmt.Errorf("recipient rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data command failed: %w", err)
	}
	if _, err := w.Write(buildMessage(m.cfg.FromEmail, msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	return client.Quit()
}

// isPermanentReject reports whether an SMTP error is a permanent (5xx)
// recipient rejection.
func isPermanentReject(err error) bool {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		return proto.Code >= 500 && proto.Code < 600
	}
	return false
}

// buildMessage renders the RFC 5322 wire form of a message.
func buildMessage(from string, msg Message) []byte {
	var sb strings.Builder

	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	sb.WriteString("\r\n")

	return []byte(sb.String())
}

// sanitizeHeader strips CR and LF so message fields cannot inject
// additional headers.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
