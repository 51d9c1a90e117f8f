package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("mailer not configured")

// Mailer sends account notifications over SMTP. With implicitTLS the
// connection is wrapped in TLS from the first byte (port 465 style);
// otherwise STARTTLS is negotiated when the server offers it.
type Mailer struct {
	host        string
	port        string
	username    string
	password    string
	from        string
	appName     string
	implicitTLS bool
	dialTimeout time.Duration
}

func NewMailer(host, port, username, password, from, appName string, implicitTLS bool) *Mailer {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = "Account"
	}
	return &Mailer{
		host:        strings.TrimSpace(host),
		port:        strings.TrimSpace(port),
		username:    username,
		password:    password,
		from:        strings.TrimSpace(from),
		appName:     appName,
		implicitTLS: implicitTLS,
		dialTimeout: 10 * time.Second,
	}
}

func (m *Mailer) SendPasswordResetCode(ctx context.Context, email, code string, ttl time.Duration) error {
	subject := fmt.Sprintf("Your %s password reset code", m.name())
	body := fmt.Sprintf("Use the following code to reset your password: %s\n\nThe code expires in %s. If you did not request this, ignore this email.", code, ttl.Round(time.Minute))
	return m.send(ctx, email, subject, body)
}

func (m *Mailer) SendPasswordChanged(ctx context.Context, email string) error {
	subject := fmt.Sprintf("Your %s password was changed", m.name())
	body := "The password for your account was just changed and every other signed-in device has been signed out.\n\nIf this was not you, reset your password immediately."
	return m.send(ctx, email, subject, body)
}

func (m *Mailer) name() string {
	if m == nil {
		return ""
	}
	return m.appName
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m == nil {
		return ErrNotConfigured
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return fmt.Errorf("%w: missing host, port or sender", ErrNotConfigured)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := buildMessage(m.from, to, subject, body)
	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if !m.implicitTLS {
		return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
	}

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
