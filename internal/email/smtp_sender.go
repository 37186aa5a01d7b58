package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// excerptRunes limita cuánto del texto original viaja en el correo.
const excerptRunes = 280

// SMTPSender envía avisos de riesgo vía SMTP a un destinatario fijo.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	to       string
	useTLS   bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName, to string, useTLS bool) (*SMTPSender, error) {
	switch {
	case strings.TrimSpace(host) == "":
		return nil, errors.New("smtp host is required")
	case strings.TrimSpace(from) == "":
		return nil, errors.New("smtp from is required")
	case strings.TrimSpace(to) == "":
		return nil, errors.New("alert recipient is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		to:       to,
		useTLS:   useTLS,
	}, nil
}

// SendRiskAlert entrega el aviso; con useTLS abre TLS implícito respetando el deadline de ctx.
func (s *SMTPSender) SendRiskAlert(ctx context.Context, alert RiskAlert) error {
	msg := []byte(buildMessage(s.from, s.fromName, s.to, riskSubject(alert), riskBody(alert)))
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if !s.useTLS {
		if err := smtp.SendMail(addr, auth, s.from, []string{s.to}, msg); err != nil {
			return fmt.Errorf("send risk alert: %w", err)
		}
		return nil
	}
	if err := s.sendTLS(ctx, addr, auth, msg); err != nil {
		return fmt.Errorf("send risk alert over tls: %w", err)
	}
	return nil
}

func (s *SMTPSender) sendTLS(ctx context.Context, addr string, auth smtp.Auth, msg []byte) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(s.to); err != nil {
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

func riskSubject(alert RiskAlert) string {
	return fmt.Sprintf("Risk phrase detected (%s)", alert.Emotion)
}

func riskBody(alert RiskAlert) string {
	detected := alert.DetectedAt
	if detected.IsZero() {
		detected = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "A diary entry matched the risk lexicon at %s UTC.\n", detected.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Emotion: %s\n", alert.Emotion)
	fmt.Fprintf(&b, "Phrase: %q\n", alert.Phrase)
	if alert.EntryID != "" {
		fmt.Fprintf(&b, "Entry: %s\n", alert.EntryID)
	}
	if excerpt := truncateRunes(alert.Excerpt, excerptRunes); excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", excerpt)
	}
	return b.String()
}

func truncateRunes(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "..."
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}
