// Package email delivers contact-form messages to the site owner over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// Owner receives contact messages.
	Owner string
}

// ContactMessage is a message left by a visitor.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
	SentAt  time.Time
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != "" && s.config.Owner != ""
}

// SendContactMessage forwards a visitor message to the owner with Reply-To
// set to the visitor.
func (s *Service) SendContactMessage(msg ContactMessage) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	msg.Name = headerValue(msg.Name)
	msg.Email = headerValue(msg.Email)
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	html, err := renderTemplate(contactTemplate, msg)
	if err != nil {
		return fmt.Errorf("render contact template: %w", err)
	}

	subject := "New message from " + msg.Name
	payload := s.compose([]string{s.config.Owner}, subject, msg.Email, msg.Message, html)
	if err := s.send(s.server, s.auth, s.config.From, []string{s.config.Owner}, payload); err != nil {
		return fmt.Errorf("send contact message: %w", err)
	}
	return nil
}

func (s *Service) compose(to []string, subject, replyTo, textBody, htmlBody string) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", headerValue(s.config.FromName), s.config.From)
	}

	boundary := "boundary-portfolio-contact"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	if replyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", textBody)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// headerValue drops line breaks so user input cannot add headers.
func headerValue(value string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(value))
}

func renderTemplate(tmpl string, data any) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const contactTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New contact message</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .message { white-space: pre-wrap; background: #f6f8fa; padding: 12px; border-radius: 4px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>New contact message</h1>
    </div>

    <p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; wrote:</p>

    <div class="message">{{.Message}}</div>

    <div class="footer">
        <p>Sent {{.SentAt.Format "Jan 2, 2006 15:04 MST"}}. Reply to this email to answer.</p>
    </div>
</body>
</html>`
