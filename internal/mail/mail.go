// Package mail sends the account verification email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const verificationSubject = "Verify your Gyma account"

var verificationTemplate = template.Must(template.New("verify").Parse(`<html>
  <body>
    <h1 style="color: #4e496f;">Verify Your Gyma Account</h1>
    <p>Thank you for registering at Gyma. Please confirm your email address by clicking on the button below:</p>
    <table cellspacing="0" cellpadding="0"><tr>
      <td align="center" width="200" height="40" bgcolor="#4e496f" style="display: block;">
        <a href="{{.Link}}" style="font-size: 16px; font-family: Helvetica, Arial, sans-serif; color: #ffffff; text-decoration: none; line-height:40px; width:100%; display:inline-block"><span style="color: #ffffff;">Verify Email</span></a>
      </td>
    </tr></table>
    <p>If you did not request this verification, please ignore this email.</p>
    <br>
    <p>If you cannot click the button, please copy and paste the URL below into your browser:</p>
    <p>{{.Link}}</p>
  </body>
</html>
`))

// Config holds the SMTP settings.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SenderName string
	Domain     string
	WebsiteURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through an SMTP relay. smtp.SendMail upgrades
// the connection with STARTTLS whenever the server offers it.
type SMTPMailer struct {
	cfg  Config
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// VerificationLink is the URL the user follows to verify their address.
func (m *SMTPMailer) VerificationLink(code string) string {
	return strings.TrimRight(m.cfg.WebsiteURL, "/") + "/verify/" + code
}

// SendVerification mails the verification link for code to the recipient.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, code string) error {
	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ Link string }{m.VerificationLink(code)}); err != nil {
		return fmt.Errorf("render verification mail: %w", err)
	}

	msg := m.buildMessage(to, verificationSubject, body.String())
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.Username, []string{to}, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send verification mail", "to", to, "err", err)
		return fmt.Errorf("send mail: %w", err)
	}
	slog.InfoContext(ctx, "verification mail sent", "to", to)
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, html string) []byte {
	from := m.cfg.Username
	if m.cfg.SenderName != "" {
		from = mime.QEncoding.Encode("utf-8", m.cfg.SenderName) + " <" + m.cfg.Username + ">"
	}

	var b strings.Builder
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"Message-ID", "<" + uuid.NewString() + "@" + m.cfg.Domain + ">"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
		{"Content-Transfer-Encoding", "8bit"},
	}
	for _, h := range headers {
		b.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(html, "\n", "\r\n"))
	return []byte(b.String())
}

// NoopMailer logs the verification link instead of sending it. Used when no
// SMTP host is configured.
type NoopMailer struct {
	WebsiteURL string
}

// SendVerification logs the link.
func (n NoopMailer) SendVerification(ctx context.Context, to, code string) error {
	link := strings.TrimRight(n.WebsiteURL, "/") + "/verify/" + code
	slog.InfoContext(ctx, "mail disabled, verification link not sent", "to", to, "link", link)
	return nil
}
