package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends verification and password-reset mail over SMTP. A nil or
// unconfigured Mailer is a no-op, matching deployments that run without a
// mail server.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string

	clientAddress string
}

func NewMailer(host string, port int, username, password, from, clientAddress string) *Mailer {
	return &Mailer{
		host:          host,
		port:          port,
		username:      username,
		password:      password,
		from:          from,
		clientAddress: clientAddress,
	}
}

// Enabled reports whether SMTP is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.Enabled() {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return dialer.DialAndSend(msg)
}

// SendVerification mails the account verification link.
func (m *Mailer) SendVerification(to, name, token string) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Verify your account: <a href=%q>verify</a></p>",
		name,
		fmt.Sprintf("%s/verify-email?token=%s&email=%s", m.clientAddress, token, to),
	)
	return m.send(to, "Verify your account", body)
}

// SendPasswordReset mails the password reset token.
func (m *Mailer) SendPasswordReset(to, name, token string) error {
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Reset your password: <a href=%q>reset</a></p><p>The link expires in 15 minutes.</p>",
		name,
		fmt.Sprintf("%s/reset-password?token=%s&email=%s", m.clientAddress, token, to),
	)
	return m.send(to, "Reset your password", body)
}
