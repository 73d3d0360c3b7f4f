package gateway

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/yumetria/tsudoi/internal/config"
)

// Mailer delivers action-link mail over SMTP. Callers invoke it from
// background goroutines; delivery failures are theirs to log.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(conf config.Mail) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(conf.SmtpHost, conf.SmtpPort, conf.SmtpUser, conf.SmtpPassword),
		from:   conf.From,
	}
}

func (m *Mailer) SendActivation(to string, actionLink string) error {
	body := fmt.Sprintf(`
		<h2>Activate your account</h2>
		<p>Hello,</p>
		<p>To finish setting up your account, follow the link below:</p>
		<p><a href="%s">Activate account</a></p>
	`, actionLink)
	return m.send(to, "Activate your account", body)
}

func (m *Mailer) SendRecovery(to string, actionLink string, os string, browser string) error {
	context := ""
	if os != "" || browser != "" {
		context = fmt.Sprintf("<p>This request came from %s on %s.</p>", browser, os)
	}
	body := fmt.Sprintf(`
		<h2>Recover your account</h2>
		<p>Hello,</p>
		<p>A password recovery was requested for this address. The link below is valid for 24 hours:</p>
		<p><a href="%s">Reset password</a></p>
		%s
		<p>If this wasn't you, you can ignore this mail.</p>
	`, actionLink, context)
	return m.send(to, "Recover your account", body)
}

func (m *Mailer) SendGroupInvite(to string, groupName string, actionLink string) error {
	body := fmt.Sprintf(`
		<h2>You've been invited</h2>
		<p>Hello,</p>
		<p>You have been invited to join the group <strong>%s</strong>. Follow the link below to accept:</p>
		<p><a href="%s">Accept invitation</a></p>
		<p>If you don't have an account yet, register first and then use the invitation.</p>
	`, groupName, actionLink)
	return m.send(to, fmt.Sprintf("Invitation to join %s", groupName), body)
}

func (m *Mailer) SendUserInvite(to string, inviterUsername string, actionLink string) error {
	body := fmt.Sprintf(`
		<h2>You've been invited</h2>
		<p>Hello,</p>
		<p><strong>%s</strong> invited you to join. Follow the link below to accept:</p>
		<p><a href="%s">Accept invitation</a></p>
		<p>If you don't have an account yet, register first and then use the invitation.</p>
	`, inviterUsername, actionLink)
	return m.send(to, fmt.Sprintf("%s invited you", inviterUsername), body)
}

func (m *Mailer) send(to string, subject string, body string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)
	return m.dialer.DialAndSend(message)
}
