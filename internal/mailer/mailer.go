package mailer

import (
	"bytes"
	"embed"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer renders a named HTML template and delivers it to one recipient.
type Mailer interface {
	Send(to, subject, templateName string, data map[string]string) error
}

type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	templates *template.Template
}

func NewSMTPMailer(server string, port int, username, password, from string) (*SMTPMailer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")

	if err != nil {
		return nil, err
	}

	return &SMTPMailer{
		dialer:    gomail.NewDialer(server, port, username, password),
		from:      from,
		templates: templates,
	}, nil
}

func (m *SMTPMailer) Send(to, subject, templateName string, data map[string]string) error {
	var body bytes.Buffer

	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.from, "Team Devevents")
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body.String())

	return m.dialer.DialAndSend(message)
}
