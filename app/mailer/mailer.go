package mailer

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"

	"github.com/roadhelper/user-service/config"
)

// Mailer sends a single HTML message. Implementations must be safe for
// concurrent use; the service dispatches sends from short-lived goroutines.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%q <%s>", m.cfg.From, m.cfg.Email)
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(htmlBody)

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	auth := smtp.PlainAuth("", m.cfg.Email, m.cfg.Password, m.cfg.Host)
	return e.Send(addr, auth)
}
