package mailer

import (
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Sender delivers a single HTML email. It reports success as a boolean and
// never propagates transport errors; callers translate false into a
// service-unavailable response.
type Sender interface {
	Send(to, subject, htmlBody string) bool
}

// SMTPSender sends mail over SMTP with STARTTLS and login auth.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logrus.Logger
}

func NewSMTPSender(host string, port int, username, password, from string, logger *logrus.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) bool {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.logger.WithError(err).Warnf("send email to %s failed", to)
		return false
	}
	return true
}

var _ Sender = (*SMTPSender)(nil)
