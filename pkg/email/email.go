package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender delivers plain-text mail over SMTP.
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSender(host string, port int, sender, password string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, sender, password),
		from:   sender,
	}
}

// Send delivers a single plain-text message.
func (s *Sender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
