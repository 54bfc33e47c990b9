// Package mail is the e-mail transport collaborator. Its only job is to
// deliver short one-time tokens to a registered address over SMTP.
package mail

import (
	"fmt"
	netmail "net/mail"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender sends plain-text mail through an authenticated STARTTLS
// session. It satisfies token.Sender.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers a single message. Failures are reported to the caller; the
// core deliberately does not roll back token issuance on a failed send.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// ValidateAddress checks e-mail address syntax. It returns nil for a valid
// bare address and a user-friendly error otherwise. Deliverability is not
// checked; a typo in the domain surfaces later as a delivery failure.
func ValidateAddress(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("e-mail address is empty")
	}

	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("e-mail address %q is not valid", email)
	}
	// Reject "Name <addr>" forms: the store keeps bare addresses only.
	if addr.Address != email {
		return fmt.Errorf("e-mail address %q is not valid", email)
	}
	return nil
}
