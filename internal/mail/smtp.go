package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"friendsvc/internal/config"
)

// SMTPSender delivers messages over plain SMTP. Configuration:
//   - SMTP_ADDR (default "localhost:25")
//   - SMTP_FROM (default "no-reply@localhost")
//   - SMTP_USER / SMTP_PASSWORD (optional PLAIN auth)
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender() *SMTPSender {
	addr := config.Getenv("SMTP_ADDR", "localhost:25")
	s := &SMTPSender{
		addr: addr,
		from: config.Getenv("SMTP_FROM", "no-reply@localhost"),
	}
	if user := config.Getenv("SMTP_USER", ""); user != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i != -1 {
			host = addr[:i]
		}
		s.auth = smtp.PlainAuth("", user, config.Getenv("SMTP_PASSWORD", ""), host)
	}
	return s
}

// Send renders and delivers one OTP mail.
func (s *SMTPSender) Send(msg Message) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\nYour one-time passcode is %d.\r\nIt expires once used.\r\n",
		s.from, msg.To, msg.Subject, msg.Code,
	)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}
