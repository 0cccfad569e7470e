// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendVerificationCode(toEmail, name, code string, ttl time.Duration) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: username,
		senderName:  senderName,
	}
}

// VerificationBody renders the HTML body of the sign-up verification email.
func VerificationBody(name, code string, ttl time.Duration) string {
	greeting := "Welcome to ProjectX!"
	if name != "" {
		greeting = fmt.Sprintf("Welcome to ProjectX, %s!", html.EscapeString(name))
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>Your verification code is:</p>
			<h1 style="color: #4CAF50; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in %d minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, greeting, code, int(ttl.Minutes()))
}

func (s *emailService) SendVerificationCode(toEmail, name, code string, ttl time.Duration) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Verification Code")
	m.SetBody("text/html", VerificationBody(name, code, ttl))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification code to %s: %w", toEmail, err)
	}

	return nil
}
