// File: /services/email_service.go
package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
	"minisocial-api/config"
)

// EmailService sends account mail over SMTP. A nil *EmailService sends nothing.
type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
	send   func(m ...*gomail.Message) error
}

// NewEmailService returns nil when no SMTP host is configured.
func NewEmailService(cfg *config.Config) *EmailService {
	if cfg.SMTPHost == "" {
		return nil
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &EmailService{
		config: cfg,
		dialer: dialer,
		send:   dialer.DialAndSend,
	}
}

func (es *EmailService) welcomeMessage(email string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Welcome to %s", es.config.FromName))

	textBody := fmt.Sprintf(`
Hello!

Your %[1]s account for %[2]s is ready. Share your first photo from the Upload tab
and set a username and bio on your profile.

The %[1]s Team

This is an automated email, please do not reply.
`, es.config.FromName, email)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Welcome to %[1]s!</h2>
    <p>Your account for <strong>%[2]s</strong> is ready.</p>
    <p>Share your first photo from the Upload tab and set a username and bio on your profile.</p>
    <p><strong>The %[1]s Team</strong></p>
</body>
</html>`, es.config.FromName, email)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)
	return m
}

// SendWelcomeEmail mails a greeting to a freshly registered address.
func (es *EmailService) SendWelcomeEmail(email string) error {
	if es == nil {
		return nil
	}
	if err := es.send(es.welcomeMessage(email)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("Welcome email sent to %s", email)
	return nil
}
