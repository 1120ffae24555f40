package services

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailService sends transactional mail over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

func NewEmailService(server string, port int, username, password, from string, log zerolog.Logger) *EmailService {
	return &EmailService{
		dialer: gomail.NewDialer(server, port, username, password),
		from:   from,
		log:    log,
	}
}

// Send delivers a single HTML email.
func (s *EmailService) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendVerificationOTP emails the six digit signup code. The code expires
// thirty minutes after issue.
func (s *EmailService) SendVerificationOTP(to, firstName, otp string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify your email</h2>
  <p>Hi %s,</p>
  <p>Thank you for registering with SmartDoc. Use the code below to verify your email address:</p>
  <h1 style="letter-spacing: 8px; text-align: center;">%s</h1>
  <p>This code expires in 30 minutes.</p>
  <p>If you did not create an account, you can safely ignore this email.</p>
</div>`, firstName, otp)
	return s.Send(to, "Verify your SmartDoc account", body)
}

// SendPasswordResetOTP emails the password reset code, valid for one hour.
func (s *EmailService) SendPasswordResetOTP(to, firstName, otp string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password reset requested</h2>
  <p>Hi %s,</p>
  <p>We received a request to reset your SmartDoc password. Use this code:</p>
  <h1 style="letter-spacing: 8px; text-align: center;">%s</h1>
  <p>This code expires in 1 hour. If you did not request a reset, ignore this email and your password will stay unchanged.</p>
</div>`, firstName, otp)
	return s.Send(to, "Reset your SmartDoc password", body)
}

// SendDoctorWelcome notifies a doctor created from a hospital roster upload.
// The account ships with a temporary password and pending status.
func (s *EmailService) SendDoctorWelcome(to, firstName, hospitalName, tempPassword string) error {
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to SmartDoc</h2>
  <p>Hi %s,</p>
  <p>%s has added you as a doctor on SmartDoc. Sign in with your email address and the temporary password below, then change it immediately:</p>
  <p style="text-align: center; font-size: 18px;"><strong>%s</strong></p>
</div>`, firstName, hospitalName, tempPassword)
	return s.Send(to, "You have been added to SmartDoc", body)
}
