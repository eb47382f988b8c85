package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/moviehub/theater-api/internal/logging"
)

// Service sends transactional account emails over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	logger       *logging.Logger
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string, logger *logging.Logger) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

// SendActivationEmail sends the account activation link.
// Designed to be called in a goroutine.
func (s *Service) SendActivationEmail(ctx context.Context, toEmail, token string) error {
	activationLink := fmt.Sprintf("%s/activate?token=%s", s.frontendURL, token)

	body, err := renderTemplate(activationTemplate, map[string]string{"Link": activationLink})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Activate your MovieHub account", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("activation email sent", "email", toEmail)
	return nil
}

// SendActivationCompleteEmail confirms a successful activation.
func (s *Service) SendActivationCompleteEmail(ctx context.Context, toEmail string) error {
	body, err := renderTemplate(activationCompleteTemplate, nil)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Your MovieHub account is active", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("activation complete email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends the password reset link.
// Designed to be called in a goroutine.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	body, err := renderTemplate(passwordResetTemplate, map[string]string{"Link": resetLink})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Reset your MovieHub password", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// SendPasswordResetCompleteEmail confirms a completed password reset.
func (s *Service) SendPasswordResetCompleteEmail(ctx context.Context, toEmail string) error {
	body, err := renderTemplate(passwordResetCompleteTemplate, nil)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Your MovieHub password was changed", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("password reset complete email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const emailStyle = `
<style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #B91C1C; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
    .content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
    .button { display: inline-block; background-color: #B91C1C; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
    .footer { margin-top: 20px; font-size: 12px; color: #777; text-align: center; }
</style>`

const activationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + emailStyle + `</head>
<body>
    <div class="header"><h1>Welcome to MovieHub</h1></div>
    <div class="content">
        <p>Thanks for signing up. Click the button below to activate your account:</p>
        <p style="text-align: center;"><a href="{{.Link}}" class="button">Activate Account</a></p>
        <p>This link expires in 24 hours. If you did not create an account, you can ignore this email.</p>
    </div>
    <div class="footer">MovieHub — movie tickets made simple</div>
</body>
</html>`

const activationCompleteTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + emailStyle + `</head>
<body>
    <div class="header"><h1>Account activated</h1></div>
    <div class="content">
        <p>Your MovieHub account is now active. You can log in and start booking tickets.</p>
    </div>
    <div class="footer">MovieHub — movie tickets made simple</div>
</body>
</html>`

const passwordResetTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + emailStyle + `</head>
<body>
    <div class="header"><h1>Password reset</h1></div>
    <div class="content">
        <p>We received a request to reset your password. Click the button below to choose a new one:</p>
        <p style="text-align: center;"><a href="{{.Link}}" class="button">Reset Password</a></p>
        <p>This link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>
    </div>
    <div class="footer">MovieHub — movie tickets made simple</div>
</body>
</html>`

const passwordResetCompleteTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + emailStyle + `</head>
<body>
    <div class="header"><h1>Password changed</h1></div>
    <div class="content">
        <p>Your MovieHub password was just changed. If this was not you, request a password reset immediately.</p>
    </div>
    <div class="footer">MovieHub — movie tickets made simple</div>
</body>
</html>`
