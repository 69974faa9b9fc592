package providers

import (
	"context"
	"fmt"

	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/pkg/email"
)

// SendEmail delivers a rendered alert bulletin to the configured recipients.
func SendEmail(_ context.Context, alert models.Alert, htmlBody string, cfg config.Config) error {
	if cfg.Email.SMTPServer == "" || cfg.Email.SMTPPort == 0 || cfg.Email.Username == "" || cfg.Email.Password == "" {
		return fmt.Errorf("missing email configuration: SMTP server, port, username, or password is empty")
	}
	if len(cfg.Email.Recipients) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	err := email.Send(
		cfg.Email.SMTPServer, cfg.Email.SMTPPort,
		cfg.Email.Username, cfg.Email.Password, cfg.Email.FromName,
		cfg.Email.Recipients, alert.Subject, htmlBody,
	)
	if err != nil {
		return fmt.Errorf("failed to send alert email for %s: %w", alert.EpiWeek, err)
	}
	return nil
}
