// internal/notify/mailer.go
package notify

import (
	"context"
	"errors"
	"fmt"

	"loan-approval-api/internal/common/config"
	"loan-approval-api/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// SESService is the slice of the SES client the mailer uses, defined here
// for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer sends password-reset emails over SES. When SES is disabled in
// config the mailer logs the reset link instead, which keeps local
// development working without AWS credentials.
type Mailer struct {
	ses    SESService
	cfg    config.SESConfig
	logger logger.Logger
}

func NewMailer(sesClient SESService, cfg config.SESConfig, log logger.Logger) *Mailer {
	return &Mailer{
		ses:    sesClient,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "mailer"}),
	}
}

// SendPasswordReset emails a reset link for the given token.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s?token=%s", m.cfg.ResetURL, token)

	if !m.cfg.Enabled || m.ses == nil {
		m.logger.Info("email delivery disabled, reset link logged", map[string]interface{}{
			"to":   to,
			"link": link,
		})
		return nil
	}

	subject := "Password reset request"
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Use the link below to choose a new password. The link expires shortly.\n\n%s\n\n"+
			"If you did not request this, ignore this email.", link)

	_, err := m.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.cfg.Sender),
	})
	if err != nil {
		m.logger.Error("reset email send failed", map[string]interface{}{
			"to":    to,
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	m.logger.Info("reset email sent", map[string]interface{}{"to": to})
	return nil
}
