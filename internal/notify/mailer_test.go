// internal/notify/mailer_test.go
package notify

import (
	"context"
	"testing"

	"loan-approval-api/internal/common/config"
	"loan-approval-api/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	lastInput *ses.SendEmailInput
	err       error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

func testSESConfig() config.SESConfig {
	return config.SESConfig{
		Enabled:  true,
		Region:   "us-east-1",
		Sender:   "no-reply@example.com",
		ResetURL: "https://example.com/reset-password",
	}
}

func TestMailer_SendPasswordReset(t *testing.T) {
	mock := &mockSES{}
	mailer := NewMailer(mock, testSESConfig(), logger.NewTestLogger(t))

	err := mailer.SendPasswordReset(context.Background(), "jane@example.com", "token-123")
	require.NoError(t, err)

	require.NotNil(t, mock.lastInput)
	assert.Equal(t, []string{"jane@example.com"}, mock.lastInput.Destination.ToAddresses)
	assert.Equal(t, "no-reply@example.com", *mock.lastInput.Source)
	assert.Contains(t, *mock.lastInput.Message.Body.Text.Data, "https://example.com/reset-password?token=token-123")
}

func TestMailer_SendFailure(t *testing.T) {
	mock := &mockSES{err: assert.AnError}
	mailer := NewMailer(mock, testSESConfig(), logger.NewTestLogger(t))

	err := mailer.SendPasswordReset(context.Background(), "jane@example.com", "token-123")
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}

func TestMailer_DisabledLogsInsteadOfSending(t *testing.T) {
	mock := &mockSES{}
	cfg := testSESConfig()
	cfg.Enabled = false
	mailer := NewMailer(mock, cfg, logger.NewTestLogger(t))

	err := mailer.SendPasswordReset(context.Background(), "jane@example.com", "token-123")
	require.NoError(t, err)
	assert.Nil(t, mock.lastInput)
}
