package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetPasswordMessage(t *testing.T) {
	msg := ResetPasswordMessage("player@avk.ru", "https://avk-pro.ru", "a.b+c")

	assert.Equal(t, "player@avk.ru", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.TextBody, "https://avk-pro.ru/reset-password?token=a.b%2Bc")
	assert.Contains(t, msg.HTMLBody, "reset-password?token=a.b%2Bc")
}

func TestNew_ProviderSelection(t *testing.T) {
	testCases := []struct {
		name     string
		settings Settings
		want     any
	}{
		{"none", Settings{}, LogMailer{}},
		{"sendgrid", Settings{Provider: "sendgrid", SendgridAPIKey: "key", Sender: "shop@avk.ru"}, &SendgridMailer{}},
		{"sendgrid without key", Settings{Provider: "sendgrid"}, LogMailer{}},
		{"postmark", Settings{Provider: "postmark", PostmarkServerToken: "tok", Sender: "shop@avk.ru"}, &PostmarkMailer{}},
		{"unknown", Settings{Provider: "pigeon", SendgridAPIKey: "key"}, LogMailer{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.IsType(t, tc.want, New(tc.settings))
		})
	}
}

func TestLogMailer_NeverFails(t *testing.T) {
	err := LogMailer{}.Send(context.Background(), Message{To: "x@avk.ru", Subject: "s"})
	assert.NoError(t, err)
}
