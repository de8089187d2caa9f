package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sends mail through the sendgrid v3 api
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendgridMailer(apiKey, sender string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("", sender),
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), msg.TextBody, msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d", resp.StatusCode)
	}

	return nil
}
