package mailer

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
)

// sends mail through postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, sender string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   sender,
	}
}

// the postmark client has no context support; ctx is only checked before sending
func (m *PostmarkMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark rejected email: %s", resp.Message)
	}

	return nil
}
