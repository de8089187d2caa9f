package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"
)

// an outgoing transactional email
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// delivers transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// builds the password reset email for a link under frontendURL
func ResetPasswordMessage(to, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, url.QueryEscape(token))

	return Message{
		To:      to,
		Subject: "Восстановление пароля",
		HTMLBody: fmt.Sprintf(
			"<p>Вы запросили восстановление пароля.</p>"+
				"<p><a href=\"%s\">Задать новый пароль</a></p>"+
				"<p>Ссылка действительна 1 час. Если вы не запрашивали сброс, просто проигнорируйте это письмо.</p>",
			html.EscapeString(link),
		),
		TextBody: fmt.Sprintf(
			"Вы запросили восстановление пароля.\nЗадать новый пароль: %s\nСсылка действительна 1 час.",
			link,
		),
	}
}

// provider selection; an empty or unknown provider falls back to LogMailer
type Settings struct {
	Provider            string
	Sender              string
	SendgridAPIKey      string
	PostmarkServerToken string
}

func New(s Settings) Mailer {
	switch s.Provider {
	case "sendgrid":
		if s.SendgridAPIKey != "" {
			return NewSendgridMailer(s.SendgridAPIKey, s.Sender)
		}
	case "postmark":
		if s.PostmarkServerToken != "" {
			return NewPostmarkMailer(s.PostmarkServerToken, s.Sender)
		}
	}

	return LogMailer{}
}
