// AngelaMos | 2026
// notify.go

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/carterperez-dev/shelflife/internal/config"
)

type Message struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SESAPI interface {
	SendEmail(
		ctx context.Context,
		params *ses.SendEmailInput,
		optFns ...func(*ses.Options),
	) (*ses.SendEmailOutput, error)
}

type SESMailer struct {
	client SESAPI
	sender string
}

func NewSESMailer(client SESAPI, sender string) *SESMailer {
	return &SESMailer{client: client, sender: sender}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(msg.Subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.Text),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// LogMailer stands in when outbound mail is disabled.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail not sent, delivery disabled",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

func NewMailer(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	if !cfg.Enabled {
		return NewLogMailer(logger), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewSESMailer(ses.NewFromConfig(awsCfg), cfg.Sender), nil
}

type Templates struct {
	ResetURL string
	LoginURL string
}

func NewTemplates(cfg config.MailConfig) Templates {
	return Templates{ResetURL: cfg.ResetURL, LoginURL: cfg.LoginURL}
}

func (t Templates) PasswordReset(to, token string) Message {
	link := t.ResetURL
	if u, err := url.Parse(t.ResetURL); err == nil {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		link = u.String()
	}

	return Message{
		To:      to,
		Subject: "Redefinição de senha",
		Text: "Recebemos um pedido para redefinir sua senha.\n\n" +
			"Acesse o link abaixo para escolher uma nova senha. " +
			"Ele expira em uma hora e só pode ser usado uma vez.\n\n" +
			link + "\n\n" +
			"Se você não fez este pedido, ignore este e-mail.",
	}
}

func (t Templates) Approved(to, fullName string) Message {
	greeting := "Olá"
	if fullName != "" {
		greeting += ", " + fullName
	}

	return Message{
		To:      to,
		Subject: "Cadastro aprovado",
		Text: greeting + "!\n\n" +
			"Seu cadastro foi aprovado pelo gestor da franquia. " +
			"Você já pode entrar no sistema.\n\n" +
			t.LoginURL,
	}
}
