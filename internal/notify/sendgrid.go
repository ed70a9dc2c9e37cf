package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

type SendGridOption func(*sendGridConfig)

type sendGridConfig struct {
	host string
}

// WithSendGridHost points the client at another API host.
func WithSendGridHost(host string) SendGridOption {
	return func(c *sendGridConfig) {
		c.host = host
	}
}

// NewSendGridSender takes the API key explicitly; nothing is read from
// the environment here.
func NewSendGridSender(apiKey, fromAddress, fromName string, opts ...SendGridOption) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	cfg := &sendGridConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	request := sendgrid.GetRequest(apiKey, sendGridEndpoint, cfg.host)
	request.Method = "POST"

	return &SendGridSender{
		client: &sendgrid.Client{Request: request},
		from:   mail.NewEmail(fromName, fromAddress),
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.Name, msg.To), msg.Text, "")
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
