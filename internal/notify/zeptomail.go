package notify

import (
	"context"
	"encoding/base64"
	"net/http"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/httpclient"
	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Email is a single transactional message.
type Email struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a file sent with an email.
type Attachment struct {
	Name     string
	MimeType string
	Content  []byte
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoAttachment struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

type zeptoMessage struct {
	From        zeptoAddress      `json:"from"`
	To          []zeptoRecipient  `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"htmlbody"`
	Attachments []zeptoAttachment `json:"attachments,omitempty"`
}

// ZeptoMailClient sends email through the ZeptoMail HTTP API.
type ZeptoMailClient struct {
	http  *httpclient.Client
	token string
	from  zeptoAddress
}

// NewZeptoMailClient creates a client. A missing token is reported by Send
// as a ConfigurationError before any request is sent.
func NewZeptoMailClient(cfg config.ZeptoMailConfig, m *metrics.Metrics, log *logrus.Logger) *ZeptoMailClient {
	return &ZeptoMailClient{
		http:  httpclient.New("zeptomail", cfg.BaseURL, cfg.Timeout, m, log),
		token: cfg.Token,
		from:  zeptoAddress{Address: cfg.FromAddress, Name: cfg.FromName},
	}
}

func (c *ZeptoMailClient) Send(ctx context.Context, email Email) error {
	if err := config.Require("zeptomail.token", c.token); err != nil {
		return err
	}
	if err := config.Require("zeptomail.fromaddress", c.from.Address); err != nil {
		return err
	}

	msg := zeptoMessage{
		From:     c.from,
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
	}
	for _, to := range email.To {
		msg.To = append(msg.To, zeptoRecipient{EmailAddress: zeptoAddress{Address: to}})
	}
	for _, a := range email.Attachments {
		msg.Attachments = append(msg.Attachments, zeptoAttachment{
			Content:  base64.StdEncoding.EncodeToString(a.Content),
			MimeType: a.MimeType,
			Name:     a.Name,
		})
	}

	header := http.Header{}
	header.Set("Authorization", "Zoho-enczapikey "+c.token)
	return c.http.Do(ctx, "send_email", http.MethodPost, "/email", header, msg, nil)
}
