package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/httpclient"
	"example.com/backstage/services/commerce/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(baseURL, token string) *ZeptoMailClient {
	log, _ := test.NewNullLogger()
	return NewZeptoMailClient(config.ZeptoMailConfig{
		Token:       token,
		BaseURL:     baseURL,
		FromAddress: "noreply@luna.example",
		FromName:    "Luna",
		Timeout:     5 * time.Second,
	}, nil, log)
}

func TestSend(t *testing.T) {
	var got zeptoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email", r.URL.Path)
		assert.Equal(t, "Zoho-enczapikey tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":[{"code":"EM_104","message":"Email request received"}]}`))
	}))
	defer srv.Close()

	err := newTestMailer(srv.URL, "tok").Send(context.Background(), Email{
		To:       []string{"admin@luna.example"},
		Subject:  "Report",
		HTMLBody: "<p>hi</p>",
		Attachments: []Attachment{
			{Name: "report.xlsx", MimeType: "application/octet-stream", Content: []byte("abc")},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "noreply@luna.example", got.From.Address)
	require.Len(t, got.To, 1)
	require.Equal(t, "admin@luna.example", got.To[0].EmailAddress.Address)
	require.Len(t, got.Attachments, 1)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), got.Attachments[0].Content)
}

func TestSendWithoutTokenFailsFast(t *testing.T) {
	err := newTestMailer("http://127.0.0.1:1", "").Send(context.Background(), Email{To: []string{"a@b.c"}})
	require.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestMailer(srv.URL, "tok").Send(context.Background(), Email{To: []string{"a@b.c"}})
	require.ErrorIs(t, err, httpclient.ErrExternalService)
}

func TestOrderReceipt(t *testing.T) {
	order := &models.Order{
		ID:            "ord-1",
		CustomerName:  "Wanjiku",
		CustomerEmail: "w@example.com",
		TotalAmount:   decimal.RequireFromString("1250"),
		OrderDate:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{ProductName: "Bar Soap", Size: "250g", Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
		},
	}

	email, err := OrderReceipt(order)
	require.NoError(t, err)
	require.Equal(t, []string{"w@example.com"}, email.To)
	require.Contains(t, email.HTMLBody, "Bar Soap")
	require.Contains(t, email.HTMLBody, "1250.00")

	alert, err := AdminOrderAlert(order, "ops@luna.example")
	require.NoError(t, err)
	require.Equal(t, []string{"ops@luna.example"}, alert.To)
	require.Contains(t, alert.Subject, "KES 1250.00")
}
