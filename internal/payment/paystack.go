package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/httpclient"
	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Charge statuses reported by the gateway
const (
	StatusSuccess    = "success"
	StatusPending    = "pending"
	StatusSendOTP    = "send_otp"
	StatusPayOffline = "pay_offline"
	StatusFailed     = "failed"
	StatusAbandoned  = "abandoned"
)

// Gateway is the mobile-money payment provider.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	CheckCharge(ctx context.Context, reference string) (*ChargeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*Transaction, error)
}

// ChargeRequest starts a mobile-money push charge. Amount is in minor units.
type ChargeRequest struct {
	Email     string
	Amount    int64
	Currency  string
	Phone     string
	Provider  string
	Reference string
	Metadata  map[string]interface{}
}

// ChargeResult is the gateway's view of a charge.
type ChargeResult struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	DisplayText string `json:"display_text"`
	Message     string `json:"message"`
}

// Transaction is a verified gateway transaction. Amount is in minor units.
type Transaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
	Channel   string `json:"channel"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chargePayload struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency,omitempty"`
	Reference   string                 `json:"reference,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	MobileMoney mobileMoney            `json:"mobile_money"`
}

type mobileMoney struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

// PaystackClient talks to the Paystack REST API.
type PaystackClient struct {
	http      *httpclient.Client
	secretKey string
	provider  string
}

// NewPaystackClient creates a client. A missing secret key is reported by
// each call as a ConfigurationError before any request is sent.
func NewPaystackClient(cfg config.PaystackConfig, m *metrics.Metrics, log *logrus.Logger) *PaystackClient {
	return &PaystackClient{
		http:      httpclient.New("paystack", cfg.BaseURL, cfg.Timeout, m, log),
		secretKey: cfg.SecretKey,
		provider:  cfg.Provider,
	}
}

// Charge sends POST /charge with the phone normalized for the gateway.
func (c *PaystackClient) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	provider := req.Provider
	if provider == "" {
		provider = c.provider
	}
	payload := chargePayload{
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reference: req.Reference,
		Metadata:  req.Metadata,
		MobileMoney: mobileMoney{
			Phone:    NormalizePhone(req.Phone),
			Provider: provider,
		},
	}

	var result ChargeResult
	if err := c.call(ctx, "charge", http.MethodPost, "/charge", payload, &result); err != nil {
		return nil, err
	}
	if result.Reference == "" {
		result.Reference = req.Reference
	}
	return &result, nil
}

// CheckCharge sends GET /charge/{reference}.
func (c *PaystackClient) CheckCharge(ctx context.Context, reference string) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.call(ctx, "check_charge", http.MethodGet, "/charge/"+url.PathEscape(reference), nil, &result); err != nil {
		return nil, err
	}
	if result.Reference == "" {
		result.Reference = reference
	}
	return &result, nil
}

// VerifyTransaction sends GET /transaction/verify/{reference}.
func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	var tx Transaction
	if err := c.call(ctx, "verify_transaction", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *PaystackClient) call(ctx context.Context, operation, method, path string, in, out interface{}) error {
	if err := config.Require("paystack.secretkey", c.secretKey); err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.secretKey)

	var env envelope
	if err := c.http.Do(ctx, operation, method, path, header, in, &env); err != nil {
		return err
	}
	if !env.Status {
		return &httpclient.ServiceError{Service: "paystack", Operation: operation, Body: env.Message, Err: errRejected}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &httpclient.ServiceError{Service: "paystack", Operation: operation, Body: env.Message, Err: errMissingData}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &httpclient.ServiceError{Service: "paystack", Operation: operation, Body: string(env.Data), Err: err}
	}
	return nil
}
