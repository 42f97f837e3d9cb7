package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/httpclient"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL, secret string) *PaystackClient {
	log, _ := test.NewNullLogger()
	return NewPaystackClient(config.PaystackConfig{
		SecretKey: secret,
		BaseURL:   baseURL,
		Provider:  "mpesa",
		Timeout:   5 * time.Second,
	}, nil, log)
}

func TestChargeSendsNormalizedPhone(t *testing.T) {
	var got chargePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/charge", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":true,"message":"Charge attempted","data":{"reference":"ref-1","status":"pay_offline","display_text":"Check your phone"}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, "sk_test").Charge(context.Background(), ChargeRequest{
		Email:     "buyer@example.com",
		Amount:    150000,
		Phone:     "0712345678",
		Reference: "ref-1",
	})
	require.NoError(t, err)
	require.Equal(t, "ref-1", res.Reference)
	require.Equal(t, StatusPayOffline, res.Status)

	require.Equal(t, "254712345678", got.MobileMoney.Phone)
	require.Equal(t, "mpesa", got.MobileMoney.Provider)
	require.Equal(t, int64(150000), got.Amount)
}

func TestMissingSecretFailsBeforeRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "")
	_, err := client.Charge(context.Background(), ChargeRequest{Phone: "0712345678", Amount: 100})
	require.ErrorIs(t, err, config.ErrMissingSetting)
	_, err = client.VerifyTransaction(context.Background(), "ref")
	require.ErrorIs(t, err, config.ErrMissingSetting)
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestNon2xxIsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "sk").CheckCharge(context.Background(), "ref-9")
	require.ErrorIs(t, err, httpclient.ErrExternalService)

	var svcErr *httpclient.ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
	require.NotContains(t, err.Error(), "upstream exploded")
}

func TestMalformedBodyIsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "sk").CheckCharge(context.Background(), "ref-9")
	require.ErrorIs(t, err, httpclient.ErrExternalService)
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/T123", r.URL.Path)
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"T123","status":"success","amount":250000,"currency":"KES"}}`))
	}))
	defer srv.Close()

	tx, err := newTestClient(srv.URL, "sk").VerifyTransaction(context.Background(), "T123")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, tx.Status)
	require.Equal(t, int64(250000), tx.Amount)
	require.Equal(t, "KES", tx.Currency)
}

func TestRejectedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "sk").VerifyTransaction(context.Background(), "T1")
	require.ErrorIs(t, err, httpclient.ErrExternalService)
}
