// Package httpclient is the instrumented JSON client shared by the payment
// and email providers.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/backstage/services/commerce/internal/metrics"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// ErrExternalService is matched by every ServiceError.
var ErrExternalService = errors.New("external service error")

// ServiceError is a non-2xx, unreachable or malformed provider response.
// Body is kept for server-side logs and never shown to end users.
type ServiceError struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Service, e.Operation, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Service, e.Operation)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrExternalService }

// Client sends JSON requests to a single provider.
type Client struct {
	service string
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	log     *logrus.Logger
}

// New creates a client whose outbound calls appear as New Relic external segments.
func New(service, baseURL string, timeout time.Duration, m *metrics.Metrics, log *logrus.Logger) *Client {
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
		metrics: m,
		log:     log,
	}
}

// Do sends in as the JSON body (if non-nil) and decodes the response into out (if non-nil).
func (c *Client) Do(ctx context.Context, operation, method, path string, header http.Header, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordExternalRequest(c.service, operation, false, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return c.fail(&ServiceError{Service: c.service, Operation: operation, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	ok := err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300
	c.metrics.RecordExternalRequest(c.service, operation, ok, time.Since(start))
	if err != nil {
		return c.fail(&ServiceError{Service: c.service, Operation: operation, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(&ServiceError{
			Service:    c.service,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		})
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return c.fail(&ServiceError{
				Service:   c.service,
				Operation: operation,
				Body:      string(raw),
				Err:       fmt.Errorf("malformed response: %w", err),
			})
		}
	}
	return nil
}

func (c *Client) fail(err *ServiceError) error {
	c.log.WithFields(logrus.Fields{
		"service":     err.Service,
		"operation":   err.Operation,
		"status_code": err.StatusCode,
		"body":        truncate(err.Body, 512),
		"error":       err.Err,
	}).Warn("External service call failed")
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
