package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoop(t *testing.T) {
	log, _ := test.NewNullLogger()
	c, err := NewElasticClient(config.ElasticConfig{}, log)
	require.NoError(t, err)
	require.False(t, c.Enabled())

	require.NoError(t, c.IndexOrder(context.Background(), &models.Order{ID: "o1"}))
	docs, err := c.SearchOrders(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestIndexOrder(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotDoc)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	c, err := NewElasticClient(config.ElasticConfig{URL: srv.URL, IndexPrefix: "luna"}, log)
	require.NoError(t, err)

	order := &models.Order{
		ID:          "order-1",
		Status:      models.StatusPaid,
		Channel:     models.ChannelOnline,
		TotalAmount: decimal.RequireFromString("1250.00"),
		Items: []models.OrderItem{
			{ProductID: "p1", Size: "500ml", Quantity: 2, UnitPrice: decimal.RequireFromString("500")},
		},
	}
	require.NoError(t, c.IndexOrder(context.Background(), order))
	require.Equal(t, "/luna-orders/_doc/order-1", gotPath)
	require.Equal(t, "paid", gotDoc["status"])
	require.Equal(t, float64(1250), gotDoc["total_amount"])
	require.Equal(t, float64(1), gotDoc["item_count"])
}

func TestSearchOrdersExtractsSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_source":{"id":"a"}},{"_source":{"id":"b"}}]}}`))
	}))
	defer srv.Close()

	log, _ := test.NewNullLogger()
	c, err := NewElasticClient(config.ElasticConfig{URL: srv.URL}, log)
	require.NoError(t, err)

	docs, err := c.SearchOrders(context.Background(), map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "b", docs[1]["id"])
}
