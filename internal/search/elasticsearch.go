package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Indexer writes order and production documents for back-office search.
type Indexer interface {
	IndexOrder(ctx context.Context, order *models.Order) error
	IndexProductionRun(ctx context.Context, run *models.ProductionRun) error
	SearchOrders(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error)
}

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client  *elasticsearch.Client
	config  config.ElasticConfig
	enabled bool
	log     *logrus.Logger
}

// NewElasticClient creates a new Elasticsearch client. Without a URL the
// client is disabled and every call is a no-op.
func NewElasticClient(cfg config.ElasticConfig, log *logrus.Logger) (*ElasticClient, error) {
	if cfg.URL == "" {
		log.Warn("Elasticsearch URL not provided, search indexing disabled")
		return &ElasticClient{config: cfg, log: log}, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client:  client,
		config:  cfg,
		enabled: true,
		log:     log,
	}, nil
}

// Enabled reports whether documents are actually sent.
func (c *ElasticClient) Enabled() bool {
	return c.enabled
}

func (c *ElasticClient) index(name string) string {
	if c.config.IndexPrefix == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", c.config.IndexPrefix, name)
}

// IndexOrder indexes an order keyed by its id
func (c *ElasticClient) IndexOrder(ctx context.Context, order *models.Order) error {
	if !c.enabled {
		return nil
	}

	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"size":         item.Size,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice.InexactFloat64(),
		})
	}

	doc := map[string]interface{}{
		"id":                 order.ID,
		"status":             order.Status,
		"channel":            order.Channel,
		"customer_name":      order.CustomerName,
		"customer_email":     order.CustomerEmail,
		"customer_phone":     order.CustomerPhone,
		"city":               order.City,
		"total_amount":       order.TotalAmount.InexactFloat64(),
		"items":              items,
		"item_count":         len(order.Items),
		"order_date":         order.OrderDate,
		"user_id":            order.UserID,
		"paystack_reference": order.PaystackReference,
	}
	return c.put(ctx, c.index("orders"), order.ID, doc)
}

// IndexProductionRun indexes a production run keyed by its id
func (c *ElasticClient) IndexProductionRun(ctx context.Context, run *models.ProductionRun) error {
	if !c.enabled {
		return nil
	}

	materials := make([]map[string]interface{}, 0, len(run.ConsumedMaterials))
	for _, m := range run.ConsumedMaterials {
		materials = append(materials, map[string]interface{}{
			"raw_material_id":   m.RawMaterialID,
			"raw_material_name": m.RawMaterialName,
			"quantity_consumed": m.QuantityConsumed.InexactFloat64(),
		})
	}

	doc := map[string]interface{}{
		"id":                    run.ID,
		"finished_good_item_id": run.FinishedGoodItemID,
		"product_id":            run.ProductID,
		"product_name":          run.ProductName,
		"size":                  run.Size,
		"quantity_produced":     run.QuantityProduced,
		"consumed_materials":    materials,
		"operator_id":           run.OperatorID,
		"operator_name":         run.OperatorName,
		"created_at":            run.CreatedAt,
	}
	return c.put(ctx, c.index("production-runs"), run.ID, doc)
}

func (c *ElasticClient) put(ctx context.Context, index, id string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	c.log.WithFields(logrus.Fields{"index": index, "id": id}).Debug("Document indexed")
	return nil
}

// SearchOrders runs a raw query against the orders index and returns the hit sources
func (c *ElasticClient) SearchOrders(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	if !c.enabled {
		return nil, nil
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.index("orders")},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	docs := make([]map[string]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if hit.Source != nil {
			docs = append(docs, hit.Source)
		}
	}
	return docs, nil
}
