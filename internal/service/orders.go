package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Customer holds the contact and shipping fields of an order.
type Customer struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"omitempty,email"`
	Phone           string `json:"phone" binding:"required,msisdn"`
	ShippingAddress string `json:"shipping_address"`
	City            string `json:"city"`
}

// CartItem is a line as the shopper saw it. UnitPrice is informational;
// the charged price always comes from the catalog.
type CartItem struct {
	ProductID string          `json:"product_id" binding:"required"`
	Size      string          `json:"size"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PlaceOrderInput is the request to record a paid order.
type PlaceOrderInput struct {
	Customer          Customer        `json:"customer" binding:"required"`
	Items             []CartItem      `json:"items" binding:"required,min=1,dive"`
	ClientTotal       decimal.Decimal `json:"total_amount"`
	PaystackReference string          `json:"paystack_reference" binding:"required"`
	UserID            string          `json:"user_id"`
	Channel           string          `json:"-"`
}

// Quote is a server-side pricing of a cart.
type Quote struct {
	Items    []models.OrderItem
	Products map[string]*models.Product
	Subtotal decimal.Decimal
	Fees     decimal.Decimal
	Total    decimal.Decimal
}

// MinorUnits is the total in the currency's minor unit, as the gateway expects it.
func (q *Quote) MinorUnits() int64 {
	return q.Total.Shift(2).Round(0).IntPart()
}

// Units is the number of pieces across all lines.
func (q *Quote) Units() int64 {
	var n int64
	for _, item := range q.Items {
		n += item.Quantity
	}
	return n
}

// QuoteOrder prices items from the current catalog: each line at the
// product's price, plus the delivery and platform fee once per distinct
// product.
func (s *service) QuoteOrder(ctx context.Context, items []CartItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, invalidf("order has no items")
	}

	ids := make([]string, 0, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, invalidf("item %d has no product", i)
		}
		if item.Quantity <= 0 {
			return nil, invalidf("item %d quantity must be positive", i)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Items:    make([]models.OrderItem, 0, len(items)),
		Products: products,
		Subtotal: decimal.Zero,
		Fees:     decimal.Zero,
	}
	charged := make(map[string]bool, len(products))
	for i, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.Active {
			return nil, invalidf("product %s is not available", item.ProductID)
		}

		q.Items = append(q.Items, models.OrderItem{
			Position:    i,
			ProductID:   product.ID,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			ProductName: product.Name,
			ImageURL:    product.ImageURL,
		})
		q.Subtotal = q.Subtotal.Add(product.Price.Mul(decimal.NewFromInt(item.Quantity)))

		if !charged[product.ID] {
			charged[product.ID] = true
			q.Fees = q.Fees.Add(product.DeliveryFee).Add(product.PlatformFee)
		}
	}
	q.Total = q.Subtotal.Add(q.Fees).Round(2)
	return q, nil
}

// PlaceOrder records a paid order and draws its items from the finished-goods
// ledger in one transaction. Either the order exists and every line was
// decremented, or nothing changed. A reference that already has an order
// returns that order.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	defer tracing.StartSegment(ctx, "PlaceOrder")()

	reference := strings.TrimSpace(input.PaystackReference)
	if reference == "" {
		return nil, invalidf("payment reference is required")
	}
	if input.Channel == "" {
		input.Channel = models.ChannelOnline
	}

	entry := s.log.WithFields(logrus.Fields{
		"reference": reference,
		"channel":   input.Channel,
	})

	if existing, err := s.repo.FindOrderByReference(ctx, reference); err == nil {
		entry.WithField("order_id", existing.ID).Info("Order already recorded for payment reference")
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	quote, err := s.QuoteOrder(ctx, input.Items)
	if err != nil {
		s.metrics.RecordOrderFailure("validation")
		return nil, err
	}
	if !input.ClientTotal.IsZero() && !input.ClientTotal.Equal(quote.Total) {
		entry.WithFields(logrus.Fields{
			"client_total": input.ClientTotal.String(),
			"server_total": quote.Total.String(),
		}).Warn("Client total differs from recomputed total, using recomputed total")
	}

	draft := &models.Order{
		ID:                uuid.NewString(),
		CustomerName:      input.Customer.Name,
		CustomerEmail:     input.Customer.Email,
		CustomerPhone:     input.Customer.Phone,
		ShippingAddress:   input.Customer.ShippingAddress,
		City:              input.Customer.City,
		Items:             quote.Items,
		TotalAmount:       quote.Total,
		Status:            models.StatusPaid,
		Channel:           input.Channel,
		OrderDate:         time.Now().UTC(),
		PaystackReference: &reference,
	}
	if input.UserID != "" {
		userID := input.UserID
		draft.UserID = &userID
	}

	var order *models.Order
	err = s.retry(ctx, "place_order", func() error {
		order = cloneOrder(draft)
		return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			return decrementLines(ctx, tx, order.Items, quote.Products)
		})
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateKey):
		existing, findErr := s.repo.FindOrderByReference(ctx, reference)
		if findErr != nil {
			s.metrics.RecordOrderFailure("error")
			return nil, fmt.Errorf("%w: %w", ErrCreateOrder, err)
		}
		entry.WithField("order_id", existing.ID).Info("Concurrent placement already recorded payment reference")
		return existing, nil
	case errors.Is(err, repository.ErrInsufficientStock):
		s.metrics.RecordOrderFailure("insufficient_stock")
		entry.WithError(err).Info("Order rejected")
		return nil, err
	case repository.IsRetryable(err):
		s.metrics.RecordOrderFailure("conflict")
		entry.WithError(err).Error("Order placement exhausted retries")
		return nil, fmt.Errorf("%w: %w", ErrCreateOrder, err)
	default:
		s.metrics.RecordOrderFailure("error")
		entry.WithError(err).Error("Order placement failed")
		return nil, fmt.Errorf("%w: %w", ErrCreateOrder, err)
	}

	s.metrics.RecordOrderPlaced(order.Channel, quote.Units())
	entry.WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount.String(),
	}).Info("Order placed")

	s.publish(messaging.NewEvent(messaging.EventOrderPaid, order.ID))
	return order, nil
}

// decrementLines draws every line from the ledger, summing lines that share
// a key and visiting keys in sorted order so concurrent orders lock rows in
// the same sequence.
func decrementLines(ctx context.Context, tx repository.Repository, items []models.OrderItem, products map[string]*models.Product) error {
	wanted := make(map[string]int64, len(items))
	labels := make(map[string]string, len(items))
	for _, item := range items {
		key := item.InventoryKey()
		wanted[key] += item.Quantity
		if _, ok := labels[key]; !ok {
			labels[key] = itemLabel(item, products)
		}
	}

	keys := make([]string, 0, len(wanted))
	for key := range wanted {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := tx.DecrementStock(ctx, key, wanted[key]); err != nil {
			var short *repository.InsufficientStockError
			if errors.As(err, &short) {
				short.Name = labels[key]
			}
			return err
		}
	}
	return nil
}

func itemLabel(item models.OrderItem, products map[string]*models.Product) string {
	name := item.ProductName
	if p, ok := products[item.ProductID]; ok && name == "" {
		name = p.Name
	}
	if item.Size == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, item.Size)
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = make([]models.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}

func (s *service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.repo.FindOrderByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidf("unknown status %q", filter.Status)
	}
	return s.repo.ListOrders(ctx, filter)
}

// SearchOrders runs a free-text query against the order search index.
func (s *service) SearchOrders(ctx context.Context, text string, limit int) ([]map[string]interface{}, error) {
	if s.indexer == nil {
		return []map[string]interface{}{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := map[string]interface{}{
		"size": limit,
		"sort": []interface{}{map[string]interface{}{"order_date": "desc"}},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"id", "customer_name", "customer_email", "customer_phone", "paystack_reference", "items.product_name"},
			},
		},
	}
	return s.indexer.SearchOrders(ctx, query)
}

// UpdateOrderStatus moves an order along its lifecycle. The write only lands
// if the status is still the one the transition was checked against.
func (s *service) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}

	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order is already %s", models.ErrInvalidTransition, order.Status)
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, order.Status, status)
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, order.Status, status); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": id,
		"from":     order.Status,
		"to":       status,
	}).Info("Order status updated")

	order.Status = status
	if s.indexer != nil {
		indexed := cloneOrder(order)
		s.background("index order", func(ctx context.Context) error {
			return s.indexer.IndexOrder(ctx, indexed)
		})
	}
	return order, nil
}
