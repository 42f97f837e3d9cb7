package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderRejectsOverdraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "500ml", 3)

	_, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Size: "500ml", Quantity: 5}},
		PaystackReference: "ref-overdraw",
	})
	require.ErrorIs(t, err, repository.ErrInsufficientStock)
	require.Contains(t, err.Error(), "Product soap (500ml)")
	require.Contains(t, err.Error(), "requested 5, available 3")

	_, err = h.repo.FindOrderByReference(ctx, "ref-overdraw")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Equal(t, int64(3), h.quantity(t, "soap", "500ml"))

	require.NoError(t, h.svc.Close())
	require.Empty(t, h.publisher.Events())
}

func TestPlaceOrderIsAtomicAcrossItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "a", "100", "0", "0")
	h.product(t, "b", "100", "0", "0")
	h.stock(t, "a", "", 10)
	h.stock(t, "b", "", 1)

	_, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer: customer(),
		Items: []CartItem{
			{ProductID: "a", Quantity: 4},
			{ProductID: "b", Quantity: 2},
		},
		PaystackReference: "ref-atomic",
	})
	require.ErrorIs(t, err, repository.ErrInsufficientStock)

	require.Equal(t, int64(10), h.quantity(t, "a", ""))
	require.Equal(t, int64(1), h.quantity(t, "b", ""))

	orders, err := h.repo.ListOrders(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrderRecomputesTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "lotion", "100", "50", "10")
	h.product(t, "oil", "200", "0", "5")
	h.stock(t, "lotion", "250ml", 5)
	h.stock(t, "lotion", "1L", 5)
	h.stock(t, "oil", "", 5)

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer: customer(),
		Items: []CartItem{
			{ProductID: "lotion", Size: "250ml", Quantity: 2, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: "lotion", Size: "1L", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: "oil", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
		},
		ClientTotal:       decimal.NewFromInt(3),
		PaystackReference: "ref-total",
	})
	require.NoError(t, err)

	// 300 lotion + 200 oil + (50 + 10) once for lotion + 5 once for oil
	want := decimal.RequireFromString("565")
	assert.True(t, want.Equal(order.TotalAmount), "total %s", order.TotalAmount)

	stored, err := h.repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, want.Equal(stored.TotalAmount), "stored total %s", stored.TotalAmount)
	assert.Equal(t, models.StatusPaid, stored.Status)
	require.Len(t, stored.Items, 3)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.Items[0].UnitPrice))

	assert.Equal(t, int64(3), h.quantity(t, "lotion", "250ml"))
	assert.Equal(t, int64(4), h.quantity(t, "lotion", "1L"))
	assert.Equal(t, int64(4), h.quantity(t, "oil", ""))

	require.NoError(t, h.svc.Close())
	events := h.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, messaging.EventOrderPaid, events[0].Type)
	assert.Equal(t, order.ID, events[0].AggregateID)
}

func TestConcurrentOrdersDrainStockExactly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "candle", "80", "0", "0")
	h.stock(t, "candle", "", 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.PlaceOrder(ctx, PlaceOrderInput{
				Customer:          customer(),
				Items:             []CartItem{{ProductID: "candle", Quantity: 2}},
				PaystackReference: fmt.Sprintf("ref-concurrent-%d", i),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, int64(0), h.quantity(t, "candle", ""))
}

func TestPlaceOrderIsIdempotentByReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 10)

	input := PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Quantity: 3}},
		PaystackReference: "ref-once",
	}
	first, err := h.svc.PlaceOrder(ctx, input)
	require.NoError(t, err)
	second, err := h.svc.PlaceOrder(ctx, input)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(7), h.quantity(t, "soap", ""))
}

func TestPlaceOrderValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "old", "10", "0", "0")
	p.Active = false
	require.NoError(t, h.repo.UpsertProduct(ctx, p))

	_, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: customer(), Items: []CartItem{{ProductID: "old", Quantity: 1}}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.PlaceOrder(ctx, PlaceOrderInput{Customer: customer(), PaystackReference: "r"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "old", Quantity: 1}},
		PaystackReference: "r",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "missing", Quantity: 1}},
		PaystackReference: "r",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 10)

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Quantity: 1}},
		PaystackReference: "ref-status",
	})
	require.NoError(t, err)

	updated, err := h.svc.UpdateOrderStatus(ctx, order.ID, models.StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, updated.Status)

	_, err = h.svc.UpdateOrderStatus(ctx, order.ID, models.StatusDelivered)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = h.svc.UpdateOrderStatus(ctx, order.ID, models.OrderStatus("lost"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.svc.UpdateOrderStatus(ctx, "nope", models.StatusCancelled)
	require.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := h.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, stored.Status)
}

func TestUpdateOrderStatusClosedOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 10)

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Quantity: 1}},
		PaystackReference: "ref-closed",
	})
	require.NoError(t, err)

	_, err = h.svc.UpdateOrderStatus(ctx, order.ID, models.StatusCancelled)
	require.NoError(t, err)

	_, err = h.svc.UpdateOrderStatus(ctx, order.ID, models.StatusProcessing)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	require.Contains(t, err.Error(), "order is already cancelled")
}

func TestQuoteMinorUnits(t *testing.T) {
	q := &Quote{Total: decimal.RequireFromString("1234.565")}
	require.Equal(t, int64(123457), q.MinorUnits())
}
