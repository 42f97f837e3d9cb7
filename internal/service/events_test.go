package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/reports"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHandleOrderPaidSendsEmails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 5)

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Quantity: 1}},
		PaystackReference: "ref-mail",
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.HandleEvent(ctx, messaging.NewEvent(messaging.EventOrderPaid, order.ID)))
	require.Len(t, h.mailer.sent, 2)
	assert.Equal(t, []string{"ops@luna.test"}, h.mailer.sent[0].To)
	assert.Equal(t, []string{"wanjiru@example.com"}, h.mailer.sent[1].To)
	assert.Contains(t, h.mailer.sent[1].HTMLBody, order.ID)
}

func TestHandleEventSwallowsMailFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 5)
	h.mailer.err = errors.New("smtp down")

	order, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		Customer:          customer(),
		Items:             []CartItem{{ProductID: "soap", Quantity: 1}},
		PaystackReference: "ref-mail-down",
	})
	require.NoError(t, err)
	require.NoError(t, h.svc.HandleEvent(ctx, messaging.NewEvent(messaging.EventOrderPaid, order.ID)))
}

func TestHandleEventMissingAggregate(t *testing.T) {
	h := newHarness(t)
	err := h.svc.HandleEvent(context.Background(), messaging.NewEvent(messaging.EventOrderPaid, "ghost"))
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, h.svc.HandleEvent(context.Background(), messaging.Event{Type: "something.else"}))
}

func TestSendInventoryReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "soap", "250", "0", "0")
	h.stock(t, "soap", "", 3)
	h.stock(t, "soap", "1L", 40)
	h.material(t, "Lye", "kg", "2")

	require.NoError(t, h.svc.SendInventoryReport(ctx))
	require.Len(t, h.mailer.sent, 1)

	email := h.mailer.sent[0]
	assert.Contains(t, email.Subject, "(1 low stock)")
	require.Len(t, email.Attachments, 1)
	assert.Equal(t, reports.XLSXMimeType, email.Attachments[0].MimeType)

	f, err := excelize.OpenReader(bytes.NewReader(email.Attachments[0].Content))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Raw Materials")
}

func TestSendInventoryReportNeedsAdminEmail(t *testing.T) {
	h := newHarness(t)
	h.svc.app.AdminEmail = ""
	require.ErrorIs(t, h.svc.SendInventoryReport(context.Background()), config.ErrMissingSetting)
}
