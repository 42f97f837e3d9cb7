package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/payment"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Currency of every charge.
const Currency = "KES"

// FieldSaleInput is an in-person sale paid by mobile-money push.
type FieldSaleInput struct {
	Customer    Customer        `json:"customer" binding:"required"`
	Items       []CartItem      `json:"items" binding:"required,min=1,dive"`
	ClientTotal decimal.Decimal `json:"total_amount"`
	UserID      string          `json:"user_id" binding:"required"`
	Reference   string          `json:"reference"`
}

// VerifyOnlineCheckout confirms with the gateway that the reference was paid
// in full before placing the order. The client's claim of success is never
// trusted on its own.
func (s *service) VerifyOnlineCheckout(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	reference := strings.TrimSpace(input.PaystackReference)
	if reference == "" {
		return nil, invalidf("payment reference is required")
	}

	if existing, err := s.repo.FindOrderByReference(ctx, reference); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	quote, err := s.QuoteOrder(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	txn, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Status != payment.StatusSuccess {
		return nil, &payment.NotConfirmedError{
			Reference: reference,
			Status:    txn.Status,
			Reason:    "gateway has not settled the transaction",
		}
	}
	if txn.Amount < quote.MinorUnits() {
		return nil, &payment.NotConfirmedError{
			Reference: reference,
			Status:    txn.Status,
			Reason:    fmt.Sprintf("paid %d below order total %d", txn.Amount, quote.MinorUnits()),
		}
	}

	input.PaystackReference = reference
	input.Channel = models.ChannelOnline
	return s.PlaceOrder(ctx, input)
}

// FieldSale pushes a mobile-money charge to the customer's phone, waits for
// it to settle and then places the order attributed to the salesperson.
// Once the charge is sent the wait is detached from ctx cancellation so a
// dropped client cannot leave a paid charge without an order.
func (s *service) FieldSale(ctx context.Context, input FieldSaleInput) (*models.Order, error) {
	if input.UserID == "" {
		return nil, invalidf("salesperson is required")
	}
	if input.Customer.Phone == "" {
		return nil, invalidf("customer phone is required")
	}

	quote, err := s.QuoteOrder(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	phone := payment.NormalizePhone(input.Customer.Phone)
	email := input.Customer.Email
	if email == "" {
		// the gateway requires an email on every charge
		email = phone + "@field.luna"
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		reference = "field-" + uuid.NewString()
	} else if existing, err := s.repo.FindOrderByReference(ctx, reference); err == nil {
		// a retried sale must not push a second charge to the phone
		s.log.WithFields(logrus.Fields{
			"reference": reference,
			"order_id":  existing.ID,
		}).Info("Field sale already recorded for reference")
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"reference": reference,
		"user_id":   input.UserID,
		"amount":    quote.MinorUnits(),
	})

	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Email:     email,
		Amount:    quote.MinorUnits(),
		Currency:  Currency,
		Phone:     phone,
		Reference: reference,
		Metadata: map[string]interface{}{
			"user_id": input.UserID,
			"channel": models.ChannelField,
		},
	})
	if err != nil {
		return nil, err
	}
	if charge.Reference != "" {
		reference = charge.Reference
	}
	entry.WithField("status", charge.Status).Info("Field sale charge sent")

	waitCtx := context.WithoutCancel(ctx)
	switch {
	case charge.Status == payment.StatusSuccess:
	case charge.Status == payment.StatusFailed:
		s.metrics.RecordOrderFailure("payment")
		return nil, &payment.NotConfirmedError{
			Reference: reference,
			Status:    charge.Status,
			Reason:    charge.DisplayText,
		}
	default:
		if _, err := s.poller.AwaitSuccess(waitCtx, reference); err != nil {
			s.metrics.RecordOrderFailure("payment")
			entry.WithError(err).Warn("Field sale payment not confirmed")
			return nil, err
		}
	}

	customer := input.Customer
	customer.Phone = phone
	return s.PlaceOrder(waitCtx, PlaceOrderInput{
		Customer:          customer,
		Items:             input.Items,
		ClientTotal:       input.ClientTotal,
		PaystackReference: reference,
		UserID:            input.UserID,
		Channel:           models.ChannelField,
	})
}
