package handlers

import (
	"errors"
	"net/http"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/httpclient"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/payment"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/service"
	"example.com/backstage/services/commerce/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// apiError is the HTTP rendering of a service error.
type apiError struct {
	status  int
	code    string
	message string
	// expose sends the underlying error text instead of message
	expose bool
}

// classify maps the error taxonomy onto a status and code. Order matters:
// a failed order or production run wraps the reason it failed, and only a
// stock shortfall keeps its own status.
func classify(err error) apiError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", "Validation error", true}
	case errors.Is(err, repository.ErrInsufficientStock):
		return apiError{http.StatusConflict, "INSUFFICIENT_STOCK", "Insufficient stock", true}
	case errors.Is(err, service.ErrCreateOrder), errors.Is(err, service.ErrLogProduction):
		return transactionFailure(err)
	case errors.Is(err, payment.ErrPaymentNotConfirmed):
		return apiError{http.StatusPaymentRequired, "PAYMENT_NOT_CONFIRMED", "Payment not confirmed", true}
	case errors.Is(err, config.ErrMissingSetting):
		return apiError{http.StatusServiceUnavailable, "CONFIGURATION_ERROR", "Service is not fully configured", false}
	case errors.Is(err, httpclient.ErrExternalService):
		return apiError{http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR", "Upstream provider request failed", false}
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, repository.ErrStaleStatus):
		return apiError{http.StatusConflict, "INVALID_TRANSITION", "Invalid status transition", true}
	case errors.Is(err, repository.ErrNotFound):
		return apiError{http.StatusNotFound, "NOT_FOUND", "Resource not found", false}
	case errors.Is(err, repository.ErrDuplicateKey):
		return apiError{http.StatusConflict, "CONFLICT", "Resource already exists", false}
	case errors.Is(err, repository.ErrConflict):
		return apiError{http.StatusInternalServerError, "TRANSACTION_CONFLICT", genericMessage(err), false}
	}
	return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", genericMessage(err), false}
}

// transactionFailure renders an order or production transaction that did
// not commit.
func transactionFailure(err error) apiError {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return apiError{http.StatusInternalServerError, "TRANSACTION_CONFLICT", genericMessage(err), false}
	case errors.Is(err, service.ErrLogProduction) &&
		(errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDuplicateKey)):
		// a removed material or a key owned by another product; the caller has to fix the run
		return apiError{http.StatusUnprocessableEntity, "PRODUCTION_FAILED", genericMessage(err), true}
	}
	return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", genericMessage(err), false}
}

func genericMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrCreateOrder):
		return service.ErrCreateOrder.Error()
	case errors.Is(err, service.ErrLogProduction):
		return service.ErrLogProduction.Error()
	}
	return "Internal server error"
}

// respondError writes err as an ErrorResponse. Server-side failures are
// logged with their cause; the client only sees the generic message.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	e := classify(err)
	message := e.message
	if e.expose {
		message = err.Error()
	}

	_ = c.Error(err)
	entry := log.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"code":  e.code,
		"error": err.Error(),
	})
	if e.status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.JSON(e.status, ErrorResponse{Message: message, Code: e.code})
}

// bindJSON decodes and validates the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validation.Messages(err),
			Code:    "VALIDATION_ERROR",
		})
		return false
	}
	return true
}
