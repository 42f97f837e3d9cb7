package handlers

import (
	"net/http"
	"strconv"

	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OrderHandler handles checkout and order requests
type OrderHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(svc service.Service, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		log:     log,
	}
}

// VerifyCheckout places an online order once the gateway confirms the reference
func (h *OrderHandler) VerifyCheckout(c *gin.Context) {
	var req service.PlaceOrderInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.service.VerifyOnlineCheckout(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// FieldSale charges the customer's phone and places the order. The request
// stays open while the charge is polled.
func (h *OrderHandler) FieldSale(c *gin.Context) {
	var req service.FieldSaleInput
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.service.FieldSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Quote prices a cart without placing it
func (h *OrderHandler) Quote(c *gin.Context) {
	var req struct {
		Items []service.CartItem `json:"items" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.service.QuoteOrder(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":        quote.Items,
		"subtotal":     quote.Subtotal,
		"fees":         quote.Fees,
		"total_amount": quote.Total,
	})
}

// GetOrder returns one order with its items
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders lists orders filtered by status and salesperson
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.service.ListOrders(c.Request.Context(), repository.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		UserID: c.Query("user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// SearchOrders runs a free-text search over indexed orders
func (h *OrderHandler) SearchOrders(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "q is required", Code: "VALIDATION_ERROR"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	docs, err := h.service.SearchOrders(c.Request.Context(), q, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// UpdateStatus moves an order to a new lifecycle status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
