package handlers

import (
	"net/http"

	"example.com/backstage/services/commerce/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReferralHandler handles short links
type ReferralHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewReferralHandler creates a new ReferralHandler instance
func NewReferralHandler(svc service.Service, log *logrus.Logger) *ReferralHandler {
	return &ReferralHandler{
		service: svc,
		log:     log,
	}
}

// CreateReferral issues a new short link
func (h *ReferralHandler) CreateReferral(c *gin.Context) {
	var req service.ReferralInput
	if !bindJSON(c, &req) {
		return
	}

	referral, link, err := h.service.CreateReferral(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"referral":   referral,
		"short_link": link,
	})
}

// Redirect counts the click and sends the browser to the destination
func (h *ReferralHandler) Redirect(c *gin.Context) {
	destination, err := h.service.ResolveReferral(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, destination)
}
