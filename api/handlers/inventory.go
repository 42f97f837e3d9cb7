package handlers

import (
	"net/http"

	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InventoryHandler handles catalog, finished-goods, raw-material and
// production requests
type InventoryHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewInventoryHandler creates a new InventoryHandler instance
func NewInventoryHandler(svc service.Service, log *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		log:     log,
	}
}

// ListProducts returns the active catalog
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// UpsertProduct creates or replaces a product
func (h *InventoryHandler) UpsertProduct(c *gin.Context) {
	var product models.Product
	if !bindJSON(c, &product) {
		return
	}
	if err := h.service.UpsertProduct(c.Request.Context(), &product); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListInventory returns every finished-goods ledger entry
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	entries, err := h.service.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// SetStock overrides the counted quantity of a ledger entry
func (h *InventoryHandler) SetStock(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Size      string `json:"size"`
		Quantity  *int64 `json:"quantity" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if key := models.InventoryKey(req.ProductID, req.Size); key != c.Param("key") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "product_id and size resolve to " + key + ", not " + c.Param("key"),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	entry, err := h.service.SetStock(c.Request.Context(), req.ProductID, req.Size, *req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListMaterials returns every raw material
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	materials, err := h.service.ListMaterials(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}

// AddMaterial registers a raw material
func (h *InventoryHandler) AddMaterial(c *gin.Context) {
	var req service.AddMaterialInput
	if !bindJSON(c, &req) {
		return
	}
	material, err := h.service.AddMaterial(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, material)
}

// LogIntake records raw material received into stock
func (h *InventoryHandler) LogIntake(c *gin.Context) {
	var req service.IntakeInput
	if !bindJSON(c, &req) {
		return
	}
	req.MaterialID = c.Param("id")

	intake, err := h.service.LogIntake(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, intake)
}

// ListIntakes returns the intake history of a material
func (h *InventoryHandler) ListIntakes(c *gin.Context) {
	intakes, err := h.service.ListIntakes(c.Request.Context(), c.Param("id"), 100)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, intakes)
}

// LogProduction records a manufacturing run
func (h *InventoryHandler) LogProduction(c *gin.Context) {
	var req service.ProductionInput
	if !bindJSON(c, &req) {
		return
	}
	run, err := h.service.LogProduction(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// ListProductionRuns returns the latest production runs
func (h *InventoryHandler) ListProductionRuns(c *gin.Context) {
	runs, err := h.service.ListProductionRuns(c.Request.Context(), 100)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
