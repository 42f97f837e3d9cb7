package routes

import (
	"example.com/backstage/services/commerce/api/handlers"
	"example.com/backstage/services/commerce/api/middleware"
	"example.com/backstage/services/commerce/internal/metrics"
	"example.com/backstage/services/commerce/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, m *metrics.Metrics, adminAPIKey string, log *logrus.Logger) {
	// Health check and scraping
	r.GET("/health", handlers.HealthCheck(m))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	orderHandler := handlers.NewOrderHandler(svc, log)
	inventoryHandler := handlers.NewInventoryHandler(svc, log)
	referralHandler := handlers.NewReferralHandler(svc, log)

	// Public short links
	r.GET("/r/:code", referralHandler.Redirect)

	api := r.Group("/api/v1")

	// Storefront routes
	api.GET("/products", inventoryHandler.ListProducts)
	api.POST("/checkout/quote", orderHandler.Quote)
	api.POST("/checkout/verify", orderHandler.VerifyCheckout)

	// Back-office routes
	admin := api.Group("")
	admin.Use(middleware.AdminAuth(adminAPIKey, log))
	{
		admin.POST("/products", inventoryHandler.UpsertProduct)

		admin.POST("/field-sales", orderHandler.FieldSale)

		orders := admin.Group("/orders")
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/search", orderHandler.SearchOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/status", orderHandler.UpdateStatus)

		admin.GET("/inventory", inventoryHandler.ListInventory)
		admin.PUT("/inventory/:key", inventoryHandler.SetStock)

		materials := admin.Group("/materials")
		materials.GET("", inventoryHandler.ListMaterials)
		materials.POST("", inventoryHandler.AddMaterial)
		materials.POST("/:id/intake", inventoryHandler.LogIntake)
		materials.GET("/:id/intakes", inventoryHandler.ListIntakes)

		admin.POST("/production-runs", inventoryHandler.LogProduction)
		admin.GET("/production-runs", inventoryHandler.ListProductionRuns)

		admin.POST("/referrals", referralHandler.CreateReferral)
	}
}
