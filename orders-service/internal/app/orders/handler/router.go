package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(orderHandler *OrderHandler, inventoryHandler *InventoryHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware("orders-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "orders-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.GET("/", orderHandler.ListOrders)
		orders.GET("/:order_id", orderHandler.GetOrder)
		orders.GET("/:order_id/live", orderHandler.WatchOrder)
		orders.POST("/:order_id/cancel", orderHandler.CancelOrder)

		// Переходы статусов выполняет персонал
		staff := orders.Group("")
		staff.Use(authMiddleware.RequireStaff())
		{
			staff.PATCH("/:order_id/status", orderHandler.UpdateStatus)
		}
	}

	inventory := router.Group("/inventory")
	inventory.Use(authMiddleware.Authenticate(), authMiddleware.RequireStaff())
	{
		inventory.GET("/", inventoryHandler.ListInventory)
		inventory.GET("/low-stock", inventoryHandler.ListLowStock)
		inventory.POST("/", inventoryHandler.AddItem)
		inventory.PATCH("/:item_id/quantity", inventoryHandler.AdjustQuantity)
		inventory.POST("/:item_id/archive", inventoryHandler.Archive)
		inventory.POST("/:item_id/unarchive", inventoryHandler.Unarchive)
	}

	return router
}
