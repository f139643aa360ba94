package api

import (
	"net/http"

	"corralx-backend/internal/api/middleware"
	"corralx-backend/internal/modules/orders"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	orderHandler *orders.Handler,
	jwtSecret string,
) {
	// Initialize the JWT authentication middleware
	authMiddleware := middleware.JWTAuth(jwtSecret)

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to the CorralX Marketplace API!"})
	})

	// --- Order Lifecycle Routes ---
	orderGroup := e.Group("/orders", authMiddleware)
	{
		orderGroup.POST("", orderHandler.CreateOrder)
		orderGroup.GET("", orderHandler.ListMyOrders)
		orderGroup.GET("/:orderId", orderHandler.GetOrderDetails)
		orderGroup.PATCH("/:orderId", orderHandler.AmendOrder)

		// Guarded transitions; an illegal source state answers 409.
		orderGroup.POST("/:orderId/accept", orderHandler.AcceptOrder)
		orderGroup.POST("/:orderId/reject", orderHandler.RejectOrder)
		orderGroup.POST("/:orderId/deliver", orderHandler.DeliverOrder)
		orderGroup.POST("/:orderId/cancel", orderHandler.CancelOrder)

		orderGroup.GET("/:orderId/receipt", orderHandler.GetReceipt)

		orderGroup.POST("/:orderId/reviews", orderHandler.SubmitReviews)
		orderGroup.GET("/:orderId/reviews", orderHandler.ListReviews)
	}
}
