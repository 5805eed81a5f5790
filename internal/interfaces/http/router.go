// Package http enruta la API del motor de inventario sobre Fiber.
package http

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registra todas las rutas de la API. Todo lo que vive bajo /api
// pasa por el middleware de tenant.
func SetupRoutes(app *fiber.App, stockH *StockHandler, orderH *OrderHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", TenantMiddleware())

	st := api.Group("/stock")
	st.Post("/receive", stockH.Receive)
	st.Post("/adjust", stockH.Adjust)
	st.Post("/transfer", stockH.Transfer)
	st.Post("/reserve", stockH.Reserve)
	st.Post("/release", stockH.Release)
	st.Post("/commit", stockH.Commit)
	st.Get("/availability/:productId", stockH.Availability)
	st.Get("/movements", stockH.Movements)

	api.Post("/production/complete", stockH.CompleteProduction)

	orders := api.Group("/orders")
	orders.Post("/:id/status", orderH.Transition)
	orders.Post("/:id/shipments", orderH.CreateShipment)
}
