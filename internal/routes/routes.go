package routes

import (
	"malti-dashboard/internal/controller"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register attaches all HTTP routes to the Fiber app.
func Register(app *fiber.App, dashboardController controller.DashboardController, sessionController controller.SessionController, gatherer prometheus.Gatherer) {
	api := app.Group("/api")
	api.Post("/session", sessionController.Login)
	api.Delete("/session", sessionController.Logout)
	api.Get("/session", sessionController.Current)
	api.Get("/dashboard", dashboardController.GetDashboard)
	api.Get("/time-ranges", dashboardController.GetTimeRanges)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
