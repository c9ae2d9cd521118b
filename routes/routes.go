package routes

import (
	controller "nexusdesk/controllers"
	"nexusdesk/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupInboxRoutes(app *fiber.App, inbox *controller.InboxController, analyzeLimiter fiber.Handler) {
	api := app.Group("", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	api.Get("/messages", inbox.GetMessages)
	api.Post("/messages/:id/send", inbox.SendReply)
	api.Post("/analyze-ticket", analyzeLimiter, inbox.AnalyzeTicket)
}

func SetupRoutes(app *fiber.App, inbox *controller.InboxController, analyzeLimiter fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", middleware.MetricsHandler())

	SetupInboxRoutes(app, inbox, analyzeLimiter)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
