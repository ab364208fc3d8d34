package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pipeboard/pipeboard/internal/config"
	"github.com/pipeboard/pipeboard/internal/handlers"
	"github.com/pipeboard/pipeboard/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	sheetsHandler *handlers.SheetsHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Sheets — everything behind JWT
	sheetsGroup := api.Group("/sheets", middleware.JWTProtected(cfg))

	sheetsGroup.Post("/credentials", sheetsHandler.SaveCredential)
	sheetsGroup.Get("/credentials", sheetsHandler.CredentialStatus)
	sheetsGroup.Delete("/credentials", sheetsHandler.DeleteCredential)

	sheetsGroup.Post("/analyze", sheetsHandler.Analyze)

	sheetsGroup.Post("/connections", sheetsHandler.CreateConnection)
	sheetsGroup.Get("/connections", sheetsHandler.ListConnections)
	sheetsGroup.Patch("/connections/:id", sheetsHandler.UpdateConnection)
	sheetsGroup.Delete("/connections/:id", sheetsHandler.DeleteConnection)
	sheetsGroup.Post("/connections/:id/sync", sheetsHandler.SyncConnection)

	sheetsGroup.Post("/sync", sheetsHandler.SyncUser)
	sheetsGroup.Post("/writeback", sheetsHandler.Writeback)

	// Admin batch sync (admin token or admin role)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/sync/run", sheetsHandler.SyncAll)
}
