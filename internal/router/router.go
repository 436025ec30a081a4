package router

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havencare/haven-go-api/internal/config"
	"github.com/havencare/haven-go-api/internal/handler"
	"github.com/havencare/haven-go-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RealtimeHandler  *handler.RealtimeHandler
	EmergencyHandler *handler.EmergencyHandler
	LocationHandler  *handler.LocationHandler
	ChatHandler      *handler.ChatHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Realtime websocket entry. The credential check runs before upgrade.
	if deps.RealtimeHandler != nil {
		realtime := app.Group("/api/v1/realtime", jwtMiddleware)
		deps.RealtimeHandler.Register(realtime)
	}

	if deps.EmergencyHandler != nil {
		emergencies := app.Group("/api/v1/emergencies", jwtMiddleware,
			middleware.RateLimit("emergency", 30, time.Minute))
		deps.EmergencyHandler.Register(emergencies)
	}

	if deps.LocationHandler != nil {
		locations := app.Group("/api/v1/locations", jwtMiddleware)
		deps.LocationHandler.Register(locations)
	}

	if deps.ChatHandler != nil {
		chat := app.Group("/api/v1/chat", jwtMiddleware,
			middleware.RateLimit("chat", 120, time.Minute))
		deps.ChatHandler.Register(chat)
	}
}
