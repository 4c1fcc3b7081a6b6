// Package api assembles the HTTP surface: the JSON API, the OAuth login
// flow, metrics and the SPA fallback.
package api

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cardledger/cardledger/internal/domain/auth"
	importhandler "github.com/cardledger/cardledger/internal/domain/import/handler"
	txhandler "github.com/cardledger/cardledger/internal/domain/transaction/handler"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Imports      *importhandler.ImportHandler
	Transactions *txhandler.TransactionHandler
	OAuth        *auth.OAuthHandler
	Tokens       *auth.TokenManager
	Registry     *prometheus.Registry

	StaticDir        string
	UploadRatePerMin int
}

// NewRouter builds the fiber application.
func NewRouter(cfg RouterConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Login flow.
	app.Get("/auth/google", adaptor.HTTPHandlerFunc(cfg.OAuth.Begin))
	app.Get("/auth/google/callback", adaptor.HTTPHandlerFunc(cfg.OAuth.Callback))
	app.Get("/logout", adaptor.HTTPHandlerFunc(cfg.OAuth.Logout))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))

	// Authenticated API.
	api := app.Group("/api/transactions", auth.Middleware(cfg.Tokens))
	api.Post("/upload", rateLimit(cfg.UploadRatePerMin), cfg.Imports.Upload)
	api.Get("/get", cfg.Transactions.List)
	api.Patch("/:id/category", cfg.Transactions.UpdateCategory)

	// Static assets, then the SPA fallback for client-side routes.
	app.Static("/", cfg.StaticDir)
	app.Use(func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
		}
		return c.SendFile(filepath.Join(cfg.StaticDir, "index.html"))
	})

	return app
}
