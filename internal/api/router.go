// Package api exposes the expense workflow over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"gitlab.com/yelinaung/expense-approval/internal/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP application.
type Options struct {
	Expenses       ExpenseService
	Receipts       ReceiptIngester
	Health         Pinger
	JWTSecret      string
	UploadMaxBytes int
}

// New builds the fiber application with all routes registered.
func New(opts Options) *fiber.App {
	bodyLimit := 4 << 20
	if opts.UploadMaxBytes > 0 {
		// Multipart framing adds overhead on top of the file itself.
		bodyLimit = opts.UploadMaxBytes + 1<<20
	}

	app := fiber.New(fiber.Config{
		AppName:               "expense-approval",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger)

	app.Get("/healthz", healthHandler(opts.Health))

	h := &handlers{
		expenses:       opts.Expenses,
		receipts:       opts.Receipts,
		uploadMaxBytes: int64(opts.UploadMaxBytes),
	}

	expenses := app.Group("/api/expenses", authMiddleware([]byte(opts.JWTSecret)))
	expenses.Get("/", h.listCompany)
	expenses.Get("/employee", h.listEmployee)
	expenses.Get("/manager", h.listManager)
	expenses.Get("/admin", h.listAdmin)
	expenses.Post("/create", h.create)
	expenses.Post("/upload-receipt", h.uploadReceipt)
	expenses.Put("/:id", h.update)
	expenses.Delete("/:id", h.remove)
	expenses.Patch("/:id/status", h.updateStatus)
	expenses.Get("/:id/approvals", h.approvals)

	return app
}

func healthHandler(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.Log.Warn().Err(err).Msg("Health check failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}
	logger.Log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")
	return err
}
