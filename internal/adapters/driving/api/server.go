// Package api exposes the quotation service over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
)

// serviceVersion is reported by the info endpoint.
const serviceVersion = "1.0.0"

// Server is the quotation HTTP service.
type Server struct {
	app    *fiber.App
	cfg    *Config
	quotes driving.QuoteService
}

// New creates the quotation API server.
func New(cfg *Config, quotes driving.QuoteService) *Server {
	app := fiber.New(fiber.Config{
		AppName:      cfg.ServiceName,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{app: app, cfg: cfg, quotes: quotes}

	app.Post("/quote", s.createQuote)
	app.Get("/health", s.health)
	app.Get("/", s.root)

	return s
}

// Listen serves the API on the given address, blocking until shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// createQuote prices a quotation request.
func (s *Server) createQuote(c fiber.Ctx) error {
	var req domain.QuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "invalid request body",
		})
	}

	quote, err := s.quotes.CreateQuote(c.Context(), &req)
	if err != nil {
		// Validation failures mirror the 422 contract of the original
		// quotation engine; anything else is a server fault.
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"detail": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "quotation failed",
		})
	}

	return c.JSON(quote)
}

// health reports service liveness.
func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": s.cfg.ServiceName,
	})
}

// root reports service identity.
func (s *Server) root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Alrouf Quotation Service",
		"version": serviceVersion,
	})
}
