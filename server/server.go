// Package server hosts one working AltSource document over HTTP. Every
// mutating request runs the document through a core mutation, persists the
// result and only then makes it current.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/git-pkgs/altsource/internal/core"
	"github.com/git-pkgs/altsource/store"
)

// Server owns the current document. Requests are serialized by mu, so
// there is a single writer.
type Server struct {
	mu    sync.Mutex
	src   core.Source
	store store.Store

	log       *slog.Logger
	accessLog io.Writer
	now       func() time.Time
	app       *fiber.App
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for errors and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithAccessLog sets where per-request lines are written.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		s.accessLog = w
	}
}

// WithClock sets the time source used for new news items.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New loads the saved document from st, or starts a new one.
func New(ctx context.Context, st store.Store, opts ...Option) (*Server, error) {
	s := &Server{
		store:     st,
		log:       slog.Default(),
		accessLog: os.Stderr,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	src, err := store.LoadOrNew(ctx, st)
	if err != nil {
		return nil, err
	}
	s.src = src

	// Params and query values end up in the stored document, so they must
	// not alias fiber's reused request buffers.
	s.app = fiber.New(fiber.Config{
		AppName:               "altsource",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{Output: s.accessLog}))
	s.routes()
	return s, nil
}

// App returns the fiber application, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Source returns a copy of the current document.
func (s *Server) Source() core.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Clone()
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", addr)
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// update applies fn to the current document and persists the result. The
// document is left unchanged when fn or the save fails.
func (s *Server) update(ctx context.Context, fn func(core.Source) (core.Source, error)) (core.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.src)
	if err != nil {
		return s.src, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.log.Error("saving document", "error", err)
		return s.src, fiber.NewError(fiber.StatusInternalServerError, "Failed to save document")
	}
	s.src = next
	return next, nil
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	var fieldErr *core.FieldError
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, core.ErrInvalidJSON):
		code = fiber.StatusBadRequest
		message = "Invalid JSON file"
	case errors.Is(err, core.ErrIndexOutOfRange):
		code = fiber.StatusNotFound
		message = err.Error()
	case errors.As(err, &fieldErr):
		code = fiber.StatusBadRequest
		message = fieldErr.Error()
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
