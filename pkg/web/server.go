package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/logger"
)

// Server wraps the echo instance with lifecycle control.
type Server struct {
	echo *echo.Echo
	addr string
}

func NewServer(cfg *config.Config, eng *engine.Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	NewHandler(eng).RegisterRoutes(e)

	return &Server{
		echo: e,
		addr: fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
	}
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	logger.InfoCF("web", "HTTP server listening", map[string]interface{}{"addr": s.addr})
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.InfoC("web", "HTTP server shutting down")
	return s.echo.Shutdown(ctx)
}
