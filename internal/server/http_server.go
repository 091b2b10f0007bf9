package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/httpx"
)

// NewRouter builds the gin engine: recovery and access logging, identity
// resolution on /api, every registrar's routes, and the upload directory
// served statically.
func NewRouter(appCtx *app.AppContext, gate *auth.Gate, registrars ...Registrar) *gin.Engine {
	if !appCtx.Config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(httpx.Recovery(appCtx.Logger), httpx.RequestLogger(appCtx.Logger))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if appCtx.Files != nil {
		r.Static(appCtx.Config.Upload.PublicPath, appCtx.Files.Dir())
	}

	api := r.Group("/api")
	api.Use(gate.Middleware())
	for _, reg := range registrars {
		reg.Register(api)
	}
	return r
}

// HTTPServer wraps net/http with the configured timeouts.
type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(appCtx *app.AppContext, handler http.Handler) *HTTPServer {
	cfg := appCtx.Config.HTTP
	return &HTTPServer{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Addr is the configured listen address.
func (s *HTTPServer) Addr() string { return s.srv.Addr }

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *HTTPServer) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
