// Package web — HTTP интерфейс планировщика на gin.
//
// HTML форма для браузера, JSON API, SSE поток прогресса и выгрузка
// маршрута в PDF. При ошибке конфигурации форма заменяется сообщением,
// а все /plan эндпоинты отвечают 503.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/pkg/app"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Planner — то, что нужно web слою от приложения. *app.Components ему удовлетворяет.
type Planner interface {
	Plan(ctx context.Context, destination string, days int) (agent.Outcome, error)
}

// Deps — зависимости сервера.
type Deps struct {
	Planner Planner

	// ConfigErr — ошибка проверки ключей; не nil = заблокированный режим.
	ConfigErr error

	Model          string
	SearchProvider string
	AllowedOrigins []string

	// Now — для PDF; nil = time.Now.
	Now func() time.Time
}

// FromComponents строит Deps из собранного приложения.
func FromComponents(c *app.Components) Deps {
	d := Deps{
		ConfigErr:      c.ConfigErr,
		Model:          c.Config.Models.DefaultChat,
		SearchProvider: c.Config.Search.Provider,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	}
	if !c.Blocked() {
		d.Planner = c
		d.Model = c.Planner.Model()
	}
	return d
}

type handler struct {
	deps Deps
}

// NewRouter создаёт gin engine со всеми маршрутами.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.ConfigErr == nil && deps.Planner == nil {
		return nil, errors.New("web: planner is required when configuration is valid")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := gin.New()
	r.Use(RequestID(), Logger(), gin.Recovery(), CORS(deps.AllowedOrigins))
	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Warn("Failed to set trusted proxies", "error", err)
	}
	r.SetHTMLTemplate(tmpl)

	h := &handler{deps: deps}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/", h.index)
	r.POST("/plan", h.requireConfig(true), h.planForm)

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/plan", h.requireConfig(false), h.planJSON)
		api.GET("/plan/stream", h.requireConfig(false), h.planStream)
		api.POST("/itinerary.pdf", h.itineraryPDF)
	}

	return r, nil
}

// Server — HTTP сервер с graceful shutdown.
type Server struct {
	srv *http.Server
}

// NewServer создаёт сервер на addr.
func NewServer(addr string, deps Deps) (*Server, error) {
	router, err := NewRouter(deps)
	if err != nil {
		return nil, err
	}
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		// Без WriteTimeout: генерация маршрута и SSE длятся минутами
		IdleTimeout: 60 * time.Second,
	}}, nil
}

// Run слушает до отмены ctx, затем корректно останавливается.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		utils.Info("HTTP server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utils.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	utils.Info("HTTP server stopped")
	return nil
}
