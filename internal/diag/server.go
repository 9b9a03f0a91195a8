// Package diag exposes a small HTTP surface for development and integration
// rigs: health probes, Prometheus metrics, and read-only views of the session
// stage and the last bootstrap outcome. It is never shipped in the production
// app binary; cmd/appcheck serves it behind a config flag.
package diag

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
)

type Server struct {
	sessions ports.SessionService
	boot     ports.Bootstrapper
	store    ports.DurableStore
	logger   zerolog.Logger
}

// NewRouter builds the Echo instance with all diagnostic routes registered.
func NewRouter(sessions ports.SessionService, boot ports.Bootstrapper, store ports.DurableStore, logger zerolog.Logger) *echo.Echo {
	s := &Server{sessions: sessions, boot: boot, store: store, logger: logger}

	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("appcore_diag"))

	e.GET("/healthz", s.Liveness)
	e.GET("/readyz", s.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/session", s.SessionView)
	e.GET("/bootstrap", s.BootstrapView)
	e.POST("/bootstrap/retry", s.BootstrapRetry)

	return e
}

func (s *Server) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Readiness probes the durable store with a read of the token key. The
// remote backend is deliberately not probed here: bootstrap is designed to
// tolerate a degraded backend, so backend health must not gate readiness.
func (s *Server) Readiness(c echo.Context) error {
	if _, _, err := s.store.Get(c.Request().Context(), ports.StoreKeyToken); err != nil {
		s.logger.Warn().Err(err).Msg("readiness: store probe failed")
		return c.JSON(http.StatusServiceUnavailable, readinessResponse{Status: "degraded", Store: "unhealthy"})
	}
	return c.JSON(http.StatusOK, readinessResponse{Status: "ok", Store: "ok"})
}

type sessionView struct {
	Stage         domain.Stage `json:"stage"`
	Email         string       `json:"email,omitempty"`
	Role          string       `json:"role,omitempty"`
	VerifiedEmail bool         `json:"verified_email"`
	LastError     string       `json:"last_error,omitempty"`
}

// SessionView reports the derived stage and the non-secret session fields.
// The bearer token is never exposed.
func (s *Server) SessionView(c echo.Context) error {
	sess := s.sessions.Session()
	return c.JSON(http.StatusOK, sessionView{
		Stage:         sess.Stage(),
		Email:         sess.Email,
		Role:          sess.Role,
		VerifiedEmail: sess.VerifiedEmail,
		LastError:     sess.LastError,
	})
}

type bootstrapView struct {
	Outcome domain.BootstrapOutcome `json:"outcome,omitempty"`
	Known   bool                    `json:"known"`
}

func (s *Server) BootstrapView(c echo.Context) error {
	outcome, known := s.boot.LastOutcome()
	view := bootstrapView{Known: known}
	if known {
		view.Outcome = outcome
	}
	return c.JSON(http.StatusOK, view)
}

type retryResponse struct {
	Outcome domain.BootstrapOutcome `json:"outcome"`
	Slots   map[string]bool         `json:"slots"`
}

// BootstrapRetry runs a fresh bootstrap attempt synchronously and reports
// which slots came back populated.
func (s *Server) BootstrapRetry(c echo.Context) error {
	bundle, outcome := s.boot.Run(c.Request().Context())
	return c.JSON(http.StatusOK, retryResponse{
		Outcome: outcome,
		Slots: map[string]bool{
			"home_articles": bundle.HomeArticles != nil,
			"journalists":   bundle.Journalists != nil,
			"search_index":  bundle.SearchIndex != nil,
			"headlines":     bundle.Headlines != nil,
			"recent_videos": bundle.RecentVideos != nil,
			"profile":       bundle.Profile != nil,
		},
	})
}
