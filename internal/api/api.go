// Package api serves the diary over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/moodiary/internal/api/auth"
	"github.com/jon4hz/moodiary/internal/api/handler"
	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/scheduler"
	"github.com/jon4hz/moodiary/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	storage   *storage.Storage
	scheduler *scheduler.Scheduler
}

// New builds the server and its routes. sched may be nil.
func New(cfg *config.Config, store *storage.Storage, sched *scheduler.Scheduler, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.SessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		storage:   store,
		scheduler: sched,
	}
	s.ginEngine.Use(gin.Recovery())
	if debug {
		s.ginEngine.Use(gin.Logger())
	}
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	s.setupSession()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions("moodiary_session", store))
}

func (s *Server) setupRoutes() {
	h := handler.New(s.storage)

	s.ginEngine.GET("/healthz", h.Healthz)

	api := s.ginEngine.Group("/api")
	api.Use(auth.LoadUser(s.storage))

	api.GET("/moods", h.Moods)
	api.GET("/users", h.Users)
	api.GET("/authors", h.Authors)
	api.GET("/entries", h.Entries)
	api.GET("/feed", h.Feed)
	api.GET("/me", h.Me)
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)

	protected := api.Group("/")
	protected.Use(auth.RequireAuth(s.storage))
	protected.POST("/entries", h.CreateEntry)
	protected.PUT("/entries/:id", h.UpdateEntry)
	protected.DELETE("/entries/:id", h.DeleteEntry)

	s.setupAdminRoutes(api)
}

func (s *Server) setupAdminRoutes(api *gin.RouterGroup) {
	var jobs handler.JobRunner
	if s.scheduler != nil {
		jobs = s.scheduler
	}
	var dataPath string
	if s.cfg.Local != nil && s.cfg.Local.Store == kv.KindBadger {
		dataPath = s.cfg.Local.Path
	}
	h := handler.NewAdmin(s.storage, jobs, dataPath)

	admin := api.Group("/admin")
	admin.Use(auth.RequireAuth(s.storage), auth.RequireAdmin(s.storage.Translator()))
	admin.GET("/status", h.Status)
	admin.POST("/seed", h.Seed)
	admin.POST("/clear", h.Clear)
	admin.GET("/jobs", h.Jobs)
	admin.GET("/jobs/:id", h.Job)
	admin.POST("/jobs/:id/run", h.RunJob)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting API server", "listen", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}
