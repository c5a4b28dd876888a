package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/username/shift-calendar/internal/backup"
	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/rotation"
	"github.com/username/shift-calendar/internal/stats"
)

// Planner is the calendar surface the handlers drive
type Planner interface {
	Year(ctx context.Context, year int) (*planner.YearView, error)
	Statistics(ctx context.Context, year int) (stats.YearStatistics, error)
	SetExpectedHours(ctx context.Context, hours float64) error
	Rotation(ctx context.Context) (*rotation.Config, error)
	SetRotation(ctx context.Context, cfg *rotation.Config) error
	SetOverride(ctx context.Context, date time.Time, o grid.Override) error
	ClearOverride(ctx context.Context, date time.Time) error
	AssignShift(ctx context.Context, date time.Time, letter string) error
	Holidays(ctx context.Context, year int) ([]calendar.Holiday, error)
	AddHoliday(ctx context.Context, h calendar.Holiday) error
	EditHoliday(ctx context.Context, day int, month time.Month, year int, updated calendar.Holiday) error
	DeleteHoliday(ctx context.Context, date time.Time, thisYearOnly bool) error
	RestoreHoliday(ctx context.Context, date time.Time, thisYearOnly bool) error
}

// Backup moves the whole store in and out
type Backup interface {
	ExportJSON(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte, currentYear int) (backup.Summary, error)
}

// Config holds the HTTP server settings
type Config struct {
	Address        string
	Timeout        time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// Server serves the calendar over HTTP. Requests are handled one at a time
// so a snapshot read never interleaves with a write.
type Server struct {
	planner Planner
	backup  Backup
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewServer creates a new API server
func NewServer(p Planner, b Backup, cfg Config, logger *zap.Logger) *Server {
	return &Server{
		planner: p,
		backup:  b,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/health", s.health)

	router.Route("/api", func(r chi.Router) {
		r.Use(s.serialize)

		r.Get("/years/{year}/grid", s.getGrid)
		r.Get("/years/{year}/stats", s.getStats)
		r.Get("/years/{year}/holidays", s.getHolidays)
		r.Get("/years/{year}/report.xlsx", s.getReport)

		r.Get("/rotation", s.getRotation)
		r.Put("/rotation", s.putRotation)

		r.Put("/overrides/{date}", s.putOverride)
		r.Delete("/overrides/{date}", s.deleteOverride)

		r.Post("/holidays", s.postHoliday)
		r.Put("/holidays/{date}", s.putHoliday)
		r.Delete("/holidays/{date}", s.deleteHoliday)
		r.Post("/holidays/{date}/restore", s.restoreHoliday)

		r.Put("/statistics/expected", s.putExpectedHours)

		r.Get("/export", s.getExport)
		r.Post("/import", s.postImport)
	})

	return router
}

func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server started", zap.String("address", s.cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}
