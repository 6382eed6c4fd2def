package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"medicare-backend/internal/agent"
	"medicare-backend/internal/analysis"
	"medicare-backend/internal/appointment"
	"medicare-backend/internal/config"
	"medicare-backend/internal/platform/db"
	"medicare-backend/internal/platform/httpx"
	"medicare-backend/internal/platform/logger"
	"medicare-backend/internal/platform/metrics"
	"medicare-backend/internal/platform/middleware"
	"medicare-backend/internal/platform/telegram"
	"medicare-backend/internal/report"
	"medicare-backend/internal/user"
)

type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *sql.DB
	metrics *metrics.Metrics

	users        user.Repository
	sessions     analysis.SessionStore
	appointments appointment.Repository
	model        agent.Client
	renderer     *report.Renderer
}

// newApp opens storage for the configured driver and builds the shared
// dependencies. With postgres, pending migrations are applied first.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		metrics:  metrics.New(),
		renderer: report.NewRenderer(cfg.ReportFontPath),
		model: agent.NewGroqClient(agent.Config{
			APIKey:  cfg.GrokAPIKey,
			BaseURL: cfg.AIBaseURL,
			Model:   cfg.AIModel,
		}),
	}
	if cfg.GrokAPIKey == "" {
		log.Warn().Msg("GROK_API_KEY is not set, every analysis will use the rule based fallback")
	}

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBConnectRetries, log)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("migrations applied")
		a.db = conn
		a.users = user.NewPostgresRepository(conn)
		a.sessions = analysis.NewPostgresStore(conn)
		a.appointments = appointment.NewPostgresRepository(conn)
	default:
		a.users = user.NewMemoryRepository()
		a.sessions = analysis.NewMemoryStore()
		a.appointments = appointment.NewMemoryRepository()
	}

	if cfg.SeedDemoUsers {
		n, err := user.SeedDemo(ctx, user.NewService(a.users))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("seed demo users: %w", err)
		}
		log.Info().Int("created", n).Msg("demo users seeded")
	}
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *app) notifier() analysis.EmergencyNotifier {
	if !a.cfg.TelegramEnabled() {
		return nil
	}
	tg := telegram.NewClient(a.cfg.TelegramToken)
	return report.NewNotifier(tg, a.cfg.DoctorChatID, a.renderer, a.log)
}

func (a *app) router() http.Handler {
	tokens := user.NewTokens(a.cfg.JWTSecret, a.cfg.JWTExpires)
	auth := user.NewAuthenticator(a.users, tokens)
	cookies := user.CookieConfig{ExpireDays: a.cfg.CookieExpireDays, Secure: a.cfg.IsProduction()}

	userHandler := user.NewHandler(user.NewService(a.users), tokens, cookies)
	appointmentHandler := appointment.NewHandler(appointment.NewService(a.appointments, a.users))

	opts := analysis.Options{
		HistoryCap:   a.cfg.HistoryCap,
		ModelTimeout: a.cfg.AITimeout,
		Logger:       a.log.With().Str("component", "analysis").Logger(),
		Metrics:      a.metrics,
	}
	if n := a.notifier(); n != nil {
		opts.Notifier = n
	}
	analysisHandler := analysis.NewHandler(analysis.NewService(a.sessions, a.model, opts), a.renderer)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(a.log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(a.cfg.CORSOrigins))
	r.Use(a.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	})
	r.Get("/readyz", a.ready)
	r.Handle("/metrics", a.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			user.RegisterRoutes(r, userHandler, auth)
		})
		r.Route("/appointment", func(r chi.Router) {
			appointment.RegisterRoutes(r, appointmentHandler, auth)
		})
		r.Route("/ai", func(r chi.Router) {
			analysis.RegisterRoutes(r, analysisHandler, auth.RequirePatient)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, httpx.NotFound("Route not found"))
	})
	return r
}

func (a *app) ready(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			a.log.Warn().Err(err).Msg("readiness check failed")
			httpx.WriteError(w, httpx.NewError(http.StatusServiceUnavailable, "Database unavailable"))
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "status": "ready"})
}

// withDatabase opens postgres for one-off commands.
func withDatabase(ctx context.Context, fn func(conn *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBConnectRetries, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}
