package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/preetsinghmakkar/mentorly/internal/clock"
	"github.com/preetsinghmakkar/mentorly/internal/config"
	"github.com/preetsinghmakkar/mentorly/internal/handlers"
	"github.com/preetsinghmakkar/mentorly/internal/middlewares"
	"github.com/preetsinghmakkar/mentorly/internal/notify"
	"github.com/preetsinghmakkar/mentorly/internal/repositories"
	"github.com/preetsinghmakkar/mentorly/internal/repositories/memory"
	"github.com/preetsinghmakkar/mentorly/internal/routes"
	"github.com/preetsinghmakkar/mentorly/internal/services"
	ws "github.com/preetsinghmakkar/mentorly/internal/websocket"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// App is the wired server process.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	db      *sql.DB // nil with the memory store
	service *services.MentorSessionService
	hub     *ws.Hub
	router  *gin.Engine
	sweeper *ExpirySweeper
}

// New opens the configured store, applies migrations and wires every layer.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	deps := services.Deps{
		Clock:  clock.System{},
		Logger: logger,
		Policy: services.Policy{
			ChatGrace:              cfg.ChatGrace,
			ReportWindow:           cfg.ReportWindow,
			DefaultDurationMinutes: services.DefaultPolicy().DefaultDurationMinutes,
		},
	}

	var persisted services.Notifier
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = db

		if cfg.MigrationsOnStart {
			migrator, err := NewMigrator(db, logger)
			if err != nil {
				db.Close()
				return nil, err
			}
			if err := migrator.Run(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}

		deps.Sessions = repositories.NewMentorSessionRepository(db)
		deps.Messages = repositories.NewChatMessageRepository(db)
		deps.Reports = repositories.NewSessionReportRepository(db)
		deps.Directory = repositories.NewUserRepository(db)
		deps.Courses = repositories.NewCourseRepository(db)
		persisted = repositories.NewNotificationRepository(db)

	case config.StoreDriverMemory:
		store := memory.NewStore()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		deps.Sessions = store
		deps.Messages = store
		deps.Reports = store
		deps.Directory = store
		deps.Courses = store
		persisted = notify.Log{Logger: logger.With().Str("component", "notifications").Logger()}
		logger.Warn().Msg("Using in-memory store; data is lost on restart")

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	a.hub = ws.NewHub(logger)
	deps.Publisher = a.hub
	deps.Notifier = notify.Multi{persisted, a.hub}

	a.service = services.NewMentorSessionService(deps)
	a.router = NewRouter(cfg, logger, a.service, a.hub, a.db)

	if cfg.ExpirySweepInterval > 0 {
		a.sweeper = NewExpirySweeper(a.service, cfg.ExpirySweepInterval, logger)
	}
	return a, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *config.Config, logger zerolog.Logger, service *services.MentorSessionService, hub *ws.Hub, db *sql.DB) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	var pinger handlers.Pinger
	if db != nil {
		pinger = db
	}

	routes.RegisterPublicEndpoints(
		router,
		handlers.NewHealthHandler(pinger),
		handlers.NewWebSocketHandler(service, hub, cfg.CORSOrigins, logger),
		service,
		cfg.JWTSecret,
		logger,
	)
	routes.RegisterProtectedEndpoints(router, handlers.NewMentorSessionHandler(service), cfg.JWTSecret)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.sweeper != nil {
		a.sweeper.Start(ctx)
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Str("store", a.cfg.StoreDriver).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down")
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("HTTP shutdown failed")
	}

	a.Close()
	return serveErr
}

// Close releases background workers, live connections and the database.
func (a *App) Close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	a.hub.Shutdown()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database")
		}
	}
}
