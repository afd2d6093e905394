package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/notifier"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/config"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// @title                      Kanso Habit Tracker API
// @version                    1.0
// @description                Weekly habit tracking with streaks, calendar history and reminders.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}

type application struct {
	router *gin.Engine
	worker *workers.ReminderWorker

	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApplication connects the configured backends and wires services,
// handlers and the reminder worker. The worker is not started.
func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (*application, error) {
	app := &application{}
	loc := cfg.Location()

	var (
		habitRepo domain.HabitRepository
		userRepo  domain.UserRepository
		dbPinger  adapterHTTP.Pinger
	)

	if cfg.DB.InMemory() {
		log.Warn("using in-memory storage, data is lost on restart")
		habitRepo = repository.NewInMemoryHabitRepository()
		userRepo = repository.NewInMemoryUserRepository()
	} else {
		log.Info("connecting to database", zap.String("driver", cfg.DB.Driver), zap.String("host", cfg.DB.Host))

		db, err := sqlx.Connect(cfg.DB.Driver, cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })

		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

		if err := repository.Migrate(ctx, db); err != nil {
			app.close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info("database connected and migrated")

		habitRepo = repository.NewPostgresHabitRepository(db)
		userRepo = repository.NewPostgresUserRepository(db.DB)
		dbPinger = db
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rdb = client
		app.closers = append(app.closers, func() { _ = client.Close() })

		habitRepo = repository.NewCachedHabitRepository(habitRepo, rdb, cfg.Redis.CacheTTL, log)
		log.Info("redis connected", zap.String("host", cfg.Redis.Host), zap.Duration("cache_ttl", cfg.Redis.CacheTTL))
	} else {
		log.Warn("REDIS_HOST not set, caching and rate limiting are disabled")
	}

	var publisher domain.ReminderPublisher
	if cfg.AMQP.URL != "" {
		rabbit, err := notifier.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		app.closers = append(app.closers, rabbit.Close)
		publisher = rabbit
	} else {
		log.Info("AMQP_URL not set, reminder events are only logged")
		publisher = notifier.NewLogPublisher(log)
	}

	app.worker = workers.NewReminderWorker(habitRepo, publisher, log, loc, cfg.ReminderTick)

	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenDuration, userRepo)
	authService := services.NewAuthService(userRepo, tokenService)
	habitService := services.NewHabitService(habitRepo, app.worker, loc)
	statsService := services.NewStatsService(habitRepo)

	deps := adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(authService),
		HabitHandler:    adapterHTTP.NewHabitHandler(habitService),
		StatsHandler:    adapterHTTP.NewStatsHandler(statsService, loc),
		TokenService:    tokenService,
		DB:              dbPinger,
		Redis:           rdb,
		Logger:          log,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
		StartTime:       time.Now(),
	}
	app.router = adapterHTTP.NewRouter(deps)

	return app, nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	app.worker.Start(workerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Kanso Habit Tracker running", zap.String("addr", "http://localhost:"+cfg.Port), zap.String("timezone", cfg.Timezone))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info("stop signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	cancelWorker()
	app.worker.Wait()
	return nil
}
