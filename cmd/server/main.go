package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
	"github.com/simsmaster/sims-backend/internal/database"
	"github.com/simsmaster/sims-backend/internal/handler"
	"github.com/simsmaster/sims-backend/internal/logger"
	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/queue"
	"github.com/simsmaster/sims-backend/internal/repository"
	"github.com/simsmaster/sims-backend/internal/router"
	"github.com/simsmaster/sims-backend/internal/service"
	"github.com/simsmaster/sims-backend/internal/validator"
	"github.com/simsmaster/sims-backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting SIMS Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to RabbitMQ (optional) ────────────────────────────────
	amqpConn, err := database.NewAMQPConnection(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
	}
	var publisher service.EventPublisher
	if amqpConn != nil {
		defer amqpConn.Close()
		p, err := queue.NewPublisher(amqpConn, config.QueueKey.EnrollmentCommitted)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open event publisher")
		}
		defer p.Close()
		publisher = p
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	appRepo := repository.NewApplicationRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	commitRepo := repository.NewCommitRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	viewCache := service.NewViewCache(rdb, cfg.ViewCacheTTL)
	notifier := service.NewFanoutNotifier(viewCache, rdb, publisher, log)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	classService := service.NewClassService(classRepo, viewCache, log)
	cartService := service.NewCartService(cartRepo, classRepo)
	appService := service.NewApplicationService(appRepo, userRepo)
	enrollmentService := service.NewEnrollmentService(commitRepo, notifier, log)
	historyService := service.NewHistoryService(paymentRepo, enrollmentRepo)
	viewService := service.NewViewService(classRepo, userRepo, dashboardRepo, viewCache, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, userService),
		User:        handler.NewUserHandler(userService),
		Class:       handler.NewClassHandler(classService, userService),
		Cart:        handler.NewCartHandler(cartService),
		Application: handler.NewApplicationHandler(appService),
		Payment:     handler.NewPaymentHandler(enrollmentService, historyService, log),
		View:        handler.NewViewHandler(viewService),
		WS:          handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
		System:      handler.NewSystemHandler(pool, rdb, log),
	}
	mw := &router.Middlewares{
		Tokens:      authService,
		Roles:       userService,
		LoginLimits: middleware.NewRateLimiter(rdb, cfg.LoginRateLimit, time.Minute, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.SetupRouter(handlers, mw, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// ─── HTTP Server ───────────────────────────────────────────────────
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ─── Background Workers ────────────────────────────────────────────
	recovery := worker.NewIntentRecoveryWorker(enrollmentService, cfg.IntentRecoveryInterval, cfg.IntentStaleAfter, log)
	g.Go(func() error {
		recovery.Start(gctx)
		return nil
	})

	if amqpConn != nil {
		consumer := queue.NewConsumer(amqpConn, config.QueueKey.EnrollmentCommitted, rewarmViews(viewService, log), log)
		g.Go(func() error {
			consumer.Run(gctx)
			return nil
		})
	}

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Shutdown complete")
}

// rewarmViews rebuilds the cached catalog views after each committed
// enrollment so the next reader does not pay for the recomputation.
func rewarmViews(views *service.ViewService, log zerolog.Logger) queue.EnrollmentHandler {
	l := log.With().Str("component", "view_rewarmer").Logger()
	return func(ctx context.Context, ev queue.EnrollmentCommittedEvent) error {
		l.Debug().
			Str("transaction_id", ev.TransactionID).
			Int("classes", len(ev.Classes)).
			Msg("Enrollment committed")

		if _, err := views.PopularClasses(ctx); err != nil {
			return err
		}
		_, err := views.InstructorLeaderboard(ctx)
		return err
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
