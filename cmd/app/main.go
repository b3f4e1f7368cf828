package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/internal/api"
	"github.com/Soltrivia-App/soltrivia-contract/internal/events"
	"github.com/Soltrivia-App/soltrivia-contract/internal/middleware"
	"github.com/Soltrivia-App/soltrivia-contract/internal/repository"
	"github.com/Soltrivia-App/soltrivia-contract/internal/service"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/auth"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	hub := events.NewHub()
	defer hub.Close()

	sinks := []events.Sink{hub}
	if cfg.Notifications.Enabled {
		notifier, err := events.NewTelegramNotifier(events.NotifierConfig{
			BotToken:  cfg.TelegramAuth.TelegramBotToken,
			Debug:     cfg.Notifications.Debug,
			Timeout:   cfg.Notifications.Timeout,
			QueueSize: cfg.Notifications.QueueSize,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize telegram notifier", zap.Error(err))
		}
		defer notifier.Close()
		sinks = append(sinks, notifier)
	}
	bus := events.NewBus(sinks...)

	ledger := service.NewLedger(repo)
	clock := clockwork.NewRealClock()
	curationService := service.NewCurationService(ledger, clock, bus)
	rewardService := service.NewRewardService(ledger, clock, bus, nil)

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.Debug)
	authorization := middleware.NewAuthorization(cfg.Operators)
	authChain := []gin.HandlerFunc{telegramAuth.TelegramAuthMiddleware(), authorization.Identity()}

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewCurationRoutes(a, curationService, authChain...)
	api.NewRewardRoutes(a, rewardService, authChain...)
	api.NewWalletRoutes(a, rewardService, authorization.OperatorOnly(), authChain...)
	api.NewEventRoutes(a, hub, authChain...)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked websocket connections are not tracked by Shutdown.
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
	}
}
