package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/config"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/db"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/handlers"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/logger"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/ratelimit"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/services/payment"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

const memoryDSN = "memory://"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	notifier := realtime.NewNotifier(hub, rdb, log)
	if err := notifier.StartRelay(ctx); err != nil {
		log.WithError(err).Fatal("realtime relay")
	}

	deps := handlers.Deps{
		Config:   cfg,
		Store:    st,
		Hub:      hub,
		Notifier: notifier,
		Log:      log,
	}

	if rdb != nil {
		limiter, err := ratelimit.NewFixedWindowLimiter(rdb, "", cfg.AuthRateLimitPerMinute, time.Minute)
		if err != nil {
			log.WithError(err).Fatal("rate limiter")
		}
		deps.Limiter = limiter
	}

	if cfg.StripeSecretKey != "" {
		deps.Gateway = payment.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payment endpoints disabled")
	}

	if cfg.MinioEnabled() {
		objects, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.WithError(err).Fatal("object storage unavailable")
		}
		deps.Objects = objects
	} else {
		deps.Objects = storage.NewLocalStore(cfg.UploadDir, cfg.AppBaseURL)
	}

	if created, err := handlers.EnsureAdmin(ctx, st, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("admin bootstrap")
	} else if created {
		log.WithField("email", cfg.AdminEmail).Info("admin account created")
	}

	app := handlers.NewApp(deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("port", cfg.AppPort).Info("listening")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func openStore(cfg config.Config, log *logrus.Logger) (store.Store, error) {
	if cfg.DBDSN == memoryDSN {
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	gdb, err := db.Connect(cfg.DBDSN, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return store.NewGormStore(gdb), nil
}
