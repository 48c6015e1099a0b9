package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agritech/internal/config"
	"agritech/internal/handler"
	"agritech/internal/infra/db"
	"agritech/internal/infra/events"
	"agritech/internal/infra/paypack"
	gormrepo "agritech/internal/infra/repository"
	"agritech/internal/infra/storage"
	"agritech/internal/logger"
	"agritech/internal/middleware"
	"agritech/internal/server"
	"agritech/internal/usecase"
	auth "agritech/internal/usecase/auth_usecase"
	"agritech/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

type publisher interface {
	usecase.EventPublisher
	Close() error
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.AutoMigrate {
		if err := db.MigrateUp(db.MigrationURL(cfg.Database), log); err != nil {
			return err
		}
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	users := gormrepo.NewUserGormRepository(gormDB)
	products := gormrepo.NewProductGormRepository(gormDB)
	orders := gormrepo.NewOrderGormRepository(gormDB)
	audit := gormrepo.NewAuditLogGormRepository(gormDB)
	tx := gormrepo.NewTxManagerGorm(gormDB)

	var pub publisher = events.NoopPublisher{Logger: log}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, log)
	} else {
		log.Warn("KAFKA_BROKERS not set, events are dropped")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("close publisher", zap.Error(err))
		}
	}()

	var uploader usecase.ImageUploader = storage.DisabledUploader{}
	s3, err := storage.NewS3Uploader(ctx, cfg.Storage, log)
	switch {
	case err == nil:
		uploader = s3
	case errors.Is(err, storage.ErrUploadDisabled):
		log.Warn("S3_BUCKET not set, product images are rejected")
	default:
		return err
	}

	httpClient := &http.Client{}
	tokens := paypack.NewTokenCache(cfg.PayPack.BaseURL, paypack.Credentials{
		ClientID:     cfg.PayPack.ClientID,
		ClientSecret: cfg.PayPack.ClientSecret,
	}, log, paypack.WithHTTPClient(httpClient), paypack.WithAuthTimeout(cfg.PayPack.AuthTimeout))
	gateway := paypack.NewClient(paypack.ClientConfig{
		BaseURL:       cfg.PayPack.BaseURL,
		CashInTimeout: cfg.PayPack.CashInTimeout,
		QueryTimeout:  cfg.PayPack.QueryTimeout,
	}, tokens, httpClient, log)

	v, err := validator.New()
	if err != nil {
		return err
	}
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	clock := realClock{}
	idGen := uuidGenerator{}
	hasher := auth.NewBcryptPasswordHasher(auth.DefaultBcryptCost)

	registrars := []server.RouteRegistrar{
		handler.NewAuthHandler(
			auth.NewRegisterUserUsecase(users, hasher, clock),
			auth.NewLoginUsecase(users, auth.NewBcryptPasswordVerifier(), issuer, clock),
			v,
		),
		handler.NewUserHandler(usecase.NewUserUsecase(users, audit, hasher, clock, log), v),
		handler.NewProductHandler(usecase.NewProductUsecase(products, tx, uploader, clock, log), v),
		handler.NewOrderHandler(usecase.NewOrderUsecase(orders, tx, pub, clock, idGen, cfg.Kafka.OrderTopic, log), v),
		handler.NewPaymentHandler(usecase.NewPaymentUsecase(
			orders, users, tx, gateway, pub, clock, idGen,
			usecase.PaymentConfig{
				CallbackURL:   cfg.PayPack.CallbackURL,
				WebhookSecret: cfg.PayPack.WebhookSecret,
				EventTopic:    cfg.Kafka.PaymentTopic,
				PendingWindow: cfg.PayPack.PendingWindow,
			},
			log,
		), cfg.IsDevelopment()),
		handler.NewAuditHandler(usecase.NewAuditUsecase(audit)),
	}

	guards := handler.Guards{
		Auth: []echo.MiddlewareFunc{
			middleware.AuthJWT(cfg.JWTSecret),
			middleware.ActiveUserGuard(users, log),
		},
		AuthRate:    middleware.NewRateLimiter(cfg.AuthRate.PerSecond, cfg.AuthRate.Burst).Middleware(),
		WebhookRate: middleware.NewRateLimiter(cfg.WebhookRate.PerSecond, cfg.WebhookRate.Burst).Middleware(),
	}

	e := server.New(server.Options{
		Dev:            cfg.IsDevelopment(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
		TrustProxy:     cfg.TrustProxy,
	})
	server.RegisterRoutes(e, guards, registrars...)

	log.Info("starting api",
		zap.String("env", cfg.AppEnv),
		zap.String("version", Version),
		zap.Bool("kafka", len(cfg.Kafka.Brokers) > 0),
		zap.Bool("s3", cfg.Storage.Bucket != ""))
	return server.Start(ctx, e, cfg.Addr(), log)
}
