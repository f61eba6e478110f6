package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"marketplace-backend/internal/auth"
	"marketplace-backend/internal/client"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/logging"
	"marketplace-backend/internal/money"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/server"
	"marketplace-backend/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	// redis is an optional cache; a missing address degrades to DB-only
	var redisClient radix.Client
	if cfg.RedisAddr != "" {
		pool, err := radix.NewPool("tcp", cfg.RedisAddr, 10)
		if err != nil {
			logger.Warn("redis unavailable, blacklist runs DB-only", zap.Error(err))
		} else {
			redisClient = pool
			defer pool.Close()
		}
	}

	var mailer client.Mailer
	var mailWorker *client.MailWorker
	if cfg.AMQPURL != "" {
		amqpConn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, mail disabled", zap.Error(err))
		} else {
			defer amqpConn.Close()
			mailer = client.NewAMQPMailer(amqpConn, logger)
			mailWorker = client.NewMailWorker(amqpConn, cfg.SMTP, logger)
		}
	}

	issuer, err := auth.NewIssuer(cfg.Token)
	if err != nil {
		logger.Fatal("load signing keys", zap.Error(err))
	}

	gateway := client.NewPaystackClient(&cfg.Paystack, cfg.Split.PlatformPercent)
	images := client.NewCloudinaryClient(&cfg.Cloudinary)
	calc := money.NewCalculator(cfg.Split.PlatformPercent)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	bankRepo := repository.NewBankAccountRepository(db)

	accessTTL := time.Duration(cfg.Token.AccessTTLMin) * time.Minute
	blacklist := auth.NewBlacklist(tokenRepo, redisClient, accessTTL)

	accountService := service.NewAccountService(
		userRepo, tokenRepo, issuer, blacklist, mailer,
		cfg.BaseURL, time.Duration(cfg.Token.ResetTTLMin)*time.Minute, logger,
	)
	cartService := service.NewCartService(db, cartRepo, productRepo, logger)
	checkoutService := service.NewCheckoutService(
		db, cartRepo, productRepo, paymentRepo, orderRepo, bankRepo, userRepo,
		gateway, mailer, calc, logger,
	)
	bankService := service.NewBankService(db, bankRepo, userRepo, gateway, cfg.Split.VendorPercent, logger)
	catalogService := service.NewCatalogService(categoryRepo, productRepo, images, logger)

	srv := server.NewServer(
		accountService, cartService, checkoutService, bankService, catalogService,
		issuer, blacklist, userRepo, logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mailWorker != nil {
		go func() {
			if err := mailWorker.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("mail worker stopped", zap.Error(err))
			}
		}()
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")
	cancel()

	if err := srv.Shutdown(); err != nil {
		logger.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
