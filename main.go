// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"room-booking/cmd"
	"room-booking/internal/data/repository"
	"room-booking/internal/gateway/wechat"
	"room-booking/internal/usecase"
	"room-booking/internal/wire"
	"room-booking/pkg/cache"
	"room-booking/pkg/database"
	"room-booking/pkg/middleware"
	"room-booking/pkg/mq"
	"room-booking/pkg/token"
	"room-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database schema up to date")
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	ext := usecase.Collaborators{
		Identity: wechat.NewIdentityClient(config.WeChat, logger),
		Tokens:   token.NewIssuer(config.JWT.Secret, config.JWT.Issuer, config.JWT.AccessExpiry, config.JWT.RefreshExpiry),
		Gateway:  wechat.NewPayClient(config.WeChat, logger),
		Events:   mq.Nop{},
	}

	if config.AMQP.URL != "" {
		publisher, err := mq.NewPublisher(config.AMQP.URL, config.AMQP.Exchange, logger)
		if err != nil {
			logger.Warn("Event broker unavailable, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			ext.Events = publisher
			logger.Info("Publishing events", zap.String("exchange", config.AMQP.Exchange))
		}
	}

	var limiter middleware.WindowCounter
	if config.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(config.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, login rate limit disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			limiter = redisCache
		}
	}

	// Wire all dependencies
	app := wire.Wiring(db, repos, config, ext, limiter, logger)

	go cmd.RunBookingSweeper(ctx, app.Service.Booking, app.Service.Session, config.Booking, logger)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
