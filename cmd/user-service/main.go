package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/okovalenko/hotel-microservice/config"
	"github.com/okovalenko/hotel-microservice/internal/middleware"
	"github.com/okovalenko/hotel-microservice/internal/user/consumer"
	"github.com/okovalenko/hotel-microservice/internal/user/handler"
	"github.com/okovalenko/hotel-microservice/internal/user/repository"
	"github.com/okovalenko/hotel-microservice/internal/user/service"
	"github.com/okovalenko/hotel-microservice/pkg/database"
	"github.com/okovalenko/hotel-microservice/pkg/logger"
	"github.com/okovalenko/hotel-microservice/pkg/rabbitmq"
	"github.com/okovalenko/hotel-microservice/pkg/session"
)

func main() {
	cfg := config.Load()
	logger.Init("user-service", cfg.AppEnv)

	db := database.NewUserDB(cfg.DSN())

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	sessionStore := session.NewStore(rdb, cfg.SessionTTL)

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	userSvc := service.NewUserService(userRepo)

	// RabbitMQ consumer: booking-completed events from the hotel service
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start consuming")
	}
	consumer.NewTrustConsumer(userSvc).Start(msgs)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(middleware.LoadSession(sessionStore))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "user-service"})
	})

	handler.NewAuthHandler(userSvc, sessionStore).RegisterRoutes(e)
	handler.NewUserHandler(userSvc).RegisterRoutes(e)

	log.Info().Str("port", cfg.UserServicePort).Msg("user service starting")
	e.Logger.Fatal(e.Start(":" + cfg.UserServicePort))
}
