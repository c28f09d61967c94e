package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/okovalenko/hotel-microservice/config"
	"github.com/okovalenko/hotel-microservice/internal/hotel/client"
	"github.com/okovalenko/hotel-microservice/internal/hotel/handler"
	"github.com/okovalenko/hotel-microservice/internal/hotel/repository"
	"github.com/okovalenko/hotel-microservice/internal/hotel/service"
	"github.com/okovalenko/hotel-microservice/internal/middleware"
	"github.com/okovalenko/hotel-microservice/pkg/database"
	"github.com/okovalenko/hotel-microservice/pkg/logger"
	"github.com/okovalenko/hotel-microservice/pkg/rabbitmq"
	"github.com/okovalenko/hotel-microservice/pkg/session"
)

func main() {
	cfg := config.Load()
	logger.Init("hotel-service", cfg.AppEnv)

	db := database.NewHotelDB(cfg.DSN())

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	sessionStore := session.NewStore(rdb, cfg.SessionTTL)

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}
	defer publisher.Close()

	userClient := client.NewUserClient(cfg.UserServiceURL)

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	roomRepo := repository.NewRoomRepository(db)

	// Services
	bookingSvc := service.NewBookingService(bookingRepo, roomRepo, userClient, publisher)
	roomSvc := service.NewRoomService(roomRepo, bookingRepo)

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
		return c.JSON(200, map[string]string{"status": "ok", "service": "hotel-service"})
	})

	handler.NewBookingHandler(bookingSvc, userClient, sessionStore).RegisterRoutes(e)
	handler.NewRoomHandler(roomSvc).RegisterRoutes(e)

	log.Info().Str("port", cfg.HotelServicePort).Msg("hotel service starting")
	e.Logger.Fatal(e.Start(":" + cfg.HotelServicePort))
}
