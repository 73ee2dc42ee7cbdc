package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/oakyard/oakyard/config"
	"github.com/oakyard/oakyard/internal/bootstrap"
	"github.com/oakyard/oakyard/internal/cache"
	"github.com/oakyard/oakyard/internal/interval"
	"github.com/oakyard/oakyard/internal/kafka"
	"github.com/oakyard/oakyard/internal/repository"
	"github.com/oakyard/oakyard/internal/service/reservation"
	"github.com/oakyard/oakyard/internal/service/session"
	"github.com/oakyard/oakyard/internal/service/spaces"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Reservation.SpacesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	spaceRepo := repository.NewSpaceRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	spaceService := spaces.NewService(spaceRepo, reviewRepo, redisCache)
	reservationService := reservation.NewService(
		bookingRepo,
		spaceRepo,
		reviewRepo,
		interval.NewIndex(),
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Reservation.HoldTTLSeconds)*time.Second,
	)
	sessionService := session.NewService(
		roomRepo,
		messageRepo,
		producer,
		time.Duration(cfg.Rooms.DefaultTTLMinutes)*time.Minute,
		time.Duration(cfg.Rooms.MaxTTLMinutes)*time.Minute,
		session.WithRoomEventsTopic(cfg.Kafka.RoomEventsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, spaceService, reservationService, sessionService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
