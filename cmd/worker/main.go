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
	"github.com/oakyard/oakyard/internal/cache"
	"github.com/oakyard/oakyard/internal/email"
	"github.com/oakyard/oakyard/internal/interval"
	"github.com/oakyard/oakyard/internal/kafka"
	"github.com/oakyard/oakyard/internal/repository"
	"github.com/oakyard/oakyard/internal/service/reservation"
	"github.com/oakyard/oakyard/internal/service/session"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Reservation.SpacesCacheTTL)*time.Second)

	spaceRepo := repository.NewSpaceRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

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

	consumer := kafka.NewConsumer(cfg.Kafka)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	completionTicker := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
	defer completionTicker.Stop()
	roomTicker := time.NewTicker(time.Duration(cfg.Worker.RoomSweepMinutes) * time.Minute)
	defer roomTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-completionTicker.C:
			completed, err := reservationService.CompleteElapsed(ctx)
			if err != nil {
				log.Printf("complete bookings error: %v", err)
				continue
			}
			if len(completed) > 0 {
				log.Printf("completed %d bookings", len(completed))
			}
		case <-roomTicker.C:
			expired, err := sessionService.ExpireRooms(ctx)
			if err != nil {
				log.Printf("expire rooms error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d rooms", len(expired))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
