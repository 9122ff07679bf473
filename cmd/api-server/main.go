package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.IsProduction(), cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Str("version", version).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, log)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	if cfg.AutoMigrate {
		if err := db.NewMigrator(pgPool, log).Up(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("migration error")
		}
	}

	// Redis is only needed for the booking lock
	var (
		locker      redisclient.Locker = redisclient.NoopLocker{}
		redisPinger api.Pinger
	)
	if cfg.BookingLock {
		rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis")
			}
		}()
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		redisPinger = api.RedisPinger{Client: rdb}
		log.Info().Str("addr", cfg.RedisAddr).Dur("lock_ttl", cfg.LockTTL).Msg("booking lock enabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connection error")
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing amqp publisher")
			}
		}()
		publisher = pub
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing appointment events")
	}

	directory := clinic.NewPgRepository(pgPool)
	appointments := appointment.NewService(appointment.NewPgRepository(pgPool), directory, locker, publisher, log)
	rules := availability.NewService(availability.NewPgRepository(pgPool), directory, appointments, log)

	router := api.NewRouter(api.RouterConfig{
		Availability:    rules,
		Appointments:    appointments,
		Professionals:   clinic.NewService(directory, log),
		Patients:        appointments,
		Directory:       directory,
		Verifier:        auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Postgres:        pgPool,
		Redis:           redisPinger,
		Logger:          log,
		CORSOrigins:     cfg.CORSOrigins,
		PublicRateLimit: cfg.PublicRateLimit,
		Env:             cfg.Env,
		Version:         version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
