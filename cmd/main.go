package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directory-service/internal/api"
	"directory-service/internal/auth"
	"directory-service/internal/config"
	"directory-service/internal/consumer"
	"directory-service/internal/metrics"
	"directory-service/internal/repository"
	"directory-service/internal/service"
	"directory-service/migrations"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func connectDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MySQLMaxConns)

	for i := 0; i < 10; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			log.Info().Msgf("Connected to DB %s", cfg.MySQLDatabase)
			return db, nil
		}
		log.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%s)", i+1, cfg.MySQLDatabase, cfg.MySQLHost, cfg.MySQLPort)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	db.Close()
	return nil, err
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MySQL")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(ctx, 3, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate tables")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	m := metrics.New()
	profiles := repository.NewProfileRepository(rdb)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	var publisher service.EventPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		writer := config.NewKafkaWriter(brokers, cfg.KafkaLinkTopic)
		defer writer.Close()
		publisher = config.NewLinkPublisher(writer)

		reader := config.NewKafkaReader(brokers, cfg.KafkaLinkTopic, cfg.KafkaGroupID)
		go consumer.NewConsumer(reader, profiles).Run(ctx)
	} else {
		log.Warn().Msg("KAFKA_BROKERS not set, failed profile links will not be reconciled")
	}

	stores := map[string]service.ResourceStore{}
	for _, d := range service.Descriptors() {
		stores[d.Table] = repository.NewResourceRepository(db, d.Table, d.Schema.Names())
	}
	catalog, err := service.NewCatalog(service.Descriptors(), stores, profiles, service.NewLinker(profiles, publisher, m))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build services")
	}

	e := api.NewServer(api.Options{
		Catalog: catalog,
		Users:   service.NewUserService(profiles, tokens, catalog),
		Tokens:  tokens,
		Metrics: m,
		Checks: map[string]api.HealthCheck{
			"mysql": db.PingContext,
			"redis": profiles.Ping,
		},
		Logger:    log.Logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	go func() {
		log.Info().Msgf("Server is running on %s", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
