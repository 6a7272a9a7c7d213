package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/redis/go-redis/v9"

	"github.com/zahran001/e-commerce/cart-service/internal/cache"
	"github.com/zahran001/e-commerce/cart-service/internal/catalog"
	carthttp "github.com/zahran001/e-commerce/cart-service/internal/http"
	"github.com/zahran001/e-commerce/cart-service/internal/pricing"
	"github.com/zahran001/e-commerce/cart-service/internal/repository"
	"github.com/zahran001/e-commerce/cart-service/internal/service"
	"github.com/zahran001/e-commerce/internal/events"
	"github.com/zahran001/e-commerce/pkg/logger"
)

type Config struct {
	HTTPPort        string
	KafkaBrokers    []string
	RedisAddr       string
	ProductBaseURL  string
	CouponBaseURL   string
	CacheTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DB *repository.Credentials
}

func loadConfig() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, errors.New("invalid DB_PORT")
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "15m"))
	if err != nil {
		return nil, errors.New("invalid CACHE_TTL")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		ProductBaseURL:  getEnv("PRODUCT_SERVICE_URL", "http://localhost:8082"),
		CouponBaseURL:   getEnv("COUPON_SERVICE_URL", "http://localhost:8083"),
		CacheTTL:        cacheTTL,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "ecommerce"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.New("cart-service")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	repo, err := repository.NewRepository(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient, cache.Options{BaseTTL: cfg.CacheTTL})

	kafkaPublisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		logger.NewWatermillAdapter(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka publisher")
	}
	publisher := events.NewPublisher(kafkaPublisher)
	defer publisher.Close()

	catalogCfg := catalog.Config{
		ProductBaseURL: cfg.ProductBaseURL,
		CouponBaseURL:  cfg.CouponBaseURL,
		Timeout:        5 * time.Second,
	}
	pricer := pricing.NewEngine(
		catalog.NewHTTPProductClient(catalogCfg),
		catalog.NewHTTPCouponClient(catalogCfg),
		log,
	)

	svc := service.NewCartService(repo, cartCache, pricer, publisher, log)

	handler := carthttp.NewCartHandler(svc, cfg.RequestTimeout, log)
	router := carthttp.NewRouter(handler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("cart service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down cart service")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("cart service stopped")
}
