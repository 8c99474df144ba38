package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/gw-labs/gw-messenger/internal/handlers"
	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/middlewares"
	"github.com/gw-labs/gw-messenger/internal/repositories"
	"github.com/gw-labs/gw-messenger/internal/services"
	"github.com/gw-labs/gw-messenger/internal/storage"
	"github.com/gw-labs/gw-messenger/internal/token"

	_ "github.com/gw-labs/gw-messenger/docs"
	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-messenger API
// @version 1.0.0
// @description Minimal messaging backend: accounts, login, typed messages and inbox paging
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		tokenCacheExpSecond,
		kafkaBroker, kafkaTopic,
		tokenSalt,
		commitEvery, flushIntervalSecond,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		tokenCacheExpSecond,
		kafkaBroker, kafkaTopic,
		tokenSalt,
		commitEvery, flushIntervalSecond,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, Kafka, token and store configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	tokenCacheExpSecond int,
	kafkaBroker, kafkaTopic string,
	tokenSalt string,
	commitEvery, flushIntervalSecond int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "messenger")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config (auth-token cache); leave REDIS_HOST empty to disable
	redisHost = getEnv("REDIS_HOST", "")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if tokenCacheExpSecond, err = strconv.Atoi(getEnv("TOKEN_CACHE_EXP_SECOND", "3600")); err != nil {
		return
	}

	// Kafka config (accepted-message events); leave KAFKA_BROKER empty to disable
	kafkaBroker = getEnv("KAFKA_BROKER", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "messages")

	// Token derivation config
	tokenSalt = getEnv("TOKEN_SALT", "salt")

	// Store durability config
	if commitEvery, err = strconv.Atoi(getEnv("STORE_COMMIT_EVERY", "20")); err != nil {
		return
	}
	if flushIntervalSecond, err = strconv.Atoi(getEnv("STORE_FLUSH_INTERVAL_SECOND", "60")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, optional Redis cache and Kafka
// writer, assembles the store, services and HTTP routes, starts the periodic
// flush and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	tokenCacheExpSecond int,
	kafkaBroker, kafkaTopic string,
	tokenSalt string,
	commitEvery, flushIntervalSecond int,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s", dsn)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL ping failed: %w", err)
	}

	// Assemble store options
	storeOpts := []storage.Option{
		storage.WithCommitEvery(int64(commitEvery)),
	}

	// Connect to Redis when configured
	if redisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", redisHost, redisPort),
			Password: redisPassword,
			DB:       redisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis connection error: %w", err)
		}
		defer rdb.Close()

		tokenCache := repositories.NewTokenCacheRepository(rdb, time.Duration(tokenCacheExpSecond)*time.Second)
		storeOpts = append(storeOpts, storage.WithTokenCache(tokenCache))
	}

	// Initialize store
	store, err := storage.New(ctx, db, storeOpts...)
	if err != nil {
		return fmt.Errorf("store initialization error: %w", err)
	}

	// Initialize Kafka writer when configured
	var kafkaWriter services.KafkaWriter
	if kafkaBroker != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(kafkaBroker),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
	}

	// Initialize services
	deriver := token.NewDeriver(tokenSalt)
	authService := services.NewAuthService(store, store, deriver)
	messageService := services.NewMessageService(store, store, store, kafkaWriter)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService)
	loginHandler := handlers.NewLoginHandler(authService)
	sendMessageHandler := handlers.NewSendMessageHandler(messageService)
	listMessagesHandler := handlers.NewListMessagesHandler(messageService)
	healthHandler := handlers.NewHealthHandler(store)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware())

	r.Post("/users", registerHandler)
	r.Post("/login", loginHandler)
	r.Post("/messages", sendMessageHandler)
	r.Get("/messages", listMessagesHandler)
	r.Post("/check", healthHandler)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Periodic flush keeps the durability window bounded even when traffic
	// stalls below the batch size.
	go func() {
		ticker := time.NewTicker(time.Duration(flushIntervalSecond) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctxShutdown.Done():
				return
			case <-ticker.C:
				if err := store.Flush(ctx); err != nil {
					logger.Log.Errorw("periodic flush failed", "error", err)
				}
			}
		}
	}()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	// Final flush so pending writes survive the shutdown
	if err := store.Close(); err != nil {
		logger.Log.Errorw("store close error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
