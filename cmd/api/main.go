// Package main is the entry point for the library rentals API server.
// It wires together configuration, storage, the reservation engine, and the HTTP router.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/aoideee/library-rentals/internal/data"
	"github.com/aoideee/library-rentals/internal/rental"

	_ "github.com/lib/pq" // Register the PostgreSQL driver with database/sql.
)

// appVersion is the current version of the API, shown in logs and the healthcheck.
const appVersion = "1.0.0"

// serverConfig holds all the values that can be tweaked at startup via command-line flags.
type serverConfig struct {
	port        int    // TCP port the HTTP server listens on (default 4000)
	environment string // Runtime environment: development, staging, or production
	storage     string // Storage backend: postgres or memory
	db          struct {
		dsn          string        // PostgreSQL Data Source Name (connection string)
		maxOpenConns int           // Upper bound on open connections in the pool
		maxIdleConns int           // Upper bound on idle connections kept in the pool
		maxIdleTime  time.Duration // Idle connections older than this are closed
	}
	limiter struct {
		rps     float64 // Tokens added per second for each client IP
		burst   int     // Bucket size for each client IP
		enabled bool    // Turns the per-IP limiter on or off
	}
}

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config   serverConfig   // Server configuration loaded from flags
	logger   *slog.Logger   // Structured logger that writes to stdout
	models   data.Models    // Storage for books, users, and reservations
	rentals  *rental.Engine // Reservation lifecycle and fee rules
	shutdown chan struct{}  // Closed once the server starts shutting down
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// A .env file is optional; values in it only seed flag defaults.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("loading .env file", "error", err)
		os.Exit(1)
	}

	var settings serverConfig

	flag.IntVar(&settings.port, "port", 4000, "Server port")
	flag.StringVar(&settings.environment, "env", "development", "Environment(development|staging|production)")
	flag.StringVar(&settings.storage, "storage", "postgres", "Storage backend(postgres|memory)")

	flag.StringVar(&settings.db.dsn, "db-dsn", os.Getenv("LIBRARY_DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&settings.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&settings.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.DurationVar(&settings.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	flag.Float64Var(&settings.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&settings.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&settings.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	flag.Parse()

	var models data.Models

	switch settings.storage {
	case "memory":
		models = data.NewMemoryModels()
		logger.Info("using in-memory storage")
	case "postgres":
		db, err := openDB(settings)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		defer db.Close()

		logger.Info("database connection pool established")
		models = data.NewModels(db)
	default:
		logger.Error("unknown storage backend", "storage", settings.storage)
		os.Exit(1)
	}

	appInstance := &applicationDependencies{
		config:   settings,
		logger:   logger,
		models:   models,
		rentals:  rental.New(models.Users, models.Books, models.Reservations, logger),
		shutdown: make(chan struct{}),
	}

	err := appInstance.serve()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// openDB opens a PostgreSQL connection pool using the DSN stored in settings,
// then pings the database with a 5-second timeout to confirm it is reachable.
func openDB(settings serverConfig) (*sql.DB, error) {
	if settings.db.dsn == "" {
		return nil, errors.New("no database DSN: set -db-dsn or LIBRARY_DB_DSN")
	}

	db, err := sql.Open("postgres", settings.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(settings.db.maxOpenConns)
	db.SetMaxIdleConns(settings.db.maxIdleConns)
	db.SetConnMaxIdleTime(settings.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
