package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"soundgood-leasing/internal/cli"
	"soundgood-leasing/internal/config"
	"soundgood-leasing/internal/jobs"
	"soundgood-leasing/internal/logger"
	"soundgood-leasing/internal/repository/postgres"
	"soundgood-leasing/internal/scheduler"
	"soundgood-leasing/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	initSchema := flag.Bool("init-schema", false, "Create the item and lease tables if they do not exist, then continue")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [command [args...]]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Without a command an interactive prompt is started. Type 'help' for commands.")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Soundgood leasing...", "log_level", cfg.Log.Level)
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *initSchema {
		if err := applySchema(ctx, cfg.GetDatabaseConnectionString()); err != nil {
			logger.Error("Failed to create schema", "error", err)
			log.Fatalf("Failed to create schema: %v", err)
		}
		logger.Info("Schema ready")
	}

	// Open the single database session
	store, err := postgres.Open(ctx, cfg.Database.Driver, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to open lease store", "error", err)
		log.Fatalf("Failed to open lease store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close lease store", "error", err)
		}
	}()
	logger.Info("Database session established")

	leaseSvc := service.NewLeaseService(store, cfg.MaxActiveLeases())

	// One-shot mode: run the command given on the command line
	if flag.NArg() > 0 {
		interp := cli.NewInterpreter(leaseSvc, nil, os.Stdout)
		if _, err := interp.Execute(ctx, strings.Join(flag.Args(), " ")); err != nil {
			store.Close()
			os.Exit(1)
		}
		return
	}

	// Interactive mode keeps the session warm in the background
	cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(store, cfg))
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		store.Close()
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	reader, err := cli.NewTerminalReader()
	if err != nil {
		logger.Error("Failed to open terminal", "error", err)
		cronScheduler.Stop()
		store.Close()
		log.Fatalf("Failed to open terminal: %v", err)
	}
	go func() {
		<-ctx.Done()
		reader.Close()
	}()
	defer reader.Close()

	if err := cli.NewInterpreter(leaseSvc, reader, os.Stdout).Run(ctx); err != nil {
		logger.Error("Interpreter stopped", "error", err)
	}
	logger.Info("Goodbye!")
}

// applySchema creates the tables over a short-lived connection, separate
// from the store's session.
func applySchema(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, postgres.Schema)
	return err
}
