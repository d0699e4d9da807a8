package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jengzang/geolife-backend-go/internal/config"
	"github.com/jengzang/geolife-backend-go/internal/database"
	"github.com/jengzang/geolife-backend-go/internal/logger"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "geolife",
		Usage: "Ingest Geolife trajectories and run spatial-temporal queries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or pgx (env DB_DRIVER)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (env DB_PATH)"},
			&cli.StringFlag{Name: "db-dsn", Usage: "PostgreSQL DSN (env DB_DSN)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (env LOG_LEVEL)"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json (env LOG_FORMAT)"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			ingestCommand(),
			queryCommand(),
			serveCommand(),
		},
	}
}

// app bundles what every command needs
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *database.DB
}

// setup loads the config, applies flag overrides and connects to the store.
// A store that cannot be reached aborts the command.
func setup(ctx context.Context, cmd *cli.Command) (*app, error) {
	cfg := config.Load()
	if cmd.IsSet("db-driver") {
		cfg.DB.Driver = cmd.String("db-driver")
	}
	if cmd.IsSet("db-path") {
		cfg.DB.Path = cmd.String("db-path")
	}
	if cmd.IsSet("db-dsn") {
		cfg.DB.DSN = cmd.String("db-dsn")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = cmd.String("log-format")
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, logger.DefaultServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Error("database unavailable", zap.String("driver", cfg.DB.Driver), zap.Error(err))
		_ = log.Sync()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}
