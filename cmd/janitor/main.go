package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/DioGolang/GeoDispatch/configs"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/infra/database"
	pushinfra "github.com/DioGolang/GeoDispatch/internal/infra/notification"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	_ "github.com/lib/pq"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report invalid device tokens without removing them")
	configPath := flag.String("config", ".", "directory holding the .env file")
	flag.Parse()

	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(cfg.ServiceName+"-janitor", cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FCMCredentialsFile == "" {
		log.Error(ctx, "FCM_CREDENTIALS_FILE is required for the token sweep")
		os.Exit(1)
	}
	creds, err := os.ReadFile(cfg.FCMCredentialsFile)
	if err != nil {
		log.Error(ctx, "Failed to read FCM credentials", logger.WithError(err))
		os.Exit(1)
	}
	transport, err := pushinfra.NewFCMTransport(ctx, cfg.FCMProjectID, creds, log)
	if err != nil {
		log.Error(ctx, "Failed to init FCM transport", logger.WithError(err))
		os.Exit(1)
	}

	db, err := sql.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		panic(err)
	}
	defer db.Close()

	sweeper := notification.NewSweeper(database.NewTokenRepository(db), transport, log, cfg.FCMConcurrency, cfg.FCMSendTimeout)
	sweeper.DryRun = *dryRun

	report, err := sweeper.Run(ctx)
	if err != nil {
		log.Error(ctx, "Token sweep failed", logger.WithError(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
