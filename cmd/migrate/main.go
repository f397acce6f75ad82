package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/config"
	"github.com/genixhq/genix/internal/database"
	"github.com/genixhq/genix/internal/logger"
)

const migrateTimeout = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.Name+"-migrate")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}

	log.Info("schema applied")
}
