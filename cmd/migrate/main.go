package main

import (
	"context"
	"log"
	"os"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	local, err := db.OpenLocal(ctx, cfg.LocalStorePath)
	if err != nil {
		logger.Fatalf("open local store: %v", err)
	}
	defer local.Close()

	if err := migrate.ApplyLocal(ctx, local); err != nil {
		logger.Fatalf("apply local migrations: %v", err)
	}

	logger.Println("migrations applied")
}
