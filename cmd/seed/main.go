// Command seed loads the demo store used for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/carni-kridi/attar-backend/internal/seed"
	"github.com/carni-kridi/attar-backend/pkg/config"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/logger"
	"github.com/carni-kridi/attar-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	seedCfg := seed.DefaultConfig()
	flag.StringVar(&seedCfg.Password, "password", seedCfg.Password, "password for the demo owner and worker")
	flag.StringVar(&seedCfg.AdminPassword, "admin-password", seedCfg.AdminPassword, "password for the demo admin")
	flag.Parse()

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "resource not working: config", err)
		os.Exit(1)
	}
	seedCfg.Argon = cfg.Password

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.AutoRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "auto migrations failed", err)
		os.Exit(1)
	}

	report, err := seed.Run(ctx, dbClient, seedCfg, logg)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	if report.Skipped {
		fmt.Println("demo data already present, nothing to do")
		return
	}
	fmt.Printf("seeded store %s with %d clients and %d entries\n", report.StoreID, report.Clients, report.Entries)
	fmt.Printf("attara: %s / %s\n", seed.OwnerEmail, seedCfg.Password)
	fmt.Printf("worker: %s / %s\n", seed.WorkerEmail, seedCfg.Password)
	fmt.Printf("admin:  %s / %s\n", seed.AdminEmail, seedCfg.AdminPassword)
}
