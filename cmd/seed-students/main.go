package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sihmvp/dropout-monitor/internal/bootstrap"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/logger"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

func main() {
	var (
		path      string
		adminUser string
		adminPass string
	)
	flag.StringVar(&path, "file", "students_data.csv", "Roster CSV or XLSX to load")
	flag.StringVar(&adminUser, "admin-user", "admin", "Default admin username")
	flag.StringVar(&adminPass, "admin-pass", "admin", "Default admin password")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer stores.Close()

	services, err := bootstrap.NewServices(ctx, cfg, log, stores)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Close()

	fmt.Printf("=== Seeding students from %s ===\n", path)

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to open roster")
	}
	defer f.Close()

	result, err := services.Ingest.Ingest(ctx, "seed", filepath.Base(path), f)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ingest roster")
	}
	fmt.Printf("Inserted %d student(s), skipped %d already present\n", result.Inserted, result.Skipped)

	created, err := services.User.EnsureUser(ctx, adminUser, adminPass, model.RoleAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure admin user")
	}
	if created {
		fmt.Printf("Created default user '%s'\n", adminUser)
	} else {
		fmt.Printf("User '%s' already exists\n", adminUser)
	}
}
