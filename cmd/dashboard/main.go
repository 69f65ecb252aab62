package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sihmvp/dropout-monitor/internal/apiclient"
	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/dashboard"
	"github.com/sihmvp/dropout-monitor/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $DASHBOARD_CONFIG)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	// ─── Client ────────────────────────────────────────────────────────
	api := apiclient.New(cfg.APIURL, &http.Client{Timeout: cfg.Timeout})
	app := dashboard.NewApp(api, dashboard.AppOptions{
		SearchDebounce: cfg.SearchDebounce,
		Live:           cfg.Live,
		Log:            log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Debug().Str("api_url", cfg.APIURL).Msg("Dashboard starting")

	// The prompt blocks on stdin, so an interrupt signs out and exits here.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
		if app.Session().Valid() {
			app.Logout(context.Background())
		}
		fmt.Fprintln(os.Stdout)
		os.Exit(130)
	}()

	sh := newShell(app, os.Stdin, os.Stdout)
	sh.run(ctx)

	if app.Session().Valid() {
		app.Logout(context.Background())
	}
}
