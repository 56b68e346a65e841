// adspool is a managed database connection pool daemon.
//
// It maintains a bounded pool of database connections with fair FIFO
// queuing, background maintenance, and a status HTTP API with
// Prometheus metrics.
//
// Usage:
//
//	adspool [flags]
//	adspool top
//	adspool stats
//
// Flags:
//
//	-config string
//	    Path to configuration file (default "~/.adspool/config.toml")
//	-listen string
//	    Status server listen address (overrides config)
//	-db string
//	    Database connection string (overrides config)
//	-v
//	    Enable verbose logging
//	-version
//	    Print version and exit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sakisthb/ads-pro-win-sub002/lib/config"
	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
	"github.com/sakisthb/ads-pro-win-sub002/lib/metrics"
	"github.com/sakisthb/ads-pro-win-sub002/lib/pgclient"
	"github.com/sakisthb/ads-pro-win-sub002/lib/tui"
	"github.com/sakisthb/ads-pro-win-sub002/lib/web"
	"github.com/sakisthb/ads-pro-win-sub002/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	defaultConfigPath := filepath.Join(homeDir, ".adspool", "config.toml")

	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	listenAddr := flag.String("listen", "", "Status server listen address (overrides config)")
	dbURL := flag.String("db", "", "Database connection string (overrides config)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "adspool - Managed database connection pool daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  adspool [flags]      Start the daemon\n")
		fmt.Fprintf(os.Stderr, "  adspool top          Launch the interactive pool monitor\n")
		fmt.Fprintf(os.Stderr, "  adspool stats        Print a one-shot pool snapshot\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("adspool version %s\n", version.Version)
		return 0
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Subcommands that only talk to a running daemon don't need a
		// valid daemon configuration.
		args := flag.Args()
		if len(args) > 0 && (args[0] == "top" || args[0] == "stats") {
			cfg = config.DefaultConfig()
		} else {
			logger.Error("failed to load config", "error", err)
			return 1
		}
	}

	if *listenAddr != "" {
		cfg.Web.Listen = *listenAddr
	}
	if *dbURL != "" {
		cfg.Database.DSN = *dbURL
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "top" {
		return handleTop(cfg)
	}
	if len(args) > 0 && args[0] == "stats" {
		return handleStats(cfg)
	}

	return runDaemon(cfg, logger)
}

// runDaemon starts the pool and the status server, then blocks until a
// shutdown signal arrives.
func runDaemon(cfg *config.Config, logger *slog.Logger) int {
	factory, err := pgclient.NewFactory(cfg.Database.DSN, cfg.Database.ConnectTimeout)
	if err != nil {
		logger.Error("failed to create database factory", "error", err)
		return 1
	}

	metrics.RecordStartTime()

	pool := dbpool.New(factory, cfg.PoolConfig())
	defer pool.Shutdown()

	var server *web.Server
	if cfg.Web.Enabled {
		server, err = web.New(web.Config{
			ListenAddr: cfg.Web.Listen,
			Pool:       pool,
			Logger:     logger,
			RateLimit: web.RateLimitConfig{
				RequestsPerSecond: cfg.Web.RequestsPerSecond,
				BurstSize:         cfg.Web.BurstSize,
			},
		})
		if err != nil {
			logger.Error("failed to create status server", "error", err)
			return 1
		}
		if err := server.Start(); err != nil {
			logger.Error("failed to start status server", "error", err)
			return 1
		}
	}

	logger.Info("adspool started",
		"version", version.Version,
		"max_connections", cfg.Pool.MaxConnections,
		"listen", cfg.Web.Listen,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", "error", err)
		}
	}

	pool.Shutdown()
	logger.Info("adspool stopped")
	return 0
}

// handleTop launches the interactive pool monitor.
func handleTop(cfg *config.Config) int {
	err := tui.Run(tui.Config{
		BaseURL: statusBaseURL(cfg),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Is the adspool daemon running?\n")
		return 1
	}
	return 0
}

// handleStats prints a one-shot snapshot of the pool statistics.
func handleStats(cfg *config.Config) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(statusBaseURL(cfg) + "/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Is the adspool daemon running?\n")
		return 1
	}
	defer resp.Body.Close()

	var health web.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
		return 1
	}

	fmt.Printf("Status:       %s\n", health.Status)
	fmt.Printf("Connections:  %d (%d active, %d idle)\n",
		health.Stats.TotalConnections,
		health.Stats.ActiveConnections,
		health.Stats.IdleConnections,
	)
	fmt.Printf("Waiting:      %d\n", health.Stats.PendingRequests)
	fmt.Printf("Avg acquire:  %s\n", health.Stats.AverageAcquireTime)
	fmt.Printf("Avg query:    %s\n", health.Stats.AverageQueryTime)
	fmt.Printf("Conn errors:  %d\n", health.Stats.ConnectionErrors)
	for _, issue := range health.Issues {
		fmt.Printf("Issue:        %s\n", issue)
	}

	if health.Status != "healthy" {
		return 1
	}
	return 0
}

// statusBaseURL derives the daemon's API address from the configuration,
// honoring the ADSPOOL_STATUS_URL environment variable.
func statusBaseURL(cfg *config.Config) string {
	if env := os.Getenv("ADSPOOL_STATUS_URL"); env != "" {
		return env
	}
	return "http://" + cfg.Web.Listen
}
