// Command ameditor runs the Alertmanager configuration editor service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"ameditor/pkg/config"
	"ameditor/pkg/debounce"
	"ameditor/pkg/editor"
	"ameditor/pkg/history"
	"ameditor/pkg/httpapi"
	"ameditor/pkg/logx"
	"ameditor/pkg/markers"
	"ameditor/pkg/metrics"
	"ameditor/pkg/remote"
)

func main() {
	var configPath string
	var listenAddr string
	var debugMode bool

	flag.StringVar(&configPath, "config", "ameditor.yaml", "path to the service config file")
	flag.StringVar(&listenAddr, "listen", "", "listen address override")
	flag.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flag.Parse()

	if debugMode {
		logx.SetDebug(true)
	}
	logger := logx.NewLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	token := resolveRemoteToken(logger)

	recorder := metrics.NewPrometheusRecorder()
	markerStore := markers.NewStore()

	client := remote.NewClient(cfg.Remote.URL, token)
	client.SetTimeout(time.Duration(cfg.Remote.TimeoutSec) * time.Second)

	histStore, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		logger.Warn("Publish history disabled: %v", err)
		histStore = nil
	}

	manager := editor.NewManager(func() *editor.Session {
		return editor.NewSession(editor.Config{
			TenantID:  cfg.Remote.TenantID,
			Markers:   markerStore,
			Publisher: client,
			Recorder:  recorder,
			History:   histStore,
			Debounce: debounce.Options{
				LeadingWindow: cfg.Validation.LeadingWindow(),
				SettleDelay:   cfg.Validation.SettleDelay(),
				MaxWait:       cfg.Validation.MaxWait(),
				UseMarkers:    cfg.Validation.MarkersEnabled(),
			},
		})
	})

	var activity *metrics.QueryService
	if cfg.PrometheusURL != "" {
		if activity, err = metrics.NewQueryService(cfg.PrometheusURL); err != nil {
			logger.Warn("Tenant activity queries disabled: %v", err)
			activity = nil
		}
	}

	server := httpapi.NewServer(cfg.ListenAddr, manager, markerStore, histStore, activity)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("🛑 Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete: %v", err)
		}

		// Tear down every session so no debounce timer fires after exit.
		manager.CloseAll()

		if histStore != nil {
			if err := histStore.Close(); err != nil {
				logger.Warn("Failed to close history database: %v", err)
			}
		}
	}

	logger.Info("Goodbye")
}

// resolveRemoteToken unlocks the encrypted secrets file when present (and we
// have a terminal to prompt on), then resolves the remote API token with the
// usual secrets-then-env precedence. An empty token is fine for
// unauthenticated remotes.
func resolveRemoteToken(logger *logx.Logger) string {
	if config.SecretsFileExists(".") && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Secrets password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			logger.Warn("Failed to read secrets password: %v", err)
		} else if err := config.LoadSecrets(".", string(password)); err != nil {
			logger.Warn("Failed to unlock secrets: %v", err)
		}
	}

	token, err := config.Secret(config.EnvRemoteToken)
	if err != nil {
		logger.Info("No remote API token configured; publishing unauthenticated")
		return ""
	}
	return token
}
