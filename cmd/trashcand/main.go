package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/QzDevz/TrashBin-IoT/internal/alerts"
	"github.com/QzDevz/TrashBin-IoT/internal/config"
	"github.com/QzDevz/TrashBin-IoT/internal/events"
	httpapi "github.com/QzDevz/TrashBin-IoT/internal/http"
	"github.com/QzDevz/TrashBin-IoT/internal/http/handlers"
	"github.com/QzDevz/TrashBin-IoT/internal/insights"
	"github.com/QzDevz/TrashBin-IoT/internal/logging"
	"github.com/QzDevz/TrashBin-IoT/internal/metrics"
	"github.com/QzDevz/TrashBin-IoT/internal/persister"
	"github.com/QzDevz/TrashBin-IoT/internal/poller"
	"github.com/QzDevz/TrashBin-IoT/internal/preferences"
	"github.com/QzDevz/TrashBin-IoT/internal/scheduler"
	"github.com/QzDevz/TrashBin-IoT/internal/storage"
	"github.com/QzDevz/TrashBin-IoT/internal/store"
	"github.com/QzDevz/TrashBin-IoT/internal/stream"
	"github.com/QzDevz/TrashBin-IoT/internal/telemetry"
	"github.com/QzDevz/TrashBin-IoT/internal/usage"
)

var CLI struct {
	Env     string `help:"Optional dotenv file loaded before reading the environment" default:".env"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Serve struct {
		HTTPAddr string `help:"Listen address (overrides HTTP_ADDR)"`
		DBPath   string `help:"SQLite database path (overrides DB_PATH)"`
	} `cmd:"" default:"1" help:"Run the trash can state service"`

	Snapshot struct {
		DBPath string `help:"SQLite database path (overrides DB_PATH)"`
	} `cmd:"" help:"Print the persisted snapshot as JSON"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("trashcand"),
		kong.Description("State core for a connected trash can."),
	)

	if err := config.LoadDotenv(CLI.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", CLI.Env, err)
		os.Exit(1)
	}
	cfg := config.Load()
	if CLI.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch kctx.Command() {
	case "serve":
		if CLI.Serve.HTTPAddr != "" {
			cfg.HTTPAddr = CLI.Serve.HTTPAddr
		}
		if CLI.Serve.DBPath != "" {
			cfg.DBPath = CLI.Serve.DBPath
		}
		err = runServe(ctx, cfg, logger)
	case "snapshot":
		if CLI.Snapshot.DBPath != "" {
			cfg.DBPath = CLI.Snapshot.DBPath
		}
		err = runSnapshot(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("trashcand failed", "command", kctx.Command(), "err", err)
		os.Exit(1)
	}
}

func runSnapshot(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	repo, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	repo, err := storage.New(ctx, cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	st := store.New(store.WithLogger(logger))
	switch snap, err := repo.LoadSnapshot(ctx); {
	case err == nil:
		st.Hydrate(snap)
		logger.Info("state hydrated", "history", len(st.Snapshot().Analytics.DailyUsage))
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("no persisted state, starting from defaults")
	default:
		logger.Warn("failed to load persisted state", "err", err)
	}

	reg := prometheus.NewRegistry()
	if cfg.RuntimeMetrics {
		metrics.RegisterRuntime(reg)
	}
	recorder := metrics.NewRecorder(reg)
	defer st.Subscribe(recorder.Observe)()

	var wg sync.WaitGroup
	spawn := func(run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}

	saver := persister.New(repo, st, cfg.PersistDebounce, logger)
	defer saver.Attach()()
	spawn(saver.Run)

	usageRecorder := usage.NewRecorder(st, logger)
	defer usageRecorder.Attach()()
	spawn(usageRecorder.Run)

	insightsSvc := insights.NewService(st, insights.WithArchive(repo), insights.WithLogger(logger))
	defer insightsSvc.Attach()()
	spawn(insightsSvc.Run)

	hub := stream.NewHub(logger)
	defer hub.Attach(st)()

	notifiers := []alerts.Notifier{hub, recorder}
	if cfg.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			logger.Warn("event bridge disabled", "err", err)
		} else {
			defer publisher.Close()
			bridge := events.NewBridge(publisher, logger)
			defer bridge.Attach(st)()
			notifiers = append(notifiers, bridge)
			spawn(bridge.Run)
		}
	}
	defer alerts.NewDispatcher(logger, notifiers...).Attach(st)()

	var source telemetry.Source
	if cfg.Simulated() {
		source = telemetry.NewSimulator(cfg.SimulatedLatency, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x7a5)))
		logger.Info("telemetry simulator enabled", "latency", cfg.SimulatedLatency)
	} else {
		ws := telemetry.NewWebsocketSource(cfg.TelemetryURL, logger)
		spawn(ws.Run)
		source = ws
	}
	devicePoller := poller.New(st, source, cfg.RefreshInterval,
		poller.WithObserver(recorder),
		poller.WithRefreshHook(usageRecorder.RecordRefresh),
		poller.WithLogger(logger),
	)
	spawn(devicePoller.Run)
	devicePoller.TriggerRefresh()

	if cfg.PreferencesPath != "" {
		watcher, err := preferences.NewWatcher(cfg.PreferencesPath, st, cfg.PreferencesDebounce, logger)
		if err != nil {
			logger.Warn("preferences watcher disabled", "err", err)
		} else {
			spawn(watcher.Run)
		}
	}

	jobs, err := scheduler.New(logger)
	if err != nil {
		return err
	}
	if _, err := jobs.Every("insights-recompute", cfg.InsightsInterval, func(context.Context) {
		insightsSvc.Trigger()
	}); err != nil {
		return err
	}
	if _, err := jobs.Every("archive-sweep", cfg.ArchiveSweepInterval, scheduler.ArchiveSweep(st, repo, time.Now, logger)); err != nil {
		return err
	}
	jobs.Start(ctx)
	defer func() {
		if err := jobs.Stop(); err != nil {
			logger.Warn("scheduler shutdown failed", "err", err)
		}
	}()

	api := handlers.New(handlers.Deps{
		Store:    st,
		Actions:  store.NewRegistry(),
		Poller:   devicePoller,
		Insights: insightsSvc,
		Archive:  repo,
		Streamer: hub,
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api, metrics.HTTPHandler(reg)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr, "simulated", cfg.Simulated())
	err = httpapi.RunServer(ctx, httpServer)
	stop()
	wg.Wait()
	logger.Info("server stopped")
	return err
}
