package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/linkedin-postgen/internal/agent/discovery"
	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/internal/source"
	"github.com/linkedin-postgen/internal/source/custom"
	"github.com/linkedin-postgen/internal/source/rss"
	"github.com/linkedin-postgen/internal/storage"
	"github.com/linkedin-postgen/internal/storage/sheets"
	"github.com/linkedin-postgen/internal/storage/sqlite"
	"github.com/linkedin-postgen/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "postgen-scheduler",
		Short: "Background idea inbox refresher",
		Long: `Refreshes the topic idea inbox from RSS feeds and keyword lists on a cron schedule.
Run it as a service next to the web UI so the inbox stays current.`,
		SilenceUsage: true,
		RunE:         runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	log.Info().Msg("Starting idea inbox scheduler")

	if err := cfg.ValidateIdeas(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var repo storage.Repository
	if strings.EqualFold(cfg.Ideas.Database.Driver, "sheets") {
		log.Info().Msg("Using Google Sheets as idea store")
		repo, err = sheets.New(context.Background(), sheets.Config{
			SpreadsheetID:      cfg.Export.Sheets.SpreadsheetID,
			SheetName:          cfg.Ideas.Database.SheetName,
			ServiceAccountJSON: cfg.Export.Sheets.ServiceAccountJSON,
			CredentialsFile:    cfg.Export.Sheets.CredentialsFile,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to Google Sheets: %w", err)
		}
	} else {
		log.Info().Msg("Using SQLite as idea store")
		repo, err = sqlite.New(cfg.Ideas.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	sourceManager := source.NewManager()
	if cfg.Ideas.RSS.Enabled {
		for _, src := range rss.NewMultiple(cfg.Ideas, log) {
			sourceManager.Register(src)
		}
	}
	if cfg.Ideas.Custom.Enabled {
		sourceManager.Register(custom.New(cfg.Ideas.Custom, log))
	}

	discoveryAgent := discovery.NewAgent(sourceManager, repo, cfg.Ideas.MaxAgeDays, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New(cron.WithLogger(cronLogger{log}))

	_, err = c.AddFunc(cfg.Scheduler.RefreshCron, func() {
		log.Info().Msg("Running scheduled idea refresh")

		result, err := discoveryAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled refresh failed")
			return
		}

		log.Info().
			Int("ideas_found", result.IdeasFound).
			Int("ideas_saved", result.IdeasSaved).
			Int64("ideas_pruned", result.IdeasPruned).
			Int("errors", len(result.Errors)).
			Msg("Scheduled refresh completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.RefreshCron).Msg("Refresh job scheduled")

	health := startHealthServer(cfg.Scheduler.HealthAddr)

	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	cancel()
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return health.Shutdown(shutdownCtx)
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	e := l.log.Debug()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.Interface(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	e.Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	e := l.log.Error().Err(err)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.Interface(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	e.Msg(msg)
}

// startHealthServer serves /health for the hosting platform's probes.
// PORT overrides the configured address.
func startHealthServer(addr string) *http.Server {
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("postgen idea scheduler"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("Health check server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health server failed")
		}
	}()
	return srv
}
