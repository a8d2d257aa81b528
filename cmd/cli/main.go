package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/linkedin-postgen/internal/agent/discovery"
	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/ai"
	"github.com/linkedin-postgen/internal/api"
	"github.com/linkedin-postgen/internal/config"
	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/export"
	"github.com/linkedin-postgen/internal/export/sheets"
	"github.com/linkedin-postgen/internal/llm"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/internal/source"
	"github.com/linkedin-postgen/internal/source/custom"
	"github.com/linkedin-postgen/internal/source/rss"
	"github.com/linkedin-postgen/internal/storage"
	ideasheets "github.com/linkedin-postgen/internal/storage/sheets"
	"github.com/linkedin-postgen/internal/storage/sqlite"
	"github.com/linkedin-postgen/internal/tui"
	"github.com/linkedin-postgen/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "postgen",
		Short: "LinkedIn post generator powered by LLMs",
		Long: `Generates LinkedIn posts in two steps: the model drafts outlines for a topic,
then expands them into finished posts in the chosen tone.`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(tonesCmd())
	rootCmd.AddCommand(ideasCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tuiCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
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

	return nil
}

// buildAgent wires provider -> writer -> pipeline from config
func buildAgent() (*generator.Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	provider, err := llm.NewProvider(cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	writer := ai.NewWriter(provider, llm.DefaultModel(cfg.LLM), log)
	return generator.NewAgent(writer, log), nil
}

// openRepo opens the idea inbox store selected by ideas.database.driver and runs migrations
func openRepo() (storage.Repository, error) {
	if err := cfg.ValidateIdeas(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var repo storage.Repository
	var err error

	if strings.EqualFold(cfg.Ideas.Database.Driver, "sheets") {
		log.Debug().Msg("Using Google Sheets as idea store")
		repo, err = ideasheets.New(context.Background(), ideasheets.Config{
			SpreadsheetID:      cfg.Export.Sheets.SpreadsheetID,
			SheetName:          cfg.Ideas.Database.SheetName,
			ServiceAccountJSON: cfg.Export.Sheets.ServiceAccountJSON,
			CredentialsFile:    cfg.Export.Sheets.CredentialsFile,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Google Sheets: %w", err)
		}
	} else {
		log.Debug().Msg("Using SQLite as idea store")
		repo, err = sqlite.New(cfg.Ideas.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := repo.Migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

func buildSourceManager() *source.Manager {
	sourceManager := source.NewManager()
	if cfg.Ideas.RSS.Enabled {
		for _, src := range rss.NewMultiple(cfg.Ideas, log) {
			sourceManager.Register(src)
		}
	}
	if cfg.Ideas.Custom.Enabled {
		sourceManager.Register(custom.New(cfg.Ideas.Custom, log))
	}
	return sourceManager
}

// ============ GENERATE COMMAND ============

func generateCmd() *cobra.Command {
	var (
		topic, tone, audience string
		count                 int
		ideaID                uint
		outDir                string
		manifest              bool
		copyIndex             int
		toSheet               bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate LinkedIn posts for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var repo storage.Repository
			if ideaID != 0 {
				r, err := openRepo()
				if err != nil {
					return err
				}
				defer r.Close()
				repo = r

				idea, err := loadIdea(ctx, repo, ideaID)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("topic") {
					topic = idea.Title
				}
			}

			if !cmd.Flags().Changed("tone") {
				tone = cfg.Generation.DefaultTone
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Generation.DefaultPostCount
			}

			parsedTone, err := models.ParseTone(tone)
			if err != nil {
				return err
			}
			req := models.GenerationRequest{
				Topic:     topic,
				Tone:      parsedTone,
				Audience:  audience,
				PostCount: count,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			agent, err := buildAgent()
			if err != nil {
				return err
			}

			out := newPrinter(os.Stdout)
			result, err := agent.Run(ctx, req, func(stage generator.Stage) {
				out.stage(stage)
			})
			if err != nil {
				return err
			}

			if repo != nil {
				if err := repo.UpdateIdeaStatus(ctx, ideaID, models.IdeaStatusUsed); err != nil {
					log.WithIdeaID(ideaID).Warn().Err(err).Msg("Failed to mark idea as used")
				}
			}

			out.result(result)

			if outDir != "" {
				paths, err := export.WriteFiles(outDir, result.Collection, export.Options{
					RunID:    result.RunID,
					Request:  result.Request,
					Manifest: manifest || cfg.Export.Manifest,
				})
				if err != nil {
					return err
				}
				out.saved(paths)
			}

			if copyIndex != 0 {
				post, ok := result.Collection.Get(copyIndex)
				if !ok {
					return fmt.Errorf("--copy %d is out of range (got %d posts)", copyIndex, result.Collection.Count())
				}
				if err := export.CopyToClipboard(post.Text); err != nil {
					return err
				}
				out.note(fmt.Sprintf("Post %d copied to clipboard", copyIndex))
			}

			if toSheet {
				if err := cfg.ValidateSheets(); err != nil {
					return err
				}
				exporter, err := sheets.New(ctx, cfg.Export.Sheets, log)
				if err != nil {
					return err
				}
				rows, err := exporter.Export(ctx, result.RunID, result.Request, result.Collection)
				if err != nil {
					return err
				}
				out.note(fmt.Sprintf("Exported %d rows to spreadsheet %s", rows, cfg.Export.Sheets.SpreadsheetID))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Post topic (defaults to the idea title with --idea)")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone: Professional, Conversational, Inspirational or Storytelling")
	cmd.Flags().StringVar(&audience, "audience", "", "Target audience")
	cmd.Flags().IntVar(&count, "count", 0, "Number of posts (1-5)")
	cmd.Flags().UintVar(&ideaID, "idea", 0, "Start from an inbox idea and mark it used")
	cmd.Flags().StringVar(&outDir, "out", "", "Write one .txt file per post into this directory")
	cmd.Flags().BoolVar(&manifest, "manifest", false, "Also write posts.yaml (with --out)")
	cmd.Flags().IntVar(&copyIndex, "copy", 0, "Copy post N to the clipboard")
	cmd.Flags().BoolVar(&toSheet, "sheet", false, "Append the posts to the configured Google Sheet")

	return cmd
}

// ============ TONES COMMAND ============

func tonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tones",
		Short: "List the supported tones",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.ToneNames() {
				marker := " "
				if name == cfg.Generation.DefaultTone {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
}

// ============ IDEAS COMMANDS ============

func ideasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "Topic idea inbox commands",
	}

	cmd.AddCommand(ideasRefreshCmd())
	cmd.AddCommand(ideasListCmd())
	cmd.AddCommand(ideasDismissCmd())
	return cmd
}

func ideasRefreshCmd() *cobra.Command {
	var sourceName string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch new ideas from the configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			discoveryAgent := discovery.NewAgent(buildSourceManager(), repo, cfg.Ideas.MaxAgeDays, log)

			var result *discovery.DiscoveryResult
			if sourceName != "" {
				result, err = discoveryAgent.RunForSource(ctx, sourceName)
			} else {
				result, err = discoveryAgent.Run(ctx)
			}
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Refresh Results ===\n")
			fmt.Printf("Ideas found:   %d\n", result.IdeasFound)
			fmt.Printf("Ideas saved:   %d\n", result.IdeasSaved)
			fmt.Printf("Ideas skipped: %d\n", result.IdeasSkipped)
			fmt.Printf("Ideas pruned:  %d\n", result.IdeasPruned)
			fmt.Printf("Duration:      %s\n", result.Duration.Round(time.Millisecond))
			if len(result.Errors) > 0 {
				fmt.Printf("Errors:        %d\n", len(result.Errors))
				for _, e := range result.Errors {
					fmt.Printf("  - %v\n", e)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Refresh a single source by name")
	return cmd
}

func ideasListCmd() *cobra.Command {
	var (
		limit  int
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas in the inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			filter := storage.DefaultIdeaFilter()
			filter.Limit = limit
			if status != "all" {
				s := models.IdeaStatus(status)
				filter.Status = &s
			}

			ideas, err := repo.ListIdeas(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list ideas: %w", err)
			}

			fmt.Printf("\n=== Ideas (%d) ===\n\n", len(ideas))
			for _, idea := range ideas {
				fmt.Printf("[%d] %s\n", idea.ID, truncateStr(idea.Title, 70))
				fmt.Printf("    %s/%s | %s | %s\n",
					idea.SourceType, idea.SourceName, idea.Status,
					idea.DiscoveredAt.Format("2006-01-02 15:04"))
				if idea.URL != "" {
					fmt.Printf("    %s\n", idea.URL)
				}
			}
			if len(ideas) > 0 {
				fmt.Printf("\nUse one with: postgen generate --idea <id>\n")
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum ideas to show")
	cmd.Flags().StringVar(&status, "status", string(models.IdeaStatusNew), "Filter by status: new, used, dismissed or all")
	return cmd
}

func ideasDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [idea-id]",
		Short: "Hide an idea from the inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid idea ID: %w", err)
			}

			repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.UpdateIdeaStatus(context.Background(), uint(id), models.IdeaStatusDismissed); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return apperrors.NewNotFoundError(fmt.Sprintf("idea %d not found", id), err)
				}
				return err
			}

			fmt.Printf("Idea %d dismissed\n", id)
			return nil
		},
	}
}

// ============ SERVE COMMAND ============

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := buildAgent()
			if err != nil {
				return err
			}

			// The inbox is optional for the web UI
			repo, err := openRepo()
			if err != nil {
				log.Warn().Err(err).Msg("Idea inbox unavailable")
				repo = nil
			} else {
				defer repo.Close()
			}

			if cfg.Server.WatchConfig {
				err := config.Watch(cfgFile, func(next *config.Config, e fsnotify.Event) {
					logger.SetGlobalLevel(next.Logging.Level)
					log.Info().Str("file", e.Name).Str("level", next.Logging.Level).Msg("Config reloaded")
				})
				if err != nil {
					log.Warn().Err(err).Msg("Config watch disabled")
				}
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			gin.SetMode(cfg.Server.Mode)

			server := api.NewServer(agent, repo, cfg.Generation, log)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("provider", agent.ProviderName()).Msg("Web UI listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-sigChan:
			}

			log.Info().Msg("Shutting down web UI")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	return cmd
}

// ============ TUI COMMAND ============

func tuiCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal form",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := buildAgent()
			if err != nil {
				return err
			}

			tone, err := models.ParseTone(cfg.Generation.DefaultTone)
			if err != nil {
				tone = models.ToneProfessional
			}

			// Logs would garble the alternate screen
			logger.SetGlobalLevel("disabled")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return tui.Run(ctx, agent, tui.Options{
				Topic:     topic,
				Tone:      tone,
				PostCount: cfg.Generation.DefaultPostCount,
				ExportDir: cfg.Export.Dir,
			})
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Pre-fill the topic field")
	return cmd
}

// loadIdea fetches an inbox idea, reporting a missing one as not found
func loadIdea(ctx context.Context, repo storage.Repository, id uint) (*models.Idea, error) {
	idea, err := repo.GetIdeaByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("idea %d not found", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load idea %d: %w", id, err)
	}
	return idea, nil
}

// Helper function to truncate strings
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
