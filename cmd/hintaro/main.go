package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hintaro/hintaro/internal/analysis"
	"github.com/hintaro/hintaro/internal/config"
	"github.com/hintaro/hintaro/internal/database"
	"github.com/hintaro/hintaro/internal/keepalive"
	"github.com/hintaro/hintaro/internal/logging"
	"github.com/hintaro/hintaro/internal/schema"
	"github.com/hintaro/hintaro/internal/server"
	"github.com/hintaro/hintaro/internal/share"
	"github.com/hintaro/hintaro/internal/viral"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hintaro",
	Short:   "Shareable cards for chat analyses",
	Long:    "Hintaro turns chat analyses into bounded, shareable score cards and serves them over HTTP.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(analysesCmd)
	rootCmd.AddCommand(repliesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("hintaro", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/hintaro/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set your brand, theme colors, and keep-alive.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Analyses:")
		fmt.Printf("  Total: %d\n", stats.Analyses)
		tiers := make([]string, 0, len(stats.ByTier))
		for tier := range stats.ByTier {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)
		for _, tier := range tiers {
			fmt.Printf("  %s: %d\n", tier, stats.ByTier[tier])
		}
		fmt.Println("\nSaved replies:")
		fmt.Printf("  Total: %d\n", stats.SavedReplies)
		fmt.Println("\nKeep-alive:")
		if cfg.KeepAlive.Enabled {
			fmt.Printf("  Every %s -> %s\n", cfg.KeepAlive.Interval, cfg.KeepAliveURL())
		} else {
			fmt.Println("  Disabled")
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		srv, err := server.New(newService(db), db, cfg.Brand, logger)
		if err != nil {
			return err
		}

		var pinger *keepalive.Pinger
		if cfg.KeepAlive.Enabled {
			every, err := cfg.KeepAlive.Every()
			if err != nil {
				return err
			}
			pinger, err = keepalive.New(cfg.KeepAliveURL(), every, logger.Named("keepalive"))
			if err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return srv.Serve(ctx, cfg.Addr())
		})

		if pinger != nil {
			if err := pinger.Start(); err != nil {
				stop()
				g.Wait()
				return err
			}
			g.Go(func() error {
				<-ctx.Done()
				pinger.Stop()
				return nil
			})
		}

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- derive / normalize commands ---

var deriveTier string

var deriveCmd = &cobra.Command{
	Use:   "derive [file]",
	Short: "Derive a card from an analysis JSON file (or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readAnalysis(cmd, args)
		if err != nil {
			return err
		}
		tier, err := analysis.NormalizeTier(deriveTier)
		if err != nil {
			return err
		}
		card := viral.NewDeriver(cfg.Cards.ToneMarkers).Derive(viral.RecordFromMap(raw), tier)
		return printJSON(cmd.OutOrStdout(), card)
	},
}

var normalizeFormat string

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize a stored analysis into its share view",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readAnalysis(cmd, args)
		if err != nil {
			return err
		}
		format, err := share.ParseFormat(normalizeFormat)
		if err != nil {
			return err
		}
		view := share.NewRenderer(cfg.Brand, cfg.Theme).Render(viral.RecordFromMap(raw), format)
		return printJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	deriveCmd.Flags().StringVarP(&deriveTier, "tier", "t", "free", "Subscription tier (free, pro, plus, max)")
	normalizeCmd.Flags().StringVarP(&normalizeFormat, "format", "f", "story", "Card format (story, square)")
}

var schemaCmd = &cobra.Command{
	Use:       "schema [analysis|card]",
	Short:     "Print a JSON Schema",
	Args:      cobra.ExactArgs(1),
	ValidArgs: schema.Names(),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.JSON(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func readAnalysis(cmd *cobra.Command, args []string) (map[string]any, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening analysis: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	return analysis.ParseResponse(string(data))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newService(db *database.DB) *analysis.Service {
	return analysis.NewService(
		db,
		viral.NewDeriver(cfg.Cards.ToneMarkers),
		share.NewRenderer(cfg.Brand, cfg.Theme),
		logger.Named("analysis"),
	)
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "hintaro.db")
	return database.Open(dbPath)
}
