// Package cmd provides the command-line interface for LinkMamori.
// It handles command parsing, configuration loading, and running the
// verification engine.
package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/linkmamori/internal/checker"
	"github.com/masahif/linkmamori/internal/config"
	"github.com/masahif/linkmamori/internal/logging"
	"github.com/masahif/linkmamori/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkmamori [datasets...]",
	Short: "A resumable backlink verification engine",
	Long: `LinkMamori periodically verifies that recorded backlinks still hold:
for every record it checks that the source page is reachable and still
contains a hyperlink to the target page.

Checks run in bounded batches on a timer, with progress persisted between
invocations, so very large datasets survive restarts and time-sliced runs.`,
	Args: cobra.ArbitraryArgs,
	RunE: runChecker,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./linkmamori.yml)")

	// Configuration management flags
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Batch and scheduling flags
	rootCmd.Flags().IntP("batch-size", "b", 250, "Rows checked per tick")
	rootCmd.Flags().DurationP("interval", "i", 5*time.Minute, "Time between ticks")
	rootCmd.Flags().Bool("once", false, "Run exactly one tick and exit (for external scheduling)")
	rootCmd.Flags().Bool("reset", false, "Restart the verification cycle from the beginning")

	// HTTP flags
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().Float64P("delay", "r", 1.0, "Delay between requests to the same host in seconds")
	rootCmd.Flags().StringP("user-agent", "u", "LinkMamori/1.0", "HTTP User-Agent header")
	rootCmd.Flags().StringSliceP("header", "H", []string{}, "Custom HTTP headers in 'Name: Value' format (use multiple times for multiple headers)")

	// Matching flags
	rootCmd.Flags().StringP("matcher", "m", config.MatcherRegex, "Link matcher implementation: 'regex' or 'dom'")
	rootCmd.Flags().Int("loose-match-limit", 5, "Maximum URLs reported by the loose fallback match")

	// Database flags
	rootCmd.Flags().StringP("database", "d", "./linkmamori.db", "Path to SQLite database file")

	// Data management flags
	rootCmd.Flags().String("import", "", "Import a CSV of source_url,target_url pairs into the named dataset and exit")
	rootCmd.Flags().Bool("show-queue", false, "Print pending failure notifications and exit")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("log-file", "", "Log file path (console only when empty)")

	// Bind flags to viper
	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"batch_size", "batch-size"},
		{"tick_interval", "interval"},
		{"request_timeout", "timeout"},
		{"request_delay", "delay"},
		{"user_agent", "user-agent"},
		{"headers", "header"},
		{"matcher", "matcher"},
		{"loose_match_limit", "loose-match-limit"},
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("linkmamori")
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvPrefix("LM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("LinkMamori/%s", version)
	}
	return "LinkMamori/dev"
}

func showCurrentConfig(cfg *config.CheckConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current LinkMamori Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./linkmamori.yml\n")
	fmt.Printf("# Environment variables prefix: LM_\n\n")

	fmt.Print(string(yamlData))

	fmt.Printf("\n# Configuration source priority:\n")
	fmt.Printf("# 1. Command-line arguments (highest priority)\n")
	fmt.Printf("# 2. Environment variables (LM_ prefix)\n")
	fmt.Printf("# 3. Configuration file (linkmamori.yml)\n")
	fmt.Printf("# 4. Default values (lowest priority)\n")

	return nil
}

func runChecker(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()

	// Override with viper values
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Positional arguments name the datasets to verify, in order
	if len(args) > 0 {
		cfg.Datasets = args
	}

	// Update User-Agent with dynamic version if not explicitly set
	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == "LinkMamori/1.0" {
		cfg.UserAgent = generateUserAgent()
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.SetDefault(logging.Config{
		Level:      logging.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	// Create database directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if importPath, _ := cmd.Flags().GetString("import"); importPath != "" {
		return runImport(store, importPath, args)
	}

	if showQueue, _ := cmd.Flags().GetBool("show-queue"); showQueue {
		return showPendingQueue(store)
	}

	datasets := cfg.Datasets
	if len(datasets) == 0 {
		datasets, err = store.ListDatasets()
		if err != nil {
			return fmt.Errorf("failed to list datasets: %w", err)
		}
	}
	if len(datasets) == 0 {
		fmt.Printf("No datasets found in %s and none named on the command line.\n", cfg.DatabasePath)
		fmt.Printf("Import records first: %s --import records.csv <dataset>\n", os.Args[0])
		return nil
	}

	scheduler, tracker, fetcher := buildEngine(cfg, store)
	defer fetcher.Close()

	reset, _ := cmd.Flags().GetBool("reset")
	if reset {
		if err := tracker.StartCycle(datasets); err != nil {
			return fmt.Errorf("failed to start cycle: %w", err)
		}
	} else if err := tracker.EnsureCycle(datasets); err != nil {
		return fmt.Errorf("failed to resume cycle: %w", err)
	}

	slog.Info("Starting verification",
		"datasets", datasets,
		"batch_size", cfg.BatchSize,
		"interval", cfg.TickInterval,
		"matcher", cfg.Matcher,
		"database", cfg.DatabasePath)

	if once, _ := cmd.Flags().GetBool("once"); once {
		done, err := scheduler.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		if done {
			fmt.Println("Verification cycle complete.")
		}
		return nil
	}

	return scheduler.Run(cmd.Context())
}

// parseHeaders converts "Name: Value" strings into a header map, skipping
// malformed entries.
func parseHeaders(headers []string) map[string]string {
	headerMap := make(map[string]string)
	for _, header := range headers {
		colonIndex := strings.Index(header, ":")
		if colonIndex <= 0 {
			slog.Warn("Skipping invalid header format", "header", header)
			continue
		}

		key := strings.TrimSpace(header[:colonIndex])
		value := strings.TrimSpace(header[colonIndex+1:])
		if key == "" || value == "" {
			slog.Warn("Skipping header with empty key or value", "header", header)
			continue
		}

		headerMap[key] = value
	}
	return headerMap
}

func newMatcher(cfg *config.CheckConfig) checker.LinkMatcher {
	if cfg.Matcher == config.MatcherDOM {
		return checker.NewDOMMatcher(cfg.LooseMatchLimit)
	}
	return checker.NewRegexMatcher(cfg.LooseMatchLimit)
}

func buildEngine(cfg *config.CheckConfig, store *storage.SQLiteStorage) (*checker.Scheduler, *checker.Tracker, *checker.HTTPFetcher) {
	fetcher := checker.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout)
	if headerMap := parseHeaders(cfg.Headers); len(headerMap) > 0 {
		fetcher.SetCustomHeaders(headerMap)
		slog.Info("Set custom headers", "count", len(headerMap))
	}

	limiter := checker.NewHostLimiter(time.Duration(cfg.RequestDelay * float64(time.Second)))
	runner := checker.NewRunner(fetcher, newMatcher(cfg), store, store, limiter, cfg.LooseMatchLimit)
	tracker := checker.NewTracker(store, store, runner, cfg.BatchSize)
	return checker.NewScheduler(tracker, cfg.TickInterval), tracker, fetcher
}

// runImport loads a CSV of source_url,target_url pairs into one dataset.
// A first line naming the columns is skipped.
func runImport(store *storage.SQLiteStorage, path string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("--import requires exactly one dataset name argument")
	}
	dataset := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var pairs [][2]string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		source := strings.TrimSpace(row[0])
		target := ""
		if len(row) > 1 {
			target = strings.TrimSpace(row[1])
		}
		if i == 0 && strings.EqualFold(source, "source_url") {
			continue
		}
		pairs = append(pairs, [2]string{source, target})
	}

	if err := store.ImportRecords(dataset, pairs); err != nil {
		return fmt.Errorf("failed to import records: %w", err)
	}

	fmt.Printf("Imported %d records into dataset %q\n", len(pairs), dataset)
	return nil
}

func showPendingQueue(store *storage.SQLiteStorage) error {
	checks, err := store.PendingNotifications()
	if err != nil {
		return fmt.Errorf("failed to read notification queue: %w", err)
	}

	if len(checks) == 0 {
		fmt.Println("Notification queue is empty.")
		return nil
	}

	fmt.Printf("%d pending notification(s):\n", len(checks))
	for _, fc := range checks {
		fmt.Printf("  %s -> %s  checked %s  %s\n",
			fc.SourceURL, fc.TargetURL, fc.CheckedAt.Format(time.RFC3339), fc.Remark)
	}
	return nil
}
