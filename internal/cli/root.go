package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/pricecmp/internal/cache"
	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/shoplist"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pricecmp",
	Short: "pricecmp - unit price comparison for shopping catalogs",
	Long: `pricecmp compares grocery offers by their price per base unit.

Catalogs are CSV files of price records (article, provider, price in cents,
package quantity). Quantities in g/kg, ml/l and pieces are normalized so that
a 500 g package can be compared with a 1 kg one.

The shopping list can be swept against a catalog to find the cheapest
provider for every item, from the command line or through the HTTP API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pricecmp %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.pricecmp/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("data-dir", "", "catalog directory (overrides data.dir)")
	rootCmd.PersistentFlags().String("list", "", "shopping list file (overrides data.shopping_list)")
	rootCmd.PersistentFlags().String("backend", "", "catalog backend: csv or sqlite (overrides data.backend)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("data.shopping_list", rootCmd.PersistentFlags().Lookup("list"))
	_ = viper.BindPFlag("data.backend", rootCmd.PersistentFlags().Lookup("backend"))

	setDefaults(model.DefaultConfig())

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// setDefaults registers every config key so env vars and Unmarshal see it
func setDefaults(cfg *model.Config) {
	viper.SetDefault("server.address", cfg.Server.Address)
	viper.SetDefault("server.port", cfg.Server.Port)
	viper.SetDefault("server.static_dir", cfg.Server.StaticDir)
	viper.SetDefault("server.max_connections", cfg.Server.MaxConnections)
	viper.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	viper.SetDefault("server.rate_limit.requests_per_second", cfg.Server.RateLimit.RequestsPerSecond)
	viper.SetDefault("server.rate_limit.burst", cfg.Server.RateLimit.Burst)
	viper.SetDefault("data.dir", cfg.Data.Dir)
	viper.SetDefault("data.shopping_list", cfg.Data.ShoppingList)
	viper.SetDefault("data.backend", cfg.Data.Backend)
	viper.SetDefault("data.sqlite_path", cfg.Data.SQLitePath)
	viper.SetDefault("limits.max_articles", cfg.Limits.MaxArticles)
	viper.SetDefault("limits.max_string_length", cfg.Limits.MaxStringLength)
	viper.SetDefault("limits.max_text", cfg.Limits.MaxText)
	viper.SetDefault("limits.max_filename", cfg.Limits.MaxFilename)
	viper.SetDefault("compare.epsilon", cfg.Compare.Epsilon)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.ttl", cfg.Cache.TTL)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
	viper.SetDefault("log.output", cfg.Log.Output)
	viper.SetDefault("log.max_age_days", cfg.Log.MaxAgeDays)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
}

// initConfig reads in .env, config file and ENV variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".pricecmp"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PRICECMP_* (server.port -> PRICECMP_SERVER_PORT)
	viper.SetEnvPrefix("PRICECMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration and configures logging
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logging.Default().Configure(level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAgeDays); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured catalog backend. The returned close
// function must be called when done.
func openStore(ctx context.Context, cfg *model.Config) (catalog.Store, func(), error) {
	switch cfg.Data.Backend {
	case "sqlite":
		store, err := catalog.OpenSQLite(ctx, cfg.Data.SQLitePath, cfg.Limits.MaxArticles, catalog.WithSQLiteMaxFilename(cfg.Limits.MaxFilename))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return openCSVStore(cfg), func() {}, nil
	}
}

func openCSVStore(cfg *model.Config) *catalog.CSVStore {
	opts := []catalog.Option{
		catalog.WithLogger(logging.Default()),
		catalog.WithMaxFilename(cfg.Limits.MaxFilename),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, catalog.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL), cfg.Cache.TTL))
	}
	return catalog.NewCSVStore(cfg.Data.Dir, cfg.Limits.MaxArticles, opts...)
}

func openList(cfg *model.Config) *shoplist.List {
	return shoplist.New(cfg.Data.ShoppingList, cfg.Limits.MaxArticles)
}

// commandTimeout bounds one-shot commands
const commandTimeout = 2 * time.Minute
