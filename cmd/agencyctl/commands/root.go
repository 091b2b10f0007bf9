package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/cache"
	"github.com/oggyb/model-agency/internal/config"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/filestore"
	"github.com/oggyb/model-agency/internal/logger"
)

var (
	// Global flags
	dsn        string
	driver     string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agencyctl",
	Short: "Operator tooling for the model agency API",
	Long: `agencyctl runs maintenance tasks against the agency database and upload
directory. Configuration is read from the environment (and ./.env) exactly as
the server reads it; --db and --driver override the database settings.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "Database DSN (overrides DB_DSN)")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "Database driver: mysql, postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// loadConfig applies the global flags on top of the environment.
func loadConfig() *config.Config {
	cfg := config.New()
	if dsn != "" {
		cfg.DB.DSN = dsn
	}
	if driver != "" {
		cfg.DB.Driver = driver
	}
	logger.InitFromConfig(cfg)
	return cfg
}

// openApp builds the same AppContext the server runs with. Redis is optional
// here: when it cannot be reached, cache invalidation is skipped.
func openApp(ctx context.Context, cfg *config.Config) (*app.AppContext, error) {
	database, err := db.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	files, err := filestore.NewLocal(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.L()
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, continuing without cache", "err", err)
		redisCache = nil
	}
	return app.New(cfg, database, redisCache, files, log), nil
}
