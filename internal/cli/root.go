package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/generator"
	"github.com/romangod6/sitemapgen/internal/storage"
	"github.com/romangod6/sitemapgen/internal/utils"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the sitemapgen command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sitemapgen",
		Short: "Generate XML sitemaps from routes, database records and static pages",
		Long: `sitemapgen collects page locations from several sources and renders them
as a sitemaps.org XML document.

Sources, in the order they are added:
  - the canonical home/about/contact pages (sitemap.include_defaults)
  - static pages listed in the config file
  - the route table, minus parameterized and excluded routes
  - database collections, one URL per record
  - pages discovered by crawling the live site
  - entries of existing sitemaps listed under sitemap.imports`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config.yaml or ./config/config.yaml)")

	rootCmd.AddCommand(
		newGenerateCmd(opts),
		newServeCmd(opts),
		newIndexCmd(),
		newRoutesCmd(opts),
		newAnalyzeCmd(),
		newPagesCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.New(), o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore connects to the configured database. No URL means no
// collections, which is not an error. The schema is only touched when
// database.migrate is set, and a failed migration leaves the store usable
// for the tables that do exist.
func openStore(cfg *config.Config, logger generator.Logger) (storage.Store, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := store.Initialize(); err != nil {
			logger.LogError("Initializing database tables: %v", err)
		}
	}
	logger.LogDebug("Connected to %s database", cfg.Database.Driver)
	return store, nil
}

// newRun opens the logger and store for one generation.
func newRun(name string, cfg *config.Config, logOut io.Writer) (*generator.Generator, func(), error) {
	logger, err := utils.NewGenerationLoggerTo(name, cfg.Log.Dir, logOut)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.LogError("Database unavailable, skipping collections: %v", err)
		store = nil
	}

	cleanup := func() {
		if store != nil {
			store.Close()
		}
		logger.Close()
	}
	return generator.New(cfg, generator.Deps{Store: store, Logger: logger}), cleanup, nil
}
