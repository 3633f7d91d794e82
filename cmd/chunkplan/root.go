package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/config"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/observability"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/oracle"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/store"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/version"
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	config   string
	logLevel string
}

var rootOpts rootFlags

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chunkplan",
	Short: "Plan chunk-level decompositions of document operations",
	Long: `chunkplan decides how an operation over long documents is broken into
chunk-level work: which field to split, the prompt to run on each chunk,
whether chunks need document metadata or surrounding context, and which
chunk sizes and context shapes are worth evaluating.`,
	Version:       version.FullString(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.config, "config", "", "config file (default: ./"+config.ProjectConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig loads configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if rootOpts.config != "" {
		loader = loader.WithFile(rootOpts.config)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if rootOpts.logLevel != "" {
		cfg.Global.LogLevel = rootOpts.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return observability.NewLogger(cfg.Global.LogLevel, cfg.Global.LogFormat, w)
}

// session bundles the oracle stack, planner and optional plan store a
// command works with.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	factory *oracle.Factory
	planner *planner.Planner
	store   *store.Store
}

// openSession builds the configured oracle stack and a planner on top of
// it. The store is opened when withStore is set or the config enables it.
func openSession(cmd *cobra.Command, cfg *config.Config, seed uint64, withStore bool) (*session, error) {
	logger := newLogger(cfg, os.Stderr)
	metrics := observability.NewMetrics()

	factory := oracle.NewFactory(logger, metrics)
	o, err := factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		factory: factory,
		planner: planner.New(o,
			planner.WithSeed(seed),
			planner.WithNumChunkSizes(cfg.Planner.NumChunkSizes),
			planner.WithProgress(observability.WriterProgress{W: cmd.ErrOrStderr()}),
			planner.WithLogger(logger),
			planner.WithMetrics(metrics),
		),
	}

	if withStore || cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			factory.Close()
			return nil, err
		}
		s.store = st
	}
	return s, nil
}

// Close releases the judgment cache and plan store.
func (s *session) Close() error {
	err := s.factory.Close()
	if s.store != nil {
		if serr := s.store.Close(); err == nil {
			err = serr
		}
	}
	s.logger.Info("session metrics", "summary", s.metrics.Summary())
	return err
}
