package oracle

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/cache"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/config"
	planerrors "github.com/cicd-ai-toolkit/chunkplan/pkg/errors"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/observability"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/security"
)

// Factory builds the configured oracle stack and owns the resources it opens.
type Factory struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   cache.Cache
}

// NewFactory creates a new oracle factory.
func NewFactory(logger *slog.Logger, metrics *observability.Metrics) *Factory {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Factory{logger: logger, metrics: metrics}
}

// Create builds backend, injection guard, metrics and cache layers from cfg.
// The cache sits outermost so hits never count as backend calls.
func (f *Factory) Create(cfg *config.Config) (Oracle, error) {
	if cfg == nil {
		return nil, planerrors.ConfigError("config cannot be nil", nil)
	}

	backend, err := f.backend(cfg.Oracle)
	if err != nil {
		return nil, err
	}

	var o Oracle = backend
	if mode := security.ParseMode(cfg.Oracle.DetectInjection); mode != security.ModeOff {
		o = NewGuarded(o, mode, f.logger)
	}
	o = NewInstrumented(o, f.metrics, f.logger)

	if cfg.Cache.Enabled {
		store, err := f.openCache(cfg.Cache)
		if err != nil {
			return nil, err
		}
		f.cache = store
		o = NewCached(o, store, cfg.Cache.TTL, f.metrics, f.logger)
	}

	return o, nil
}

// Close releases the judgment cache, if one was opened.
func (f *Factory) Close() error {
	if f.cache == nil {
		return nil
	}
	err := f.cache.Close()
	f.cache = nil
	return err
}

func (f *Factory) backend(cfg config.OracleConfig) (Oracle, error) {
	switch cfg.Backend {
	case "", "http":
		key := ""
		if cfg.APIKeyEnv != "" {
			key = os.Getenv(cfg.APIKeyEnv)
		}
		o, err := NewHTTPOracle(HTTPConfig{
			Provider:    cfg.Provider,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			APIKey:      key,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		f.logger.Debug("oracle backend ready", "backend", "http", "name", o.Name())
		return o, nil
	case "cli":
		o := NewCLIOracle(CLIConfig{
			Path:    cfg.CLIPath,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		f.logger.Debug("oracle backend ready", "backend", "cli", "name", o.Name())
		return o, nil
	default:
		return nil, planerrors.ConfigError(fmt.Sprintf("unsupported oracle backend: %s", cfg.Backend), nil)
	}
}

func (f *Factory) openCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemoryCache(), nil
	case "disk":
		store, err := cache.NewDiskCache(cfg.Path)
		if err != nil {
			return nil, planerrors.ConfigError("open judgment cache", err)
		}
		return store, nil
	default:
		return nil, planerrors.ConfigError(fmt.Sprintf("unsupported cache backend: %s", cfg.Backend), nil)
	}
}
