package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/i474232898/weather-analyzer/internal/config"
	"github.com/i474232898/weather-analyzer/internal/history"
	"github.com/i474232898/weather-analyzer/internal/logging"
	"github.com/i474232898/weather-analyzer/internal/store"
	"github.com/i474232898/weather-analyzer/internal/weather"
	"github.com/i474232898/weather-analyzer/internal/weather/providers"
)

// loadConfig primes the environment from the env file and reads settings.
// storeOnly skips checks that only matter when calling the weather API.
func loadConfig(opts *RootOptions, storeOnly bool) (*config.AppConfig, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load env file", err)
	}

	load := config.Load
	if storeOnly {
		load = config.LoadStoreOnly
	}
	cfg, err := load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.AppConfig, opts *RootOptions, w io.Writer) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(w, level, cfg.LogFormat, cfg.AppName)
	slog.SetDefault(logger)
	return logger
}

func newProvider(cfg *config.AppConfig, logger *slog.Logger) *providers.OpenWeatherProvider {
	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout,
	}
	return providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		BaseURL: cfg.WeatherAPIURL,
		APIKey:  cfg.WeatherAPIKey,
		Units:   cfg.Units,
		Retry:   providers.RetryConfig{MaxAttempts: cfg.APIRetries},
	}, logger)
}

func newSQLStore(cfg *config.AppConfig, logger *slog.Logger) (*store.SQLStore, error) {
	st, err := store.New(store.Options{
		Dialect:     cfg.DB.Driver,
		DSN:         cfg.DSN(),
		MaxAttempts: cfg.DB.Retries,
		Logger:      logger,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure record store", err)
	}
	return st, nil
}

// migrate applies the schema when requested.
func migrate(ctx context.Context, st *store.SQLStore, enabled bool, logger *slog.Logger) error {
	if !enabled {
		return nil
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to apply schema", err)
	}
	logger.Info("schema applied")
	return nil
}

func newPipeline(cfg *config.AppConfig, logger *slog.Logger, st weather.Store, rawDir string) *weather.Pipeline {
	if rawDir == "" {
		rawDir = cfg.HistoryDir
	}
	archive := history.NewWriter(rawDir, cfg.HistorySummaryCSV)
	return weather.NewPipeline(newProvider(cfg, logger), st, archive,
		weather.WithLogger(logger.With("module", "pipeline")),
	)
}
