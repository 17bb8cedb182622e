package cli

import (
	"log/slog"

	"github.com/i474232898/weather-analyzer/internal/config"
)

// configuredCities returns the city list from CITIES_FILE when set,
// otherwise from CITIES.
func configuredCities(cfg *config.AppConfig, logger *slog.Logger) ([]string, error) {
	if cfg.CitiesFile == "" {
		return cfg.Cities, nil
	}
	loader, err := config.NewCityLoader(cfg.CitiesFile, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load city list", err)
	}
	return loader.Cities(), nil
}

// citySource returns a function yielding the current city list. With
// CITIES_FILE set the file is watched and changes apply to the next run.
func citySource(cfg *config.AppConfig, logger *slog.Logger) (cities func() []string, stop func(), err error) {
	if cfg.CitiesFile == "" {
		static := cfg.Cities
		return func() []string { return static }, func() {}, nil
	}

	loader, err := config.NewCityLoader(cfg.CitiesFile, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load city list", err)
	}
	stop, err = loader.Watch()
	if err != nil {
		logger.Warn("city list changes will not be picked up", "err", err)
		stop = func() {}
	}
	return loader.Cities, stop, nil
}
