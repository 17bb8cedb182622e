package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analyzer/internal/metrics"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap current-weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherConfig configures an OpenWeatherProvider.
type OpenWeatherConfig struct {
	BaseURL string
	APIKey  string
	Units   string
	Retry   RetryConfig
	// BreakerTrip is the number of consecutive failed attempts that opens a
	// city's circuit breaker. Zero keeps the gobreaker default (more than 5).
	BreakerTrip uint32
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	units   string
	baseURL string
	httpCfg HTTPClientConfig
	logger  *slog.Logger

	breakerTrip uint32
	mu          sync.Mutex
	breakers    map[string]*gobreaker.CircuitBreaker // key: city
}

// NewOpenWeatherProvider builds a provider. The client's Timeout bounds each attempt.
func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig, logger *slog.Logger) *OpenWeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherURL
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		baseURL: cfg.BaseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Retry:  cfg.Retry,
		},
		logger: logger.With("module", "weather_client", "provider", "openweathermap"),

		breakerTrip: cfg.BreakerTrip,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breaker returns the circuit breaker for city, creating it on first use.
// Breakers are per city so failures for one city never block another.
func (p *OpenWeatherProvider) breaker(city string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[city]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        "openweather:" + city,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	}
	if trip := p.breakerTrip; trip > 0 {
		settings.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= trip
		}
	}
	cb := gobreaker.NewCircuitBreaker(settings)
	p.breakers[city] = cb
	return cb
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Fetch retrieves the current weather payload for city. Every failure,
// including exhausted retries, comes back as a *weather.Error wrapping
// weather.ErrNoData.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.RawPayload, error) {
	if p.apiKey == "" {
		return nil, weather.NewError(weather.KindStructural, "fetch "+city,
			fmt.Errorf("%w: openweather api key is not configured", weather.ErrNoData))
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", p.apiKey)
		values.Set("units", p.units)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	log := p.logger.With("city", city)
	payload, err := doRequestWithResilience(ctx, p.httpCfg, p.breaker(city), log, buildRequest, decodeOpenWeather)
	if err != nil {
		metrics.FetchFailures.Inc()
		log.Error("weather fetch permanently failed", "err", err)
		return nil, weather.NewError(weather.KindTransient, "fetch "+city,
			fmt.Errorf("%w: %v", weather.ErrNoData, err))
	}

	log.Info("weather data fetched")
	return payload, nil
}

// decodeOpenWeather parses the body and checks that main.temp is present.
func decodeOpenWeather(resp *http.Response) (weather.RawPayload, error) {
	var payload weather.RawPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: empty object", errMalformed)
	}
	if _, ok := payload.Temperature(); !ok {
		return nil, fmt.Errorf("%w: missing main.temp", errMalformed)
	}
	return payload, nil
}

