package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-analyzer/internal/common"
	"github.com/i474232898/weather-analyzer/internal/metrics"
)

// RetryConfig controls the bounded retry loop around each outbound call.
type RetryConfig struct {
	MaxAttempts int
	// Backoff returns the delay after the given 1-based failed attempt.
	Backoff func(attempt int) time.Duration
	Sleep   common.SleepFunc
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client *http.Client
	Retry  RetryConfig
}

var (
	errBadStatus     = errors.New("unexpected status code")
	errMalformed     = errors.New("malformed response body")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid retry configuration")
)

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Backoff == nil {
		c.Backoff = common.Backoff
	}
	if c.Sleep == nil {
		c.Sleep = common.Sleep
	}
	return c
}

// doRequestWithResilience runs up to MaxAttempts attempts of buildRequest,
// each through the circuit breaker. decode runs inside the breaker so a body
// that fails validation counts as a failed attempt. Delays between attempts
// come from Retry.Backoff and are spent in Retry.Sleep.
func doRequestWithResilience[T any](
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	log *slog.Logger,
	buildRequest func(ctx context.Context) (*http.Request, error),
	decode func(resp *http.Response) (T, error),
) (T, error) {
	var zero T
	if cfg.Client == nil {
		return zero, errNoHTTPClient
	}
	if cfg.Retry.MaxAttempts < 1 {
		return zero, errInvalidConfig
	}
	retry := cfg.Retry.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			req, err := buildRequest(ctx)
			if err != nil {
				return nil, err
			}
			resp, err := cfg.Client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("%w: %d", errBadStatus, resp.StatusCode)
			}
			return decode(resp)
		})

		if err == nil {
			metrics.FetchAttempts.WithLabelValues("ok").Inc()
			log.Debug("request attempt succeeded", "attempt", attempt, "max_attempts", retry.MaxAttempts)
			v, ok := result.(T)
			if !ok {
				return zero, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return v, nil
		}

		metrics.FetchAttempts.WithLabelValues("error").Inc()

		// An open breaker will reject further attempts too.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn("request attempt rejected", "attempt", attempt, "max_attempts", retry.MaxAttempts, "err", err)
			return zero, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		log.Warn("request attempt failed", "attempt", attempt, "max_attempts", retry.MaxAttempts, "err", err)
		if attempt == retry.MaxAttempts {
			break
		}

		if err := retry.Sleep(ctx, retry.Backoff(attempt)); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}
