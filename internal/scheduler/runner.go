package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// ErrRunInProgress is returned when a run is requested while another is executing.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// PipelineRunner runs one pipeline pass for a set of cities.
type PipelineRunner interface {
	Run(ctx context.Context, cities []string) weather.Outcome
}

// Runner serializes pipeline runs. The scheduler and the HTTP trigger share
// one Runner so runs never overlap.
type Runner struct {
	pipeline PipelineRunner
	cities   func() []string

	running sync.Mutex

	mu      sync.RWMutex
	last    weather.Outcome
	hasLast bool
}

// NewRunner creates a Runner. cities is consulted at the start of every run.
func NewRunner(p PipelineRunner, cities func() []string) *Runner {
	return &Runner{pipeline: p, cities: cities}
}

// TryRun starts a run now unless one is already executing.
func (r *Runner) TryRun(ctx context.Context) (weather.Outcome, error) {
	if !r.running.TryLock() {
		return weather.Outcome{}, ErrRunInProgress
	}
	defer r.running.Unlock()

	out := r.pipeline.Run(ctx, r.cities())

	r.mu.Lock()
	r.last, r.hasLast = out, true
	r.mu.Unlock()
	return out, nil
}

// Last returns the outcome of the most recent finished run.
func (r *Runner) Last() (weather.Outcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}
