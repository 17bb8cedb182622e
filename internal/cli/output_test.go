package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))

	wrapped := WrapExitError(ExitFailure, "run failed", errors.New("boom"))
	assert.Equal(t, "run failed: boom", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestRunFailedCarriesOutcome(t *testing.T) {
	err := runFailed(weather.Outcome{RunID: "r-7", State: weather.StateAbortedNoData})

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "aborted_no_data", err.Outcome)
	assert.True(t, errors.Is(err, weather.ErrNoPayloads))
	assert.Equal(t, "pipeline run failed (run r-7: aborted_no_data): "+weather.ErrNoPayloads.Error(), err.Error())
}

func TestCityArgs(t *testing.T) {
	assert.Equal(t, []string{"Stockholm", "London", "New York"},
		cityArgs([]string{"Stockholm", " "}, []string{"London", "New York"}))
	assert.Empty(t, cityArgs(nil, nil))
}
