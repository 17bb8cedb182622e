package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "weather-analyzer", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"ingest", "serve", "trends", "migrate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	envFile := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

// testEnv points the CLI at a fake weather API and a temporary SQLite file.
func testEnv(t *testing.T, temps map[string]float64) (dir string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("q")
		temp, ok := temps[city]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"main":{"temp":%v,"humidity":50}}`, city, temp)
	}))
	t.Cleanup(srv.Close)

	dir = t.TempDir()
	t.Setenv("WEATHER_API_KEY", "test-key")
	t.Setenv("WEATHER_API_URL", srv.URL)
	t.Setenv("API_RETRIES", "1")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "weather.db"))
	t.Setenv("DB_RETRIES", "1")
	t.Setenv("CITIES", "")
	t.Setenv("CITIES_FILE", "")
	t.Setenv("HISTORY_DIR", filepath.Join(dir, "raw"))
	t.Setenv("HISTORY_SUMMARY_CSV", "")
	t.Setenv("LOG_LEVEL", "ERROR")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestIngestDryRun(t *testing.T) {
	dir := testEnv(t, map[string]float64{"Stockholm": 3.5, "New York": 12})
	raw := filepath.Join(dir, "snapshots")

	out, err := execute(t, "ingest", "--cities", "Stockholm", "New York", "--raw-output", raw, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "2/2 cities")

	matches, err := filepath.Glob(filepath.Join(raw, "raw_weather_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.NoFileExists(t, filepath.Join(dir, "weather.db"))
}

func TestIngestThenTrends(t *testing.T) {
	testEnv(t, map[string]float64{"Stockholm": 3.5, "London": 9})

	_, err := execute(t, "ingest", "--cities", "Stockholm,London", "--migrate")
	require.NoError(t, err)

	out, err := execute(t, "trends", "--city", "Stockholm", "--format", "json")
	require.NoError(t, err)

	var trends weather.Trends
	require.NoError(t, json.Unmarshal([]byte(out), &trends))
	require.Len(t, trends.Overall, 1)
	assert.Equal(t, "Stockholm", trends.Overall[0].City)
	assert.Equal(t, 3.5, trends.Overall[0].Mean)
	assert.Len(t, trends.Daily, 1)
}

func TestIngestNoDataExitsWithFailure(t *testing.T) {
	testEnv(t, nil)

	out, err := execute(t, "ingest", "--cities", "Atlantis", "--dry-run", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "aborted_no_data")

	var outcome weather.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, weather.StateAbortedNoData, outcome.State)
	assert.Equal(t, []string{"Atlantis"}, outcome.FailedCities)
}

func TestIngestWithoutAPIKeyIsCommandError(t *testing.T) {
	testEnv(t, nil)
	t.Setenv("WEATHER_API_KEY", "")

	_, err := execute(t, "ingest", "--cities", "Stockholm", "--dry-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormatIsCommandError(t *testing.T) {
	testEnv(t, nil)

	_, err := execute(t, "trends", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUnknownFlagIsCommandError(t *testing.T) {
	_, err := execute(t, "ingest", "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrateThenEmptyTrends(t *testing.T) {
	testEnv(t, nil)
	t.Setenv("WEATHER_API_KEY", "")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready (sqlite)")

	_, err = execute(t, "trends")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
