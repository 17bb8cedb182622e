package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// DBConfig holds durable store connection parameters.
type DBConfig struct {
	Driver         string        `validate:"oneof=postgres sqlite"`
	Host           string        `validate:"required_if=Driver postgres"`
	Port           int           `validate:"min=1,max=65535"`
	Name           string        `validate:"required_if=Driver postgres"`
	User           string        `validate:"required_if=Driver postgres"`
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration `validate:"min=0"`
	Path           string        `validate:"required_if=Driver sqlite"`
	Retries        int           `validate:"min=1"`
}

// AppConfig is built once at startup and passed to every component.
type AppConfig struct {
	AppName  string
	Env      string `validate:"oneof=local staging production test"`
	LogLevel string `validate:"oneof=DEBUG INFO WARNING WARN ERROR"`
	// LogFormat selects the slog handler: json or text.
	LogFormat string `validate:"oneof=json text"`

	WeatherAPIKey  string        `validate:"required"`
	WeatherAPIURL  string        `validate:"required,url"`
	Units          string        `validate:"oneof=metric imperial standard"`
	RequestTimeout time.Duration `validate:"gt=0"`
	APIRetries     int           `validate:"min=1"`

	// Cities to fetch. CitiesFile, when set, overrides Cities.
	Cities     []string `validate:"required_without=CitiesFile,dive,required"`
	CitiesFile string

	DB DBConfig

	HistoryDir        string `validate:"required"`
	HistorySummaryCSV string

	// ScheduleInterval is used unless ScheduleAt ("HH:MM", UTC) is set.
	ScheduleInterval time.Duration `validate:"gt=0"`
	ScheduleAt       string        `validate:"omitempty,datetime=15:04"`
	// RunTimeout bounds one scheduled run, fetches and store retries included.
	RunTimeout time.Duration `validate:"gt=0"`

	Port string
}

// LoadEnvFile primes the environment from path (".env" when empty).
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment with sensible defaults and validates it.
func Load() (*AppConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStoreOnly is Load for commands that never call the weather API.
func LoadStoreOnly() (*AppConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validate.StructExcept(cfg, "WeatherAPIKey"); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func read() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.AppName = getenvDefault("APP_NAME", "weather_analyzer")
	cfg.Env = getenvDefault("APP_ENV", "local")
	cfg.LogLevel = strings.ToUpper(getenvDefault("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "json"))

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.WeatherAPIURL = getenvDefault("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/weather")
	cfg.Units = getenvDefault("WEATHER_UNITS", "metric")
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.APIRetries = getenvInt("API_RETRIES", 3)

	cfg.Cities = getenvList("CITIES", []string{"Stockholm", "London", "New York"})
	cfg.CitiesFile = os.Getenv("CITIES_FILE")

	cfg.DB.Driver = strings.ToLower(getenvDefault("DB_DRIVER", "postgres"))
	cfg.DB.Host = os.Getenv("DB_HOST")
	cfg.DB.Port = getenvInt("DB_PORT", 5432)
	cfg.DB.Name = os.Getenv("DB_NAME")
	cfg.DB.User = os.Getenv("DB_USER")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.SSLMode = getenvDefault("DB_SSLMODE", "disable")
	if cfg.DB.ConnectTimeout, err = getenvDuration("DB_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.DB.Path = getenvDefault("DB_PATH", "data/weather.db")
	cfg.DB.Retries = getenvInt("DB_RETRIES", 3)

	cfg.HistoryDir = getenvDefault("HISTORY_DIR", "data/history/raw")
	cfg.HistorySummaryCSV = os.Getenv("HISTORY_SUMMARY_CSV")

	if cfg.ScheduleInterval, err = getenvDuration("SCHEDULE_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	cfg.ScheduleAt = os.Getenv("SCHEDULE_AT")
	if cfg.RunTimeout, err = getenvDuration("RUN_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN renders the data source name for the configured driver.
func (c *AppConfig) DSN() string {
	if c.DB.Driver == "sqlite" {
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", c.DB.Path)
	}

	q := url.Values{}
	q.Set("sslmode", c.DB.SSLMode)
	if c.DB.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.DB.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:     "/" + c.DB.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

// getenvDuration accepts Go durations ("10s") or bare seconds ("10").
func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getenvList splits a comma-separated value, trimming blanks.
func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
