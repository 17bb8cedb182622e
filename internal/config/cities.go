package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// CityFile is the YAML structure of CITIES_FILE.
type CityFile struct {
	Cities []string `yaml:"cities"`
}

// CityLoader reads the city list from a YAML file and can watch it for changes.
type CityLoader struct {
	path     string
	logger   *slog.Logger
	mu       sync.RWMutex
	current  []string
	onChange []func([]string)
}

// NewCityLoader creates a CityLoader and performs the initial load.
func NewCityLoader(path string, logger *slog.Logger) (*CityLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &CityLoader{path: path, logger: logger.With("module", "city_loader")}
	cities, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cities
	return l, nil
}

// Cities returns a copy of the current city list.
func (l *CityLoader) Cities() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.current))
	copy(out, l.current)
	return out
}

// OnChange registers a callback invoked whenever the list reloads.
func (l *CityLoader) OnChange(fn func([]string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that reloads the list on file changes.
// A file that fails to parse keeps the previous list. Call stop to clean up.
func (l *CityLoader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("city watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("city watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.logger.Warn("city list reload failed; keeping previous list", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger.Warn("city watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the file.
func (l *CityLoader) Reload() ([]string, error) {
	cities, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cities
	callbacks := make([]func([]string), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()

	l.logger.Info("city list loaded", "path", l.path, "cities", len(cities))
	for _, fn := range callbacks {
		fn(cities)
	}
	return cities, nil
}

func (l *CityLoader) load() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read cities %s: %w", l.path, err)
	}
	var f CityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cities %s: %w", l.path, err)
	}

	cities := make([]string, 0, len(f.Cities))
	seen := make(map[string]bool, len(f.Cities))
	for _, c := range f.Cities {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cities = append(cities, c)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("cities %s: no cities listed", l.path)
	}
	return cities, nil
}
