package skill

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// aliasSlots is the number of station/alias pairs offered in settings.
const aliasSlots = 5

// Aliases rewrites queries using user defined alias to station mappings.
// Mappings come from the numbered settings slots and a legacy file, with
// the settings winning when both define an alias.
type Aliases struct {
	settingsFile string
	legacyFile   string
	logger       *slog.Logger

	mu      sync.RWMutex
	mapping map[string]string
	re      *regexp.Regexp
}

func NewAliases(settingsFile, legacyFile string, logger *slog.Logger) *Aliases {
	return &Aliases{
		settingsFile: expandHome(settingsFile),
		legacyFile:   expandHome(legacyFile),
		logger:       logger,
		mapping:      map[string]string{},
	}
}

// Load reads both sources. Missing files are not an error.
func (a *Aliases) Load() error {
	merged := map[string]string{}

	if a.legacyFile != "" {
		legacy, err := readOptional(a.legacyFile, parseLegacyAliases)
		if err != nil {
			return fmt.Errorf("failed to load legacy aliases: %w", err)
		}
		for k, v := range legacy {
			merged[strings.ToLower(k)] = v
		}
	}

	if a.settingsFile != "" {
		settings, err := readOptional(a.settingsFile, parseSettingsAliases)
		if err != nil {
			return fmt.Errorf("failed to load settings aliases: %w", err)
		}
		for k, v := range settings {
			merged[strings.ToLower(k)] = v
		}
	}

	a.Set(merged)
	metricAliases.Set(float64(len(merged)))
	a.logger.Info("aliases loaded", "count", len(merged))

	return nil
}

// Set replaces the mapping.
func (a *Aliases) Set(mapping map[string]string) {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		m[k] = v
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Longer aliases first so an alias containing another is replaced whole.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	var re *regexp.Regexp
	if len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		re = regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
	}

	a.mu.Lock()
	a.mapping = m
	a.re = re
	a.mu.Unlock()
}

// Mapping returns a copy of the current alias mapping.
func (a *Aliases) Mapping() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m := make(map[string]string, len(a.mapping))
	for k, v := range a.mapping {
		m[k] = v
	}

	return m
}

// Apply replaces every case-insensitive occurrence of each alias in query
// with its canonical station term. Replacements are made in one pass so a
// canonical term is never rewritten again.
func (a *Aliases) Apply(query string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.re == nil {
		return query
	}

	return a.re.ReplaceAllStringFunc(query, func(alias string) string {
		if canonical, ok := a.mapping[strings.ToLower(alias)]; ok {
			return canonical
		}
		return alias
	})
}

// Watch reloads the aliases whenever either source file changes, until ctx
// is done. The parent directories are watched so that editors replacing the
// file are noticed.
func (a *Aliases) Watch(ctx context.Context) error {
	targets := map[string]struct{}{}
	for _, f := range []string{a.settingsFile, a.legacyFile} {
		if f != "" {
			targets[filepath.Clean(f)] = struct{}{}
		}
	}

	if len(targets) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watching := 0
	for f := range targets {
		dir := filepath.Dir(f)
		if err := watcher.Add(dir); err != nil {
			a.logger.Warn("unable to watch alias directory", "dir", dir, "err", err)
			continue
		}
		watching++
	}

	if watching == 0 {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, ok := targets[filepath.Clean(event.Name)]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			if err := a.Load(); err != nil {
				metricAliasReloads.WithLabelValues("error").Inc()
				a.logger.Error("failed to reload aliases", "file", event.Name, "err", err)
				continue
			}
			metricAliasReloads.WithLabelValues("success").Inc()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("alias watcher error", "err", err)
		}
	}
}

// parseSettingsAliases reads the station{i}/alias{i} slots of a settings
// JSON object. Slots with a blank side are skipped.
func parseSettingsAliases(r io.Reader) (map[string]string, error) {
	var settings map[string]any
	if err := json.NewDecoder(r).Decode(&settings); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	m := map[string]string{}
	for i := 1; i <= aliasSlots; i++ {
		n := strconv.Itoa(i)
		station, _ := settings["station"+n].(string)
		alias, _ := settings["alias"+n].(string)

		station, alias = strings.TrimSpace(station), strings.TrimSpace(alias)
		if station == "" || alias == "" {
			continue
		}
		m[alias] = station
	}

	return m, nil
}

// parseLegacyAliases reads "alias = station" lines. Blank lines and lines
// starting with # are ignored.
func parseLegacyAliases(r io.Reader) (map[string]string, error) {
	m := map[string]string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		alias, station, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		alias, station = strings.TrimSpace(alias), strings.TrimSpace(station)
		if alias == "" || station == "" {
			continue
		}
		m[alias] = station
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aliases: %w", err)
	}

	return m, nil
}

func readOptional(file string, parse func(io.Reader) (map[string]string, error)) (map[string]string, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	return parse(f)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}

	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
