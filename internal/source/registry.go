package source

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	skerrors "github.com/jmurray2011/skein/internal/errors"
)

// Opener is a function that opens a source from a parsed URL.
type Opener func(u *url.URL, opts OpenOptions) (Source, error)

// OpenOptions provides default values for source configuration.
// These can be overridden by URI query parameters.
type OpenOptions struct {
	Profile string // Default AWS profile
	Region  string // Default AWS region

	// Config resolves @name references. When nil the config file is loaded.
	Config *Config
}

// registry holds registered source openers by scheme.
var registry = make(map[string]Opener)

// Register adds a source opener for the given URI scheme.
// This should be called during init() by each source implementation.
func Register(scheme string, opener Opener) {
	registry[scheme] = opener
}

// Open parses a URI and returns the appropriate Source.
func Open(uri string) (Source, error) {
	return OpenWithOptions(uri, OpenOptions{})
}

// OpenWithOptions parses a URI and returns the appropriate Source.
// Supports:
//   - file:///path/to/file (or bare paths like ./access.log, globs included)
//   - cloudwatch:///log-group?profile=prod&region=us-east-1
//   - @name (the sample_from of a saved configuration)
func OpenWithOptions(uri string, opts OpenOptions) (Source, error) {
	if strings.HasPrefix(uri, "@") {
		return openSaved(uri[1:], opts)
	}

	if isBarePath(uri) {
		uri = "file://" + expandPath(uri)
	}

	if err := validateURISyntax(uri); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid source URI %q: %w", uri, err)
	}

	opener, ok := registry[parsed.Scheme]
	if !ok {
		return nil, fmt.Errorf("unknown source scheme: %s (available: %s)", parsed.Scheme, availableSchemes())
	}

	return opener(parsed, opts)
}

func isBarePath(uri string) bool {
	if strings.Contains(uri, "://") {
		return false
	}
	for _, p := range []string{"/", "./", "../", "~"} {
		if strings.HasPrefix(uri, p) {
			return true
		}
	}
	// A plain relative name such as "access.log" or "logs/*.log".
	return !strings.Contains(uri, ":")
}

// validateURISyntax checks for common URI mistakes and returns helpful errors.
func validateURISyntax(uri string) error {
	// scheme:///path@key=value should be scheme:///path?key=value
	if idx := strings.Index(uri, "://"); idx > 0 {
		rest := uri[idx+3:]
		if atIdx := strings.Index(rest, "@"); atIdx > 0 {
			afterAt := rest[atIdx+1:]
			if strings.Contains(afterAt, "=") && !strings.Contains(rest[:atIdx], "?") {
				return fmt.Errorf("invalid URI %q: use '?' for query parameters, not '@'", uri)
			}
		}
	}

	if strings.HasPrefix(uri, "///") {
		return fmt.Errorf("invalid URI %q: missing scheme (e.g., cloudwatch:///log-group)", uri)
	}

	return nil
}

// openSaved opens the sample source named by a saved configuration.
func openSaved(name string, opts OpenOptions) (Source, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	rec, ok := cfg.Configs[name]
	if !ok {
		return nil, skerrors.ConfigNotFoundError(name, cfg.Names())
	}
	if rec.SampleFrom == "" {
		return nil, fmt.Errorf("configuration %q has no sample_from source", name)
	}
	if strings.HasPrefix(rec.SampleFrom, "@") {
		return nil, fmt.Errorf("configuration %q: sample_from cannot reference another configuration", name)
	}

	return OpenWithOptions(rec.SampleFrom, opts)
}

func availableSchemes() string {
	schemes := make([]string, 0, len(registry))
	for s := range registry {
		schemes = append(schemes, s)
	}
	if len(schemes) == 0 {
		return "(none registered)"
	}
	sort.Strings(schemes)
	return strings.Join(schemes, ", ")
}

// expandPath resolves ~ to home directory and converts relative paths to absolute.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}
