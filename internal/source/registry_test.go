package source

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/logconfig"
)

func TestValidateURISyntax(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid cloudwatch URI",
			uri:     "cloudwatch:///log-group?profile=prod&region=us-east-1",
			wantErr: false,
		},
		{
			name:    "valid file URI",
			uri:     "file:///var/log/app.log",
			wantErr: false,
		},
		{
			name:    "@ instead of ? for query params",
			uri:     "cloudwatch:///log-group@profile=prod",
			wantErr: true,
			errMsg:  "use '?' for query parameters, not '@'",
		},
		{
			name:    "@ instead of ? with multiple params",
			uri:     "cloudwatch:///log-group@profile=prod&region=us-east-1",
			wantErr: true,
			errMsg:  "use '?' for query parameters, not '@'",
		},
		{
			name:    "missing scheme with triple slash",
			uri:     "///log-group?profile=prod",
			wantErr: true,
			errMsg:  "missing scheme",
		},
		{
			name:    "email-like @ in authority is allowed",
			uri:     "ssh://user@host/path",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURISyntax(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Errorf("validateURISyntax(%q) = nil, want error containing %q", tt.uri, tt.errMsg)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("validateURISyntax(%q) error = %v, want error containing %q", tt.uri, err, tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("validateURISyntax(%q) = %v, want nil", tt.uri, err)
				}
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("could not get home dir: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get cwd: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "tilde only",
			path: "~",
			want: home,
		},
		{
			name: "tilde with subpath",
			path: "~/logs/app.log",
			want: filepath.Join(home, "logs/app.log"),
		},
		{
			name: "relative path dot",
			path: "./app.log",
			want: filepath.Join(cwd, "app.log"),
		},
		{
			name: "relative path dot subdir",
			path: "./logs/app.log",
			want: filepath.Join(cwd, "logs/app.log"),
		},
		{
			name: "relative path dotdot",
			path: "../app.log",
			want: filepath.Join(filepath.Dir(cwd), "app.log"),
		},
		{
			name: "absolute path unchanged",
			path: "/var/log/app.log",
			want: "/var/log/app.log",
		},
		{
			name: "tilde with glob",
			path: "~/logs/*.log",
			want: filepath.Join(home, "logs/*.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expandPath(tt.path)
			if got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExpandPath_PreservesGlobs(t *testing.T) {
	home, _ := os.UserHomeDir()

	// Test that glob patterns are preserved through expansion
	tests := []struct {
		path string
		want string
	}{
		{"~/*.log", filepath.Join(home, "*.log")},
		{"~/logs/**/*.log", filepath.Join(home, "logs/**/*.log")},
		{"./*.log", ""}, // will be absolute, just check it contains the glob
	}

	for _, tt := range tests {
		got := expandPath(tt.path)
		if tt.want != "" && got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
		// For relative paths, just verify the glob is preserved
		if strings.HasPrefix(tt.path, "./") {
			if !strings.HasSuffix(got, "*.log") {
				t.Errorf("expandPath(%q) = %q, expected to end with *.log", tt.path, got)
			}
		}
	}
}

// memSource is an in-memory Source registered under the "mem" scheme.
type memSource struct {
	uri   string
	lines []Line
}

func (m *memSource) Lines(ctx context.Context, params LinesParams) ([]Line, error) {
	return m.lines, nil
}

func (m *memSource) Follow(ctx context.Context, params LinesParams) (<-chan Line, error) {
	ch := make(chan Line)
	close(ch)
	return ch, nil
}

func (m *memSource) Type() string       { return "mem" }
func (m *memSource) Metadata() Metadata { return Metadata{Type: "mem", URI: m.uri} }
func (m *memSource) Close() error       { return nil }

func init() {
	Register("mem", func(u *url.URL, opts OpenOptions) (Source, error) {
		return &memSource{uri: u.String()}, nil
	})
}

func TestOpenWithOptions_SavedConfig(t *testing.T) {
	cfg := &Config{Configs: map[string]logconfig.Record{
		"web":    {LogType: logconfig.Nginx, SampleFrom: "mem://access"},
		"nosrc":  {LogType: logconfig.Nginx},
		"nested": {LogType: logconfig.Nginx, SampleFrom: "@web"},
	}}
	opts := OpenOptions{Config: cfg}

	src, err := OpenWithOptions("@web", opts)
	if err != nil {
		t.Fatalf("OpenWithOptions(@web) error = %v", err)
	}
	if got := src.Metadata().URI; got != "mem://access" {
		t.Errorf("Metadata().URI = %q, want mem://access", got)
	}

	if _, err := OpenWithOptions("@nosrc", opts); err == nil {
		t.Error("OpenWithOptions(@nosrc) = nil error, want error")
	}
	if _, err := OpenWithOptions("@nested", opts); err == nil {
		t.Error("OpenWithOptions(@nested) = nil error, want error")
	}

	_, err = OpenWithOptions("@wbe", opts)
	var se *skerrors.SuggestiveError
	if !errors.As(err, &se) {
		t.Fatalf("OpenWithOptions(@wbe) error = %v, want SuggestiveError", err)
	}
	if len(se.Suggestions) == 0 || se.Suggestions[0] != "web" {
		t.Errorf("Suggestions = %v, want [web ...]", se.Suggestions)
	}
}

func TestOpenWithOptions_UnknownScheme(t *testing.T) {
	_, err := Open("s3://bucket/key")
	if err == nil || !strings.Contains(err.Error(), "unknown source scheme: s3") {
		t.Errorf("Open(s3://...) error = %v, want unknown scheme", err)
	}
}

func TestIsBarePath(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"/var/log/app.log", true},
		{"./app.log", true},
		{"~/logs/*.log", true},
		{"access.log", true},
		{"logs/**/*.log", true},
		{"file:///var/log/app.log", false},
		{"cloudwatch:///group", false},
		{"mem:x", false},
	}

	for _, tt := range tests {
		if got := isBarePath(tt.uri); got != tt.want {
			t.Errorf("isBarePath(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}
