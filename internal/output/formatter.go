// Package output renders compile results, parsed entries and listings as
// text, JSON, YAML or CSV.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmurray2011/skein/internal/ui"
	"gopkg.in/yaml.v3"
)

// Format specifies the output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (use text, json, yaml or csv)", s)
}

// Formatter handles output formatting for different formats.
type Formatter struct {
	format   Format
	writer   io.Writer
	renderer *ui.Renderer

	// yamlDocs counts streamed YAML documents so they can be separated.
	yamlDocs int
}

// NewFormatter creates a new formatter with the specified format. Renderer
// options apply to text output.
func NewFormatter(format string, writer io.Writer, opts ...ui.Option) *Formatter {
	opts = append([]ui.Option{ui.WithOutput(writer)}, opts...)
	return &Formatter{
		format:   Format(strings.ToLower(format)),
		writer:   writer,
		renderer: ui.NewRendererWithOptions(opts...),
	}
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// encode writes v as an indented JSON or YAML document.
func (f *Formatter) encode(v any) error {
	if f.format == FormatYAML {
		return f.encodeYAML(v)
	}
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) encodeYAML(v any) error {
	if f.yamlDocs > 0 {
		if _, err := fmt.Fprintln(f.writer, "---"); err != nil {
			return err
		}
	}
	f.yamlDocs++

	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// truncateMessage truncates a message to maxLen characters.
func truncateMessage(msg string, maxLen int) string {
	// Remove newlines for table display
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", "")
	if r := []rune(msg); len(r) > maxLen {
		return string(r[:maxLen]) + "..."
	}
	return msg
}
