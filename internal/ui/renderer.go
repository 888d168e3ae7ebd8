package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Renderer handles all terminal output with consistent styling.
type Renderer struct {
	out     io.Writer
	err     io.Writer
	noColor bool
	quiet   bool
}

// NewRenderer creates a new Renderer with default settings.
func NewRenderer() *Renderer {
	return &Renderer{
		out: os.Stdout,
		err: os.Stderr,
	}
}

// Option is a functional option for configuring the Renderer.
type Option func(*Renderer)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		r.out = w
	}
}

// WithError sets the error writer.
func WithError(w io.Writer) Option {
	return func(r *Renderer) {
		r.err = w
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) Option {
	return func(r *Renderer) {
		r.noColor = noColor
	}
}

// WithQuiet enables quiet mode (suppresses status messages).
func WithQuiet(quiet bool) Option {
	return func(r *Renderer) {
		r.quiet = quiet
	}
}

// NewRendererWithOptions creates a new Renderer with the given options.
func NewRendererWithOptions(opts ...Option) *Renderer {
	r := NewRenderer()
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// render applies styling if color is enabled.
func (r *Renderer) render(style lipgloss.Style, text string) string {
	if r.noColor {
		return text
	}
	return style.Render(text)
}

// --- Status and Messages ---

// Status prints a status message (suppressed in quiet mode).
func (r *Renderer) Status(format string, args ...any) {
	if r.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(StatusStyle, msg))
}

// Info prints an informational message.
func (r *Renderer) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, msg)
}

// Success prints a success message.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.out, r.render(SuccessStyle, msg))
}

// Warning prints a warning message.
func (r *Renderer) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(WarningStyle, "Warning: "+msg))
}

// Error prints an error message.
func (r *Renderer) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(ErrorStyle, "Error: "+msg))
}

// Debug prints a debug message (only when verbose).
func (r *Renderer) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.err, r.render(MutedStyle, "[DEBUG] "+msg))
}

// --- Formatted Output ---

// KeyValue prints a key-value pair.
func (r *Renderer) KeyValue(key, value string) {
	label := r.render(LabelStyle, key+":")
	fmt.Fprintf(r.out, "%s %s\n", label, value)
}

// KeyValueIndent prints an indented key-value pair.
func (r *Renderer) KeyValueIndent(key, value string, indent int) {
	prefix := strings.Repeat("  ", indent)
	label := r.render(LabelStyle, key+":")
	fmt.Fprintf(r.out, "%s%s %s\n", prefix, label, value)
}

// Section prints a section title.
func (r *Renderer) Section(title string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.render(SectionTitleStyle, title))
}

// Divider prints a horizontal divider.
func (r *Renderer) Divider() {
	fmt.Fprintln(r.out, r.render(MutedStyle, strings.Repeat("─", 40)))
}

// Newline prints a blank line.
func (r *Renderer) Newline() {
	fmt.Fprintln(r.out)
}

// Regex prints a regex in a box. Without color it is printed bare so it can
// be copied.
func (r *Renderer) Regex(expr string) {
	if r.noColor {
		fmt.Fprintln(r.out, expr)
		return
	}
	fmt.Fprintln(r.out, RegexBoxStyle.Render(RegexStyle.Render(expr)))
}

// Muted prints secondary text.
func (r *Renderer) Muted(format string, args ...any) {
	fmt.Fprintln(r.out, r.render(MutedStyle, fmt.Sprintf(format, args...)))
}

// --- Sample Rendering ---

// Highlight colors each capture group of re within text. Nested groups are
// covered by their outer group. Text is returned unchanged when color is
// off or re does not match.
func (r *Renderer) Highlight(text string, re *regexp.Regexp) string {
	if r.noColor || re == nil {
		return text
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}

	var sb strings.Builder
	cursor, styled := 0, 0
	for g := 1; g < len(loc)/2; g++ {
		start, end := loc[2*g], loc[2*g+1]
		if start < 0 || start < cursor || start == end {
			continue
		}
		sb.WriteString(text[cursor:start])
		style := GroupStyles[styled%len(GroupStyles)]
		sb.WriteString(style.Render(text[start:end]))
		styled++
		cursor = end
	}
	sb.WriteString(text[cursor:])
	return sb.String()
}

// Sample prints a sample with its groups highlighted.
func (r *Renderer) Sample(text string, re *regexp.Regexp) {
	for _, line := range strings.Split(r.Highlight(text, re), "\n") {
		fmt.Fprintf(r.out, "  %s\n", line)
	}
}

// LogEntry renders a tailed entry with its timestamp and origin.
func (r *Renderer) LogEntry(timestamp, origin, message string) {
	ts := r.render(TimestampStyle, timestamp)
	org := r.render(OriginStyle, origin)

	if timestamp == "" {
		fmt.Fprintln(r.out, org)
	} else {
		fmt.Fprintf(r.out, "%s | %s\n", ts, org)
	}
	for _, line := range strings.Split(message, "\n") {
		fmt.Fprintf(r.out, "  %s\n", line)
	}
}

// ValidationError prints one failed check.
func (r *Renderer) ValidationError(slot, key string) {
	fmt.Fprintf(r.out, "  %s %s\n", r.render(LabelStyle, slot+":"), r.render(KeyStyle, key))
}

// --- Table Rendering ---

// Table renders a simple table.
func (r *Renderer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	// Print header
	headerParts := make([]string, len(headers))
	for i, h := range headers {
		headerParts[i] = r.render(LabelStyle, pad(h, widths[i]))
	}
	fmt.Fprintln(r.out, strings.TrimRight(strings.Join(headerParts, "  "), " "))

	// Print separator
	sepParts := make([]string, len(headers))
	for i, w := range widths {
		sepParts[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(r.out, r.render(MutedStyle, strings.Join(sepParts, "  ")))

	// Print rows
	for _, row := range rows {
		rowParts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowParts[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(r.out, strings.TrimRight(strings.Join(rowParts, "  "), " "))
	}
}

// pad right-pads s to w display columns.
func pad(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

// NoResults prints a "no results" message.
func (r *Renderer) NoResults() {
	fmt.Fprintln(r.out, r.render(MutedStyle, "No results found."))
}
