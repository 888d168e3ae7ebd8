package output

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
)

// Report is the printable outcome of compiling and parsing a configuration.
type Report struct {
	Name       string              `json:"name,omitempty" yaml:"name,omitempty"`
	LogType    logconfig.LogType   `json:"log_type" yaml:"log_type"`
	Parser     logconfig.SubParser `json:"parser,omitempty" yaml:"parser,omitempty"`
	Format     string              `json:"format,omitempty" yaml:"format,omitempty"`
	Regex      string              `json:"regex,omitempty" yaml:"regex,omitempty"`
	Sample     string              `json:"sample,omitempty" yaml:"sample,omitempty"`
	State      string              `json:"state" yaml:"state"`
	Matched    bool                `json:"matched" yaml:"matched"`
	Groups     []match.Group       `json:"groups,omitempty" yaml:"groups,omitempty"`
	Fields     []infer.FieldSpec   `json:"fields,omitempty" yaml:"fields,omitempty"`
	TimeKey    string              `json:"time_key,omitempty" yaml:"time_key,omitempty"`
	TimeFormat string              `json:"time_format,omitempty" yaml:"time_format,omitempty"`
	ParseError string              `json:"parse_error,omitempty" yaml:"parse_error,omitempty"`
	Errors     logconfig.Errors    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings   logconfig.Errors    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewReport collects the state of c. Validation errors are included when c
// has been validated; time value checks are always run.
func NewReport(c logconfig.Config) Report {
	r := Report{
		Name:       c.Name(),
		LogType:    c.LogType(),
		Parser:     c.SubParser(),
		Format:     c.Format(),
		Regex:      c.Pattern().Regex,
		Sample:     c.Sample(),
		State:      c.State().String(),
		Matched:    c.Result().Matched,
		Groups:     c.Result().Groups,
		Fields:     c.Fields(),
		TimeKey:    c.TimeKey(),
		TimeFormat: c.TimeFormat(),
		Errors:     c.Errors(),
		Warnings:   logconfig.CheckTimeValues(c),
	}
	if err := c.ParseErr(); err != nil {
		r.ParseError = err.Error()
	}
	return r
}

// FormatReport outputs a report in the configured format. CSV output is the
// field table alone.
func (f *Formatter) FormatReport(r Report) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(r)
	case FormatCSV:
		return f.formatFieldsCSV(r)
	default:
		return f.formatReportText(r)
	}
}

func (f *Formatter) formatReportText(r Report) error {
	title := string(r.LogType)
	if r.Parser != "" {
		title += " / " + string(r.Parser)
	}
	if r.Name != "" {
		title = r.Name + " (" + title + ")"
	}
	f.renderer.KeyValue("Config", title)
	f.renderer.KeyValue("State", r.State)

	if r.Regex != "" {
		f.renderer.Section("Regex")
		f.renderer.Regex(r.Regex)
	}

	if r.Sample != "" {
		f.renderer.Section("Sample")
		re, _ := regexp.Compile(r.Regex)
		f.renderer.Sample(r.Sample, re)
		if r.ParseError != "" {
			f.renderer.Error("%s", r.ParseError)
		}
	}

	if len(r.Fields) > 0 {
		f.renderer.Section("Fields")
		f.renderer.Table([]string{"KEY", "TYPE", "FORMAT", "VALUE"}, fieldRows(r, 60))
	}

	if len(r.Errors) > 0 {
		f.renderer.Section("Validation errors")
		for _, e := range r.Errors {
			f.renderer.ValidationError(e.Field, string(e.Key))
		}
	}
	if len(r.Warnings) > 0 {
		f.renderer.Section("Warnings")
		for _, e := range r.Warnings {
			f.renderer.ValidationError(e.Field, string(e.Key))
		}
	}
	return nil
}

// fieldRows builds the field table. The time key is marked with '*'.
func fieldRows(r Report, maxValue int) [][]string {
	values := match.Result{Matched: r.Matched, Groups: r.Groups}
	rows := make([][]string, 0, len(r.Fields))
	for _, fs := range r.Fields {
		key := fs.Key
		if key == r.TimeKey {
			key += " *"
		}
		value, _ := values.Get(fs.Key)
		if maxValue > 0 {
			value = truncateMessage(match.DisplayValue(value), maxValue)
		}
		rows = append(rows, []string{key, string(fs.Type), fs.Format, value})
	}
	return rows
}

func (f *Formatter) formatFieldsCSV(r Report) error {
	w := csv.NewWriter(f.writer)
	if err := w.Write([]string{"key", "type", "format", "value"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range fieldRows(Report{Fields: r.Fields, Groups: r.Groups, Matched: r.Matched}, 0) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// FormatErrors prints validation results alone, as `skein validate` does.
func (f *Formatter) FormatErrors(name string, errs logconfig.Errors) error {
	type result struct {
		Name   string           `json:"name" yaml:"name"`
		Valid  bool             `json:"valid" yaml:"valid"`
		Errors logconfig.Errors `json:"errors,omitempty" yaml:"errors,omitempty"`
	}

	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(result{Name: name, Valid: len(errs) == 0, Errors: errs})
	case FormatCSV:
		w := csv.NewWriter(f.writer)
		_ = w.Write([]string{"name", "field", "key"})
		for _, e := range errs {
			_ = w.Write([]string{name, e.Field, string(e.Key)})
		}
		w.Flush()
		return w.Error()
	}

	if len(errs) == 0 {
		f.renderer.Success("%s is valid", name)
		return nil
	}
	f.renderer.Info("%s has %d %s:", name, len(errs), plural(len(errs), "error"))
	for _, e := range errs {
		f.renderer.ValidationError(e.Field, string(e.Key))
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// escapeNewlines shows embedded line breaks in single-line output.
func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

// FormatPattern outputs a compiled pattern. Text output is the group table;
// the regex itself is printed by the caller.
func (f *Formatter) FormatPattern(p pattern.CompiledPattern) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(p)
	case FormatCSV:
		w := csv.NewWriter(f.writer)
		_ = w.Write([]string{"group", "field"})
		for _, gf := range p.Fields {
			_ = w.Write([]string{gf.Group, gf.Field})
		}
		w.Flush()
		return w.Error()
	}

	if len(p.Fields) == 0 {
		return nil
	}
	rows := make([][]string, len(p.Fields))
	for i, gf := range p.Fields {
		field := gf.Field
		if field == p.TimeField {
			field += " *"
		}
		rows[i] = []string{gf.Group, field}
	}
	f.renderer.Newline()
	f.renderer.Table([]string{"GROUP", "FIELD"}, rows)
	if p.TimeFormat != "" {
		f.renderer.Newline()
		f.renderer.KeyValue("Time format", p.TimeFormat)
	}
	return nil
}
