package output

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/source"
)

// ConfigSummary is one saved configuration in `skein configs`.
type ConfigSummary struct {
	Name       string              `json:"name" yaml:"name"`
	LogType    logconfig.LogType   `json:"log_type" yaml:"log_type"`
	Parser     logconfig.SubParser `json:"parser,omitempty" yaml:"parser,omitempty"`
	SampleFrom string              `json:"sample_from,omitempty" yaml:"sample_from,omitempty"`
	Fields     int                 `json:"fields" yaml:"fields"`
	Default    bool                `json:"default,omitempty" yaml:"default,omitempty"`
}

// Summaries lists the saved configurations of cfg in name order.
func Summaries(cfg *source.Config) []ConfigSummary {
	var out []ConfigSummary
	for _, name := range cfg.Names() {
		rec := cfg.Configs[name]
		out = append(out, ConfigSummary{
			Name:       name,
			LogType:    rec.LogType,
			Parser:     rec.Parser,
			SampleFrom: rec.SampleFrom,
			Fields:     len(rec.Fields),
			Default:    name == cfg.DefaultConfig,
		})
	}
	return out
}

// FormatConfigs outputs saved configuration summaries.
func (f *Formatter) FormatConfigs(configs []ConfigSummary) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		if configs == nil {
			configs = []ConfigSummary{}
		}
		return f.encode(configs)
	case FormatCSV:
		w := csv.NewWriter(f.writer)
		_ = w.Write([]string{"name", "log_type", "parser", "sample_from", "fields", "default"})
		for _, c := range configs {
			_ = w.Write([]string{c.Name, string(c.LogType), string(c.Parser), c.SampleFrom,
				fmt.Sprint(c.Fields), fmt.Sprint(c.Default)})
		}
		w.Flush()
		return w.Error()
	}

	if len(configs) == 0 {
		f.renderer.Muted("No saved configurations. Create one with: skein save <name>")
		return nil
	}
	rows := make([][]string, len(configs))
	for i, c := range configs {
		name := c.Name
		if c.Default {
			name += " (default)"
		}
		rows[i] = []string{name, string(c.LogType), string(c.Parser), fmt.Sprint(c.Fields), c.SampleFrom}
	}
	f.renderer.Table([]string{"NAME", "TYPE", "PARSER", "FIELDS", "SAMPLE FROM"}, rows)
	return nil
}

// TypeSummary is one log type in `skein types`.
type TypeSummary struct {
	LogType logconfig.LogType     `json:"log_type" yaml:"log_type"`
	Parsers []logconfig.SubParser `json:"parsers,omitempty" yaml:"parsers,omitempty"`
	Input   string                `json:"input" yaml:"input"`
}

// TypeSummaries describes every log type and what it takes as input.
func TypeSummaries() []TypeSummary {
	out := make([]TypeSummary, 0, len(logconfig.LogTypes))
	for _, t := range logconfig.LogTypes {
		out = append(out, TypeSummary{
			LogType: t,
			Parsers: logconfig.SubParsers(t),
			Input:   inputOf(t),
		})
	}
	return out
}

func inputOf(t logconfig.LogType) string {
	var parts []string
	for _, sp := range append([]logconfig.SubParser{""}, logconfig.SubParsers(t)...) {
		switch {
		case logconfig.NeedsFormat(t, sp):
			parts = appendOnce(parts, "format")
		case logconfig.NeedsRegex(t, sp):
			parts = appendOnce(parts, "regex")
		}
	}
	if logconfig.NeedsSample(t) {
		parts = append(parts, "sample")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func appendOnce(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// FormatTypes outputs log type summaries.
func (f *Formatter) FormatTypes(types []TypeSummary) error {
	switch f.format {
	case FormatJSON, FormatYAML:
		return f.encode(types)
	case FormatCSV:
		w := csv.NewWriter(f.writer)
		_ = w.Write([]string{"log_type", "parsers", "input"})
		for _, t := range types {
			_ = w.Write([]string{string(t.LogType), joinParsers(t.Parsers, ";"), t.Input})
		}
		w.Flush()
		return w.Error()
	}

	rows := make([][]string, len(types))
	for i, t := range types {
		rows[i] = []string{string(t.LogType), joinParsers(t.Parsers, ", "), t.Input}
	}
	f.renderer.Table([]string{"TYPE", "PARSERS", "INPUT"}, rows)
	return nil
}

func joinParsers(ps []logconfig.SubParser, sep string) string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = string(p)
	}
	return strings.Join(s, sep)
}
