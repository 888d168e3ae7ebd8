package logconfig

import (
	"context"

	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/match"
)

// Record is the stored form of a Config.
type Record struct {
	LogType    LogType           `yaml:"log_type" json:"log_type"`
	Parser     SubParser         `yaml:"parser,omitempty" json:"parser,omitempty"`
	Format     string            `yaml:"format,omitempty" json:"format,omitempty"`
	Regex      string            `yaml:"regex,omitempty" json:"regex,omitempty"`
	Sample     string            `yaml:"sample,omitempty" json:"sample,omitempty"`
	SampleFrom string            `yaml:"sample_from,omitempty" json:"sample_from,omitempty"`
	TimeKey    string            `yaml:"time_key,omitempty" json:"time_key,omitempty"`
	Fields     []infer.FieldSpec `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Record returns the stored form of c. SampleFrom is left for the caller.
func (c Config) Record() Record {
	return Record{
		LogType: c.logType,
		Parser:  c.subParser,
		Format:  c.format,
		Regex:   c.regex,
		Sample:  c.sample,
		TimeKey: c.timeKey,
		Fields:  c.Fields(),
	}
}

// Restore rebuilds a Config from a record, re-parsing the sample. Stored
// field edits replace the inferred fields.
func (r Record) Restore(ctx context.Context, name string, m *match.Matcher) Config {
	c := New().WithName(name).WithLogType(r.LogType).WithSubParser(r.Parser)
	if r.Format != "" {
		c = c.WithFormat(r.Format)
	}
	if r.Regex != "" {
		c = c.WithRegex(r.Regex)
	}
	if r.Sample != "" {
		c = c.WithSample(r.Sample)
	}
	c = c.Parse(ctx, m)

	switch {
	case len(r.Fields) > 0:
		c = c.WithFields(r.Fields, r.TimeKey)
	case r.TimeKey != "":
		c = c.WithTimeKey(r.TimeKey)
	}
	return c
}
