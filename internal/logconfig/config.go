package logconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
)

var (
	// ErrNoMatch is recorded when the sample does not match the pattern.
	ErrNoMatch = errors.New("sample does not match format")

	// ErrNoTemplate is returned for log types that are not described by a
	// format or regex.
	ErrNoTemplate = errors.New("log type has no format template")

	// ErrParserRequired is returned when a log type needs a sub-parser that
	// has not been chosen.
	ErrParserRequired = errors.New("sub-parser required")
)

// State is the position of a configuration in the editing flow:
//
//	Empty -> TypeSelected -> FormatEntered | RegexEntered
//	      -> SampleParsed | SampleFailed -> FieldsConfigured -> Valid | Invalid
type State int

const (
	StateEmpty State = iota
	StateTypeSelected
	StateFormatEntered
	StateRegexEntered
	StateSampleParsed
	StateSampleFailed
	StateFieldsConfigured
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateTypeSelected:
		return "type-selected"
	case StateFormatEntered:
		return "format-entered"
	case StateRegexEntered:
		return "regex-entered"
	case StateSampleParsed:
		return "sample-parsed"
	case StateSampleFailed:
		return "sample-failed"
	case StateFieldsConfigured:
		return "fields-configured"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Config is one log configuration. The zero value is an empty configuration.
type Config struct {
	name      string
	logType   LogType
	subParser SubParser
	format    string
	regex     string
	sample    string

	compiled pattern.CompiledPattern
	result   match.Result
	schema   *infer.Schema
	fields   []infer.FieldSpec
	timeKey  string
	parsed   bool
	parseErr error

	state  State
	errors Errors
}

// New returns an empty configuration.
func New() Config {
	return Config{}
}

func (c Config) Name() string { return c.name }
func (c Config) LogType() LogType { return c.logType }
func (c Config) SubParser() SubParser { return c.subParser }
func (c Config) Format() string { return c.format }
func (c Config) Regex() string { return c.regex }
func (c Config) Sample() string { return c.sample }
func (c Config) Pattern() pattern.CompiledPattern { return c.compiled }
func (c Config) Result() match.Result { return c.result }
func (c Config) Schema() *infer.Schema { return c.schema }
func (c Config) TimeKey() string { return c.timeKey }
func (c Config) Parsed() bool { return c.parsed }
func (c Config) ParseErr() error { return c.parseErr }
func (c Config) State() State { return c.state }
func (c Config) Errors() Errors { return append(Errors(nil), c.errors...) }
func (c Config) Valid() bool { return c.state == StateValid }
func (c Config) Fields() []infer.FieldSpec { return append([]infer.FieldSpec(nil), c.fields...) }

// TimeFormat returns the format of the time key field.
func (c Config) TimeFormat() string {
	if f, ok := c.field(c.timeKey); ok {
		return f.Format
	}
	return ""
}

func (c Config) field(key string) (infer.FieldSpec, bool) {
	if key == "" {
		return infer.FieldSpec{}, false
	}
	for _, f := range c.fields {
		if f.Key == key {
			return f, true
		}
	}
	return infer.FieldSpec{}, false
}

// WithName sets the configuration name.
func (c Config) WithName(name string) Config {
	c.name = name
	c.errors = nil
	if c.state == StateValid || c.state == StateInvalid {
		c.state = StateFieldsConfigured
	}
	return c
}

// WithLogType selects the log type. Changing the type discards everything
// chosen after it.
func (c Config) WithLogType(t LogType) Config {
	if t == c.logType && c.state != StateEmpty {
		return c
	}
	return Config{name: c.name, logType: t, state: StateTypeSelected}
}

// WithSubParser selects the sub-parser. Changing it discards the format,
// regex, sample and fields.
func (c Config) WithSubParser(sp SubParser) Config {
	if sp == c.subParser {
		return c
	}
	return Config{name: c.name, logType: c.logType, subParser: sp, state: StateTypeSelected}
}

// WithFormat sets the format string and discards earlier parse results.
func (c Config) WithFormat(format string) Config {
	c = c.resetParse()
	c.format = format
	c.state = StateFormatEntered
	return c
}

// WithRegex sets the user regex and discards earlier parse results.
func (c Config) WithRegex(regex string) Config {
	c = c.resetParse()
	c.regex = regex
	c.state = StateRegexEntered
	return c
}

// WithSample sets the sample log and discards earlier parse results.
func (c Config) WithSample(sample string) Config {
	c = c.resetParse()
	c.sample = sample
	if c.state == StateEmpty {
		c.state = StateTypeSelected
	}
	return c
}

func (c Config) resetParse() Config {
	c.compiled = pattern.CompiledPattern{}
	c.result = match.Result{}
	c.schema = nil
	c.fields = nil
	c.timeKey = ""
	c.parsed = false
	c.parseErr = nil
	c.errors = nil
	switch c.state {
	case StateSampleParsed, StateSampleFailed, StateFieldsConfigured, StateValid, StateInvalid:
		switch {
		case c.format != "":
			c.state = StateFormatEntered
		case c.regex != "":
			c.state = StateRegexEntered
		default:
			c.state = StateTypeSelected
		}
	}
	return c
}

// Template returns the format template for the configuration.
func (c Config) Template() (pattern.Template, error) {
	if NeedsSubParser(c.logType) && c.subParser == "" {
		return nil, fmt.Errorf("%w for %s", ErrParserRequired, c.logType)
	}
	switch c.logType {
	case Nginx:
		return pattern.NginxFormat{Raw: c.format}, nil
	case Apache:
		return pattern.ApacheFormat{Raw: c.format}, nil
	case Syslog:
		return pattern.SyslogFormat{Parser: string(c.subParser), Raw: c.format}, nil
	case MultiLineText:
		if c.subParser == JavaSpringBoot {
			return pattern.SpringBootFormat{Raw: c.format}, nil
		}
		return pattern.RegexFormat{Raw: c.regex}, nil
	case SingleLineText, Regex:
		return pattern.RegexFormat{Raw: c.regex}, nil
	case IIS:
		return pattern.WindowsIISFormat{Parser: string(c.subParser), FieldsLine: c.format}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoTemplate, c.logType)
}

// Parse compiles the template and applies it to the sample, inferring the
// field list. Failures are recorded on the returned Config rather than
// returned: the caller inspects ParseErr or runs Validate.
func (c Config) Parse(ctx context.Context, m *match.Matcher) Config {
	c = c.resetParse()

	switch c.logType {
	case JSON:
		return c.parseJSON()
	case WindowsEvent:
		c.fields = WindowsEventFields()
		c.timeKey = WindowsEventTimeKey
		c.parsed = true
		c.state = StateSampleParsed
		return c
	}

	tmpl, err := c.Template()
	if err != nil {
		return c.fail(err)
	}
	p, err := pattern.Compile(tmpl)
	c.compiled = p
	if err != nil {
		return c.fail(err)
	}

	if c.sample == "" {
		if NeedsSample(c.logType) {
			return c
		}
		// Without a sample the fields come from the pattern's groups.
		for _, gf := range p.Fields {
			c.fields = append(c.fields, infer.Field(p, gf.Field, ""))
		}
		c.timeKey = infer.TimeKey(p, c.fields)
		c.parsed = true
		c.state = StateSampleParsed
		return c
	}

	res, err := m.Match(ctx, p, c.sample)
	if err != nil {
		return c.fail(err)
	}
	c.result = res
	if !res.Matched {
		return c.fail(ErrNoMatch)
	}
	c.fields = infer.Fields(p, res)
	c.timeKey = infer.TimeKey(p, c.fields)
	c.parsed = true
	c.state = StateSampleParsed
	return c
}

func (c Config) parseJSON() Config {
	if c.sample == "" {
		return c
	}
	schema, err := infer.InferJSON(c.sample)
	if err != nil {
		return c.fail(err)
	}
	c.schema = schema
	c.fields = schema.Fields()
	c.parsed = true
	c.state = StateSampleParsed
	return c
}

func (c Config) fail(err error) Config {
	c.parseErr = err
	c.fields = nil
	c.state = StateSampleFailed
	return c
}

// WithFieldType overrides the type of a field.
func (c Config) WithFieldType(key string, t infer.TypeTag) Config {
	return c.updateField(key, func(f *infer.FieldSpec) {
		f.Type = t
		if t != infer.Date {
			f.Format = ""
		}
	})
}

// WithFieldFormat sets the date format of a field.
func (c Config) WithFieldFormat(key, format string) Config {
	return c.updateField(key, func(f *infer.FieldSpec) {
		f.Format = format
	})
}

// WithTimeKey designates the event timestamp field, making it a date field.
// An empty key clears the designation.
func (c Config) WithTimeKey(key string) Config {
	if key == "" {
		c.timeKey = ""
		c.errors = nil
		c.state = StateFieldsConfigured
		return c
	}
	c = c.updateField(key, func(f *infer.FieldSpec) {
		f.Type = infer.Date
	})
	c.timeKey = key
	return c
}

// WithFields replaces the field list, as when loading a saved configuration.
func (c Config) WithFields(fields []infer.FieldSpec, timeKey string) Config {
	c.fields = append([]infer.FieldSpec(nil), fields...)
	c.timeKey = timeKey
	c.errors = nil
	c.state = StateFieldsConfigured
	return c
}

func (c Config) updateField(key string, fn func(*infer.FieldSpec)) Config {
	fields := append([]infer.FieldSpec(nil), c.fields...)
	for i := range fields {
		if fields[i].Key == key {
			fn(&fields[i])
		}
	}
	c.fields = fields
	c.errors = nil
	c.state = StateFieldsConfigured
	return c
}

// Validate runs every check and moves the configuration to Valid or Invalid.
func (c Config) Validate() Config {
	c.errors = Validate(c)
	if len(c.errors) == 0 {
		c.state = StateValid
	} else {
		c.state = StateInvalid
	}
	return c
}
