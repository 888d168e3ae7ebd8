package logconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// Key identifies a validation failure. Keys are stable so callers can map
// them to messages.
type Key string

const (
	NameRequired            Key = "name_required"
	LogTypeRequired         Key = "log_type_required"
	SyslogParserRequired    Key = "syslog_parser_required"
	MultilineParserRequired Key = "multiline_parser_required"
	IISParserRequired       Key = "iis_parser_required"
	FormatRequired          Key = "format_required"
	FormatInvalid           Key = "format_invalid"
	FormatNonLatin          Key = "format_non_latin"
	FormatDuplicated        Key = "format_duplicated"
	RegexRequired           Key = "regex_required"
	RegexInvalid            Key = "regex_invalid"
	SampleRequired          Key = "sample_required"
	SampleInvalid           Key = "sample_invalid"
	SampleInvalidJSON       Key = "sample_invalid_json"
	SchemaEmpty             Key = "schema_empty"
	MatchTimeout            Key = "match_timeout"
	TimeFormatMissing       Key = "time_format_missing"
	TimeFormatMismatch      Key = "time_format_mismatch"
	TimeKeyUnknown          Key = "time_key_unknown"
)

// Field slots that errors attach to. Per-field errors use "fields.<key>".
const (
	SlotName    = "name"
	SlotLogType = "logType"
	SlotParser  = "parser"
	SlotFormat  = "format"
	SlotRegex   = "regex"
	SlotSample  = "sample"
	SlotFields  = "fields"
	SlotTimeKey = "timeKey"
)

// FieldError is one validation failure.
type FieldError struct {
	Field string `json:"field" yaml:"field"`
	Key   Key    `json:"key" yaml:"key"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Key)
}

// Errors is the list of failures for a configuration, in check order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether any error is attached to the slot.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Keys returns the keys attached to the slot.
func (e Errors) Keys(field string) []Key {
	var keys []Key
	for _, fe := range e {
		if fe.Field == field {
			keys = append(keys, fe.Key)
		}
	}
	return keys
}

// Fields returns the distinct slots with errors, sorted.
func (e Errors) Fields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fe := range e {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			out = append(out, fe.Field)
		}
	}
	sort.Strings(out)
	return out
}

func (e *Errors) add(field string, key Key) {
	*e = append(*e, FieldError{Field: field, Key: key})
}

// FieldSlot is the slot name for per-field errors.
func FieldSlot(key string) string {
	return SlotFields + "." + key
}

// Validate checks a configuration and returns every failure found. An empty
// result means the configuration is valid. Validate does not modify c.
func Validate(c Config) Errors {
	var errs Errors

	if strings.TrimSpace(c.name) == "" {
		errs.add(SlotName, NameRequired)
	}
	if c.logType == "" {
		errs.add(SlotLogType, LogTypeRequired)
		return errs
	}
	if NeedsSubParser(c.logType) && c.subParser == "" {
		errs.add(SlotParser, parserRequiredKey(c.logType))
	}

	var patternErr error
	if NeedsFormat(c.logType, c.subParser) || NeedsRegex(c.logType, c.subParser) {
		patternErr = checkPattern(c)
	}
	if errors.Is(patternErr, pattern.ErrDuplicateGroupName) || errors.Is(c.parseErr, pattern.ErrDuplicateGroupName) {
		errs.add(SlotFormat, FormatDuplicated)
		errs.add(SlotRegex, FormatDuplicated)
		return errs
	}

	patternOK := true
	if NeedsFormat(c.logType, c.subParser) {
		switch {
		case strings.TrimSpace(c.format) == "":
			errs.add(SlotFormat, FormatRequired)
			patternOK = false
		case c.subParser == JavaSpringBoot && hasNonLatin(c.format):
			errs.add(SlotFormat, FormatNonLatin)
			patternOK = false
		case patternErr != nil:
			errs.add(SlotFormat, FormatInvalid)
			patternOK = false
		}
	}
	if NeedsRegex(c.logType, c.subParser) {
		switch {
		case strings.TrimSpace(c.regex) == "":
			errs.add(SlotRegex, RegexRequired)
			patternOK = false
		case patternErr != nil:
			errs.add(SlotRegex, RegexInvalid)
			patternOK = false
		}
	}

	if NeedsSample(c.logType) {
		errs = append(errs, validateSample(c, patternOK)...)
	}
	errs = append(errs, validateFields(c)...)
	return errs
}

func parserRequiredKey(t LogType) Key {
	switch t {
	case Syslog:
		return SyslogParserRequired
	case MultiLineText:
		return MultilineParserRequired
	}
	return IISParserRequired
}

func checkPattern(c Config) error {
	tmpl, err := c.Template()
	if err != nil {
		return err
	}
	p, err := pattern.Compile(tmpl)
	if err != nil {
		return err
	}
	_, err = pattern.Verify(p.Regex)
	return err
}

// hasNonLatin reports characters outside Latin-1 that are not Latin letters.
func hasNonLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

func validateSample(c Config, patternOK bool) Errors {
	var errs Errors
	if strings.TrimSpace(c.sample) == "" {
		errs.add(SlotSample, SampleRequired)
		return errs
	}

	if c.logType == JSON {
		schema, err := infer.InferJSON(c.sample)
		switch {
		case err != nil:
			errs.add(SlotSample, SampleInvalidJSON)
		case schema.Empty():
			errs.add(SlotSample, SchemaEmpty)
		}
		return errs
	}

	if !patternOK {
		return errs
	}
	switch {
	case errors.Is(c.parseErr, match.ErrTimeout):
		errs.add(SlotSample, MatchTimeout)
	case !c.parsed || c.parseErr != nil:
		errs.add(SlotSample, SampleInvalid)
	}
	return errs
}

func validateFields(c Config) Errors {
	var errs Errors
	missing := false
	for _, f := range c.fields {
		if f.Type == infer.Date && strings.TrimSpace(f.Format) == "" {
			errs.add(FieldSlot(f.Key), TimeFormatMissing)
			missing = true
		}
	}
	if missing {
		errs.add(SlotFields, TimeFormatMissing)
	}
	if c.timeKey != "" && c.parsed {
		if _, ok := c.field(c.timeKey); !ok {
			errs.add(SlotTimeKey, TimeKeyUnknown)
		}
	}
	return errs
}

// CheckTimeValues re-parses captured date values with their configured
// formats. The result is advisory: a mismatch does not make a configuration
// invalid. Formats that cannot be converted are skipped.
func CheckTimeValues(c Config) Errors {
	var errs Errors
	if !c.result.Matched {
		return errs
	}
	for _, f := range c.fields {
		if f.Type != infer.Date || f.Format == "" {
			continue
		}
		value, ok := c.result.Get(f.Key)
		if !ok || value == "" {
			continue
		}
		if _, err := timeutil.StrftimeLayout(f.Format); err != nil {
			continue
		}
		if err := timeutil.ValidateStrftime(value, f.Format); err != nil {
			errs.add(FieldSlot(f.Key), TimeFormatMismatch)
		}
	}
	return errs
}
