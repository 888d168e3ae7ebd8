// Package pattern compiles declarative log format templates (Nginx
// log_format, Apache LogFormat, syslog templates, Spring Boot patterns,
// Windows IIS field lists and raw regexes) into regular expressions with
// named capture groups.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
)

// Invalid is the regex value reported for a template that does not follow
// its grammar. It never compiles to a usable pattern because callers check it
// before use.
const Invalid = "INVALID"

var (
	// ErrInvalidFormat is returned when a template does not start with the
	// directive its grammar expects or is otherwise structurally broken.
	ErrInvalidFormat = errors.New("invalid log format")

	// ErrDuplicateGroupName is returned when a regex defines two capture
	// groups with the same name.
	ErrDuplicateGroupName = errors.New("duplicate capture group name")

	// ErrInvalidRegex is returned when a regex fails to compile.
	ErrInvalidRegex = errors.New("invalid regular expression")
)

// Grammar identifies the template language a pattern was compiled from.
type Grammar int

const (
	GrammarRegex Grammar = iota
	GrammarNginx
	GrammarApache
	GrammarSyslog
	GrammarSpringBoot
	GrammarWindowsIIS
)

func (g Grammar) String() string {
	switch g {
	case GrammarNginx:
		return "nginx"
	case GrammarApache:
		return "apache"
	case GrammarSyslog:
		return "syslog"
	case GrammarSpringBoot:
		return "springboot"
	case GrammarWindowsIIS:
		return "iis"
	default:
		return "regex"
	}
}

// Template is a log format description in one of the supported grammars.
// Exactly one concrete type is used per configuration.
type Template interface {
	Grammar() Grammar
	compile() (CompiledPattern, error)
}

// GroupField maps a regex group name to the field name it captures. Group
// names are restricted to word characters; field names are not.
type GroupField struct {
	Group string `json:"group" yaml:"group"`
	Field string `json:"field" yaml:"field"`
}

// CompiledPattern is the result of compiling a Template.
type CompiledPattern struct {
	Regex   string  `json:"regex" yaml:"regex"`
	Grammar Grammar `json:"-" yaml:"-"`

	// Variant is the grammar sub-parser (RFC5424, W3C, ...), if any.
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`

	TimeField  string `json:"timeField,omitempty" yaml:"timeField,omitempty"`
	TimeFormat string `json:"timeFormat,omitempty" yaml:"timeFormat,omitempty"`

	// TimeRegex and TimePattern are set for Spring Boot patterns: the regex
	// of the time group alone and the Java date pattern it came from.
	TimeRegex   string `json:"timeRegex,omitempty" yaml:"timeRegex,omitempty"`
	TimePattern string `json:"timePattern,omitempty" yaml:"timePattern,omitempty"`

	Fields []GroupField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Valid reports whether the pattern holds a usable regex.
func (p CompiledPattern) Valid() bool {
	return p.Regex != "" && p.Regex != Invalid
}

// FieldName returns the field name captured by the named group. Groups
// missing from the side table are their own field name.
func (p CompiledPattern) FieldName(group string) string {
	for _, f := range p.Fields {
		if f.Group == group {
			return f.Field
		}
	}
	return group
}

// Compile translates a template into a CompiledPattern. When the template
// does not follow its grammar the returned pattern carries the Invalid
// sentinel and the error wraps ErrInvalidFormat.
func Compile(t Template) (CompiledPattern, error) {
	if t == nil {
		return CompiledPattern{Regex: Invalid}, fmt.Errorf("%w: no template", ErrInvalidFormat)
	}
	p, err := t.compile()
	if err != nil {
		return CompiledPattern{Regex: Invalid, Grammar: t.Grammar()}, err
	}
	p.Grammar = t.Grammar()
	return p, nil
}

// Verify compiles expr and checks that every named group is unique.
func Verify(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}
	if name, ok := duplicateGroup(re); ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateGroupName, name)
	}
	return re, nil
}

// GroupNames returns the named groups of expr in order of appearance.
func GroupNames(expr string) ([]string, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}
	var names []string
	for _, n := range re.SubexpNames() {
		if n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func duplicateGroup(re *regexp.Regexp) (string, bool) {
	seen := make(map[string]bool)
	for _, n := range re.SubexpNames() {
		if n == "" {
			continue
		}
		if seen[n] {
			return n, true
		}
		seen[n] = true
	}
	return "", false
}

// fieldsOf builds an identity side table for a regex whose group names are
// already the field names.
func fieldsOf(expr string) []GroupField {
	names, err := GroupNames(expr)
	if err != nil {
		return nil
	}
	fields := make([]GroupField, 0, len(names))
	for _, n := range names {
		fields = append(fields, GroupField{Group: n, Field: n})
	}
	return fields
}
