// Package infer decides field types and date formats from matched samples.
package infer

import (
	"math"
	"strconv"
	"strings"

	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/pkg/timeutil"
)

// TypeTag is the semantic type of a field.
type TypeTag string

const (
	Text    TypeTag = "text"
	Keyword TypeTag = "keyword"
	Integer TypeTag = "integer"
	Long    TypeTag = "long"
	IP      TypeTag = "ip"
	Date    TypeTag = "date"

	// Double and Boolean are only produced for JSON input.
	Double  TypeTag = "double"
	Boolean TypeTag = "boolean"
)

// TypeTags lists every tag in display order.
var TypeTags = []TypeTag{Text, Keyword, Integer, Long, IP, Date, Double, Boolean}

// ParseTypeTag returns the tag with the given name.
func ParseTypeTag(s string) (TypeTag, bool) {
	for _, t := range TypeTags {
		if string(t) == strings.ToLower(strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// FieldSpec describes one field of a parsed log line.
type FieldSpec struct {
	Key    string  `json:"key" yaml:"key"`
	Type   TypeTag `json:"type" yaml:"type"`
	Format string  `json:"format,omitempty" yaml:"format,omitempty"`
}

// Fixed date formats for Windows IIS columns.
const (
	IISDateFormat = "%d/%m/%Y"
	W3CDateFormat = "%Y-%m-%d"
	IISTimeFormat = "%H:%M:%S"
)

var iisKeywordColumns = map[string]bool{
	"method":              true,
	"status_code":         true,
	"sub_status":          true,
	"win32_status":        true,
	"windows_status_code": true,
	"protocol_version":    true,
	"service":             true,
	"request_type":        true,
}

var iisLongColumns = map[string]bool{
	"bytes_sent":        true,
	"bytes_received":    true,
	"time_taken":        true,
	"client_bytes_sent": true,
	"server_bytes_sent": true,
}

// Fields infers a spec for every group of a match. A result that did not
// match yields no fields.
func Fields(p pattern.CompiledPattern, res match.Result) []FieldSpec {
	if !res.Matched {
		return nil
	}
	fields := make([]FieldSpec, 0, len(res.Groups))
	for _, g := range res.Groups {
		fields = append(fields, Field(p, g.Name, g.Value))
	}
	return fields
}

// Field infers the spec of a single captured value.
func Field(p pattern.CompiledPattern, key, value string) FieldSpec {
	spec := FieldSpec{Key: key, Type: typeOf(p, key, value)}
	if spec.Type == Date {
		spec.Format = DateFormat(p, key)
	}
	return spec
}

// Rules apply in order: the IIS column table, the time key, integer values,
// the Spring Boot level, then text.
func typeOf(p pattern.CompiledPattern, key, value string) TypeTag {
	if p.Grammar == pattern.GrammarWindowsIIS {
		return iisType(key)
	}
	if key == "time" || (p.TimeField != "" && key == p.TimeField) {
		return Date
	}
	if isInteger(value) {
		return Integer
	}
	if p.Grammar == pattern.GrammarSpringBoot && key == "level" {
		return Keyword
	}
	return Text
}

func iisType(key string) TypeTag {
	switch {
	case key == "date" || key == "time":
		return Date
	case iisKeywordColumns[key]:
		return Keyword
	case iisLongColumns[key]:
		return Long
	case strings.Contains(key, "ip"):
		return IP
	}
	return Text
}

func isInteger(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return f == math.Trunc(f)
}

// DateFormat returns the default strftime format for a date field, or "" if
// none is known.
func DateFormat(p pattern.CompiledPattern, key string) string {
	switch p.Grammar {
	case pattern.GrammarSpringBoot:
		if key == p.TimeField && p.TimePattern != "" {
			return timeutil.JavaToStrftime(p.TimePattern)
		}
	case pattern.GrammarWindowsIIS:
		switch {
		case p.Variant == pattern.IISNCSA && key == p.TimeField:
			return p.TimeFormat
		case key == "date" && p.Variant == pattern.IISW3C:
			return W3CDateFormat
		case key == "date":
			return IISDateFormat
		case key == "time":
			return IISTimeFormat
		}
		return ""
	}
	if key == p.TimeField {
		return p.TimeFormat
	}
	return ""
}

// TimeKey picks the event timestamp field: the pattern's time field when it
// was captured, otherwise the first date field.
func TimeKey(p pattern.CompiledPattern, fields []FieldSpec) string {
	for _, f := range fields {
		if p.TimeField != "" && f.Key == p.TimeField {
			return f.Key
		}
	}
	for _, f := range fields {
		if f.Type == Date {
			return f.Key
		}
	}
	return ""
}
