package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NginxFormat is an Nginx log_format directive, for example
//
//	log_format main '$remote_addr - $remote_user [$time_local] "$request" $status';
type NginxFormat struct {
	Raw string

	// UnnamedGroups emits positional groups instead of named ones.
	UnnamedGroups bool
}

func (NginxFormat) Grammar() Grammar { return GrammarNginx }

var (
	nginxPrefixRe  = regexp.MustCompile(`^\s*log_format\s+\S+\s+(?:escape=\S+\s+)?'`)
	nginxSegmentRe = regexp.MustCompile(`'([^']*)'`)
)

const (
	nginxTimeExpr = `[\w:/.+\-]+(?:\s+[+-]\d{4})?`
	requestExpr   = `(?P<request_method>\S+)\s+(?P<request_uri>\S+)\s+(?P<request_protocol>[^"\s]+)`
)

var nginxTimeFormats = map[string]string{
	"time_local":   "%d/%b/%Y:%H:%M:%S %z",
	"time_iso8601": "%Y-%m-%dT%H:%M:%S%:z",
}

func (f NginxFormat) compile() (CompiledPattern, error) {
	loc := nginxPrefixRe.FindStringIndex(f.Raw)
	if loc == nil {
		return CompiledPattern{}, fmt.Errorf("%w: expected log_format <name> '...'", ErrInvalidFormat)
	}

	var layout strings.Builder
	for _, m := range nginxSegmentRe.FindAllStringSubmatch(f.Raw[loc[1]-1:], -1) {
		layout.WriteString(m[1])
	}

	b := &builder{unnamed: f.UnnamedGroups}
	p := CompiledPattern{}
	s := layout.String()
	inQuote := false
	depth := 0

	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '"':
			inQuote = !inQuote
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '$':
			name, n := nginxVariable(s[i:])
			if n == 0 {
				break
			}
			f.variable(b, name, inQuote || depth > 0)
			if !f.UnnamedGroups && strings.HasPrefix(name, "time") && p.TimeField == "" {
				p.TimeField = name
				p.TimeFormat = nginxTimeFormats[name]
			}
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.literal(s[i : i+size])
		i += size
	}
	b.raw(".*")

	p.Regex = b.String()
	p.Fields = b.fields
	return p, nil
}

func (f NginxFormat) variable(b *builder, name string, enclosed bool) {
	switch {
	case name == "request":
		if b.unnamed {
			b.raw(`(\S+)\s+(\S+)\s+([^"\s]+)`)
			return
		}
		b.raw(requestExpr)
		b.fields = append(b.fields,
			GroupField{Group: "request_method", Field: "request_method"},
			GroupField{Group: "request_uri", Field: "request_uri"},
			GroupField{Group: "request_protocol", Field: "request_protocol"},
		)
	case strings.HasPrefix(name, "time"):
		b.group(name, nginxTimeExpr)
	case strings.HasPrefix(name, "http"):
		if enclosed {
			b.group(name, `[^"]*`)
		} else {
			b.group(name, `[^"\s]*`)
		}
	default:
		b.group(name, `\S+`)
	}
}

// nginxVariable reads a $name or ${name} reference at the start of s and
// returns the name and the number of bytes consumed.
func nginxVariable(s string) (string, int) {
	if strings.HasPrefix(s, "${") {
		end := strings.IndexByte(s, '}')
		if end < 3 {
			return "", 0
		}
		return s[2:end], end + 1
	}
	n := 1
	for n < len(s) && isWordByte(s[n]) {
		n++
	}
	if n == 1 {
		return "", 0
	}
	return s[1:n], n
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
