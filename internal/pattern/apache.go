package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// ApacheFormat is an Apache LogFormat directive, for example
//
//	LogFormat "%h %l %u %t \"%r\" %>s %b" common
type ApacheFormat struct {
	Raw string
}

func (ApacheFormat) Grammar() Grammar { return GrammarApache }

const apacheTimeFormat = "%d/%b/%Y:%H:%M:%S %z"

var apacheDirectiveRe = regexp.MustCompile(`%[<>]?(?:\{([^}]*)\})?([A-Za-z%])`)

type apacheDirective func(b *builder)

func apacheGroup(field, expr string) apacheDirective {
	return func(b *builder) { b.group(field, expr) }
}

// apacheDirectives is keyed by directive letter, or by the lower-cased
// argument plus letter for directives that take one ("referer}i").
var apacheDirectives = map[string]apacheDirective{
	"h": apacheGroup("remote_addr", `\S+`),
	"a": apacheGroup("client_ip", `\S+`),
	"A": apacheGroup("local_ip", `\S+`),
	"l": apacheGroup("remote_ident", `\S+`),
	"u": apacheGroup("remote_user", `\S+`),
	"t": func(b *builder) {
		b.raw(`\[`)
		b.group("time_local", `[^\]]+`)
		b.raw(`\]`)
	},
	"r": func(b *builder) {
		b.raw(requestExpr)
		b.fields = append(b.fields,
			GroupField{Group: "request_method", Field: "request_method"},
			GroupField{Group: "request_uri", Field: "request_uri"},
			GroupField{Group: "request_protocol", Field: "request_protocol"},
		)
	},
	"s": apacheGroup("status_code", `\d{3}`),
	"b": apacheGroup("response_size_bytes", `\d+|-`),
	"B": apacheGroup("response_size_bytes", `\d+`),
	"D": apacheGroup("time_taken_microseconds", `\d+`),
	"T": apacheGroup("time_taken_seconds", `\d+`),
	"m": apacheGroup("request_method", `\S+`),
	"H": apacheGroup("request_protocol", `\S+`),
	"U": apacheGroup("request_uri_path", `\S+`),
	"q": apacheGroup("request_query", `\S*`),
	"p": apacheGroup("server_port", `\d+`),
	"P": apacheGroup("process_id", `\d+`),
	"v": apacheGroup("server_name", `\S+`),
	"V": apacheGroup("canonical_server_name", `\S+`),
	"X": apacheGroup("connection_status", `[Xx+\-]`),
	"I": apacheGroup("bytes_received", `\d+`),
	"O": apacheGroup("bytes_sent", `\d+`),
	"S": apacheGroup("bytes_transferred", `\d+`),
	"k": apacheGroup("keepalive_requests", `\d+`),
	"L": apacheGroup("request_log_id", `\S+`),
	"f": apacheGroup("filename", `\S+`),
	"R": apacheGroup("handler", `\S+`),

	"referer}i":         apacheGroup("http_referer", `[^"]*`),
	"user-agent}i":      apacheGroup("http_user_agent", `[^"]*`),
	"x-forwarded-for}i": apacheGroup("http_x_forwarded_for", `[^"]*`),
}

func (f ApacheFormat) compile() (CompiledPattern, error) {
	raw := strings.TrimSpace(f.Raw)
	if !strings.HasPrefix(raw, "LogFormat ") {
		return CompiledPattern{}, fmt.Errorf("%w: expected LogFormat \"...\"", ErrInvalidFormat)
	}
	layout, ok := apacheQuoted(strings.TrimPrefix(raw, "LogFormat "))
	if !ok {
		return CompiledPattern{}, fmt.Errorf("%w: LogFormat has no quoted format", ErrInvalidFormat)
	}

	b := &builder{}
	p := CompiledPattern{}
	last := 0
	for _, m := range apacheDirectiveRe.FindAllStringSubmatchIndex(layout, -1) {
		b.literal(layout[last:m[0]])
		last = m[1]

		letter := layout[m[4]:m[5]]
		if letter == "%" {
			b.literal("%")
			continue
		}
		key := letter
		if m[2] >= 0 {
			key = strings.ToLower(layout[m[2]:m[3]]) + "}" + letter
		}
		if d, ok := apacheDirectives[key]; ok {
			d(b)
			if letter == "t" && m[2] < 0 && p.TimeField == "" {
				p.TimeField = "time_local"
				p.TimeFormat = apacheTimeFormat
			}
			continue
		}
		b.group(strings.TrimPrefix(layout[m[0]:m[1]], "%"), `\S+`)
	}
	b.literal(layout[last:])
	b.raw(".*")

	p.Regex = b.String()
	p.Fields = b.fields
	return p, nil
}

// apacheQuoted returns the content of the first double-quoted string in s,
// with \" unescaped.
func apacheQuoted(s string) (string, bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", false
	}
	var sb strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '"':
			sb.WriteByte('"')
			i++
		case s[i] == '"':
			return sb.String(), true
		default:
			sb.WriteByte(s[i])
		}
	}
	return "", false
}
