package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Syslog sub-parsers.
const (
	SyslogRFC5424 = "RFC5424"
	SyslogRFC3164 = "RFC3164"
	SyslogCustom  = "CUSTOM"
)

const (
	rfc5424Regex = `^<(?P<pri>[0-9]{1,5})>(?P<protocolversion>\d{1,2})\s+(?P<time>\S+)\s+(?P<hostname>\S+)\s+(?P<appname>\S+)\s+(?P<procid>\S+)\s+(?P<msgid>\S+)\s+(?P<extradata>(?:\[[^\]]*\])+|-)(?:\s+(?P<msg>.*))?$`
	rfc3164Regex = `^(?:<(?P<pri>[0-9]{1,5})>)?(?P<time>[A-Za-z]{3}\s+\d{1,2}\s\d{2}:\d{2}:\d{2})\s+(?P<hostname>\S+)\s+(?P<appname>[^\s:\[]+)(?:\[(?P<procid>[^\]]+)\])?:\s*(?P<msg>.*)$`

	syslogDateExpr      = `[A-Za-z]{3}\s+\d{1,2}\s\d{2}:\d{2}:\d{2}`
	syslogDateFormat    = "%b %d %H:%M:%S"
	syslogRFC3339Format = "%Y-%m-%dT%H:%M:%S%:z"
	syslogExtradataExpr = `(?:\[[^\]]*\])+|-`
)

// SyslogFormat is either one of the fixed RFC layouts or a custom rsyslog
// style template such as "%TIMESTAMP% %HOSTNAME% %syslogtag%%msg%\n".
type SyslogFormat struct {
	Parser string
	Raw    string
}

func (SyslogFormat) Grammar() Grammar { return GrammarSyslog }

var (
	syslogTokenRe   = regexp.MustCompile(`%([A-Za-z0-9_-]+)((?::[^%]*)?)%`)
	syslogBracketRe = regexp.MustCompile(`\[[^\]]*\]`)
)

var syslogKeys = map[string]string{
	"pri":             `[0-9]{1,5}`,
	"protocolversion": `\d{1,2}`,
	"hostname":        `\S+`,
	"fromhost":        `\S+`,
	"appname":         `[^\s\[:]+`,
	"programname":     `[^\s\[:]+`,
	"procid":          `[^\s\]]+`,
	"msgid":           `\S+`,
	"syslogtag":       `\S+`,
	"msg":             `.+`,
}

func (f SyslogFormat) compile() (CompiledPattern, error) {
	switch strings.ToUpper(f.Parser) {
	case SyslogRFC5424:
		return CompiledPattern{
			Regex:      rfc5424Regex,
			Variant:    SyslogRFC5424,
			TimeField:  "time",
			TimeFormat: syslogRFC3339Format,
			Fields:     fieldsOf(rfc5424Regex),
		}, nil
	case SyslogRFC3164:
		return CompiledPattern{
			Regex:      rfc3164Regex,
			Variant:    SyslogRFC3164,
			TimeField:  "time",
			TimeFormat: syslogDateFormat,
			Fields:     fieldsOf(rfc3164Regex),
		}, nil
	case SyslogCustom, "":
		return f.compileCustom()
	}
	return CompiledPattern{}, fmt.Errorf("%w: unknown syslog parser %q", ErrInvalidFormat, f.Parser)
}

func (f SyslogFormat) compileCustom() (CompiledPattern, error) {
	tmpl := strings.TrimSpace(f.Raw)
	if len(tmpl) >= 2 && tmpl[0] == '"' && tmpl[len(tmpl)-1] == '"' {
		tmpl = tmpl[1 : len(tmpl)-1]
	}
	tmpl = strings.TrimSuffix(tmpl, `\n`)
	tmpl = strings.TrimRight(tmpl, "\r\n")

	if !syslogTokenRe.MatchString(tmpl) {
		return CompiledPattern{}, fmt.Errorf("%w: syslog template has no %%KEY%% properties", ErrInvalidFormat)
	}

	b := &builder{}
	p := CompiledPattern{Variant: SyslogCustom}
	b.raw("^")

	last := 0
	for _, loc := range syslogBracketRe.FindAllStringIndex(tmpl, -1) {
		inner := tmpl[loc[0]+1 : loc[1]-1]
		if !isStructuredData(inner) {
			continue
		}
		f.properties(b, &p, tmpl[last:loc[0]])
		b.group("extradata", syslogExtradataExpr)
		last = loc[1]
	}
	f.properties(b, &p, tmpl[last:])

	p.Regex = b.String()
	p.Fields = b.fields
	return p, nil
}

// isStructuredData reports whether a bracketed template segment stands for
// RFC5424 structured data rather than literal brackets around a property.
func isStructuredData(inner string) bool {
	tokens := syslogTokenRe.FindAllStringSubmatch(inner, -1)
	if len(tokens) == 0 {
		return true
	}
	return len(tokens) == 1 && syslogKey(tokens[0][1]) == "structureddata" &&
		strings.TrimSpace(syslogTokenRe.ReplaceAllString(inner, "")) == ""
}

func (f SyslogFormat) properties(b *builder, p *CompiledPattern, s string) {
	last := 0
	for _, m := range syslogTokenRe.FindAllStringSubmatchIndex(s, -1) {
		b.literal(s[last:m[0]])
		last = m[1]

		key := syslogKey(s[m[2]:m[3]])
		opts := s[m[4]:m[5]]
		switch key {
		case "timestamp", "timereported", "timegenerated":
			if strings.Contains(strings.ToLower(opts), "rfc3339") {
				b.group("time", `\S+`)
				p.TimeFormat = syslogRFC3339Format
			} else {
				b.group("time", syslogDateExpr)
				p.TimeFormat = syslogDateFormat
			}
			p.TimeField = "time"
		case "structureddata":
			b.group("extradata", syslogExtradataExpr)
		default:
			expr, ok := syslogKeys[key]
			if !ok {
				expr = `\S+`
			}
			b.group(key, expr)
		}
	}
	b.literal(s[last:])
}

func syslogKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "-", ""))
}
