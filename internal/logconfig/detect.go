package logconfig

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Detection is a guessed log type with the format needed to parse it.
type Detection struct {
	LogType LogType
	Parser  SubParser
	Format  string
}

// Stock formats used when a type is detected rather than configured.
const (
	NginxCombinedFormat  = `log_format combined '$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent "$http_referer" "$http_user_agent"';`
	ApacheCommonFormat   = `LogFormat "%h %l %u %t \"%r\" %>s %b" common`
	ApacheCombinedFormat = `LogFormat "%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-agent}i\"" combined`
)

var (
	rfc5424Start = regexp.MustCompile(`^<\d{1,3}>1 `)
	rfc3164Start = regexp.MustCompile(`^(?:<\d{1,3}>)?[A-Z][a-z]{2}\s+\d{1,2} \d{2}:\d{2}:\d{2} `)

	accessCommon   = regexp.MustCompile(`^\S+ \S+ \S+ \[[^\]]+\] "[^"]*" \d{3} (?:\d+|-)`)
	accessCombined = regexp.MustCompile(`^\S+ \S+ \S+ \[[^\]]+\] "[^"]*" \d{3} (?:\d+|-) "[^"]*" "[^"]*"`)

	// Java layouts: date and time, optional millis, then the level and thread
	// in either order.
	javaStamp       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([ T])(\d{2}:\d{2}:\d{2})(?:([.,])\d{3})?\s+`)
	javaThreadFirst = regexp.MustCompile(`^\[[^\]]+\]\s+(?:TRACE|DEBUG|INFO|WARN|ERROR|FATAL)\s+\S+\s+-\s`)
	javaLevelFirst  = regexp.MustCompile(`^(?:TRACE|DEBUG|INFO|WARN|ERROR|FATAL)\s+\[[^\]]+\]\s+\S+\s+-\s`)
	javaLevelOnly   = regexp.MustCompile(`^(?:TRACE|DEBUG|INFO|WARN|ERROR|FATAL)\s`)

	// Time-only entries such as logback status lines.
	javaTimeOnly = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3}\s`)
)

// Detect guesses the log type of sample lines from the first non-blank line.
// Continuation lines of multi-line entries are not inspected.
func Detect(lines []string) (Detection, bool) {
	for _, line := range lines {
		line = strings.TrimSpace(stripANSI(line))
		if line == "" {
			continue
		}
		return detectLine(line)
	}
	return Detection{}, false
}

func detectLine(line string) (Detection, bool) {
	switch {
	case strings.HasPrefix(line, "{") && json.Valid([]byte(line)):
		return Detection{LogType: JSON}, true
	case rfc5424Start.MatchString(line):
		return Detection{LogType: Syslog, Parser: RFC5424}, true
	case rfc3164Start.MatchString(line):
		return Detection{LogType: Syslog, Parser: RFC3164}, true
	case accessCombined.MatchString(line):
		return Detection{LogType: Apache, Format: ApacheCombinedFormat}, true
	case accessCommon.MatchString(line):
		return Detection{LogType: Apache, Format: ApacheCommonFormat}, true
	}
	if format, ok := javaFormat(line); ok {
		return Detection{LogType: MultiLineText, Parser: JavaSpringBoot, Format: format}, true
	}
	return Detection{}, false
}

// javaFormat builds a logback layout matching the line's date and field
// order.
func javaFormat(line string) (string, bool) {
	m := javaStamp.FindStringSubmatchIndex(line)
	if m == nil {
		return "", false
	}
	date := "yyyy-MM-dd"
	if line[m[4]:m[5]] == "T" {
		date += "'T'"
	} else {
		date += " "
	}
	date += "HH:mm:ss"
	if m[8] >= 0 {
		date += line[m[8]:m[9]] + "SSS"
	}

	rest := line[m[1]:]
	switch {
	case javaThreadFirst.MatchString(rest):
		return "%d{" + date + "} [%thread] %-5level %logger - %msg%n", true
	case javaLevelFirst.MatchString(rest):
		return "%d{" + date + "} %-5level [%thread] %logger - %msg%n", true
	case javaLevelOnly.MatchString(rest):
		return "%d{" + date + "} %-5level %msg%n", true
	}
	return "", false
}

// EntryStart returns the regex marking the first line of an entry, or nil
// when every line is its own entry.
func EntryStart(c Config) *regexp.Regexp {
	if c.logType != MultiLineText {
		return nil
	}
	return javaEntryStart
}

var javaEntryStart = regexp.MustCompile(`^(?:\x1b\[[0-9;]*m)*(?:\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}|\d{2}:\d{2}:\d{2}[,.]\d{3}\s)`)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
