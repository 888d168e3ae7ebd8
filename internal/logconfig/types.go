// Package logconfig holds the log configuration being edited: the chosen log
// type, its format or regex, the sample, and the inferred fields. Config is an
// immutable value; every transition returns a new Config.
package logconfig

import (
	"fmt"
	"strings"

	"github.com/jmurray2011/skein/internal/pattern"
)

// LogType is the kind of log a configuration describes.
type LogType string

const (
	JSON           LogType = "JSON"
	Apache         LogType = "Apache"
	Nginx          LogType = "Nginx"
	Syslog         LogType = "Syslog"
	MultiLineText  LogType = "MultiLineText"
	SingleLineText LogType = "SingleLineText"
	WindowsEvent   LogType = "WindowsEvent"
	IIS            LogType = "IIS"
	Regex          LogType = "Regex"
)

// LogTypes lists every log type.
var LogTypes = []LogType{JSON, Apache, Nginx, Syslog, MultiLineText, SingleLineText, WindowsEvent, IIS, Regex}

// ParseLogType matches a log type name case-insensitively.
func ParseLogType(s string) (LogType, error) {
	for _, t := range LogTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown log type %q", s)
}

// SubParser refines a log type (syslog RFC, multiline flavor, IIS layout).
type SubParser string

const (
	RFC5424        SubParser = pattern.SyslogRFC5424
	RFC3164        SubParser = pattern.SyslogRFC3164
	Custom         SubParser = pattern.SyslogCustom
	JavaSpringBoot SubParser = "JAVA_SPRING_BOOT"
	IISNative      SubParser = pattern.IISNative
	NCSA           SubParser = pattern.IISNCSA
	W3C            SubParser = pattern.IISW3C
)

var subParsers = map[LogType][]SubParser{
	Syslog:        {RFC5424, RFC3164, Custom},
	MultiLineText: {JavaSpringBoot, Custom},
	IIS:           {IISNative, NCSA, W3C},
}

// SubParsers returns the sub-parsers a log type accepts, or nil when it takes
// none.
func SubParsers(t LogType) []SubParser {
	return subParsers[t]
}

// NeedsSubParser reports whether t requires a sub-parser selection.
func NeedsSubParser(t LogType) bool {
	return len(subParsers[t]) > 0
}

// ParseSubParser matches a sub-parser name valid for t.
func ParseSubParser(t LogType, s string) (SubParser, error) {
	for _, sp := range subParsers[t] {
		if strings.EqualFold(string(sp), strings.TrimSpace(s)) {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown %s parser %q", t, s)
}

// NeedsFormat reports whether the configuration takes a user format string.
func NeedsFormat(t LogType, sp SubParser) bool {
	switch t {
	case Nginx, Apache:
		return true
	case Syslog:
		return sp == Custom
	case MultiLineText:
		return sp == JavaSpringBoot
	case IIS:
		return sp == W3C
	}
	return false
}

// NeedsRegex reports whether the configuration takes a user regex.
func NeedsRegex(t LogType, sp SubParser) bool {
	switch t {
	case SingleLineText, Regex:
		return true
	case MultiLineText:
		return sp == Custom
	}
	return false
}

// NeedsSample reports whether a sample line is required. Nginx and Apache
// are checked through their format string and Windows events have a fixed
// schema.
func NeedsSample(t LogType) bool {
	switch t {
	case Nginx, Apache, WindowsEvent:
		return false
	}
	return true
}
