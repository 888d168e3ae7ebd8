package pattern

import (
	"fmt"
	"strings"
)

// IIS sub-parsers.
const (
	IISNative = "IIS"
	IISNCSA   = "NCSA"
	IISW3C    = "W3C"
)

// WindowsIISFormat selects one of the IIS log layouts. FieldsLine is only
// used by W3C and holds the "#Fields: ..." directive from the log header.
type WindowsIISFormat struct {
	Parser     string
	FieldsLine string
}

func (WindowsIISFormat) Grammar() Grammar { return GrammarWindowsIIS }

// NCSATimeFormat is the strftime format of the bracketed NCSA time column.
const NCSATimeFormat = "%d/%b/%Y:%H:%M:%S %z"

var iisNativeColumns = []string{
	"remote_ip", "user_name", "date", "time", "service", "server_name",
	"server_ip", "time_taken", "client_bytes_sent", "server_bytes_sent",
	"status_code", "windows_status_code", "request_type", "target", "parameters",
}

var (
	iisNativeRegex = buildIISNative()
	iisNCSARegex   = `^(?P<remote_ip>\S+)\s+(?P<remote_log_name>\S+)\s+(?P<user_name>\S+)\s+\[(?P<time>[^\]]+)\]\s+"(?P<request>[^"]*)"\s+(?P<status_code>\d{3})\s+(?P<bytes_sent>\S+).*`
)

func buildIISNative() string {
	groups := make([]string, len(iisNativeColumns))
	for i, col := range iisNativeColumns {
		groups[i] = "(?P<" + col + ">[^,]*)"
	}
	return "^" + strings.Join(groups, `,\s*`) + ",?.*"
}

// w3cFields maps W3C extended log columns to field names.
var w3cFields = map[string]string{
	"date":            "date",
	"time":            "time",
	"s-sitename":      "site_name",
	"s-computername":  "computer_name",
	"s-ip":            "server_ip",
	"cs-method":       "method",
	"cs-uri-stem":     "url",
	"cs-uri-query":    "query",
	"s-port":          "port",
	"cs-username":     "user_name",
	"c-ip":            "remote_ip",
	"cs-version":      "protocol_version",
	"cs(user-agent)":  "user_agent",
	"cs(cookie)":      "cookie",
	"cs(referer)":     "referer",
	"cs-host":         "host",
	"sc-status":       "status_code",
	"sc-substatus":    "sub_status",
	"sc-win32-status": "win32_status",
	"sc-bytes":        "bytes_sent",
	"cs-bytes":        "bytes_received",
	"time-taken":      "time_taken",
}

func (f WindowsIISFormat) compile() (CompiledPattern, error) {
	switch strings.ToUpper(f.Parser) {
	case IISNative:
		return CompiledPattern{Regex: iisNativeRegex, Variant: IISNative, Fields: fieldsOf(iisNativeRegex)}, nil
	case IISNCSA:
		return CompiledPattern{
			Regex:      iisNCSARegex,
			Variant:    IISNCSA,
			TimeField:  "time",
			TimeFormat: NCSATimeFormat,
			Fields:     fieldsOf(iisNCSARegex),
		}, nil
	case IISW3C:
		return f.compileW3C()
	}
	return CompiledPattern{}, fmt.Errorf("%w: unknown IIS parser %q", ErrInvalidFormat, f.Parser)
}

func (f WindowsIISFormat) compileW3C() (CompiledPattern, error) {
	var columns []string
	for _, line := range strings.Split(f.FieldsLine, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "#Fields:"); ok {
			columns = strings.Fields(rest)
			break
		}
	}
	if len(columns) == 0 {
		return CompiledPattern{}, fmt.Errorf("%w: expected #Fields: header", ErrInvalidFormat)
	}

	b := &builder{}
	b.raw("^")
	for i, col := range columns {
		if i > 0 {
			b.raw(" ")
		}
		if col == "time-taken" {
			b.group(W3CFieldName(col), `\S+`)
		} else {
			b.group(W3CFieldName(col), `[^ ]+`)
		}
	}
	return CompiledPattern{Regex: b.String(), Variant: IISW3C, Fields: b.fields}, nil
}

// W3CFieldName returns the field name for a W3C column. Unknown columns keep
// their name with dashes replaced by underscores.
func W3CFieldName(column string) string {
	if name, ok := w3cFields[strings.ToLower(column)]; ok {
		return name
	}
	return strings.ReplaceAll(column, "-", "_")
}
