// Package errors provides user-facing errors with suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// SuggestiveError is an error that includes suggestions for fixing the problem.
type SuggestiveError struct {
	Message     string
	Suggestions []string
	HelpCommand string
	Err         error
}

func (e *SuggestiveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, s := range e.Suggestions {
			b.WriteString("  ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	if e.HelpCommand != "" {
		b.WriteString("\nRun '")
		b.WriteString(e.HelpCommand)
		b.WriteString("' for more information.")
	}

	return b.String()
}

func (e *SuggestiveError) Unwrap() error {
	return e.Err
}

// UnknownLogTypeError reports a log type name that matched nothing.
func UnknownLogTypeError(name string, available []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("unknown log type %q", name),
		Suggestions: findSimilar(name, available, 4),
		HelpCommand: "skein types",
	}
}

// UnknownParserError reports a sub-parser name not valid for the log type.
func UnknownParserError(logType, name string, available []string) error {
	suggestions := findSimilar(name, available, 4)
	if len(suggestions) == 0 {
		suggestions = available
	}
	return &SuggestiveError{
		Message:     fmt.Sprintf("unknown %s parser %q", logType, name),
		Suggestions: suggestions,
		HelpCommand: "skein types",
	}
}

// ConfigNotFoundError reports a saved configuration name that doesn't exist.
func ConfigNotFoundError(name string, available []string) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("configuration %q not found", name),
		Suggestions: findSimilar(name, available, 3),
		HelpCommand: "skein configs",
	}
}

// formatHints shows the expected shape of each format string.
var formatHints = map[string][]string{
	"Nginx":  {`log_format main '$remote_addr - $remote_user [$time_local] "$request" $status';`},
	"Apache": {`LogFormat "%h %l %u %t \"%r\" %>s %b" common`},
	"Syslog": {`"%TIMESTAMP% %HOSTNAME% %syslogtag%%msg%\n"`},
	"IIS":    {"#Fields: date time s-ip cs-method cs-uri-stem sc-status time-taken"},
}

// InvalidFormatError wraps a compile failure with an example of the format
// the log type expects.
func InvalidFormatError(logType string, err error) error {
	return &SuggestiveError{
		Message:     fmt.Sprintf("invalid %s format: %v", logType, err),
		Suggestions: formatHints[logType],
		Err:         err,
	}
}

// MissingFlagError creates an error for a missing required flag.
func MissingFlagError(flag, description string, examples []string) error {
	msg := fmt.Sprintf("%s is required", flag)
	if description != "" {
		msg = fmt.Sprintf("%s is required (%s)", flag, description)
	}
	return &SuggestiveError{
		Message:     msg,
		Suggestions: examples,
	}
}

// findSimilar finds strings similar to target using Levenshtein distance.
func findSimilar(target string, candidates []string, maxDistance int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	targetLower := strings.ToLower(target)

	for _, c := range candidates {
		d := levenshtein(targetLower, strings.ToLower(c))
		if d <= maxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var result []string
	for i := 0; i < len(matches) && i < 3; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// levenshtein calculates the edit distance between two strings, keeping
// only two rows of the table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
