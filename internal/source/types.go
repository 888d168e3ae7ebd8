package source

import (
	"regexp"
	"strings"
	"time"
)

// Line is one log entry read from a source. Multi-line entries have their
// physical lines joined with "\n".
type Line struct {
	Timestamp time.Time
	Text      string
	Stream    string // Log stream name or filename
	Origin    string // Where the entry starts (file path and line, or stream)
}

// LinesParams controls how entries are read.
type LinesParams struct {
	Limit int // 0 means no limit

	// Start marks the first physical line of an entry. When set, lines that
	// do not match are joined to the previous entry.
	Start *regexp.Regexp

	// Filter drops entries whose text does not match.
	Filter *regexp.Regexp
}

// Metadata identifies a source.
type Metadata struct {
	Type    string // "local", "cloudwatch"
	URI     string // Original URI used to open the source
	Profile string // AWS profile (for cloudwatch)
	Region  string // AWS region (for cloudwatch)
}

// Joiner groups physical lines into entries using LinesParams.Start.
type Joiner struct {
	start   *regexp.Regexp
	pending *Line
}

// NewJoiner returns a Joiner. A nil start regex makes every line an entry.
func NewJoiner(start *regexp.Regexp) *Joiner {
	return &Joiner{start: start}
}

// Add feeds one physical line and returns the entry it completed, if any.
func (j *Joiner) Add(l Line) (Line, bool) {
	if j.start == nil {
		return l, true
	}
	if j.pending != nil && !j.start.MatchString(l.Text) {
		j.pending.Text += "\n" + l.Text
		return Line{}, false
	}
	prev, ok := j.Flush()
	j.pending = &l
	return prev, ok
}

// Flush returns the entry being accumulated.
func (j *Joiner) Flush() (Line, bool) {
	if j.pending == nil {
		return Line{}, false
	}
	l := *j.pending
	j.pending = nil
	return l, true
}

// Keep reports whether an entry passes the filter.
func (p LinesParams) Keep(l Line) bool {
	if strings.TrimSpace(l.Text) == "" {
		return false
	}
	return p.Filter == nil || p.Filter.MatchString(l.Text)
}

// Full reports whether n entries satisfy the limit.
func (p LinesParams) Full(n int) bool {
	return p.Limit > 0 && n >= p.Limit
}

// Texts returns the text of each entry.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
