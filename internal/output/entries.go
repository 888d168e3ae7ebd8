package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/source"
)

// Entry is one source entry run through a configuration.
type Entry struct {
	Timestamp time.Time     `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Origin    string        `json:"origin,omitempty" yaml:"origin,omitempty"`
	Text      string        `json:"text" yaml:"text"`
	Matched   bool          `json:"matched" yaml:"matched"`
	Fields    []match.Group `json:"fields,omitempty" yaml:"fields,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEntry pairs a source line with its match result.
func NewEntry(l source.Line, res match.Result, err error) Entry {
	e := Entry{
		Timestamp: l.Timestamp,
		Origin:    l.Origin,
		Text:      l.Text,
		Matched:   res.Matched,
		Fields:    res.Groups,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// FormatEntry outputs one entry. JSON is written one object per line and
// CSV rows are key/value pairs so entries with different fields can stream.
func (f *Formatter) FormatEntry(e Entry) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.writer).Encode(e)
	case FormatYAML:
		return f.encodeYAML(e)
	case FormatCSV:
		return f.formatEntryCSV(e)
	default:
		return f.formatEntryText(e)
	}
}

func (f *Formatter) formatEntryText(e Entry) error {
	ts := ""
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.Format("2006-01-02 15:04:05.000")
	}

	switch {
	case e.Error != "":
		f.renderer.LogEntry(ts, e.Origin, e.Text)
		f.renderer.Error("%s", e.Error)
	case !e.Matched:
		f.renderer.LogEntry(ts, e.Origin, e.Text)
		f.renderer.Warning("no match")
	default:
		f.renderer.LogEntry(ts, e.Origin, "")
		for _, g := range e.Fields {
			f.renderer.KeyValueIndent(g.Name, match.DisplayValue(g.Value), 1)
		}
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

func (f *Formatter) formatEntryCSV(e Entry) error {
	w := csv.NewWriter(f.writer)
	if !e.Matched {
		if err := w.Write([]string{e.Origin, "", escapeNewlines(e.Text)}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	for _, g := range e.Fields {
		if err := w.Write([]string{e.Origin, g.Name, escapeNewlines(g.Value)}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
