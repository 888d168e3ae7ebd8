package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// strftimeLayouts maps strftime directives to Go reference-time layouts.
var strftimeLayouts = map[string]string{
	"Y":  "2006",
	"y":  "06",
	"m":  "01",
	"d":  "02",
	"e":  "_2",
	"H":  "15",
	"I":  "03",
	"M":  "04",
	"S":  "05",
	"b":  "Jan",
	"h":  "Jan",
	"B":  "January",
	"a":  "Mon",
	"A":  "Monday",
	"p":  "PM",
	"z":  "-0700",
	":z": "-07:00",
	"Z":  "MST",
	"j":  "002",
	"T":  "15:04:05",
	"F":  "2006-01-02",
	"D":  "01/02/06",
	"%":  "%",
}

// fractional directives only parse when they follow a '.' or ',' separator.
var strftimeFractions = map[string]string{
	"L": "000",
	"f": "000000",
	"N": "000000000",
}

// layoutCheckTime renders differently from the reference time in every
// layout element, so a layout whose output differs from its piecewise
// rendering has literal text that Go reads as an element.
var layoutCheckTime = time.Date(1999, time.November, 28, 9, 37, 49, 123456789, time.FixedZone("XYZ", 3*3600+1800))

// StrftimeLayout converts a strftime format into a Go time layout. Go
// layouts cannot escape literal text, so a format whose literals would be
// read as layout elements (digits, "Jan", "Mon", "PM" and the like) is
// rejected rather than converted into a layout that parses something else.
func StrftimeLayout(format string) (string, error) {
	var b, want strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			want.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("dangling %% at end of time format %q", format)
		}

		directive := format[i+1 : i+2]
		if directive == ":" && i+2 < len(format) {
			directive = format[i+1 : i+3]
		}

		if layout, ok := strftimeLayouts[directive]; ok {
			b.WriteString(layout)
			want.WriteString(layoutCheckTime.Format(layout))
			i += len(directive)
			continue
		}
		if layout, ok := strftimeFractions[directive]; ok {
			prev := b.String()
			if !strings.HasSuffix(prev, ".") && !strings.HasSuffix(prev, ",") {
				return "", fmt.Errorf("%%%s must follow a '.' or ',' in time format %q", directive, format)
			}
			b.WriteString(layout)
			want.WriteString(fmt.Sprintf("%09d", layoutCheckTime.Nanosecond())[:len(layout)])
			i += len(directive)
			continue
		}
		return "", fmt.Errorf("unsupported directive %%%s in time format %q", directive, format)
	}
	layout := b.String()
	if layoutCheckTime.Format(layout) != want.String() {
		return "", fmt.Errorf("time format %q has literal text that reads as a time element", format)
	}
	return layout, nil
}

// ValidateStrftime checks that value can be parsed with the strftime format.
func ValidateStrftime(value, format string) error {
	if strings.TrimSpace(format) == "" {
		return fmt.Errorf("time format is empty")
	}
	layout, err := StrftimeLayout(format)
	if err != nil {
		return err
	}
	if _, err := time.Parse(layout, value); err != nil {
		return fmt.Errorf("value %q does not match time format %q: %w", value, format, err)
	}
	return nil
}
