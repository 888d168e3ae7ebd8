package pattern

import (
	"regexp"
	"strings"
	"unicode"
)

// builder accumulates a regex from literal text and capture groups.
// Whitespace runs in literal text collapse into a single \s+, including runs
// that span several literal calls.
type builder struct {
	sb        strings.Builder
	fields    []GroupField
	lastSpace bool

	// unnamed emits plain capture groups instead of named ones.
	unnamed bool
}

func (b *builder) literal(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !b.lastSpace {
				b.sb.WriteString(`\s+`)
				b.lastSpace = true
			}
			continue
		}
		b.sb.WriteString(regexp.QuoteMeta(string(r)))
		b.lastSpace = false
	}
}

func (b *builder) raw(expr string) {
	b.sb.WriteString(expr)
	b.lastSpace = false
}

// group appends a capture group for field. The group name is the field name
// reduced to word characters.
func (b *builder) group(field, expr string) {
	b.lastSpace = false
	if b.unnamed {
		b.sb.WriteString("(" + expr + ")")
		return
	}
	name := groupName(field)
	b.sb.WriteString("(?P<" + name + ">" + expr + ")")
	b.fields = append(b.fields, GroupField{Group: name, Field: field})
}

func (b *builder) String() string {
	return b.sb.String()
}

// groupName turns an arbitrary field name into a legal group name: runs of
// non-word characters become one underscore, edges are trimmed.
func groupName(field string) string {
	var sb strings.Builder
	pending := false
	for _, r := range field {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	if sb.Len() == 0 {
		return "field"
	}
	return sb.String()
}
