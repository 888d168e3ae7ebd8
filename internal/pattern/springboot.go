package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jmurray2011/skein/pkg/timeutil"
)

// SpringBootFormat is a Logback/Spring Boot layout pattern, for example
//
//	%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n
type SpringBootFormat struct {
	Raw string
}

func (SpringBootFormat) Grammar() Grammar { return GrammarSpringBoot }

// DefaultSpringDatePattern is used for %d without a pattern and for the
// ISO8601 keyword.
const DefaultSpringDatePattern = "yyyy-MM-dd HH:mm:ss,SSS"

var springModifierRe = regexp.MustCompile(`^-?\d*(?:\.-?\d+)?`)

// springDropped converters produce no text on a single line.
var springDropped = map[string]bool{
	"n": true, "ex": true, "exception": true, "throwable": true,
	"wEx": true, "xEx": true, "rEx": true, "xThrowable": true,
	"rootException": true, "nopex": true, "nopexception": true,
}

func (f SpringBootFormat) compile() (CompiledPattern, error) {
	if strings.TrimSpace(f.Raw) == "" {
		return CompiledPattern{}, fmt.Errorf("%w: empty Spring Boot pattern", ErrInvalidFormat)
	}
	c := &springCompiler{b: &builder{}}
	c.b.raw("^")
	if err := c.scan(strings.TrimSpace(f.Raw)); err != nil {
		return CompiledPattern{}, err
	}
	return CompiledPattern{
		Regex:       c.b.String(),
		TimeField:   c.timeField,
		TimeRegex:   c.timeRegex,
		TimePattern: c.timePattern,
		Fields:      c.b.fields,
	}, nil
}

type springCompiler struct {
	b           *builder
	timeField   string
	timeRegex   string
	timePattern string
}

// scan walks the pattern: literal text, %converters with optional format
// modifier and {option}, %word(...) wrappers and ${NAME:-default}
// placeholders.
func (c *springCompiler) scan(s string) error {
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "${"):
			end := matchingClose(s, i+1, '{', '}')
			if end < 0 {
				return fmt.Errorf("%w: unterminated ${ placeholder", ErrInvalidFormat)
			}
			if err := c.placeholder(s[i+2 : end]); err != nil {
				return err
			}
			i = end + 1

		case s[i] == '%' && i+1 < len(s) && s[i+1] == '%':
			c.b.literal("%")
			i += 2

		case s[i] == '%':
			n, err := c.converter(s[i+1:])
			if err != nil {
				return err
			}
			i += 1 + n

		case s[i] == '\\' && i+1 < len(s):
			_, size := utf8.DecodeRuneInString(s[i+1:])
			c.b.literal(s[i+1 : i+1+size])
			i += 1 + size

		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			c.b.literal(s[i : i+size])
			i += size
		}
	}
	return nil
}

// placeholder expands ${NAME:-default}. A blank default leaves a field that
// may be empty.
func (c *springCompiler) placeholder(body string) error {
	name, def, ok := strings.Cut(body, ":-")
	if !ok {
		name, def, _ = strings.Cut(body, ":")
	}
	if strings.TrimSpace(def) != "" {
		return c.scan(def)
	}
	if def != "" {
		c.b.literal(def)
	}
	c.b.group(strings.ToLower(name), `\S*`)
	return nil
}

// converter handles the text after a '%' and returns the bytes consumed.
func (c *springCompiler) converter(s string) (int, error) {
	n := len(springModifierRe.FindString(s))
	start := n
	for n < len(s) && isASCIILetter(s[n]) {
		n++
	}
	word := s[start:n]
	if word == "" {
		c.b.literal("%")
		return start, nil
	}

	// %clr(...){faint} and friends wrap other converters.
	if n < len(s) && s[n] == '(' {
		end := matchingClose(s, n, '(', ')')
		if end < 0 {
			return 0, fmt.Errorf("%w: unterminated %%%s(", ErrInvalidFormat, word)
		}
		if err := c.scan(s[n+1 : end]); err != nil {
			return 0, err
		}
		n = end + 1
		if n < len(s) && s[n] == '{' {
			if close := matchingClose(s, n, '{', '}'); close > 0 {
				n = close + 1
			}
		}
		return n, nil
	}

	if n < len(s) && s[n] == '{' {
		end := matchingClose(s, n, '{', '}')
		if end < 0 {
			return 0, fmt.Errorf("%w: unterminated %%%s{", ErrInvalidFormat, word)
		}
		c.braced(word, s[n+1:end])
		return end + 1, nil
	}

	c.bare(word)
	return n, nil
}

// braced handles %word{content}.
func (c *springCompiler) braced(word, content string) {
	switch {
	case springDropped[word]:
	case word == "X" || word == "mdc":
		c.b.group(content, `\S*`)
	case word == "d" || word == "date":
		c.date(content)
	default:
		c.b.group(word, `\S+`)
	}
}

// bare handles %word without options.
func (c *springCompiler) bare(word string) {
	switch {
	case springDropped[word]:
	case word == "d" || word == "date":
		c.date("")
	case word == "p" || word == "le" || word == "level":
		c.b.group("level", `\S+`)
	case word == "t" || word == "thread":
		c.b.raw(`\s*`)
		c.b.group("thread", `.+?`)
	case word == "L" || word == "line":
		c.b.group("line", `\d+`)
	case word == "m" || word == "msg" || word == "message":
		c.b.group("message", `[\s\S]+`)
	case word == "c" || word == "lo" || word == "logger":
		c.b.group("logger", `\S+`)
	default:
		c.b.group(word, `\S+`)
	}
}

func (c *springCompiler) date(content string) {
	pattern := resolvePlaceholders(strings.TrimSpace(content))
	pattern = strings.Trim(pattern, `"`)
	switch strings.ToUpper(pattern) {
	case "", "ISO8601", "DEFAULT":
		pattern = DefaultSpringDatePattern
	}

	expr := JavaDateRegex(pattern)
	c.b.group("time", expr)
	if c.timeField == "" {
		c.timeField = "time"
		c.timeRegex = expr
		c.timePattern = pattern
	}
}

// resolvePlaceholders replaces ${NAME:-default} with its default.
func resolvePlaceholders(s string) string {
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			return s
		}
		end := matchingClose(s, i+1, '{', '}')
		if end < 0 {
			return s
		}
		body := s[i+2 : end]
		_, def, ok := strings.Cut(body, ":-")
		if !ok {
			_, def, _ = strings.Cut(body, ":")
		}
		s = s[:i] + def + s[end+1:]
	}
}

// JavaDateRegex translates a Java date pattern into a regex. Letter runs are
// taken whole, so "yyyy" is never read as two "yy" runs.
func JavaDateRegex(pattern string) string {
	b := &builder{}
	for _, tok := range timeutil.LexJavaPattern(pattern) {
		if tok.IsLiteral() {
			b.literal(tok.Literal)
			continue
		}
		b.raw(javaLetterRegex(tok))
	}
	return b.String()
}

func javaLetterRegex(tok timeutil.JavaToken) string {
	w := tok.Width
	switch tok.Letter {
	case 'y', 'u':
		if w == 2 {
			return `\d{2}`
		}
		return `\d{4}`
	case 'M', 'L':
		switch {
		case w >= 4:
			return `[A-Za-z]+`
		case w == 3:
			return `[A-Za-z]{3}`
		case w == 2:
			return `\d{2}`
		}
		return `\d{1,2}`
	case 'd', 'H', 'k', 'K', 'h', 'm', 's':
		if w >= 2 {
			return `\d{2}`
		}
		return `\d{1,2}`
	case 'S':
		return fmt.Sprintf(`\d{%d}`, w)
	case 'E':
		if w <= 3 {
			return `[A-Za-z]{3}`
		}
		return `[A-Za-z]+`
	case 'a':
		return `[AaPp][Mm]`
	case 'Z':
		return `[+-]\d{4}`
	case 'X':
		switch w {
		case 1:
			return `(?:Z|[+-]\d{2}(?:\d{2})?)`
		case 2:
			return `(?:Z|[+-]\d{4})`
		}
		return `(?:Z|[+-]\d{2}:\d{2})`
	case 'x':
		switch w {
		case 1:
			return `[+-]\d{2}(?:\d{2})?`
		case 2:
			return `[+-]\d{4}`
		}
		return `[+-]\d{2}:\d{2}`
	case 'z':
		return `[A-Za-z]+`
	case 'D':
		return `\d{1,3}`
	case 'w', 'W', 'F':
		return `\d{1,2}`
	}
	return `\w+`
}

// matchingClose returns the index of the bracket closing the one at open,
// or -1.
func matchingClose(s string, open int, l, r byte) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case l:
			depth++
		case r:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isASCIILetter(c byte) bool {
	return c < unicode.MaxASCII && unicode.IsLetter(rune(c))
}
