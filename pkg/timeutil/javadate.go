package timeutil

import "strings"

// JavaToken is one lexical unit of a Java SimpleDateFormat / DateTimeFormatter
// pattern: either a run of one repeated pattern letter or literal text.
type JavaToken struct {
	Letter  byte   // pattern letter, zero for literals
	Width   int    // run length for pattern letters
	Literal string // literal text, unquoted
}

// IsLiteral reports whether the token is literal text.
func (t JavaToken) IsLiteral() bool { return t.Letter == 0 }

// LexJavaPattern splits a Java date pattern into letter runs and literals.
// Runs are taken greedily, so "yyyy" is one token of width 4 and never two
// "yy" tokens. Text in single quotes is literal; '' is an escaped quote.
func LexJavaPattern(pattern string) []JavaToken {
	var tokens []JavaToken
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, JavaToken{Literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '\'':
			if i+1 < len(pattern) && pattern[i+1] == '\'' {
				lit.WriteByte('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(pattern) {
				if pattern[j] == '\'' {
					if j+1 < len(pattern) && pattern[j+1] == '\'' {
						lit.WriteByte('\'')
						j += 2
						continue
					}
					break
				}
				lit.WriteByte(pattern[j])
				j++
			}
			i = j + 1
		case isASCIILetter(c):
			flush()
			j := i
			for j < len(pattern) && pattern[j] == c {
				j++
			}
			tokens = append(tokens, JavaToken{Letter: c, Width: j - i})
			i = j
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return tokens
}

// JavaToStrftime translates a Java date pattern into strftime tokens
// (%Y, %m, %d, %H, %M, %S, %L, ...). Letters with no strftime equivalent
// are kept as literal text.
func JavaToStrftime(pattern string) string {
	var b strings.Builder
	for _, tok := range LexJavaPattern(pattern) {
		if tok.IsLiteral() {
			b.WriteString(strings.ReplaceAll(tok.Literal, "%", "%%"))
			continue
		}
		b.WriteString(javaLetterToStrftime(tok))
	}
	return b.String()
}

func javaLetterToStrftime(tok JavaToken) string {
	switch tok.Letter {
	case 'y', 'u':
		if tok.Width == 2 {
			return "%y"
		}
		return "%Y"
	case 'M', 'L':
		switch {
		case tok.Width >= 4:
			return "%B"
		case tok.Width == 3:
			return "%b"
		}
		return "%m"
	case 'd':
		return "%d"
	case 'H', 'k':
		return "%H"
	case 'h', 'K':
		return "%I"
	case 'm':
		return "%M"
	case 's':
		return "%S"
	case 'S':
		if tok.Width == 3 {
			return "%L"
		}
		return "%N"
	case 'E':
		if tok.Width >= 4 {
			return "%A"
		}
		return "%a"
	case 'a':
		return "%p"
	case 'Z':
		return "%z"
	case 'X', 'x':
		if tok.Width >= 3 {
			return "%:z"
		}
		return "%z"
	case 'z':
		return "%Z"
	case 'D':
		return "%j"
	}
	return strings.Repeat(string(tok.Letter), tok.Width)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
