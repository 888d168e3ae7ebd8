package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/trivago/grok"
)

// RegexFormat is a user supplied regular expression. Grok references such as
// %{IP:client} are expanded with the default grok pattern set.
type RegexFormat struct {
	Raw string
}

func (RegexFormat) Grammar() Grammar { return GrammarRegex }

// grokReference matches %{SYNTAX}, %{SYNTAX:field} and %{SYNTAX:field:type}.
var grokReference = regexp.MustCompile(`%\{(\w+)(?::(\w+))?(?::\w+)?\}`)

// maxGrokDepth bounds nested pattern references.
const maxGrokDepth = 32

var (
	grokOnce sync.Once
	grokLib  *grok.Grok
	grokErr  error
)

func grokCompiler() (*grok.Grok, error) {
	grokOnce.Do(func() {
		grokLib, grokErr = grok.New(grok.Config{NamedCapturesOnly: true})
	})
	return grokLib, grokErr
}

// ExpandGrok replaces grok references in expr with the regex they stand for,
// using the default grok pattern set. Named references become named groups;
// bare references become plain groups. Expressions without references are
// returned unchanged.
func ExpandGrok(expr string) (string, error) {
	if !grokReference.MatchString(expr) {
		return expr, nil
	}
	g, err := grokCompiler()
	if err != nil {
		return "", fmt.Errorf("load grok patterns: %w", err)
	}
	if _, err := g.Compile(expr); err != nil {
		return "", fmt.Errorf("%w: grok: %v", ErrInvalidRegex, err)
	}
	return expandGrok(expr, grok.DefaultPatterns, 0)
}

func expandGrok(expr string, defs map[string]string, depth int) (string, error) {
	if depth > maxGrokDepth {
		return "", fmt.Errorf("%w: grok patterns nest deeper than %d", ErrInvalidRegex, maxGrokDepth)
	}

	var firstErr error
	out := grokReference.ReplaceAllStringFunc(expr, func(ref string) string {
		m := grokReference.FindStringSubmatch(ref)
		def, ok := defs[m[1]]
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: grok: no pattern found for %%{%s}", ErrInvalidRegex, m[1])
			}
			return ref
		}
		inner, err := expandGrok(def, defs, depth+1)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ref
		}
		if m[2] != "" {
			return "(?P<" + m[2] + ">" + inner + ")"
		}
		return "(" + inner + ")"
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (f RegexFormat) compile() (CompiledPattern, error) {
	expr := strings.TrimSpace(f.Raw)
	if expr == "" {
		return CompiledPattern{}, fmt.Errorf("%w: empty regex", ErrInvalidFormat)
	}
	expr, err := ExpandGrok(expr)
	if err != nil {
		return CompiledPattern{}, err
	}
	if _, err := regexp.Compile(expr); err != nil {
		return CompiledPattern{}, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}

	p := CompiledPattern{Regex: expr, Fields: fieldsOf(expr)}
	for _, gf := range p.Fields {
		if gf.Field == "time" || gf.Field == "timestamp" {
			p.TimeField = gf.Field
			break
		}
	}
	return p, nil
}
