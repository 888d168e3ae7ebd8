// Package match applies compiled patterns to sample log lines.
//
// Evaluation runs under a deadline: hand-built patterns can be slow on
// adversarial input, so a match that does not finish in time is abandoned and
// reported as ErrTimeout instead of a failed match.
package match

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/pattern"
	"github.com/jmurray2011/skein/pkg/lru"
)

const (
	// DefaultTimeout bounds a single regex evaluation.
	DefaultTimeout = 2 * time.Second

	// DefaultCacheSize is the number of compiled regexes kept by a Matcher.
	DefaultCacheSize = 128
)

// ErrTimeout is returned when a regex evaluation exceeds its deadline.
var ErrTimeout = errors.New("regex evaluation timed out")

// Group is one captured field.
type Group struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Result is the outcome of matching one sample. A sample either matches and
// every named group is reported (empty when it did not participate), or it
// does not match and Groups is empty.
type Result struct {
	Matched bool    `json:"matched" yaml:"matched"`
	Groups  []Group `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Map returns the groups keyed by field name.
func (r Result) Map() map[string]string {
	m := make(map[string]string, len(r.Groups))
	for _, g := range r.Groups {
		m[g.Name] = g.Value
	}
	return m
}

// Get returns the value captured for a field.
func (r Result) Get(name string) (string, bool) {
	for _, g := range r.Groups {
		if g.Name == name {
			return g.Value, true
		}
	}
	return "", false
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTimeout sets the evaluation deadline. Zero or less disables it.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		m.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Matcher) {
		m.logger = l
	}
}

// WithCacheSize sets how many compiled regexes are kept.
func WithCacheSize(n int) Option {
	return func(m *Matcher) {
		m.cacheSize = n
	}
}

// Matcher evaluates compiled patterns against samples. It is safe for
// concurrent use.
type Matcher struct {
	timeout   time.Duration
	cacheSize int
	cache     *lru.Cache[string, *regexp.Regexp]
	logger    logging.Logger

	eval func(re *regexp.Regexp, p pattern.CompiledPattern, sample string) Result
}

// New creates a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		timeout:   DefaultTimeout,
		cacheSize: DefaultCacheSize,
		logger:    logging.NopLogger{},
		eval:      evaluate,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = lru.New[string, *regexp.Regexp](m.cacheSize)
	return m
}

// Timeout returns the evaluation deadline.
func (m *Matcher) Timeout() time.Duration {
	return m.timeout
}

// Match applies p to sample.
//
// It returns pattern.ErrInvalidFormat for a pattern carrying the Invalid
// sentinel, pattern.ErrDuplicateGroupName or pattern.ErrInvalidRegex when the
// regex cannot be used, and ErrTimeout when evaluation misses the deadline.
// A regex that compiles but does not match is not an error.
func (m *Matcher) Match(ctx context.Context, p pattern.CompiledPattern, sample string) (Result, error) {
	if !p.Valid() {
		return Result{}, fmt.Errorf("%w: pattern has no usable regex", pattern.ErrInvalidFormat)
	}
	re, err := m.compile(p)
	if err != nil {
		return Result{}, err
	}

	if m.timeout <= 0 {
		return m.eval(re, p, sample), nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- m.eval(re, p, sample)
	}()

	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logging.ForPattern(m.logger, p.Grammar, p.Regex).WithFields(map[string]interface{}{
				logging.FieldTimeout: m.timeout,
				logging.FieldSample:  len(sample),
			}).Warn("abandoning regex evaluation")
			return Result{}, ErrTimeout
		}
		return Result{}, ctx.Err()
	}
}

func (m *Matcher) compile(p pattern.CompiledPattern) (*regexp.Regexp, error) {
	if re, ok := m.cache.Get(p.Regex); ok {
		return re, nil
	}
	log := logging.ForPattern(m.logger, p.Grammar, p.Regex)
	re, err := pattern.Verify(p.Regex)
	if err != nil {
		log.Debug("rejected regex: %v", err)
		return nil, err
	}
	m.cache.Add(p.Regex, re)
	log.WithField(logging.FieldGroups, re.NumSubexp()).Debug("compiled regex")
	return re, nil
}

func evaluate(re *regexp.Regexp, p pattern.CompiledPattern, sample string) Result {
	sub := re.FindStringSubmatch(sample)
	if sub == nil {
		return Result{}
	}
	r := Result{Matched: true}
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		r.Groups = append(r.Groups, Group{Name: p.FieldName(name), Value: sub[i]})
	}
	return r
}

var std = New()

// Match applies p to sample with the default timeout.
func Match(p pattern.CompiledPattern, sample string) (Result, error) {
	return std.Match(context.Background(), p, sample)
}
