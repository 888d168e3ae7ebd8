package logconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmurray2011/skein/internal/match"
)

// ErrNotParsed is returned by Match before the configuration has a pattern.
var ErrNotParsed = errors.New("configuration has not been parsed")

// Match applies a parsed configuration to one log entry. JSON entries are
// flattened into dotted keys; everything else goes through the compiled
// pattern.
func (c Config) Match(ctx context.Context, m *match.Matcher, entry string) (match.Result, error) {
	switch c.logType {
	case JSON:
		return matchJSON(entry)
	case WindowsEvent:
		return match.Result{}, fmt.Errorf("%w: %s entries are structured events", ErrNoTemplate, c.logType)
	}
	if !c.compiled.Valid() {
		return match.Result{}, ErrNotParsed
	}
	return m.Match(ctx, c.compiled, entry)
}

func matchJSON(entry string) (match.Result, error) {
	dec := json.NewDecoder(strings.NewReader(entry))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return match.Result{}, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return match.Result{}, nil
	}

	res := match.Result{Matched: true}
	flattenJSON("", obj, &res.Groups)
	return res, nil
}

func flattenJSON(prefix string, obj map[string]any, out *[]match.Group) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := obj[k].(type) {
		case map[string]any:
			flattenJSON(key, v, out)
		case string:
			*out = append(*out, match.Group{Name: key, Value: v})
		case nil:
			*out = append(*out, match.Group{Name: key, Value: ""})
		case json.Number:
			*out = append(*out, match.Group{Name: key, Value: v.String()})
		default:
			raw, _ := json.Marshal(v)
			*out = append(*out, match.Group{Name: key, Value: string(raw)})
		}
	}
}
