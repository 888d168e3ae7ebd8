package logconfig

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmurray2011/skein/internal/match"
)

func TestConfig_Match(t *testing.T) {
	m := match.New()
	c := New().WithName("web").WithLogType(Nginx).WithFormat(nginxFormat).Parse(context.Background(), m)

	res, err := c.Match(context.Background(), m, nginxSample)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if v, _ := res.Get("request_uri"); v != "/index.html" {
		t.Errorf("request_uri = %q, want /index.html", v)
	}

	res, err = c.Match(context.Background(), m, "garbage")
	if err != nil || res.Matched {
		t.Errorf("Match(garbage) = %v, %v; want no match", res, err)
	}
}

func TestConfig_MatchNotParsed(t *testing.T) {
	c := New().WithLogType(Nginx).WithFormat(nginxFormat)
	if _, err := c.Match(context.Background(), match.New(), nginxSample); !errors.Is(err, ErrNotParsed) {
		t.Errorf("Match() error = %v, want ErrNotParsed", err)
	}
}

func TestConfig_MatchJSON(t *testing.T) {
	c := New().WithLogType(JSON)

	res, err := c.Match(context.Background(), match.New(), `{"msg": "hi", "n": 3, "ctx": {"user": "bob", "ok": true}, "tags": ["a"], "x": null}`)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	want := []match.Group{
		{Name: "ctx.ok", Value: "true"},
		{Name: "ctx.user", Value: "bob"},
		{Name: "msg", Value: "hi"},
		{Name: "n", Value: "3"},
		{Name: "tags", Value: `["a"]`},
		{Name: "x", Value: ""},
	}
	if !res.Matched || !reflect.DeepEqual(res.Groups, want) {
		t.Errorf("Match() = %+v, want %+v", res.Groups, want)
	}

	for _, entry := range []string{`not json`, `[1, 2]`} {
		res, err := c.Match(context.Background(), match.New(), entry)
		if err != nil || res.Matched {
			t.Errorf("Match(%q) = %v, %v; want no match", entry, res, err)
		}
	}
}

func TestConfig_MatchWindowsEvent(t *testing.T) {
	c := New().WithLogType(WindowsEvent)
	if _, err := c.Match(context.Background(), match.New(), "x"); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Match() error = %v, want ErrNoTemplate", err)
	}
}
