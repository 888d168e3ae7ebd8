package pattern

import (
	"reflect"
	"testing"
)

func TestJavaDateRegex(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"yyyy-MM-dd'T'HH:mm:ss.SSS", `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`},
		{"yyyy-MM-dd HH:mm:ss,SSS", `\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2},\d{3}`},
		{"yy/MMM/dd", `\d{2}/[A-Za-z]{3}/\d{2}`},
		{"EEE, d MMMM yyyy h:mm a", `[A-Za-z]{3},\s+\d{1,2}\s+[A-Za-z]+\s+\d{4}\s+\d{1,2}:\d{2}\s+[AaPp][Mm]`},
		{"EEEE HH:mm:ss.SSSSSS", `[A-Za-z]+\s+\d{2}:\d{2}:\d{2}\.\d{6}`},
		{"HH:mm:ssXXX", `\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})`},
		{"dd/MMM/yyyy:HH:mm:ss Z", `\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2}\s+[+-]\d{4}`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := JavaDateRegex(tt.pattern); got != tt.want {
				t.Errorf("JavaDateRegex(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestSpringBoot_Logback(t *testing.T) {
	p := mustCompile(t, SpringBootFormat{Raw: "%d{yyyy-MM-dd'T'HH:mm:ss.SSS} %-5level [%thread] %logger{36} - %msg%n"})

	wantNames := []string{"time", "level", "thread", "logger", "message"}
	if got := groupNames(t, p); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("group names = %v, want %v", got, wantNames)
	}
	if p.TimeRegex != `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}` {
		t.Errorf("TimeRegex = %q", p.TimeRegex)
	}
	if p.TimePattern != "yyyy-MM-dd'T'HH:mm:ss.SSS" {
		t.Errorf("TimePattern = %q", p.TimePattern)
	}
	if p.TimeField != "time" {
		t.Errorf("TimeField = %q, want time", p.TimeField)
	}

	got := submatches(t, p, "2023-10-10T13:55:36.123 INFO  [main] com.example.App - Started App in 2.1 seconds")
	want := map[string]string{
		"time":    "2023-10-10T13:55:36.123",
		"level":   "INFO",
		"thread":  "main",
		"logger":  "com.example.App",
		"message": "Started App in 2.1 seconds",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestSpringBoot_DefaultConsolePattern(t *testing.T) {
	raw := "%clr(%d{${LOG_DATEFORMAT_PATTERN:-yyyy-MM-dd'T'HH:mm:ss.SSSXXX}}){faint} " +
		"%clr(${LOG_LEVEL_PATTERN:-%5p}) %clr(${PID:- }){magenta} %clr(---){faint} " +
		"%clr([%15.15t]){faint} %clr(%-40.40logger{39}){cyan} %clr(:){faint} %m%n${LOG_EXCEPTION_CONVERSION_WORD:-%wEx}"
	p := mustCompile(t, SpringBootFormat{Raw: raw})

	wantNames := []string{"time", "level", "pid", "thread", "logger", "message"}
	if got := groupNames(t, p); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("group names = %v, want %v", got, wantNames)
	}

	got := submatches(t, p, "2023-10-10T13:55:36.123+02:00  INFO 12345 --- [           main] com.example.App                          : Started App")
	want := map[string]string{
		"time":    "2023-10-10T13:55:36.123+02:00",
		"level":   "INFO",
		"pid":     "12345",
		"thread":  "main",
		"logger":  "com.example.App",
		"message": "Started App",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestSpringBoot_Converters(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantNames []string
	}{
		{"short words", "%d %p %t %c %L %m", []string{"time", "level", "thread", "logger", "line", "message"}},
		{"long words", "%date %le %thread %lo %line %message", []string{"time", "level", "thread", "logger", "line", "message"}},
		{"mdc", "%X{traceId} %X{spanId} %msg", []string{"traceId", "spanId", "message"}},
		{"other braced word", "%d %mdc{user} %marker{1} %msg", []string{"time", "user", "marker", "message"}},
		{"generic bare word", "%d %relative %msg", []string{"time", "relative", "message"}},
		{"exception converters dropped", "%msg%n%ex{full}%wEx", []string{"message"}},
		{"blank placeholder", "${APP_NAME:-} %msg", []string{"app_name", "message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, SpringBootFormat{Raw: tt.raw})
			if got := groupNames(t, p); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("group names = %v, want %v", got, tt.wantNames)
			}
		})
	}
}

func TestSpringBoot_DefaultDatePattern(t *testing.T) {
	tests := []string{"%d %msg", "%d{ISO8601} %msg", "%date{\"yyyy-MM-dd HH:mm:ss,SSS\"} %msg"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			p := mustCompile(t, SpringBootFormat{Raw: raw})
			if p.TimePattern != DefaultSpringDatePattern {
				t.Errorf("TimePattern = %q, want %q", p.TimePattern, DefaultSpringDatePattern)
			}
			got := submatches(t, p, "2023-10-10 13:55:36,123 hello")
			if got["time"] != "2023-10-10 13:55:36,123" {
				t.Errorf("time = %q", got["time"])
			}
		})
	}
}

func TestSpringBoot_EscapesBrackets(t *testing.T) {
	p := mustCompile(t, SpringBootFormat{Raw: "(%level) {%thread} %msg"})

	got := submatches(t, p, "(WARN) {worker-1} disk almost full")
	if got["level"] != "WARN" || got["thread"] != "worker-1" {
		t.Errorf("groups = %v", got)
	}
}

func TestSpringBoot_NonASCIILiterals(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		sample string
		want   map[string]string
	}{
		{"accented", "%level é %msg", "INFO é hi", map[string]string{"level": "INFO", "message": "hi"}},
		{"arrow", "[%thread] → %msg", "[main] → started", map[string]string{"thread": "main", "message": "started"}},
		{"escaped", `%level \→ %msg`, "WARN → slow", map[string]string{"level": "WARN", "message": "slow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, SpringBootFormat{Raw: tt.raw})
			if got := submatches(t, p, tt.sample); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("groups = %v, want %v", got, tt.want)
			}
		})
	}
}
