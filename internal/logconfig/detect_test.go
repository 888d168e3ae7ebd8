package logconfig

import (
	"context"
	"testing"

	"github.com/jmurray2011/skein/internal/match"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Detection
		ok    bool
	}{
		{
			name:  "json",
			lines: []string{`{"level":"info","msg":"started"}`},
			want:  Detection{LogType: JSON},
			ok:    true,
		},
		{
			name:  "truncated json is not json",
			lines: []string{`{"level":"info"`},
			ok:    false,
		},
		{
			name:  "rfc5424",
			lines: []string{`<34>1 2003-10-11T22:14:15.003Z mymachine.example.com su - ID47 - 'su root' failed`},
			want:  Detection{LogType: Syslog, Parser: RFC5424},
			ok:    true,
		},
		{
			name:  "rfc3164 without priority",
			lines: []string{"Oct 11 22:14:15 mymachine su: 'su root' failed"},
			want:  Detection{LogType: Syslog, Parser: RFC3164},
			ok:    true,
		},
		{
			name:  "apache common",
			lines: []string{`127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`},
			want:  Detection{LogType: Apache, Format: ApacheCommonFormat},
			ok:    true,
		},
		{
			name:  "apache combined",
			lines: []string{`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 - "http://example.com/" "curl/8.0"`},
			want:  Detection{LogType: Apache, Format: ApacheCombinedFormat},
			ok:    true,
		},
		{
			name:  "logback thread first",
			lines: []string{"", springLine},
			want: Detection{LogType: MultiLineText, Parser: JavaSpringBoot,
				Format: "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger - %msg%n"},
			ok: true,
		},
		{
			name:  "log4j level first with comma millis",
			lines: []string{"2025-01-15 10:30:45,123 INFO [main] com.example.App - message"},
			want: Detection{LogType: MultiLineText, Parser: JavaSpringBoot,
				Format: "%d{yyyy-MM-dd HH:mm:ss,SSS} %-5level [%thread] %logger - %msg%n"},
			ok: true,
		},
		{
			name:  "iso stamp with ansi color",
			lines: []string{"\x1b[32m2025-01-15T10:30:45 WARN disk almost full\x1b[0m"},
			want: Detection{LogType: MultiLineText, Parser: JavaSpringBoot,
				Format: "%d{yyyy-MM-dd'T'HH:mm:ss} %-5level %msg%n"},
			ok: true,
		},
		{
			name:  "plain text",
			lines: []string{"hello world"},
			ok:    false,
		},
		{
			name:  "no lines",
			lines: nil,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.lines)
			if ok != tt.ok {
				t.Fatalf("Detect() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetect_FormatsParseTheirSample(t *testing.T) {
	samples := []string{
		`127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`,
		`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 - "http://example.com/" "curl/8.0"`,
		springLine,
		"2025-01-15 10:30:45,123 INFO [main] com.example.App - message",
	}

	for _, sample := range samples {
		t.Run(sample, func(t *testing.T) {
			d, ok := Detect([]string{sample})
			if !ok {
				t.Fatal("Detect() ok = false")
			}
			c := New().WithName("auto").WithLogType(d.LogType).WithSubParser(d.Parser).
				WithFormat(d.Format).WithSample(sample).
				Parse(context.Background(), match.New())
			if !c.Parsed() {
				t.Errorf("Parse() failed: %v", c.ParseErr())
			}
		})
	}
}

func TestEntryStart(t *testing.T) {
	if EntryStart(New().WithLogType(Nginx)) != nil {
		t.Error("EntryStart(Nginx) != nil")
	}

	start := EntryStart(New().WithLogType(MultiLineText))
	if start == nil {
		t.Fatal("EntryStart(MultiLineText) = nil")
	}
	tests := map[string]bool{
		springLine:                              true,
		"15:07:20,910 |-INFO in ch.qos.logback": true,
		"\tat com.example.App.run(App.java:42)": false,
		"Caused by: java.io.IOException: boom":  false,
	}
	for line, want := range tests {
		if got := start.MatchString(line); got != want {
			t.Errorf("MatchString(%q) = %v, want %v", line, got, want)
		}
	}
}
