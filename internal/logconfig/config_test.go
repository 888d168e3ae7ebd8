package logconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
)

const (
	nginxFormat = `log_format main '$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent';`
	nginxSample = `192.168.1.1 - - [10/Oct/2023:13:55:36 -0700] "GET /index.html HTTP/1.1" 200 1024`
	springFmt   = "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n"
	springLine  = "2023-10-10 13:55:36.123 [main] INFO  com.example.App - Started"
)

func TestConfig_TransitionsAreImmutable(t *testing.T) {
	base := New().WithName("web").WithLogType(Nginx)
	withFormat := base.WithFormat(nginxFormat)

	if base.Format() != "" {
		t.Errorf("base Format() = %q, want empty", base.Format())
	}
	if withFormat.Format() != nginxFormat {
		t.Errorf("Format() = %q, want %q", withFormat.Format(), nginxFormat)
	}
	if base.State() != StateTypeSelected {
		t.Errorf("base State() = %v, want %v", base.State(), StateTypeSelected)
	}
	if withFormat.State() != StateFormatEntered {
		t.Errorf("State() = %v, want %v", withFormat.State(), StateFormatEntered)
	}
}

func TestConfig_WithLogTypeResetsDownstream(t *testing.T) {
	c := New().WithName("web").WithLogType(Nginx).WithFormat(nginxFormat).WithSample(nginxSample)
	c = c.Parse(context.Background(), match.New())
	if len(c.Fields()) == 0 {
		t.Fatal("expected fields after Parse")
	}

	c = c.WithLogType(Apache)
	if c.Name() != "web" {
		t.Errorf("Name() = %q, want web", c.Name())
	}
	if c.Format() != "" || c.Sample() != "" || len(c.Fields()) != 0 {
		t.Errorf("downstream state kept after type change: format=%q sample=%q fields=%v", c.Format(), c.Sample(), c.Fields())
	}
	if c.State() != StateTypeSelected {
		t.Errorf("State() = %v, want %v", c.State(), StateTypeSelected)
	}
}

func TestConfig_SameLogTypeKeepsState(t *testing.T) {
	c := New().WithLogType(Nginx).WithFormat(nginxFormat)
	if got := c.WithLogType(Nginx).Format(); got != nginxFormat {
		t.Errorf("Format() = %q, want unchanged", got)
	}
}

func TestConfig_WithSubParserResets(t *testing.T) {
	c := New().WithLogType(Syslog).WithSubParser(Custom).WithFormat(`"%HOSTNAME% %msg%\n"`)
	c = c.WithSubParser(RFC5424)
	if c.Format() != "" {
		t.Errorf("Format() = %q, want empty", c.Format())
	}
	if c.SubParser() != RFC5424 {
		t.Errorf("SubParser() = %q, want %q", c.SubParser(), RFC5424)
	}
}

func TestConfig_ParseNginx(t *testing.T) {
	c := New().WithName("web").WithLogType(Nginx).WithFormat(nginxFormat).WithSample(nginxSample)
	c = c.Parse(context.Background(), match.New())

	if c.State() != StateSampleParsed {
		t.Fatalf("State() = %v, want %v (err %v)", c.State(), StateSampleParsed, c.ParseErr())
	}
	if c.TimeKey() != "time_local" {
		t.Errorf("TimeKey() = %q, want time_local", c.TimeKey())
	}
	if c.TimeFormat() != "%d/%b/%Y:%H:%M:%S %z" {
		t.Errorf("TimeFormat() = %q", c.TimeFormat())
	}
	if v, _ := c.Result().Get("status"); v != "200" {
		t.Errorf("status = %q, want 200", v)
	}
}

func TestConfig_ParseWithoutSampleUsesGroups(t *testing.T) {
	c := New().WithLogType(Apache).WithFormat(`LogFormat "%h %l %u %t \"%r\" %>s %b" common`)
	c = c.Parse(context.Background(), match.New())

	if !c.Parsed() {
		t.Fatalf("Parsed() = false, err %v", c.ParseErr())
	}
	fields := c.Fields()
	if len(fields) == 0 || fields[0].Key != "remote_addr" {
		t.Fatalf("Fields() = %v", fields)
	}
	if c.TimeKey() != "time_local" {
		t.Errorf("TimeKey() = %q, want time_local", c.TimeKey())
	}
}

func TestConfig_ParseNoMatch(t *testing.T) {
	c := New().WithLogType(MultiLineText).WithSubParser(JavaSpringBoot).
		WithFormat(springFmt).WithSample("not a spring line")
	c = c.Parse(context.Background(), match.New())

	if c.State() != StateSampleFailed {
		t.Errorf("State() = %v, want %v", c.State(), StateSampleFailed)
	}
	if !errors.Is(c.ParseErr(), ErrNoMatch) {
		t.Errorf("ParseErr() = %v, want ErrNoMatch", c.ParseErr())
	}
	if len(c.Fields()) != 0 {
		t.Errorf("Fields() = %v, want none", c.Fields())
	}
}

func TestConfig_ParseJSON(t *testing.T) {
	c := New().WithLogType(JSON).WithSample(`{"level": "info", "latency": 12, "ctx": {"user": "bob"}}`)
	c = c.Parse(context.Background(), match.New())

	want := []infer.FieldSpec{
		{Key: "level", Type: infer.Text},
		{Key: "latency", Type: infer.Long},
		{Key: "ctx.user", Type: infer.Text},
	}
	got := c.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if c.Schema() == nil {
		t.Error("Schema() = nil")
	}
}

func TestConfig_ParseInvalidJSON(t *testing.T) {
	c := New().WithLogType(JSON).WithSample(`{"level": `)
	c = c.Parse(context.Background(), match.New())
	if !errors.Is(c.ParseErr(), infer.ErrInvalidJSON) {
		t.Errorf("ParseErr() = %v, want ErrInvalidJSON", c.ParseErr())
	}
}

func TestConfig_ParseWindowsEvent(t *testing.T) {
	c := New().WithLogType(WindowsEvent).Parse(context.Background(), match.New())
	if c.TimeKey() != WindowsEventTimeKey {
		t.Errorf("TimeKey() = %q, want %q", c.TimeKey(), WindowsEventTimeKey)
	}
	if len(c.Fields()) != len(WindowsEventFields()) {
		t.Errorf("Fields() = %d entries, want %d", len(c.Fields()), len(WindowsEventFields()))
	}
}

func TestConfig_ParseMissingSubParser(t *testing.T) {
	c := New().WithLogType(IIS).Parse(context.Background(), match.New())
	if !errors.Is(c.ParseErr(), ErrParserRequired) {
		t.Errorf("ParseErr() = %v, want ErrParserRequired", c.ParseErr())
	}
}

func TestConfig_FieldEdits(t *testing.T) {
	c := New().WithLogType(Regex).
		WithRegex(`^(?P<ts>\S+) (?P<msg>.*)$`).
		WithSample("2023-10-10T13:55:36 hello")
	c = c.Parse(context.Background(), match.New())

	c = c.WithTimeKey("ts")
	if c.State() != StateFieldsConfigured {
		t.Errorf("State() = %v, want %v", c.State(), StateFieldsConfigured)
	}
	if f := c.Fields()[0]; f.Type != infer.Date {
		t.Errorf("ts type = %v, want date", f.Type)
	}

	c = c.WithFieldFormat("ts", "%Y-%m-%dT%H:%M:%S")
	if c.TimeFormat() != "%Y-%m-%dT%H:%M:%S" {
		t.Errorf("TimeFormat() = %q", c.TimeFormat())
	}

	c = c.WithFieldType("ts", infer.Keyword)
	if f := c.Fields()[0]; f.Type != infer.Keyword || f.Format != "" {
		t.Errorf("ts = %+v, want keyword without format", f)
	}
}

func TestConfig_FieldEditsDoNotShareSlices(t *testing.T) {
	c := New().WithFields([]infer.FieldSpec{{Key: "a", Type: infer.Text}}, "")
	edited := c.WithFieldType("a", infer.Integer)

	if c.Fields()[0].Type != infer.Text {
		t.Errorf("original field changed to %v", c.Fields()[0].Type)
	}
	if edited.Fields()[0].Type != infer.Integer {
		t.Errorf("edited field = %v, want integer", edited.Fields()[0].Type)
	}
}

func TestConfig_TemplateGrammar(t *testing.T) {
	tests := []struct {
		t    LogType
		sp   SubParser
		want pattern.Grammar
	}{
		{Nginx, "", pattern.GrammarNginx},
		{Apache, "", pattern.GrammarApache},
		{Syslog, RFC3164, pattern.GrammarSyslog},
		{MultiLineText, JavaSpringBoot, pattern.GrammarSpringBoot},
		{MultiLineText, Custom, pattern.GrammarRegex},
		{SingleLineText, "", pattern.GrammarRegex},
		{IIS, W3C, pattern.GrammarWindowsIIS},
	}

	for _, tt := range tests {
		t.Run(string(tt.t)+"/"+string(tt.sp), func(t *testing.T) {
			tmpl, err := New().WithLogType(tt.t).WithSubParser(tt.sp).Template()
			if err != nil {
				t.Fatalf("Template() error = %v", err)
			}
			if tmpl.Grammar() != tt.want {
				t.Errorf("Grammar() = %v, want %v", tmpl.Grammar(), tt.want)
			}
		})
	}

	if _, err := New().WithLogType(JSON).Template(); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("JSON Template() error = %v, want ErrNoTemplate", err)
	}
}

func TestState_String(t *testing.T) {
	if got := StateSampleFailed.String(); got != "sample-failed" {
		t.Errorf("String() = %q, want sample-failed", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
