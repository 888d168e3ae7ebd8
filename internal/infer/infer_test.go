package infer

import (
	"context"
	"reflect"
	"testing"

	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/pattern"
)

func matchSample(t *testing.T, tmpl pattern.Template, sample string) (pattern.CompiledPattern, match.Result) {
	t.Helper()
	p, err := pattern.Compile(tmpl)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	res, err := match.New().Match(context.Background(), p, sample)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	return p, res
}

func TestFields_Nginx(t *testing.T) {
	p, res := matchSample(t,
		pattern.NginxFormat{Raw: `log_format main '$remote_addr - $remote_user [$time_local] "$request" $status';`},
		`192.168.1.1 - - [10/Oct/2023:13:55:36 -0700] "GET /index.html HTTP/1.1" 200`)

	want := []FieldSpec{
		{Key: "remote_addr", Type: Text},
		{Key: "remote_user", Type: Text},
		{Key: "time_local", Type: Date, Format: "%d/%b/%Y:%H:%M:%S %z"},
		{Key: "request_method", Type: Text},
		{Key: "request_uri", Type: Text},
		{Key: "request_protocol", Type: Text},
		{Key: "status", Type: Integer},
	}
	if got := Fields(p, res); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestFields_SpringBoot(t *testing.T) {
	p, res := matchSample(t,
		pattern.SpringBootFormat{Raw: "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n"},
		"2023-10-10 13:55:36.123 [main] INFO  com.example.App - Started")

	want := []FieldSpec{
		{Key: "time", Type: Date, Format: "%Y-%m-%d %H:%M:%S.%L"},
		{Key: "thread", Type: Text},
		{Key: "level", Type: Keyword},
		{Key: "logger", Type: Text},
		{Key: "message", Type: Text},
	}
	if got := Fields(p, res); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestFields_SpringBootNoMatch(t *testing.T) {
	p, res := matchSample(t,
		pattern.SpringBootFormat{Raw: "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n"},
		"this line was written by something else")

	if res.Matched {
		t.Fatal("sample unexpectedly matched")
	}
	if got := Fields(p, res); len(got) != 0 {
		t.Errorf("Fields() = %v, want empty", got)
	}
}

func TestFields_W3C(t *testing.T) {
	p, res := matchSample(t,
		pattern.WindowsIISFormat{Parser: pattern.IISW3C, FieldsLine: "#Fields: date time c-ip cs-method sc-status sc-bytes time-taken cs-uri-stem"},
		"2023-10-10 13:55:36 10.0.0.1 GET 200 5120 15 /index.htm")

	want := []FieldSpec{
		{Key: "date", Type: Date, Format: W3CDateFormat},
		{Key: "time", Type: Date, Format: IISTimeFormat},
		{Key: "remote_ip", Type: IP},
		{Key: "method", Type: Keyword},
		{Key: "status_code", Type: Keyword},
		{Key: "bytes_sent", Type: Long},
		{Key: "time_taken", Type: Long},
		{Key: "url", Type: Text},
	}
	if got := Fields(p, res); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestFields_IISVariants(t *testing.T) {
	tests := []struct {
		name   string
		parser string
		sample string
		key    string
		want   FieldSpec
	}{
		{
			"iis date", pattern.IISNative,
			"192.168.114.201, -, 20/03/2001, 7:55:20, W3SVC2, SALES1, 172.21.13.45, 4502, 163, 3223, 200, 0, GET, /DeptLogo.gif, -,",
			"date", FieldSpec{Key: "date", Type: Date, Format: IISDateFormat},
		},
		{
			"iis server ip", pattern.IISNative,
			"192.168.114.201, -, 20/03/2001, 7:55:20, W3SVC2, SALES1, 172.21.13.45, 4502, 163, 3223, 200, 0, GET, /DeptLogo.gif, -,",
			"server_ip", FieldSpec{Key: "server_ip", Type: IP},
		},
		{
			"iis status overrides integer", pattern.IISNative,
			"192.168.114.201, -, 20/03/2001, 7:55:20, W3SVC2, SALES1, 172.21.13.45, 4502, 163, 3223, 200, 0, GET, /DeptLogo.gif, -,",
			"status_code", FieldSpec{Key: "status_code", Type: Keyword},
		},
		{
			"ncsa time", pattern.IISNCSA,
			`172.16.255.255 - - [25/Oct/2023:14:32:15 +0000] "GET /index.html HTTP/1.1" 200 1043`,
			"time", FieldSpec{Key: "time", Type: Date, Format: pattern.NCSATimeFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, res := matchSample(t, pattern.WindowsIISFormat{Parser: tt.parser}, tt.sample)
			for _, f := range Fields(p, res) {
				if f.Key == tt.key {
					if f != tt.want {
						t.Errorf("field = %+v, want %+v", f, tt.want)
					}
					return
				}
			}
			t.Errorf("field %q not inferred", tt.key)
		})
	}
}

func TestField_Rules(t *testing.T) {
	regex := pattern.CompiledPattern{Grammar: pattern.GrammarRegex}
	spring := pattern.CompiledPattern{Grammar: pattern.GrammarSpringBoot}
	nginx := pattern.CompiledPattern{Grammar: pattern.GrammarNginx, TimeField: "time_local"}

	tests := []struct {
		name  string
		p     pattern.CompiledPattern
		key   string
		value string
		want  TypeTag
	}{
		{"time key", regex, "time", "whenever", Date},
		{"pattern time field", nginx, "time_local", "10/Oct/2023:13:55:36 +0000", Date},
		{"time prefix without time field", regex, "time_local", "10/Oct/2023:13:55:36 +0000", Text},
		{"integer in pattern time field", nginx, "time_local", "1696946136", Date},
		{"integer", regex, "count", "42", Integer},
		{"negative integer", regex, "delta", "-7", Integer},
		{"integral float", regex, "n", "3.0", Integer},
		{"fraction", regex, "ratio", "0.25", Text},
		{"empty value", regex, "n", "", Text},
		{"infinity", regex, "n", "Inf", Text},
		{"spring level", spring, "level", "INFO", Keyword},
		{"level outside spring", regex, "level", "INFO", Text},
		{"integer beats spring level", spring, "level", "5", Integer},
		{"text", regex, "msg", "hello", Text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.p, tt.key, tt.value).Type; got != tt.want {
				t.Errorf("Field(%q, %q).Type = %v, want %v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestDateFormat_RegexTimeWithoutFormat(t *testing.T) {
	p := pattern.CompiledPattern{Grammar: pattern.GrammarRegex, TimeField: "time"}

	f := Field(p, "time", "2023-10-10")
	if f.Type != Date {
		t.Fatalf("Type = %v, want date", f.Type)
	}
	if f.Format != "" {
		t.Errorf("Format = %q, want empty", f.Format)
	}
}

func TestTimeKey(t *testing.T) {
	tests := []struct {
		name   string
		p      pattern.CompiledPattern
		fields []FieldSpec
		want   string
	}{
		{
			"pattern time field",
			pattern.CompiledPattern{TimeField: "time_local"},
			[]FieldSpec{{Key: "date", Type: Date}, {Key: "time_local", Type: Date}},
			"time_local",
		},
		{
			"first date field",
			pattern.CompiledPattern{},
			[]FieldSpec{{Key: "host", Type: Text}, {Key: "date", Type: Date}, {Key: "time", Type: Date}},
			"date",
		},
		{
			"no date",
			pattern.CompiledPattern{},
			[]FieldSpec{{Key: "host", Type: Text}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeKey(tt.p, tt.fields); got != tt.want {
				t.Errorf("TimeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTypeTag(t *testing.T) {
	if got, ok := ParseTypeTag(" KEYWORD "); !ok || got != Keyword {
		t.Errorf("ParseTypeTag(KEYWORD) = %v, %v", got, ok)
	}
	if _, ok := ParseTypeTag("uuid"); ok {
		t.Error("ParseTypeTag(uuid) ok = true, want false")
	}
}
