package pattern

import (
	"reflect"
	"strings"
	"testing"
)

func TestApache_CommonLog(t *testing.T) {
	p := mustCompile(t, ApacheFormat{Raw: `LogFormat "%h %l %u %t \"%r\" %>s %b" common`})

	wantNames := []string{
		"remote_addr", "remote_ident", "remote_user", "time_local",
		"request_method", "request_uri", "request_protocol",
		"status_code", "response_size_bytes",
	}
	if got := groupNames(t, p); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("group names = %v, want %v", got, wantNames)
	}

	got := submatches(t, p, `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`)
	if got["status_code"] != "200" {
		t.Errorf("status_code = %q, want 200", got["status_code"])
	}
	if got["response_size_bytes"] != "2326" {
		t.Errorf("response_size_bytes = %q, want 2326", got["response_size_bytes"])
	}
	if got["time_local"] != "10/Oct/2000:13:55:36 -0700" {
		t.Errorf("time_local = %q", got["time_local"])
	}
	if p.TimeField != "time_local" || p.TimeFormat != apacheTimeFormat {
		t.Errorf("time = %q %q", p.TimeField, p.TimeFormat)
	}
}

func TestApache_TableNames(t *testing.T) {
	tests := []struct {
		directive string
		want      string
	}{
		{"%h", "remote_addr"},
		{"%a", "client_ip"},
		{"%A", "local_ip"},
		{"%l", "remote_ident"},
		{"%u", "remote_user"},
		{"%>s", "status_code"},
		{"%s", "status_code"},
		{"%b", "response_size_bytes"},
		{"%B", "response_size_bytes"},
		{"%D", "time_taken_microseconds"},
		{"%T", "time_taken_seconds"},
		{"%m", "request_method"},
		{"%H", "request_protocol"},
		{"%U", "request_uri_path"},
		{"%q", "request_query"},
		{"%p", "server_port"},
		{"%P", "process_id"},
		{"%v", "server_name"},
		{"%V", "canonical_server_name"},
		{"%X", "connection_status"},
		{"%I", "bytes_received"},
		{"%O", "bytes_sent"},
		{"%{Referer}i", "http_referer"},
		{"%{User-agent}i", "http_user_agent"},
		{"%{X-Forwarded-For}i", "http_x_forwarded_for"},
	}

	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			p := mustCompile(t, ApacheFormat{Raw: `LogFormat "` + tt.directive + `"`})
			got := groupNames(t, p)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("group names = %v, want [%s]", got, tt.want)
			}
		})
	}
}

func TestApache_Combined(t *testing.T) {
	p := mustCompile(t, ApacheFormat{Raw: `LogFormat "%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-agent}i\"" combined`})

	got := submatches(t, p, `10.1.1.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.1" 304 - "http://example.com/start" "curl/8.1.2"`)
	want := map[string]string{
		"response_size_bytes": "-",
		"http_referer":        "http://example.com/start",
		"http_user_agent":     "curl/8.1.2",
		"status_code":         "304",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestApache_UnknownDirective(t *testing.T) {
	p := mustCompile(t, ApacheFormat{Raw: `LogFormat "%h %{X-Request-Id}i %Z"`})

	wantNames := []string{"remote_addr", "X_Request_Id_i", "Z"}
	if got := groupNames(t, p); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("group names = %v, want %v", got, wantNames)
	}
	if got := p.FieldName("X_Request_Id_i"); got != "{X-Request-Id}i" {
		t.Errorf("FieldName() = %q, want {X-Request-Id}i", got)
	}
}

func TestApache_PercentLiteral(t *testing.T) {
	p := mustCompile(t, ApacheFormat{Raw: `LogFormat "%h 100%% %>s"`})

	if !strings.Contains(p.Regex, `100%`) {
		t.Errorf("regex %q has no literal 100%%", p.Regex)
	}
	got := submatches(t, p, "10.0.0.1 100% 500")
	if got["status_code"] != "500" {
		t.Errorf("status_code = %q, want 500", got["status_code"])
	}
}
