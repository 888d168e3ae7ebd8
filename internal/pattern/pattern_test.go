package pattern

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
)

// mustCompile compiles t and fails the test on error.
func mustCompile(t *testing.T, tmpl Template) CompiledPattern {
	t.Helper()
	p, err := Compile(tmpl)
	if err != nil {
		t.Fatalf("Compile(%#v) error = %v", tmpl, err)
	}
	if !p.Valid() {
		t.Fatalf("Compile(%#v) returned invalid pattern %q", tmpl, p.Regex)
	}
	return p
}

func groupNames(t *testing.T, p CompiledPattern) []string {
	t.Helper()
	names, err := GroupNames(p.Regex)
	if err != nil {
		t.Fatalf("GroupNames(%q) error = %v", p.Regex, err)
	}
	return names
}

// submatches matches sample against p and returns the named groups.
func submatches(t *testing.T, p CompiledPattern, sample string) map[string]string {
	t.Helper()
	re := regexp.MustCompile(p.Regex)
	m := re.FindStringSubmatch(sample)
	if m == nil {
		t.Fatalf("regex %q does not match %q", p.Regex, sample)
	}
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out
}

func TestCompile_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		tmpl Template
	}{
		{"nil template", nil},
		{"nginx without log_format", NginxFormat{Raw: `'$remote_addr $status'`}},
		{"nginx without quote", NginxFormat{Raw: `log_format main $remote_addr`}},
		{"apache without LogFormat", ApacheFormat{Raw: `"%h %l %u"`}},
		{"apache without quotes", ApacheFormat{Raw: `LogFormat %h %l`}},
		{"syslog custom without properties", SyslogFormat{Parser: SyslogCustom, Raw: "plain text"}},
		{"syslog unknown parser", SyslogFormat{Parser: "RFC1"}},
		{"spring boot empty", SpringBootFormat{Raw: "   "}},
		{"spring boot unterminated option", SpringBootFormat{Raw: "%d{yyyy"}},
		{"w3c without fields", WindowsIISFormat{Parser: IISW3C, FieldsLine: "#Software: IIS"}},
		{"iis unknown parser", WindowsIISFormat{Parser: "ELF"}},
		{"empty regex", RegexFormat{Raw: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.tmpl)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Compile() error = %v, want ErrInvalidFormat", err)
			}
			if p.Regex != Invalid {
				t.Errorf("Compile() regex = %q, want %q", p.Regex, Invalid)
			}
			if p.Valid() {
				t.Error("Valid() = true for invalid pattern")
			}
		})
	}
}

func TestCompile_Idempotent(t *testing.T) {
	templates := []Template{
		NginxFormat{Raw: `log_format main '$remote_addr - $remote_user [$time_local] "$request" $status';`},
		ApacheFormat{Raw: `LogFormat "%h %l %u %t \"%r\" %>s %b" common`},
		SyslogFormat{Parser: SyslogCustom, Raw: `%TIMESTAMP% %HOSTNAME% %syslogtag%%msg%\n`},
		SpringBootFormat{Raw: "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n"},
		WindowsIISFormat{Parser: IISW3C, FieldsLine: "#Fields: date time c-ip cs-username"},
	}

	for _, tmpl := range templates {
		t.Run(tmpl.Grammar().String(), func(t *testing.T) {
			first := mustCompile(t, tmpl)
			second := mustCompile(t, tmpl)
			if first.Regex != second.Regex {
				t.Errorf("Compile() not idempotent:\n%q\n%q", first.Regex, second.Regex)
			}
		})
	}
}

func TestCompile_SetsGrammar(t *testing.T) {
	p := mustCompile(t, ApacheFormat{Raw: `LogFormat "%h"`})
	if p.Grammar != GrammarApache {
		t.Errorf("Grammar = %v, want %v", p.Grammar, GrammarApache)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr error
	}{
		{"valid", `(?P<a>\d+) (?P<b>\w+)`, nil},
		{"unnamed groups", `(\d+) (\w+)`, nil},
		{"duplicate names", `(?P<a>\d+) (?P<a>\w+)`, ErrDuplicateGroupName},
		{"syntax error", `(?P<a>[`, ErrInvalidRegex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Verify(tt.expr)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify(%q) error = %v", tt.expr, err)
				}
				if re == nil {
					t.Fatal("Verify() returned nil regexp")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify(%q) error = %v, want %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestCompiledPattern_FieldName(t *testing.T) {
	p := CompiledPattern{Fields: []GroupField{{Group: "cs_User_Agent", Field: "cs(User-Agent)"}}}

	if got := p.FieldName("cs_User_Agent"); got != "cs(User-Agent)" {
		t.Errorf("FieldName(cs_User_Agent) = %q, want %q", got, "cs(User-Agent)")
	}
	if got := p.FieldName("other"); got != "other" {
		t.Errorf("FieldName(other) = %q, want %q", got, "other")
	}
}

func TestGroupName(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"status", "status"},
		{"{X-Request-Id}i", "X_Request_Id_i"},
		{"cs(User-Agent)", "cs_User_Agent"},
		{"a b", "a_b"},
		{"---", "field"},
		{"", "field"},
		{"naïve", "na_ve"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := groupName(tt.field); got != tt.want {
				t.Errorf("groupName(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestBuilder_Literal(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"escapes metacharacters", []string{"1.2 [x]"}, `1\.2\s+\[x\]`},
		{"collapses whitespace runs", []string{"a  \t b"}, `a\s+b`},
		{"collapses across calls", []string{"a ", " ", " b"}, `a\s+b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &builder{}
			for _, p := range tt.parts {
				b.literal(p)
			}
			if got := b.String(); got != tt.want {
				t.Errorf("literal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilder_GroupResetsWhitespace(t *testing.T) {
	b := &builder{}
	b.literal(" ")
	b.group("a", `\S+`)
	b.literal(" ")

	want := `\s+(?P<a>\S+)\s+`
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(b.fields, []GroupField{{Group: "a", Field: "a"}}) {
		t.Errorf("fields = %v", b.fields)
	}
}
