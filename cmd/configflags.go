package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/infer"
	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/source"

	"github.com/spf13/cobra"
)

// detectLines is how many sample lines `auto` inspects.
const detectLines = 10

// configFlags are the flags shared by compile, parse and save.
type configFlags struct {
	parser     string
	format     string
	formatFile string
	regex      string
	regexFile  string
	sample     string
	sampleFrom string
	timeKey    string
	fields     []string
}

// addConfigFlags registers the configuration flags on cmd.
func addConfigFlags(cmd *cobra.Command, f *configFlags, withSample bool) {
	cmd.Flags().StringVar(&f.parser, "parser", "", "Sub-parser: RFC5424, RFC3164, CUSTOM, JAVA_SPRING_BOOT, IIS, NCSA, W3C")
	cmd.Flags().StringVar(&f.format, "format", "", "Format string (log_format, LogFormat, rsyslog template, logback pattern, #Fields line)")
	cmd.Flags().StringVar(&f.formatFile, "format-file", "", "Read the format string from a file")
	cmd.Flags().StringVar(&f.regex, "regex", "", "Regex with named groups; %{GROK} patterns are expanded")
	cmd.Flags().StringVar(&f.regexFile, "regex-file", "", "Read the regex from a file")
	if !withSample {
		return
	}
	cmd.Flags().StringVar(&f.sample, "sample", "", "Sample log entry")
	cmd.Flags().StringVar(&f.sampleFrom, "sample-from", "", "Read the sample from a source (path, glob, file://, cloudwatch://, @name)")
	cmd.Flags().StringVar(&f.timeKey, "time-key", "", "Field holding the event timestamp")
	cmd.Flags().StringArrayVar(&f.fields, "field", nil, "Override a field: key=type or key=date:<strftime>")
}

// buildConfig assembles a configuration from the type argument and flags.
// typeArg is a log type name, "auto", or @name for a saved configuration.
func buildConfig(ctx context.Context, app *App, name, typeArg string, f configFlags) (logconfig.Config, error) {
	if strings.HasPrefix(typeArg, "@") {
		return loadSaved(ctx, app, typeArg[1:], f)
	}

	format, err := flagOrFile(f.format, f.formatFile, "--format")
	if err != nil {
		return logconfig.Config{}, err
	}
	regex, err := flagOrFile(f.regex, f.regexFile, "--regex")
	if err != nil {
		return logconfig.Config{}, err
	}

	c := logconfig.New().WithName(name)
	if strings.EqualFold(typeArg, "auto") {
		c, err = detectConfig(ctx, app, c, f)
		if err != nil {
			return logconfig.Config{}, err
		}
	} else {
		c, err = typedConfig(c, typeArg, f.parser)
		if err != nil {
			return logconfig.Config{}, err
		}
		sample, err := readSample(ctx, app, f, logconfig.EntryStart(c))
		if err != nil {
			return logconfig.Config{}, err
		}
		if sample != "" {
			c = c.WithSample(sample)
		}
	}

	if format != "" {
		c = c.WithFormat(format)
	}
	if regex != "" {
		c = c.WithRegex(regex)
	}

	c = c.Parse(ctx, app.Matcher)
	return applyFieldFlags(c, f)
}

func typedConfig(c logconfig.Config, typeArg, parser string) (logconfig.Config, error) {
	t, err := logconfig.ParseLogType(typeArg)
	if err != nil {
		return c, skerrors.UnknownLogTypeError(typeArg, logTypeNames())
	}
	c = c.WithLogType(t)

	if parser == "" {
		return c, nil
	}
	sp, err := logconfig.ParseSubParser(t, parser)
	if err != nil {
		return c, skerrors.UnknownParserError(string(t), parser, subParserNames(t))
	}
	return c.WithSubParser(sp), nil
}

// detectConfig reads sample lines and picks the log type from them.
func detectConfig(ctx context.Context, app *App, c logconfig.Config, f configFlags) (logconfig.Config, error) {
	lines, err := sampleLines(ctx, app, f, detectLines)
	if err != nil {
		return c, err
	}
	if len(lines) == 0 {
		return c, skerrors.MissingFlagError("--sample or --sample-from", "auto needs a sample to inspect",
			[]string{"skein parse auto --sample-from /var/log/app.log"})
	}

	texts := source.Texts(lines)
	d, ok := logconfig.Detect(texts)
	if !ok {
		return c, fmt.Errorf("could not detect the log type of %q; name it instead (see: skein types)", texts[0])
	}
	app.Render.Status("Detected %s %s", d.LogType, d.Parser)

	c = c.WithLogType(d.LogType).WithSubParser(d.Parser)
	if d.Format != "" && f.format == "" && f.formatFile == "" {
		c = c.WithFormat(d.Format)
	}

	// Re-join the lines now that the entry boundary is known.
	joiner := source.NewJoiner(logconfig.EntryStart(c))
	for _, l := range lines {
		if entry, ok := joiner.Add(l); ok {
			return c.WithSample(entry.Text), nil
		}
	}
	if entry, ok := joiner.Flush(); ok {
		c = c.WithSample(entry.Text)
	}
	return c, nil
}

// readSample returns the --sample text or the first entry of --sample-from.
func readSample(ctx context.Context, app *App, f configFlags, start *regexp.Regexp) (string, error) {
	if f.sample != "" {
		return unescapeSample(f.sample), nil
	}
	if f.sampleFrom == "" {
		return "", nil
	}

	lines, err := readLines(ctx, app, f.sampleFrom, source.LinesParams{Limit: 1, Start: start})
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("no sample lines in %s", f.sampleFrom)
	}
	return lines[0].Text, nil
}

// sampleLines returns up to n physical lines of the sample.
func sampleLines(ctx context.Context, app *App, f configFlags, n int) ([]source.Line, error) {
	if f.sample != "" {
		var lines []source.Line
		for _, text := range strings.Split(unescapeSample(f.sample), "\n") {
			lines = append(lines, source.Line{Text: text})
		}
		return lines, nil
	}
	if f.sampleFrom == "" {
		return nil, nil
	}
	return readLines(ctx, app, f.sampleFrom, source.LinesParams{Limit: n})
}

func readLines(ctx context.Context, app *App, uri string, params source.LinesParams) ([]source.Line, error) {
	src, err := app.OpenSource(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample source: %w", err)
	}
	defer func() { _ = src.Close() }()

	app.Render.Status("Reading sample from %s...", uri)
	lines, err := src.Lines(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	app.Debugf("read %d entries from %s (%s)", len(lines), uri, src.Type())
	return lines, nil
}

// unescapeSample turns a literal \n or \t typed on the command line into the
// character, so multi-line samples can be passed with --sample.
func unescapeSample(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}

// flagOrFile returns the flag value or the trimmed content of the file.
func flagOrFile(value, path, flag string) (string, error) {
	if value != "" && path != "" {
		return "", fmt.Errorf("use either %s or %s-file, not both", flag, flag)
	}
	if path == "" {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s-file: %w", flag, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// applyFieldFlags applies --time-key and --field overrides.
func applyFieldFlags(c logconfig.Config, f configFlags) (logconfig.Config, error) {
	for _, spec := range f.fields {
		key, tag, format, err := parseFieldFlag(spec)
		if err != nil {
			return c, err
		}
		c = c.WithFieldType(key, tag)
		if format != "" {
			c = c.WithFieldFormat(key, format)
		}
	}
	if f.timeKey != "" {
		c = c.WithTimeKey(f.timeKey)
	}
	return c, nil
}

// parseFieldFlag splits key=type or key=date:<format>.
func parseFieldFlag(spec string) (key string, tag infer.TypeTag, format string, err error) {
	key, value, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", "", fmt.Errorf("invalid --field %q: expected key=type", spec)
	}
	typeName, format, _ := strings.Cut(value, ":")
	tag, ok = infer.ParseTypeTag(typeName)
	if !ok {
		return "", "", "", fmt.Errorf("invalid --field %q: unknown type %q (use %s)", spec, typeName, typeTagNames())
	}
	if format != "" && tag != infer.Date {
		return "", "", "", fmt.Errorf("invalid --field %q: only date fields take a format", spec)
	}
	return strings.TrimSpace(key), tag, format, nil
}

// loadSaved restores a saved configuration. Sample flags replace the stored
// sample.
func loadSaved(ctx context.Context, app *App, name string, f configFlags) (logconfig.Config, error) {
	cfg, err := app.LoadConfigs()
	if err != nil {
		return logconfig.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	rec, ok := cfg.Configs[name]
	if !ok {
		return logconfig.Config{}, skerrors.ConfigNotFoundError(name, cfg.Names())
	}

	if f.sample != "" || f.sampleFrom != "" {
		rec.Sample = ""
	}
	if rec.Sample == "" && f.sample == "" && f.sampleFrom == "" && rec.SampleFrom != "" {
		f.sampleFrom = rec.SampleFrom
	}
	if rec.Sample == "" {
		start := logconfig.EntryStart(logconfig.New().WithLogType(rec.LogType))
		sample, err := readSample(ctx, app, f, start)
		if err != nil {
			return logconfig.Config{}, err
		}
		rec.Sample = sample
	}

	c := rec.Restore(ctx, name, app.Matcher)
	return applyFieldFlags(c, f)
}

func logTypeNames() []string {
	names := make([]string, len(logconfig.LogTypes))
	for i, t := range logconfig.LogTypes {
		names[i] = string(t)
	}
	return names
}

func subParserNames(t logconfig.LogType) []string {
	var names []string
	for _, sp := range logconfig.SubParsers(t) {
		names = append(names, string(sp))
	}
	return names
}

func typeTagNames() string {
	names := make([]string, len(infer.TypeTags))
	for i, t := range infer.TypeTags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
