package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmurray2011/skein/internal/logconfig"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errInvalid is returned after validation errors have been printed.
var errInvalid = errors.New("configuration is invalid")

var validateWarnings bool

var validateCmd = &cobra.Command{
	Use:   "validate <@name|file.yaml>",
	Short: "Validate a saved or file-based configuration",
	Long: `Run every validation check on a configuration and list the failures by
field and key. Exits non-zero when the configuration is invalid.

A file holds one configuration in the saved form:

  log_type: MultiLineText
  parser: JAVA_SPRING_BOOT
  format: "%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger - %msg%n"
  sample_from: /var/log/app/app.log
  time_key: time

Error keys:
  name_required, log_type_required, syslog_parser_required,
  multiline_parser_required, iis_parser_required, format_required,
  format_invalid, format_non_latin, format_duplicated, regex_required,
  regex_invalid, sample_required, sample_invalid, sample_invalid_json,
  schema_empty, match_timeout, time_format_missing, time_key_unknown

Examples:
  skein validate @web
  skein validate ./configs/app.yaml -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateWarnings, "warnings", false, "Also check captured dates against their formats (time_format_mismatch)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	c, err := loadForValidation(cmd.Context(), app, args[0])
	if err != nil {
		return err
	}

	errs := logconfig.Validate(c)
	if validateWarnings {
		errs = append(errs, logconfig.CheckTimeValues(c)...)
	}

	f, err := app.Formatter()
	if err != nil {
		return err
	}
	if err := f.FormatErrors(configName(c), errs); err != nil {
		return err
	}
	if len(logconfig.Validate(c)) > 0 {
		return errInvalid
	}
	return nil
}

func loadForValidation(ctx context.Context, app *App, arg string) (logconfig.Config, error) {
	if strings.HasPrefix(arg, "@") {
		return loadSaved(ctx, app, arg[1:], configFlags{})
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return logconfig.Config{}, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	var rec logconfig.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return logconfig.Config{}, fmt.Errorf("failed to parse %s: %w", arg, err)
	}

	name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
	if rec.Sample == "" && rec.SampleFrom != "" {
		start := logconfig.EntryStart(logconfig.New().WithLogType(rec.LogType))
		sample, err := readSample(ctx, app, configFlags{sampleFrom: rec.SampleFrom}, start)
		if err != nil {
			return logconfig.Config{}, err
		}
		rec.Sample = sample
	}
	return rec.Restore(ctx, name, app.Matcher), nil
}
