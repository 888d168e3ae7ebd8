package cmd

import (
	"errors"
	"fmt"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/pattern"

	"github.com/spf13/cobra"
)

var compileFlags configFlags

var compileCmd = &cobra.Command{
	Use:   "compile <type|@name>",
	Short: "Compile a log format into a regular expression",
	Long: `Translate a log format description into a regular expression with one
named group per field. No sample is needed.

Examples:
  # Nginx log_format
  skein compile nginx --format 'log_format main '\''$remote_addr [$time_local] "$request" $status'\'';'

  # Spring Boot / logback layout
  skein compile multilinetext --parser JAVA_SPRING_BOOT \
    --format '%d{yyyy-MM-dd HH:mm:ss.SSS} [%thread] %-5level %logger{36} - %msg%n'

  # Fixed syslog layout
  skein compile syslog --parser RFC5424

  # Regex with grok patterns
  skein compile regex --regex '%{IP:client} %{WORD:method} %{NUMBER:status}'

  # Print only the regex
  skein compile @web -o text --quiet`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	addConfigFlags(compileCmd, &compileFlags, false)
}

func runCompile(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	c, err := buildConfig(cmd.Context(), app, "", args[0], compileFlags)
	if err != nil {
		return err
	}
	if err := compileError(c); err != nil {
		return err
	}
	return printPattern(app, c.Pattern())
}

// compileError reports a pattern that failed to compile. Sample failures are
// not compile errors.
func compileError(c logconfig.Config) error {
	if _, err := c.Template(); errors.Is(err, logconfig.ErrNoTemplate) {
		return fmt.Errorf("%s logs are not parsed with a regex", c.LogType())
	}
	if c.Pattern().Valid() {
		return nil
	}
	err := c.ParseErr()
	switch {
	case err == nil:
		return fmt.Errorf("%s does not compile to a regex", c.LogType())
	case errors.Is(err, logconfig.ErrParserRequired):
		return skerrors.MissingFlagError("--parser", fmt.Sprintf("%s has sub-parsers", c.LogType()), subParserNames(c.LogType()))
	case errors.Is(err, pattern.ErrDuplicateGroupName):
		return err
	}
	return skerrors.InvalidFormatError(string(c.LogType()), err)
}

func printPattern(app *App, p pattern.CompiledPattern) error {
	f, err := app.Formatter()
	if err != nil {
		return err
	}
	if f.Format() != output.FormatText {
		return f.FormatPattern(p)
	}

	if app.Config.Quiet {
		app.Render.Info("%s", p.Regex)
		return nil
	}
	app.Render.Regex(p.Regex)
	return f.FormatPattern(p)
}
