package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/output"

	"github.com/spf13/cobra"
)

var (
	parseFlags configFlags
	parseWatch bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <type|auto|@name>",
	Short: "Parse a sample with a log format and infer its fields",
	Long: `Compile the format, match it against a sample entry and infer the type of
each captured field. The result is validated and every failed check is
listed by key.

The type may be "auto" to detect it from the sample, or @name to load a saved
configuration (sample flags then replace its stored sample).

Examples:
  # Nginx with an inline sample
  skein parse nginx --format "$(cat nginx.fmt)" \
    --sample '192.168.1.1 - - [10/Oct/2023:13:55:36 -0700] "GET / HTTP/1.1" 200 512'

  # Sample from the first entry of a file; detect the type
  skein parse auto --sample-from /var/log/syslog

  # Multi-line Java entry from CloudWatch
  skein parse multilinetext --parser JAVA_SPRING_BOOT --format-file logback.pattern \
    --sample-from "cloudwatch:///app/prod?profile=prod&since=1h"

  # Override inferred types
  skein parse regex --regex '^(?P<ts>\S+) (?P<ms>\d+)' --sample '2024-01-01T00:00:00 12' \
    --time-key ts --field ts=date:%Y-%m-%dT%H:%M:%S --field ms=long

  # Re-parse whenever the sample file changes
  skein parse @web --sample-from ./sample.log --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	addConfigFlags(parseCmd, &parseFlags, true)
	parseCmd.Flags().BoolVarP(&parseWatch, "watch", "w", false, "Re-parse when the --sample-from file changes")
}

func runParse(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	if !parseWatch {
		return parseOnce(cmd.Context(), app, args[0], parseFlags)
	}

	ctx, cancel := signalContext(cmd.Context(), app)
	defer cancel()

	path, err := watchPath(app, parseFlags.sampleFrom)
	if err != nil {
		return err
	}
	changes, err := local.WatchFile(ctx, path, local.DefaultDebounce)
	if err != nil {
		return err
	}

	if err := parseOnce(ctx, app, args[0], parseFlags); err != nil {
		app.Render.Error("%v", err)
	}
	app.Render.Status("Watching %s (Ctrl+C to stop)...", path)
	for range changes {
		app.Render.Divider()
		if err := parseOnce(ctx, app, args[0], parseFlags); err != nil {
			app.Render.Error("%v", err)
		}
	}
	return nil
}

func parseOnce(ctx context.Context, app *App, typeArg string, f configFlags) error {
	c, err := buildConfig(ctx, app, "", typeArg, f)
	if err != nil {
		return err
	}
	if c.Name() == "" {
		// parse reports on the pattern and sample, not on naming.
		c = c.WithName(configName(c))
	}
	c = c.Validate()

	formatter, err := app.Formatter()
	if err != nil {
		return err
	}
	return formatter.FormatReport(output.NewReport(c))
}

// watchPath resolves --sample-from to the single local file to watch.
func watchPath(app *App, uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("--watch needs --sample-from pointing at a local file")
	}
	src, err := app.OpenSource(uri)
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	ls, ok := src.(*local.Source)
	if !ok {
		return "", fmt.Errorf("--watch only works with local files, not %s", src.Type())
	}
	if files := ls.Files(); len(files) == 1 {
		return files[0], nil
	}
	return "", fmt.Errorf("--watch needs exactly one file, %s matches %d", uri, len(ls.Files()))
}

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(parent context.Context, app *App) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			app.Render.Status("\nStopping...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// configName is the display name of a configuration built from arguments.
func configName(c logconfig.Config) string {
	if c.Name() != "" {
		return c.Name()
	}
	return string(c.LogType())
}
