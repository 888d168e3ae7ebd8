package cmd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/source"

	"github.com/spf13/cobra"
)

var (
	tailFilter   string
	tailNoFollow bool
	tailLines    int
)

var tailCmd = &cobra.Command{
	Use:   "tail <source> [@config]",
	Short: "Parse log entries from a source as they arrive",
	Long: `Follow a log source and run every entry through a saved configuration,
printing the captured fields. Entries that do not match are shown as-is.

The configuration is the second argument, the source itself when it is
@name, or default_config from ~/.skein/config.yaml.

Source URIs:
  cloudwatch:///log-group?profile=x&region=y   AWS CloudWatch Logs
  file:///path/to/file.log                     Local file
  /var/log/app.log                             Local file (shorthand)
  /var/log/app/*.log                           Local files (glob)
  @name                                        sample_from of a saved config

Examples:
  # Follow a local file with a saved nginx configuration
  skein tail /var/log/nginx/access.log @web

  # Parse the first 20 entries and stop
  skein tail @app --no-follow -n 20

  # Only entries mentioning errors, as JSON lines
  skein tail "cloudwatch:///app/prod?profile=prod" @app -f "error|exception" -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)

	tailCmd.Flags().StringVarP(&tailFilter, "filter", "f", "", "Only entries matching this regex (case-insensitive)")
	tailCmd.Flags().BoolVar(&tailNoFollow, "no-follow", false, "Read existing entries and exit")
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Entries to read with --no-follow")
}

func runTail(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	sourceURI := args[0]

	configArg := ""
	switch {
	case len(args) == 2:
		configArg = args[1]
	case strings.HasPrefix(sourceURI, "@"):
		configArg = sourceURI
	}
	c, err := resolveConfig(cmd, app, configArg)
	if err != nil {
		return err
	}
	if c.LogType() == logconfig.WindowsEvent {
		return fmt.Errorf("%s configurations describe structured events and cannot parse text entries", c.LogType())
	}
	if !c.Parsed() {
		app.Render.Warning("%s does not parse its sample: %v", c.Name(), c.ParseErr())
	}

	params := source.LinesParams{Start: logconfig.EntryStart(c)}
	if tailFilter != "" {
		params.Filter, err = regexp.Compile("(?i)" + tailFilter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	src, err := app.OpenSource(sourceURI)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	formatter, err := app.Formatter()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), app)
	defer cancel()

	if tailNoFollow {
		params.Limit = tailLines
		lines, err := src.Lines(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", sourceURI, err)
		}
		for _, l := range lines {
			if err := printEntry(ctx, app, formatter, c, l); err != nil {
				return err
			}
		}
		return nil
	}

	entries, err := src.Follow(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", sourceURI, err)
	}

	app.Render.Status("Tailing %s with %s (Ctrl+C to stop)...", sourceURI, c.Name())
	app.Render.Newline()

	for l := range entries {
		if err := printEntry(ctx, app, formatter, c, l); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(ctx context.Context, app *App, f *output.Formatter, c logconfig.Config, l source.Line) error {
	res, err := c.Match(ctx, app.Matcher, l.Text)
	if err != nil {
		app.Debugf("match failed at %s: %v", l.Origin, err)
	}
	return f.FormatEntry(output.NewEntry(l, res, err))
}
