package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// appContextKey is the context key for the App instance.
type appContextKey struct{}

// Config holds the global settings resolved from flags, environment and the
// config file.
type Config struct {
	Profile      string
	Region       string
	OutputFormat string
	ConfigFile   string
	Verbose      bool
	NoColor      bool
	Quiet        bool
	MatchTimeout time.Duration
}

// App holds the application dependencies that can be injected for testing.
type App struct {
	Config  Config
	Render  *ui.Renderer
	Logger  logging.Logger
	Matcher *match.Matcher
	Out     io.Writer
}

// NewApp creates a new App with default configuration from viper.
func NewApp() *App {
	cfg := Config{
		Profile:      getProfile(),
		Region:       getRegion(),
		OutputFormat: getOutputFormat(),
		ConfigFile:   cfgFile,
		Verbose:      IsVerbose(),
		NoColor:      colorDisabled(),
		Quiet:        quiet,
		MatchTimeout: getMatchTimeout(),
	}
	renderer := render
	if renderer == nil {
		renderer = ui.NewRendererWithOptions(ui.WithNoColor(cfg.NoColor), ui.WithQuiet(cfg.Quiet))
	}
	return NewAppWithConfig(cfg, renderer, os.Stdout)
}

// NewAppWithConfig creates a new App with the given configuration.
// This is primarily used for testing.
func NewAppWithConfig(cfg Config, renderer *ui.Renderer, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	if renderer == nil {
		renderer = ui.NewRendererWithOptions(ui.WithOutput(out), ui.WithNoColor(cfg.NoColor), ui.WithQuiet(cfg.Quiet))
	}

	logger := logging.New()
	if cfg.Verbose {
		logger.SetLevel(logging.LevelDebug)
	} else {
		logger.SetLevel(logging.LevelWarn)
	}

	timeout := cfg.MatchTimeout
	if timeout <= 0 {
		timeout = match.DefaultTimeout
	}

	return &App{
		Config:  cfg,
		Render:  renderer,
		Logger:  logger,
		Matcher: match.New(match.WithTimeout(timeout), match.WithLogger(logger)),
		Out:     out,
	}
}

// GetApp retrieves the App from the command context.
// If no App is set, it creates a new default one.
func GetApp(cmd *cobra.Command) *App {
	if ctx := cmd.Context(); ctx != nil {
		if app, ok := ctx.Value(appContextKey{}).(*App); ok {
			return app
		}
	}
	return NewApp()
}

// SetApp stores the App in the context for a command.
func SetApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// Debugf prints a debug message if verbose mode is enabled.
// This is a method on App to allow per-instance verbose control.
func (a *App) Debugf(format string, args ...interface{}) {
	if a.Config.Verbose || viper.GetBool("verbose") {
		a.Render.Debug(format, args...)
	}
}

// GetProfile returns the profile from Config or viper.
func (a *App) GetProfile() string {
	if a.Config.Profile != "" {
		return a.Config.Profile
	}
	return viper.GetString("profile")
}

// GetRegion returns the region from Config or viper.
func (a *App) GetRegion() string {
	if a.Config.Region != "" {
		return a.Config.Region
	}
	return viper.GetString("region")
}

// GetOutputFormat returns the output format from Config or viper.
func (a *App) GetOutputFormat() string {
	if a.Config.OutputFormat != "" {
		return a.Config.OutputFormat
	}
	if f := viper.GetString("output.format"); f != "" {
		return f
	}
	return string(output.FormatText)
}

// Formatter returns a formatter for the configured output format.
func (a *App) Formatter() (*output.Formatter, error) {
	format, err := output.ParseFormat(a.GetOutputFormat())
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(string(format), a.Out, ui.WithNoColor(a.Config.NoColor), ui.WithQuiet(a.Config.Quiet)), nil
}

// ConfigPath returns the file holding saved configurations.
func (a *App) ConfigPath() string {
	if a.Config.ConfigFile != "" {
		return a.Config.ConfigFile
	}
	return source.ConfigPath()
}

// LoadConfigs reads the saved configurations.
func (a *App) LoadConfigs() (*source.Config, error) {
	return source.LoadConfigFile(a.ConfigPath())
}

// SaveConfigs writes the saved configurations back.
func (a *App) SaveConfigs(cfg *source.Config) error {
	path := a.ConfigPath()
	if path == "" {
		return os.ErrNotExist
	}
	return source.SaveConfigFile(path, cfg)
}

// OpenSource opens a sample source, resolving @name against the saved
// configurations.
func (a *App) OpenSource(uri string) (source.Source, error) {
	opts := source.OpenOptions{
		Profile: a.GetProfile(),
		Region:  a.GetRegion(),
	}
	if len(uri) > 0 && uri[0] == '@' {
		cfg, err := a.LoadConfigs()
		if err != nil {
			return nil, err
		}
		opts.Config = cfg
	}
	return source.OpenWithOptions(uri, opts)
}
