package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jmurray2011/skein/internal/cloudwatch" // Register cloudwatch:// source
	_ "github.com/jmurray2011/skein/internal/local"      // Register file:// source
	"github.com/jmurray2011/skein/internal/match"
	"github.com/jmurray2011/skein/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	profile      string
	region       string
	outputFormat string
	cfgFile      string
	verbose      bool
	noColor      bool
	quiet        bool
	matchTimeout time.Duration

	// render is the global renderer for all output
	render *ui.Renderer
)

var rootCmd = &cobra.Command{
	Use:   "skein",
	Short: "Turn log format strings into regular expressions",
	Long: `skein - a length of thread wound loosely on a reel; skein untangles a log
format into the regular expression that parses it.

Compiles Nginx, Apache, syslog, Spring Boot, IIS and regex log formats into
named-group regular expressions, checks them against sample lines, infers
field types and validates the whole configuration.

Log types:
  JSON, Apache, Nginx, Syslog, MultiLineText, SingleLineText,
  WindowsEvent, IIS, Regex                         (see: skein types)

Sample sources:
  /var/log/nginx/access.log                        Local file (globs allowed)
  file:///var/log/app/*.log                        Local files
  cloudwatch:///log-group?profile=x&region=y       AWS CloudWatch Logs
  @name                                            sample_from of a saved config

Configuration:
  ~/.skein/config.yaml holds global settings and saved configurations:

    output:
      format: text      # text, json, yaml, csv
      color: auto
    match_timeout: 2s

    configs:
      web:
        log_type: Nginx
        format: log_format main '$remote_addr [$time_local] "$request" $status';
        sample_from: /var/log/nginx/access.log

Examples:
  # Compile an Nginx log_format
  skein compile nginx --format "$(grep -A2 log_format /etc/nginx/nginx.conf)"

  # Parse a sample line and show the inferred fields
  skein parse apache --format 'LogFormat "%h %l %u %t \"%r\" %>s %b" common' \
    --sample-from /var/log/apache2/access.log

  # Let skein guess the type
  skein parse auto --sample-from ./app.log

  # Save and validate
  skein save web nginx --format-file nginx.fmt --sample-from /var/log/nginx/access.log
  skein validate @web

  # Parse entries as they arrive
  skein tail /var/log/nginx/access.log @web`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig, initRenderer)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.skein/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Default AWS profile for cloudwatch:// samples (can be overridden in URI)")
	rootCmd.PersistentFlags().StringVarP(&region, "region", "r", "", "Default AWS region for cloudwatch:// samples (can be overridden in URI)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, yaml, csv")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress status messages")
	rootCmd.PersistentFlags().DurationVar(&matchTimeout, "timeout", 0, "Regex evaluation deadline per sample (default 2s)")

	// Bind flags to viper
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initRenderer initializes the global renderer with current settings.
func initRenderer() {
	render = ui.NewRendererWithOptions(
		ui.WithNoColor(colorDisabled()),
		ui.WithQuiet(quiet),
	)
}

// colorDisabled combines --no-color, NO_COLOR and output.color.
func colorDisabled() bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return true
	}
	return viper.GetString("output.color") == "never"
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

// Debugf prints a debug message if verbose mode is enabled
func Debugf(format string, args ...interface{}) {
	if IsVerbose() && render != nil {
		render.Debug(format, args...)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".skein"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("SKEIN")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("output.format", "text")
	viper.SetDefault("output.color", "auto")
	viper.SetDefault("match_timeout", match.DefaultTimeout.String())

	// Read config file (ignore if not found, warn on other errors)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}
}

// getProfile returns the AWS profile from flags or config.
func getProfile() string {
	if profile != "" {
		return profile
	}
	return viper.GetString("profile")
}

// getRegion returns the AWS region from flags or config.
func getRegion() string {
	if region != "" {
		return region
	}
	return viper.GetString("region")
}

// getOutputFormat returns the output format from flags or config.
func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output.format")
}

// getMatchTimeout returns the regex deadline from flags or config.
func getMatchTimeout() time.Duration {
	if matchTimeout > 0 {
		return matchTimeout
	}
	if d := viper.GetDuration("match_timeout"); d > 0 {
		return d
	}
	return match.DefaultTimeout
}
