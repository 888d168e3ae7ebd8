package cmd

import (
	"fmt"
	"strings"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/logconfig"
	"github.com/jmurray2011/skein/internal/output"

	"github.com/spf13/cobra"
)

var (
	saveFlags   configFlags
	saveForce   bool
	saveDefault bool
)

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "List saved configurations",
	Long: `List the log configurations saved in ~/.skein/config.yaml.

Saved configurations are referenced as @name by parse, validate, tail and
as sample sources.

Examples:
  skein configs
  skein configs show web
  skein configs delete web`,
	Args: cobra.NoArgs,
	RunE: runConfigs,
}

var configsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved configuration with its regex and fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigsShow,
}

var configsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigsDelete,
}

var saveCmd = &cobra.Command{
	Use:   "save <name> <type|auto>",
	Short: "Build, validate and save a configuration",
	Long: `Build a configuration from flags, validate it and store it under a name.
Invalid configurations are refused unless --force is given.

The --sample-from source is stored too, so later commands can re-read a
fresh sample.

Examples:
  skein save web nginx --format-file nginx.fmt --sample-from /var/log/nginx/access.log
  skein save app auto --sample-from "cloudwatch:///app/prod?profile=prod" --default
  skein save sys syslog --parser RFC3164 --sample 'Oct 11 22:14:15 host su: failed'`,
	Args: cobra.ExactArgs(2),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(configsCmd)
	rootCmd.AddCommand(saveCmd)
	configsCmd.AddCommand(configsShowCmd)
	configsCmd.AddCommand(configsDeleteCmd)

	addConfigFlags(saveCmd, &saveFlags, true)
	saveCmd.Flags().BoolVar(&saveForce, "force", false, "Save even when validation fails")
	saveCmd.Flags().BoolVar(&saveDefault, "default", false, "Make this the default configuration for tail")
}

func runConfigs(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	cfg, err := app.LoadConfigs()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	f, err := app.Formatter()
	if err != nil {
		return err
	}
	return f.FormatConfigs(output.Summaries(cfg))
}

func runConfigsShow(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	c, err := loadSaved(cmd.Context(), app, strings.TrimPrefix(args[0], "@"), configFlags{})
	if err != nil {
		return err
	}
	f, err := app.Formatter()
	if err != nil {
		return err
	}
	return f.FormatReport(output.NewReport(c.Validate()))
}

func runConfigsDelete(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	name := strings.TrimPrefix(args[0], "@")

	cfg, err := app.LoadConfigs()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, ok := cfg.Configs[name]; !ok {
		return skerrors.ConfigNotFoundError(name, cfg.Names())
	}
	delete(cfg.Configs, name)
	if cfg.DefaultConfig == name {
		cfg.DefaultConfig = ""
	}
	if err := app.SaveConfigs(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	app.Render.Success("Deleted %s", name)
	return nil
}

func runSave(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	return saveConfig(cmd, app, args[0], args[1], saveFlags)
}

func saveConfig(cmd *cobra.Command, app *App, name, typeArg string, f configFlags) error {
	name = strings.TrimPrefix(name, "@")
	if strings.HasPrefix(typeArg, "@") {
		return fmt.Errorf("save builds a new configuration; use a log type or auto, not %s", typeArg)
	}
	if strings.HasPrefix(f.sampleFrom, "@") {
		return fmt.Errorf("--sample-from for a saved configuration cannot reference another configuration")
	}

	c, err := buildConfig(cmd.Context(), app, name, typeArg, f)
	if err != nil {
		return err
	}
	c = c.Validate()

	if !c.Valid() {
		formatter, err := app.Formatter()
		if err != nil {
			return err
		}
		if err := formatter.FormatErrors(name, c.Errors()); err != nil {
			return err
		}
		if !saveForce {
			return fmt.Errorf("%w (use --force to save anyway)", errInvalid)
		}
	}

	cfg, err := app.LoadConfigs()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	rec := c.Record()
	rec.SampleFrom = f.sampleFrom
	if rec.SampleFrom != "" {
		// The sample is re-read from the source when the config is used.
		rec.Sample = ""
	}
	cfg.Configs[name] = rec
	if saveDefault {
		cfg.DefaultConfig = name
	}
	if err := app.SaveConfigs(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	app.Render.Success("Saved %s (%s, %d fields) to %s", name, c.LogType(), len(rec.Fields), app.ConfigPath())
	return nil
}

// resolveConfig loads @name, or the default configuration when arg is empty.
func resolveConfig(cmd *cobra.Command, app *App, arg string) (logconfig.Config, error) {
	name := strings.TrimPrefix(arg, "@")
	if name == "" {
		cfg, err := app.LoadConfigs()
		if err != nil {
			return logconfig.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.DefaultConfig == "" {
			return logconfig.Config{}, skerrors.MissingFlagError("a configuration", "no default_config is set",
				[]string{"skein tail /var/log/app.log @web", "skein save web nginx ... --default"})
		}
		name = cfg.DefaultConfig
	}
	return loadSaved(cmd.Context(), app, name, configFlags{})
}
