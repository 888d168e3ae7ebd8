package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize skein configuration",
	Long: `Create the default configuration file with commented examples.

Creates a platform-appropriate config file:
  Linux/macOS: ~/.skein/config.yaml
  Windows:     %USERPROFILE%\.skein\config.yaml

Examples:
  # Create default config (won't overwrite existing)
  skein init

  # Force overwrite existing config
  skein init --force`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	configPath := app.ConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to get home directory")
	}

	created, err := createFileIfNotExists(configPath, generateDefaultConfig(), initForce)
	if err != nil {
		return err
	}
	if !created {
		app.Render.Warning("%s already exists (use --force to overwrite)", configPath)
		return nil
	}

	app.Render.Success("Created %s", configPath)
	app.Render.Info("Save a configuration with: skein save <name> <type> ...")
	return nil
}

func generateDefaultConfig() string {
	sampleFrom := "/var/log/nginx/access.log"
	if runtime.GOOS == "windows" {
		sampleFrom = `C:\logs\access.log`
	}

	return fmt.Sprintf(`# skein configuration

# AWS settings for cloudwatch:// sample sources
# profile: my-aws-profile
# region: us-east-1

output:
  # text, json, yaml, csv
  format: text
  # auto, always, never
  color: auto

# Deadline for a single regex evaluation
match_timeout: 2s

# Configuration used by tail when none is named
# default_config: web

# Saved log configurations, referenced as @name
configs: {}
#  web:
#    log_type: Nginx
#    format: "log_format main '$remote_addr - $remote_user [$time_local] \"$request\" $status $body_bytes_sent';"
#    sample_from: %q
#  app:
#    log_type: MultiLineText
#    parser: JAVA_SPRING_BOOT
#    format: "%%d{yyyy-MM-dd HH:mm:ss.SSS} [%%thread] %%-5level %%logger - %%msg%%n"
#    sample_from: "cloudwatch:///app/prod?profile=prod&since=1h"
`, sampleFrom)
}

// createFileIfNotExists writes content to path and reports whether it did.
func createFileIfNotExists(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
