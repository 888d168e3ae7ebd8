package cmd

import (
	"github.com/jmurray2011/skein/internal/output"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported log types and their sub-parsers",
	Long: `List every log type, the sub-parsers it accepts (--parser) and what it
needs to be parsed: a format string, a regex, a sample, or nothing.

Examples:
  skein types
  skein types -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := GetApp(cmd).Formatter()
		if err != nil {
			return err
		}
		return f.FormatTypes(output.TypeSummaries())
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
