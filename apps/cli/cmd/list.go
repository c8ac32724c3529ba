package cmd

import (
	"github.com/abdul-hamid-achik/decorest/packages/core/config"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file>...",
	Short: "List the operations declared in API files",
	Long: `List the operations declared in one or more YAML declaration files,
with their method, path and params.

Examples:
  decorest list posts.yaml
  decorest list posts.yaml users.yaml -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	formatter := newFormatter(cmd.OutOrStdout())

	for _, file := range args {
		decl, err := loadDeclaration(file, config.DefaultConfig())
		if err != nil {
			return err
		}
		api, err := decl.Build()
		if err != nil {
			return err
		}
		formatter.FormatOperations(api)
	}

	return nil
}
