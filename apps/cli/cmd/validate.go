package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/decorest/packages/core/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate API declaration files without calling anything",
	Long: `Validate declaration files against the declaration schema and check
that every operation can be registered.

Examples:
  decorest validate posts.yaml
  decorest validate apis/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	var firstErr error
	for _, file := range args {
		err := validateFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if firstErr != nil {
		return &reportedError{err: fmt.Errorf("validation failed: %w", firstErr)}
	}
	return nil
}

func validateFile(path string) error {
	decl, err := loadDeclaration(path, config.DefaultConfig())
	if err != nil {
		return err
	}
	if _, err := decl.Build(); err != nil {
		return err
	}
	_, err = decl.Authenticator()
	return err
}
