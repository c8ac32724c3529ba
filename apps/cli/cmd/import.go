package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/decorest/packages/import/openapi"
	"github.com/spf13/cobra"
)

var (
	importOutFlag         string
	importEndpointFlag    string
	importTagsFlag        string
	importExcludeTagsFlag string
	importOperationsFlag  string
	importNoHandlersFlag  bool
)

var importCmd = &cobra.Command{
	Use:   "import <spec-file-or-url>",
	Short: "Generate a declaration from an OpenAPI specification",
	Long: `Generate a decorest declaration from an OpenAPI 3.0/3.1 specification file
or URL. Every operation becomes a declared operation with its path, query and
header parameters as params, and documented 4xx/5xx responses become error
handlers.

Examples:
  decorest import spec.yaml
  decorest import spec.yaml -O apis/petstore.yaml
  decorest import https://api.example.com/openapi.json
  decorest import spec.yaml --tags users,auth --endpoint http://localhost:3000
  decorest import spec.yaml --no-handlers`,
	Args: cobra.ExactArgs(1),
	RunE: importCommand,
}

func init() {
	importCmd.Flags().StringVarP(&importOutFlag, "out", "O", "", "Output file path (default: stdout)")
	importCmd.Flags().StringVar(&importEndpointFlag, "endpoint", "", "Override the base URL from the spec")
	importCmd.Flags().StringVar(&importTagsFlag, "tags", "", "Only import operations with these tags (comma-separated)")
	importCmd.Flags().StringVar(&importExcludeTagsFlag, "exclude-tags", "", "Skip operations with these tags (comma-separated)")
	importCmd.Flags().StringVar(&importOperationsFlag, "operations", "", "Only import these operation IDs (comma-separated)")
	importCmd.Flags().BoolVar(&importNoHandlersFlag, "no-handlers", false, "Don't generate error handlers from documented responses")

	rootCmd.AddCommand(importCmd)
}

func importCommand(cmd *cobra.Command, args []string) error {
	var opts []openapi.Option
	if importEndpointFlag != "" {
		opts = append(opts, openapi.WithEndpoint(importEndpointFlag))
	}
	if tags := splitList(importTagsFlag); len(tags) > 0 {
		opts = append(opts, openapi.WithTags(tags))
	}
	if tags := splitList(importExcludeTagsFlag); len(tags) > 0 {
		opts = append(opts, openapi.WithExcludeTags(tags))
	}
	if ops := splitList(importOperationsFlag); len(ops) > 0 {
		opts = append(opts, openapi.WithOperations(ops))
	}
	if importNoHandlersFlag {
		opts = append(opts, openapi.WithHandlers(false))
	}

	content, err := openapi.NewConverter(opts...).ConvertFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to convert OpenAPI spec: %w", err)
	}

	if importOutFlag == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	if dir := filepath.Dir(importOutFlag); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(importOutFlag, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported to %s\n", importOutFlag)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
