package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for decorest.

Once loaded, the shell completes declaration files and, for call and
stress, the operation names declared in the file:

  $ decorest call posts.yaml <TAB>
  create_post  delete_post  get_post  list_posts

Bash:
  $ source <(decorest completion bash)
  $ decorest completion bash > /etc/bash_completion.d/decorest

Zsh:
  $ decorest completion zsh > "${fpath[1]}/_decorest"

Fish:
  $ decorest completion fish > ~/.config/fish/completions/decorest.fish

PowerShell:
  PS> decorest completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completeOperation completes the declaration file first, then the names of
// its operations.
func completeOperation(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	case 1:
		return operationNames(args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// operationNames reads only the operation names, so files with unresolved
// variables still complete.
func operationNames(path, prefix string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var file struct {
		Operations []struct {
			Name   string `yaml:"name"`
			Method string `yaml:"method"`
			Path   string `yaml:"path"`
		} `yaml:"operations"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil
	}

	var names []string
	for _, op := range file.Operations {
		if op.Name == "" || !strings.HasPrefix(op.Name, prefix) {
			continue
		}
		names = append(names, op.Name+"\t"+strings.ToUpper(op.Method)+" "+op.Path)
	}
	return names
}
