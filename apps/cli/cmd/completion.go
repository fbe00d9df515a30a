package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for hitdesk.

Bash:
  $ source <(hitdesk completion bash)

Zsh:
  $ hitdesk completion zsh > "${fpath[1]}/_hitdesk"

Fish:
  $ hitdesk completion fish | source

PowerShell:
  PS> hitdesk completion powershell | Out-String | Invoke-Expression

Saved request ids complete for "hitdesk send" and "hitdesk request update".
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
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

// completeRequestIDs offers saved request ids with their names as descriptions.
func completeRequestIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	doc, err := storeFor(cfg).Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var ids []string
	for _, c := range doc.Collections {
		for _, r := range c.APIs {
			ids = append(ids, r.ID+"\t"+c.Name+" / "+r.Name)
		}
	}
	for _, r := range doc.APIs {
		ids = append(ids, r.ID+"\t"+r.Name)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
