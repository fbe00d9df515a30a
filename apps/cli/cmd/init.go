package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize hitdesk in the current directory",
	Long: `Initialize hitdesk in the current directory.

This creates:
  - hitdesk.yaml        - Configuration file with the defaults
  - <dataDir>/api.json  - Empty request library

Examples:
  hitdesk init
  hitdesk init --data-dir .hitdesk
  hitdesk init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing hitdesk.yaml")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, "hitdesk.yaml")
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return usageError("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	cfg := config.DefaultConfig()
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	cfg.Headers = map[string]string{"User-Agent": "hitdesk/" + version}

	if err := cfg.SaveConfig(configFile); err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to create config file: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(cwd, dataDir)
		cfg.DataDir = dataDir
	}
	s := storeFor(cfg)
	if err := s.Bootstrap(); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Library: %s\n", s.Path())

	fmt.Fprintf(cmd.OutOrStdout(), "\nNext steps:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  hitdesk run GET https://httpbin.org/get\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  hitdesk serve\n")
	return nil
}
