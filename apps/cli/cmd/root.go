package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/app"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/config"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/output"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	envFileFlag string
	dataDirFlag string
	debugFlag   bool
	noColorFlag bool
	outputFlag  string
)

const defaultEnvFile = ".env"

var rootCmd = &cobra.Command{
	Use:   "hitdesk",
	Short: "A local HTTP request workbench.",
	Long: `hitdesk sends HTTP requests, keeps a library of saved requests and
collections in a JSON file, and records every execution.

Only one request runs at a time: starting a new one cancels the one in
flight. Use "hitdesk serve" to drive it from another program over a local
JSON API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := ExitUsageError
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		code = exitErr.code
		if exitErr.err == nil {
			return code
		}
	}

	newConsole(output.WithWriter(rootCmd.ErrOrStderr())).FormatError(err)
	return code
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("HITDESK_CONFIG", ""), "Path to config file (env: HITDESK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("HITDESK_ENV_FILE", defaultEnvFile), "Dotenv file exported before configuration is read (env: HITDESK_ENV_FILE)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory holding the library, history and logs (env: HITDESK_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging (env: HITDESK_DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITDESK_NO_COLOR", false), "Disable colored output (env: HITDESK_NO_COLOR)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("HITDESK_OUTPUT", "console"), "Output format: console, json (env: HITDESK_OUTPUT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return val == "yes"
		}
		return b
	}
	return defaultVal
}

// loadConfig resolves configuration from the config file, HITDESK_*
// variables and global flags, in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	overrides := &config.Config{DataDir: dataDirFlag}
	if cmd.Flags().Changed("debug") {
		overrides.Debug = config.BoolPtr(debugFlag)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return cfg, nil
}

// loadEnvFile exports the dotenv file. Only the default file may be absent.
func loadEnvFile() error {
	if envFileFlag == "" {
		return nil
	}
	vars, err := env.Load(envFileFlag)
	if err != nil {
		if envFileFlag == defaultEnvFile && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	env.Export(vars)
	return nil
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return a, nil
}

func jsonOutput() (bool, error) {
	switch outputFlag {
	case "", "console":
		return false, nil
	case "json":
		return true, nil
	}
	return false, usageError("unknown output format %q (want console or json)", outputFlag)
}

func newConsole(opts ...output.ConsoleOption) *output.ConsoleFormatter {
	return output.NewConsoleFormatter(append([]output.ConsoleOption{output.WithNoColor(noColorFlag)}, opts...)...)
}

func consoleFor(cmd *cobra.Command, a *app.App, verbose bool) *output.ConsoleFormatter {
	return newConsole(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(verbose),
		output.WithNoColor(a.Config().GetNoColor()))
}

func jsonFor(cmd *cobra.Command) *output.JSONFormatter {
	return output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout()))
}

// closeApp reports a failed Close on stderr; the command result stands.
func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

// storeFor opens the library without the rest of the application, for
// commands that must not create logs or history.
func storeFor(cfg *config.Config) *store.JSONStore {
	return store.NewJSONStore(cfg.DataDir, store.WithFileName(cfg.DataFile))
}
