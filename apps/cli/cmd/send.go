package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/capture"
	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var sendCmd = &cobra.Command{
	Use:   "send <request-id>",
	Short: "Send a saved request",
	Long: `Send a request from the library by id. Query and header parameters of the
saved request are applied and {{$NAME}} references are replaced from the
environment, including the --env-file. Use "hitdesk list" to find ids.

Examples:
  hitdesk send 5f0c2a1e-3b7d-4c55-9f57-1f0e2d3c4b5a
  hitdesk send 5f0c2a1e-3b7d-4c55-9f57-1f0e2d3c4b5a --select body.items.#.id`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRequestIDs,
	RunE:              sendCommand,
}

func init() {
	addResultFlags(sendCmd)
}

func sendCommand(cmd *cobra.Command, args []string) error {
	if selectFlag != "" {
		if _, err := capture.Parse(selectFlag); err != nil {
			return withExitCode(ExitUsageError, err)
		}
	}
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	spec, err := a.ResolveRequest(args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return withExitCode(ExitUsageError, err)
		}
		return withExitCode(ExitConfigError, err)
	}

	result := executeInterruptible(a, func(ctx context.Context) executor.Result {
		return a.Run(ctx, spec)
	})
	return printResult(cmd, a, spec, result, asJSON)
}
