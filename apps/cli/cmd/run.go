package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/app"
	"github.com/abdul-hamid-achik/hitdesk/packages/capture"
	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
)

var runCmd = &cobra.Command{
	Use:   "run <METHOD> <URL>",
	Short: "Send a one-off request",
	Long: `Send a single HTTP request and print the result.

The response body is parsed as JSON. Press Ctrl+C to cancel the request.

Examples:
  hitdesk run GET https://api.example.com/users
  hitdesk run POST https://api.example.com/users -H "Content-Type: application/json" -d '{"name":"ada"}'
  hitdesk run POST https://api.example.com/users -d @user.json
  hitdesk run GET https://api.example.com/users/1 --select body.name`,
	Args: cobra.ExactArgs(2),
	RunE: runCommand,
}

var (
	headerFlags []string
	dataFlag    string
	selectFlag  string
	verboseFlag bool
)

func init() {
	runCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, `Request header "Key: Value" (repeatable)`)
	runCmd.Flags().StringVarP(&dataFlag, "data", "d", "", "Request body, or @file to read it from a file")
	addResultFlags(runCmd)
}

// addResultFlags registers the flags shared by commands that print a result.
func addResultFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&selectFlag, "select", "", "Print only this part of the result: status, kind or body.<path>")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print the request before the result")
}

// parseHeader splits "Key: Value". Only the first colon separates.
func parseHeader(raw string) (http.Header, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return http.Header{}, fmt.Errorf("invalid header %q (want \"Key: Value\")", raw)
	}
	return http.Header{Key: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])}, nil
}

func readBody(data string) (*string, error) {
	if data == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(data, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		body := string(content)
		return &body, nil
	}
	return &data, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	method, ok := executor.ParseMethod(args[0])
	if !ok {
		return usageError("unsupported method %q (want GET, POST, PUT, PATCH or DELETE)", args[0])
	}
	if err := http.ValidateURL(args[1]); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	spec := executor.RequestSpec{Method: string(method), URL: args[1]}
	for _, raw := range headerFlags {
		h, err := parseHeader(raw)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		spec.Headers = append(spec.Headers, h)
	}
	body, err := readBody(dataFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	spec.Body = body

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

	result := executeInterruptible(a, func(ctx context.Context) executor.Result {
		return a.Run(ctx, spec)
	})
	return printResult(cmd, a, spec, result, asJSON)
}

// executeInterruptible runs fn and turns SIGINT/SIGTERM into a Controller
// cancel for as long as fn runs.
func executeInterruptible(a *app.App, fn func(ctx context.Context) executor.Result) executor.Result {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runInterruptible(sigCh, a.Cancel, fn)
}

// runInterruptible calls cancel for every value on sigCh until fn returns.
// The first signal also cancels the context passed to fn, so a signal that
// arrives before the execution occupies the slot still stops it.
func runInterruptible(sigCh <-chan os.Signal, cancel func() error, fn func(ctx context.Context) executor.Result) executor.Result {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	done := make(chan struct{})
	exited := make(chan struct{})
	defer func() {
		close(done)
		<-exited
	}()

	go func() {
		defer close(exited)
		for {
			select {
			case <-sigCh:
				stop()
				_ = cancel()
			case <-done:
				return
			}
		}
	}()

	return fn(ctx)
}

func printResult(cmd *cobra.Command, a *app.App, spec executor.RequestSpec, result executor.Result, asJSON bool) error {
	console := consoleFor(cmd, a, verboseFlag)

	if selectFlag != "" && result.IsSuccess() {
		value, err := capture.Select(result, selectFlag)
		if err != nil {
			return withExitCode(ExitFailure, err)
		}
		if asJSON {
			if err := jsonFor(cmd).FormatValue(value); err != nil {
				return err
			}
		} else {
			console.FormatValue(value)
		}
		return resultExit(result)
	}

	if asJSON {
		var req *executor.RequestSpec
		if verboseFlag {
			req = &spec
		}
		if err := jsonFor(cmd).FormatResult(req, result); err != nil {
			return err
		}
		return resultExit(result)
	}

	if verboseFlag {
		console.FormatRequest(spec)
	}
	console.FormatResult(result)
	return resultExit(result)
}

// resultExit maps a result kind to the process exit code.
func resultExit(result executor.Result) error {
	switch result.Kind {
	case executor.KindSuccess:
		return nil
	case executor.KindHTTPError:
		return silentExit(ExitFailure)
	case executor.KindTransportError:
		return silentExit(ExitTransportError)
	case executor.KindCancelled:
		return silentExit(ExitCancelled)
	}
	return silentExit(ExitFailure)
}
