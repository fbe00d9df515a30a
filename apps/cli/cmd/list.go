package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved collections and requests",
	Long: `List the collections and requests in the library.

Examples:
  hitdesk list
  hitdesk list -v
  hitdesk list --watch
  hitdesk list -o json`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

var listWatchFlag bool

func init() {
	listCmd.Flags().BoolVarP(&listWatchFlag, "watch", "w", false, "Print the library again whenever the file changes")
	listCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show request URLs")
}

func listCommand(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	console := consoleFor(cmd, a, verboseFlag)
	printDoc := func(doc *store.Document) error {
		if asJSON {
			return jsonFor(cmd).FormatDocument(doc)
		}
		console.FormatDocument(doc)
		return nil
	}

	doc, err := a.Document()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	if err := printDoc(doc); err != nil {
		return err
	}

	if !listWatchFlag {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	clearScreen := !asJSON && isTerminal(out)
	if !asJSON {
		fmt.Fprintf(out, "\nWatching %s for changes. Press Ctrl+C to stop.\n", a.Store().Path())
	}

	return a.Watch(ctx, func(doc *store.Document, err error) {
		if clearScreen {
			fmt.Fprint(out, "\033[H\033[2J")
		}
		if err != nil {
			console.FormatError(err)
			return
		}
		if err := printDoc(doc); err != nil {
			console.FormatError(err)
		}
	})
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
