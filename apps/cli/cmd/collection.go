package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
}

var collectionAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an empty collection",
	Long: `Create an empty collection and print its id.

Examples:
  hitdesk collection add Users`,
	Args: cobra.ExactArgs(1),
	RunE: collectionAddCommand,
}

func init() {
	collectionCmd.AddCommand(collectionAddCmd)
}

func collectionAddCommand(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	c, err := a.AddCollection(args[0])
	if err != nil {
		return err
	}

	if asJSON {
		return jsonFor(cmd).FormatValue(c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created collection %q: %s\n", c.Name, c.ID)
	return nil
}
