package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-cel/pkg/cel"
)

var parseCmd = &cobra.Command{
	Use:   "parse EXPRESSION",
	Short: "Parse a CEL expression and print its labeled tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env := cel.NewEnvironment()
		tree, err := env.Compile(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitErrorf(ExitParseError, "parsing failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), tree.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
