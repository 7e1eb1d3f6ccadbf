package main

import (
	"os"

	"github.com/deriveq/deriveq/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "deriveq [subcommand]",
	Short:        "deriveq\n derive structural hashing and equality for record types",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.GenerateCmd)
	rootCmd.AddCommand(cmd.SeedCmd)
}
