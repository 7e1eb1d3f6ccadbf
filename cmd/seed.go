package cmd

import (
	"fmt"

	"github.com/deriveq/deriveq/loader"
	"github.com/deriveq/deriveq/typeexpr"
	"github.com/spf13/cobra"
)

var SeedCmd = &cobra.Command{
	Use:          "seed 'TypeExpression'",
	Short:        "Print the identity seed of a type expression",
	Long:         "Parses a Go type expression and prints its canonical form and its identity seed, the value mixed into generated hashes when type parameterization is significant.",
	RunE:         runSeed,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

func runSeed(cmd *cobra.Command, args []string) error {
	t, err := loader.TypeFromSource(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%#016x\n", t, typeexpr.SeedOf(t))
	return nil
}
