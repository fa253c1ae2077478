package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// newRootCmd builds the coolc command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "coolc",
		Short:         "COOL compiler front end",
		Long:          `coolc checks COOL programs and lowers the supported subset to LLVM IR`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newASTCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newEmitCmd())
	root.AddCommand(newTokensCmd())
	root.AddCommand(newVersionCmd())

	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("verbose", false, "log compiler phases to stderr")
	root.PersistentFlags().String("config", "", "path to coolc.toml (default: search upwards from the source file)")
	root.PersistentFlags().Int("jobs", 0, "classes checked concurrently (0: from config, then GOMAXPROCS)")
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCompilationFailed) {
			fmt.Fprintln(os.Stderr, "coolc:", err)
		}
		os.Exit(1)
	}
}
