package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coolc/ast"
)

func newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast file.cool",
		Short: "Print the type-annotated syntax tree of a COOL program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := compile(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ast.Print(c.program, c.analyzer.Registry().TypeName))
			return nil
		},
	}
}
