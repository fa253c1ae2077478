package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"coolc/codegen"
)

func newEmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit-ir [flags] file.cool",
		Short: "Type-check a COOL program and print its LLVM IR",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmit,
	}
	cmd.Flags().StringP("output", "o", "", "write the IR to this file instead of stdout")
	cmd.Flags().String("target", "", "target triple (default: [emit].target_triple)")
	return cmd
}

func runEmit(cmd *cobra.Command, args []string) error {
	c, err := compile(cmd, args[0])
	if err != nil {
		return err
	}

	triple, _ := cmd.Flags().GetString("target")
	if triple == "" {
		triple = c.settings.config.Emit.TargetTriple
	}

	c.settings.logger.Info("generating IR", "target", triple)
	module, err := codegen.NewCodeGenerator(c.analyzer.Registry(), triple).Generate(c.program)
	if err != nil {
		return errors.Wrap(err, "code generation failed")
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err := cmd.OutOrStdout().Write([]byte(module.String()))
		return err
	}
	if err := os.WriteFile(output, []byte(module.String()), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write IR to %s", output)
	}
	return nil
}
