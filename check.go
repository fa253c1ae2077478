package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"coolc/semant"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] file.cool",
		Short: "Parse and type-check a COOL program",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().String("types-out", "", "write the class and method signatures to this msgpack file")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	c, err := compile(cmd, args[0])
	if err != nil {
		return err
	}

	typesOut, err := cmd.Flags().GetString("types-out")
	if err != nil {
		return errors.Wrap(err, "failed to get types-out flag")
	}
	if typesOut != "" {
		if err := writeSignatures(typesOut, c.analyzer.Registry()); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d classes)\n", args[0], len(c.program.Classes))
	return nil
}

func writeSignatures(path string, reg *semant.ClassRegistry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()
	if err := semant.WriteSignatures(f, reg.Signatures()); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
