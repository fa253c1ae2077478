package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"coolc/lexer"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens file.cool",
		Short: "Print the token stream of a COOL source file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokens,
	}
}

func runTokens(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", args[0])
	}
	defer f.Close()

	var lexErrors []string
	for _, tok := range lexer.Tokenize(f) {
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		if tok.Type == lexer.ERROR {
			lexErrors = append(lexErrors, fmt.Sprintf("line %d:%d: %s", tok.Line, tok.Column, tok.Literal))
		}
	}
	if len(lexErrors) > 0 {
		s.reporter.report("lexical", lexErrors)
		return errCompilationFailed
	}
	return nil
}
