package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coolc/ast"
	"coolc/config"
	"coolc/lexer"
	"coolc/parser"
	"coolc/semant"
)

// errCompilationFailed is returned after diagnostics have been printed.
var errCompilationFailed = errors.New("compilation failed")

// settings merges persistent flags over the project configuration.
type settings struct {
	config     config.Config
	configPath string
	jobs       int
	logger     *slog.Logger
	reporter   *reporter
}

func loadSettings(cmd *cobra.Command, sourcePath string) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	configFlag, err := flags.GetString("config")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get config flag")
	}
	cfg, used, err := config.Resolve(configFlag, filepath.Dir(sourcePath))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}

	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get jobs flag")
	}
	if jobs == 0 {
		jobs = cfg.Check.Jobs
	}

	verbose, _ := flags.GetBool("verbose")
	logger := slog.New(slog.DiscardHandler)
	if verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger.Debug("configuration", "path", used, "jobs", jobs)

	colorFlag, _ := flags.GetString("color")
	useColor, err := colorEnabled(colorFlag, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &settings{
		config:     cfg,
		configPath: used,
		jobs:       jobs,
		logger:     logger,
		reporter:   newReporter(cmd.ErrOrStderr(), sourcePath, useColor, cfg.Check.MaxErrors),
	}, nil
}

func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, errors.Errorf("unknown color mode %q (want auto|on|off)", mode)
	}
}

// reporter prints diagnostics for one source file.
type reporter struct {
	out       io.Writer
	path      string
	maxErrors int
	bad       *color.Color
	note      *color.Color
}

func newReporter(out io.Writer, path string, useColor bool, maxErrors int) *reporter {
	r := &reporter{
		out:       out,
		path:      path,
		maxErrors: maxErrors,
		bad:       color.New(color.FgRed, color.Bold),
		note:      color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{r.bad, r.note} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *reporter) report(kind string, msgs []string) {
	for i, msg := range msgs {
		if r.maxErrors > 0 && i == r.maxErrors {
			r.note.Fprintf(r.out, "%s: %d more %s errors not shown\n", r.path, len(msgs)-i, kind)
			break
		}
		fmt.Fprintf(r.out, "%s: %s %s\n", r.path, r.bad.Sprint(kind+" error:"), msg)
	}
}

// loadSource reads path and inlines its imports.
func loadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	code, err := parser.PreprocessImports(string(data), filepath.Dir(path))
	if err != nil {
		return "", errors.Wrap(err, "failed to process imports")
	}
	return code, nil
}

type compilation struct {
	settings *settings
	program  *ast.Program
	analyzer *semant.Analyzer
}

// compile parses and analyzes path, printing diagnostics through the
// reporter. It returns errCompilationFailed when any were found.
func compile(cmd *cobra.Command, path string) (*compilation, error) {
	s, err := loadSettings(cmd, path)
	if err != nil {
		return nil, err
	}
	code, err := loadSource(path)
	if err != nil {
		return nil, err
	}

	s.logger.Info("parsing", "file", path)
	p := parser.New(lexer.NewLexer(strings.NewReader(code)))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		s.reporter.report("syntax", errs)
		return nil, errCompilationFailed
	}

	a := semant.NewAnalyzer(semant.Options{Jobs: s.jobs, Logger: s.logger})
	if err := a.Analyze(cmd.Context(), program); err != nil {
		return nil, errors.Wrap(err, "semantic analysis interrupted")
	}
	if errs := a.Errors(); len(errs) > 0 {
		s.reporter.report("semantic", errs)
		return nil, errCompilationFailed
	}
	return &compilation{settings: s, program: program, analyzer: a}, nil
}
