package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/compilium/compilium-go/pkg/cabs"
	"github.com/compilium/compilium-go/pkg/config"
	"github.com/compilium/compilium-go/pkg/interp"
	"github.com/compilium/compilium-go/pkg/lexer"
	"github.com/compilium/compilium-go/pkg/optimizer"
	"github.com/compilium/compilium-go/pkg/parser"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// Debug flags for dumping intermediate stages
var (
	dTokens bool
	dParse  bool
	dAST    bool
	dDiff   bool
)

// Options shared by every command
var (
	outFile      string
	includePaths []string
	configPath   string
	noFold       bool
	noStrength   bool
	noTailrec    bool
	verbose      bool
)

// ErrNoMain is returned by run for a file without a main function.
var ErrNoMain = errors.New("no main function")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "compilium: %v\n", err)
		return 1
	}
	return 0
}

// debugFlagNames lists the flags that also accept a single dash.
var debugFlagNames = []string{"dtokens", "dparse", "dast"}

// normalizeFlags converts single-dash debug flags like -dparse to --dparse
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "compilium [file]",
		Short: "compilium parses and optimizes a subset of C",
		Long: `compilium parses a C subset into an AST, folds constants, turns
division by powers of two into shifts and tail-recursive functions into
loops, and prints the result as C.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			s, err := newSession(errOut)
			if err != nil {
				return err
			}
			return withOutput(out, func(w io.Writer) error {
				return s.compile(args[0], w)
			})
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dTokens, "dtokens", false, "Dump tokens")
	rootCmd.Flags().BoolVar(&dParse, "dparse", false, "Print the parsed program before optimization")
	rootCmd.Flags().BoolVar(&dAST, "dast", false, "Dump the optimized tree")
	rootCmd.Flags().BoolVar(&dDiff, "diff", false, "Show a line diff of the program before and after optimization")
	rootCmd.Flags().StringVarP(&outFile, "output", "o", "", "Write output to file")
	addSharedFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCmd(out, errOut), newWatchCmd(out, errOut))
	return rootCmd
}

func addSharedFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	fs.StringVar(&configPath, "config", "", "Configuration file (default "+config.DefaultFile+" if present)")
	fs.BoolVar(&noFold, "no-fold", false, "Disable constant folding")
	fs.BoolVar(&noStrength, "no-strength", false, "Disable strength reduction")
	fs.BoolVar(&noTailrec, "no-tailrec", false, "Disable tail recursion elimination")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Log debug records to stderr")
}

func newRunCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run file [args...]",
		Short: "Optimize a file and evaluate its main function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(errOut)
			if err != nil {
				return err
			}
			return s.run(args[0], args[1:], out)
		},
	}
}

func newWatchCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch file",
		Short: "Print the optimized program again whenever the file or its includes change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(errOut)
			if err != nil {
				return err
			}
			return s.watch(cmd.Context(), args[0], out)
		},
	}
}

// session carries the configuration one invocation runs with.
type session struct {
	cfg    *config.Config
	opts   optimizer.Options
	logger *slog.Logger
}

func newSession(errOut io.Writer) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.IncludePaths = append(cfg.IncludePaths, includePaths...)

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	opts := cfg.Optimizer()
	opts.ConstantFolding = opts.ConstantFolding && !noFold
	opts.StrengthReduction = opts.StrengthReduction && !noStrength
	opts.TailRecursion = opts.TailRecursion && !noTailrec
	opts.Logger = logger
	return &session{cfg: cfg, opts: opts, logger: logger}, nil
}

// unit is one parsed source file.
type unit struct {
	tokens []lexer.Token
	ast    *cabs.List
	scope  *cabs.Scope
	files  []string // the file and everything it included
}

func (s *session) load(filename string) (*unit, error) {
	r := lexer.NewIncludeResolver(s.cfg.IncludePaths...)
	tokens, err := lexer.TokenizeFile(filename, r)
	u := &unit{tokens: tokens, files: r.Files()}
	if len(u.files) == 0 {
		u.files = []string{filename}
	}
	if err != nil {
		return u, err
	}
	p := parser.New(tokens, parser.WithLogger(s.logger))
	u.ast, err = p.Parse()
	u.scope = p.Scope()
	return u, err
}

func (s *session) optimize(u *unit) error {
	opts := s.opts
	opts.Scope = u.scope
	_, err := optimizer.Optimize(u.ast, opts)
	return err
}

// compile runs the default action for filename, writing to w.
func (s *session) compile(filename string, w io.Writer) error {
	_, err := s.compileUnit(filename, w)
	return err
}

func (s *session) compileUnit(filename string, w io.Writer) (*unit, error) {
	u, err := s.load(filename)
	if err != nil {
		return u, err
	}
	if dTokens {
		for _, tok := range u.tokens {
			fmt.Fprintln(w, tok)
		}
		return u, nil
	}
	if dParse {
		cabs.NewPrinter(w).PrintTranslationUnit(u.ast)
		return u, nil
	}

	before := render(u.ast)
	if err := s.optimize(u); err != nil {
		return u, err
	}
	switch {
	case dAST:
		cabs.Dump(w, u.ast)
	case dDiff:
		writeDiff(w, before, render(u.ast))
	default:
		cabs.NewPrinter(w).PrintTranslationUnit(u.ast)
	}
	return u, nil
}

func (s *session) run(filename string, rawArgs []string, w io.Writer) error {
	args := make([]int64, len(rawArgs))
	for i, a := range rawArgs {
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = v
	}

	u, err := s.load(filename)
	if err != nil {
		return err
	}
	if err := s.optimize(u); err != nil {
		return err
	}
	in, err := interp.New(u.ast)
	if err != nil {
		return err
	}
	if !in.Has("main") {
		return fmt.Errorf("%s: %w", filename, ErrNoMain)
	}
	v, err := in.Call("main", args...)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, v)
	return nil
}

func render(l *cabs.List) string {
	var sb strings.Builder
	cabs.NewPrinter(&sb).PrintTranslationUnit(l)
	return sb.String()
}

// writeDiff writes a line diff of before and after: unchanged lines are
// prefixed with a space, removed lines with '-' and added lines with '+'.
func writeDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, prefix, line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}

// withOutput calls f with the -o file if one was given, or out.
func withOutput(out io.Writer, f func(io.Writer) error) error {
	if outFile == "" {
		return f(out)
	}
	file, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := f(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
