package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

// Exit codes of the celeval binary.
const (
	ExitOK          = 0
	ExitParseError  = 1
	ExitEvalError   = 2
	ExitInputError  = 3
)

// ExitError carries a process exit code through cobra's error return.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap implements error unwrapping.
func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErrorf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

var rootCmd = &cobra.Command{
	Use:   "celeval",
	Short: "CEL expression evaluator",
	Long: `celeval compiles and evaluates Common Expression Language (CEL)
expressions against JSON bindings.

CEL is a side-effect-free expression language for embedding policy,
filter, and predicate logic into host systems. Evaluation is pure: it
performs no I/O and never mutates its inputs.

Exit codes:
  0  success
  1  parse error
  2  evaluation error
  3  input decoding error`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
