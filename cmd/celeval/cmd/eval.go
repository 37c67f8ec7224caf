package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/cwbudde/go-cel/internal/celjson"
	"github.com/cwbudde/go-cel/pkg/cel"
)

var (
	bindingsArg string
	packageName string
	useCompiled bool
	jsonOutput  bool
	nullInput   bool
)

var evalCmd = &cobra.Command{
	Use:   "eval EXPRESSION",
	Short: "Evaluate a CEL expression",
	Long: `Compile and evaluate a CEL expression, optionally against JSON
bindings.

Examples:
  # Evaluate a pure expression
  celeval eval '[1, 2, 3].map(x, x * 2)'

  # Bind names from an inline JSON object
  celeval eval -b '{"name": "World"}' '"Hello, " + name + "!"'

  # Bind names from a file and emit the result as JSON
  celeval eval -b @bindings.json --json 'resource.tags.filter(t, t.startsWith("env"))'

  # Evaluate with no bindings at all, ignoring any --bindings
  celeval eval --null-input '1 + 2'

  # Use the closure-graph engine for repeated evaluation workloads
  celeval eval --compiled 'request.size < 1024'`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&bindingsArg, "bindings", "b", "", "JSON object binding names to values, or @file")
	evalCmd.Flags().StringVar(&packageName, "package", "", "package prefix for unqualified name resolution")
	evalCmd.Flags().BoolVar(&useCompiled, "compiled", false, "evaluate via the closure-graph engine")
	evalCmd.Flags().BoolVar(&jsonOutput, "json", false, "emit the result as a JSON document")
	evalCmd.Flags().BoolVar(&nullInput, "null-input", false, "evaluate without bindings, ignoring --bindings")
}

func runEval(cmd *cobra.Command, args []string) error {
	var bindings map[string]any
	if !nullInput {
		var err error
		bindings, err = loadBindings(bindingsArg)
		if err != nil {
			return err
		}
	}

	opts := []cel.Option{cel.WithPackage(packageName)}
	if useCompiled {
		opts = append(opts, cel.WithCompiled())
	}
	env := cel.NewEnvironment(opts...)

	tree, err := env.Compile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitErrorf(ExitParseError, "parsing failed")
	}
	log.WithField("ast", tree.String()).Debug("compiled expression")

	runner, err := env.Program(tree, nil)
	if err != nil {
		return exitErrorf(ExitParseError, "program construction failed: %v", err)
	}

	result, err := runner.Evaluate(bindings)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitErrorf(ExitEvalError, "evaluation failed")
	}

	if jsonOutput {
		doc, encErr := celjson.Encode(result)
		if encErr != nil {
			fmt.Fprintln(os.Stderr, encErr)
			return exitErrorf(ExitEvalError, "result has no JSON form")
		}
		fmt.Fprintln(cmd.OutOrStdout(), doc)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.String())
	return nil
}

// loadBindings decodes the --bindings argument: a JSON object inline, or
// @path to read one from a file. An empty argument means no bindings.
func loadBindings(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, nil
	}
	doc := arg
	if strings.HasPrefix(arg, "@") {
		content, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, exitErrorf(ExitInputError, "failed to read bindings file: %v", err)
		}
		doc = string(content)
	}
	if !gjson.Valid(doc) {
		return nil, exitErrorf(ExitInputError, "bindings are not valid JSON")
	}
	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return nil, exitErrorf(ExitInputError, "bindings must be a JSON object")
	}
	bindings := make(map[string]any)
	var convErr error
	parsed.ForEach(func(key, item gjson.Result) bool {
		v, err := celjson.DecodeResult(item)
		if err != nil {
			convErr = err
			return false
		}
		bindings[key.Str] = v
		return true
	})
	if convErr != nil {
		return nil, exitErrorf(ExitInputError, "failed to decode bindings: %v", convErr)
	}
	return bindings, nil
}
