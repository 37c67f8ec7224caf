// Command celeval evaluates CEL expressions from the command line.
package main

import (
	"errors"
	"os"

	"github.com/cwbudde/go-cel/cmd/celeval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var coded *cmd.ExitError
		if errors.As(err, &coded) {
			os.Exit(coded.Code)
		}
		os.Exit(1)
	}
}
