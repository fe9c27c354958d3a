// Command navigator is the entry point for the NELFUND Navigator assistant.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// conversational question-answering API.
package main

import (
	"fmt"
	"os"

	"github.com/nelfund/navigator-go/cmd/navigator/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
