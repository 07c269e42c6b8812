// Package main provides the ema-dialogue CLI: a spoken conversation with a
// language model.
//
// Usage:
//
//	ema-dialogue [--config file] [--model name] [--voice name] [-v]
//	ema-dialogue config schema
//	ema-dialogue config show
//
// The session starts listening right away. Saying an exit phrase or pressing
// Ctrl-C ends it.
package main

import (
	"fmt"
	"os"

	"github.com/koscakluka/ema-dialogue/cmd/ema-dialogue/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
