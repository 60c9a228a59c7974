package main

import (
	"os"

	"golang.org/x/term"
)

func isTerminalStdin() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
