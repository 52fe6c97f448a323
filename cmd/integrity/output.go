package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Colors are applied with Sprint so output follows os.Stdout and os.Stderr
// when they are swapped.
var (
	okColor    = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed, color.Bold)
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
)

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s%s\n", okColor.Sprint("  ✓ "), fmt.Sprintf(format, args...))
}

func printFailure(format string, args ...interface{}) {
	fmt.Printf("%s%s\n", failColor.Sprint("  ✗ "), fmt.Sprintf(format, args...))
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s\n", failColor.Sprint("Error: "), msg)
}
