package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show integrity version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("integrity v%s\n", Version)

		if verbose {
			fmt.Println("\nBuild:")
			fmt.Printf("  Go:       %s\n", runtime.Version())
			fmt.Printf("  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
