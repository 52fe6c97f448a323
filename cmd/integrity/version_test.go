package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// captureStdout runs fn with os.Stdout redirected and returns what it printed
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	defer func() { os.Stdout = oldStdout }()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	return <-done
}

func TestVersionCommand(t *testing.T) {
	oldVerbose := verbose
	verbose = false
	defer func() { verbose = oldVerbose }()

	output := captureStdout(t, func() {
		versionCmd.Run(&cobra.Command{}, []string{})
	})

	if !strings.Contains(output, "integrity v"+Version) {
		t.Errorf("Expected output to contain 'integrity v%s', got: %s", Version, output)
	}
	if strings.Contains(output, "Build:") {
		t.Errorf("Expected no build details without --verbose, got: %s", output)
	}
}

func TestVersionCommandVerbose(t *testing.T) {
	oldVerbose := verbose
	verbose = true
	defer func() { verbose = oldVerbose }()

	output := captureStdout(t, func() {
		versionCmd.Run(&cobra.Command{}, []string{})
	})

	for _, want := range []string{"integrity v", "Build:", "Go:", "Platform:"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected verbose output to contain '%s', got: %s", want, output)
		}
	}
}
