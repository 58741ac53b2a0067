package e2e

import (
	"bytes"
	"os/exec"
	"strings"
	"testing"
)

// TestDepsE2EBasic verifies text output for deps command
func TestDepsE2EBasic(t *testing.T) {
	binaryPath := buildPygatherBinary(t)

	testDir := t.TempDir()
	createTestFile(t, testDir, "branch.py", "a = 1\nif a:\n    b = a\n")

	cmd := exec.Command(binaryPath, "deps", testDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "data") || !strings.Contains(out, "control") {
		t.Fatalf("Unexpected deps text output: %s", out)
	}
}

// TestDepsE2EDOTOutput verifies the DOT graph goes to stdout
func TestDepsE2EDOTOutput(t *testing.T) {
	binaryPath := buildPygatherBinary(t)

	testDir := t.TempDir()
	script := createTestFile(t, testDir, "branch.py", "a = 1\nif a:\n    b = a\n")

	cmd := exec.Command(binaryPath, "deps", "--dot", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "digraph") {
		t.Fatalf("Expected a DOT graph, got: %s", stdout.String())
	}
}
