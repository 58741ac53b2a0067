package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// analysisNotebook runs load, other and use in that order; draft never ran
const analysisNotebook = `{
  "nbformat": 4,
  "nbformat_minor": 5,
  "metadata": {},
  "cells": [
    {"cell_type": "code", "id": "load", "execution_count": 1,
     "source": ["x = 1\n", "%matplotlib inline"], "outputs": []},
    {"cell_type": "code", "id": "other", "execution_count": 2, "source": "y = 2", "outputs": []},
    {"cell_type": "code", "id": "use", "execution_count": 3,
     "source": ["z = x + 1\n", "print(z)"], "outputs": []},
    {"cell_type": "code", "id": "draft", "execution_count": null, "source": "w = y", "outputs": []}
  ]
}`

// buildPygatherBinary builds cmd/pygather into a temporary directory
func buildPygatherBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "pygather")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pygather")

	// Build from the project root, one level up from e2e
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build pygather binary: %v\n%s", err, out)
	}
	return binaryPath
}

func createTestFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
	return filePath
}

// createTestConfigFile creates a .pygather.toml that directs report files
// to outputDir
func createTestConfigFile(t *testing.T, testDir, outputDir string) {
	t.Helper()
	configFile := filepath.Join(testDir, ".pygather.toml")
	configContent := fmt.Sprintf("[output]\ndirectory = %q\n", outputDir)
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
}
