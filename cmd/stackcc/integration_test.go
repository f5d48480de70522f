package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"
)

// E2ERuntimeTestSpec is a program compiled, linked and run for its exit code
type E2ERuntimeTestSpec struct {
	Name         string `yaml:"name"`
	Input        string `yaml:"input"`
	ExpectedExit int    `yaml:"expected_exit"`
	Skip         string `yaml:"skip,omitempty"` // Reason to skip this test
}

// E2ERuntimeTestFile represents the e2e_runtime.yaml file structure
type E2ERuntimeTestFile struct {
	Tests []E2ERuntimeTestSpec `yaml:"tests"`
}

func loadRuntimeTests(t *testing.T) []E2ERuntimeTestSpec {
	t.Helper()
	data, err := os.ReadFile("../../testdata/e2e_runtime.yaml")
	if err != nil {
		t.Fatalf("e2e_runtime.yaml not found: %v", err)
	}
	var testFile E2ERuntimeTestFile
	if err := yaml.Unmarshal(data, &testFile); err != nil {
		t.Fatalf("failed to parse e2e_runtime.yaml: %v", err)
	}
	return testFile.Tests
}

// TestE2ECompiles checks every runtime program compiles cleanly, which
// needs no toolchain
func TestE2ECompiles(t *testing.T) {
	for _, tc := range loadRuntimeTests(t) {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}
			path := writeSource(t, "test.i", tc.Input)
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--strict", path})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("stackcc failed: %v\nStderr: %s", err, errOut.String())
			}
		})
	}
}

func TestE2ERuntimeYAML(t *testing.T) {
	// Output targets Mach-O on x86-64
	if runtime.GOOS != "darwin" || runtime.GOARCH != "amd64" {
		t.Skip("runtime tests need darwin/amd64")
	}
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("cc not found in PATH")
	}

	for _, tc := range loadRuntimeTests(t) {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}

			tmpDir := t.TempDir()
			testCFile := filepath.Join(tmpDir, "test.c")
			testSFile := filepath.Join(tmpDir, "test.s")
			testExe := filepath.Join(tmpDir, "test")

			if err := os.WriteFile(testCFile, []byte(tc.Input), 0o644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			// Step 1: Compile C to assembly
			var out, errOut bytes.Buffer
			cmd := newRootCmd(&out, &errOut)
			cmd.SetArgs([]string{"--no-cpp", testCFile})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("stackcc failed: %v\nStderr: %s", err, errOut.String())
			}

			// Step 2: Assemble and link
			ccCmd := exec.Command("cc", "-o", testExe, testSFile)
			if output, err := ccCmd.CombinedOutput(); err != nil {
				asm, _ := os.ReadFile(testSFile)
				t.Fatalf("cc failed: %v\nOutput: %s\nAssembly:\n%s", err, output, asm)
			}

			// Step 3: Run and check exit code
			runCmd := exec.Command(testExe)
			runCmd.Run() // Ignore error, we want exit code
			exitCode := runCmd.ProcessState.ExitCode()

			if exitCode != tc.ExpectedExit {
				asm, _ := os.ReadFile(testSFile)
				t.Errorf("expected exit code %d, got %d\nAssembly:\n%s", tc.ExpectedExit, exitCode, asm)
			}
		})
	}
}
