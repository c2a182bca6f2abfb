// Package support holds the godog step definitions for the CLI and
// server feature tests.
package support

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/pocode/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	BinaryPath string
	WorkingDir string
	TempDir    string
	EnvVars    []string

	// Server state
	HTTPTestServer  *HTTPTestServerWrapper
	LastHTTPStatus  int
	LastHTTPBody    []byte
	LastHTTPHeaders http.Header
	LastWSResponse  map[string]any
}

// NewTestContext creates a scenario context with its own temp directory,
// which is also the working directory of every command.
func NewTestContext() (*TestContext, error) {
	root, err := testutil.GetProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "pocode-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	binary := os.Getenv("POCODE_BIN")
	if binary == "" {
		binary = filepath.Join(root, "bin", "pocode")
	}

	return &TestContext{
		BinaryPath: binary,
		WorkingDir: tempDir,
		TempDir:    tempDir,
		EnvVars:    []string{"XDG_CONFIG_HOME=" + filepath.Join(tempDir, ".config")},
	}, nil
}

// Cleanup stops the server and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []string
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Close()
		testCtx.HTTPTestServer = nil
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("failed to remove temp directory %s: %v", testCtx.TempDir, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// path resolves name inside the scenario's temp directory.
func (testCtx *TestContext) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substituteCommandVariables replaces {tmp} with the temp directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}
