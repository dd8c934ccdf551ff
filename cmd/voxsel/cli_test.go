package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/voxsel/internal/config"
	"github.com/hpungsan/voxsel/internal/db"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/ops"
	"github.com/hpungsan/voxsel/internal/report"
)

// setupTestSession opens a session over a temporary base directory.
func setupTestSession(t *testing.T) (*ops.Session, string) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	session, err := ops.Open(context.Background(), database, config.DefaultConfig(), ops.Options{Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return session, tmpDir
}

// runCLI runs args and returns what the command printed to stdout.
func runCLI(t *testing.T, s *ops.Session, baseDir string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(s, baseDir, nil)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"voxsel"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// runJSON runs args, fails on error and decodes the JSON output into v.
func runJSON(t *testing.T, s *ops.Session, baseDir string, v any, args ...string) {
	t.Helper()
	out, err := runCLI(t, s, baseDir, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", args[0], err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
}

// fillCube stores a 3x3x3 cube of 4cm voxels at 0, 4 and 8.
func fillCube(t *testing.T, s *ops.Session, baseDir string) {
	t.Helper()
	var output ops.VoxelsOutput
	runJSON(t, s, baseDir, &output, "fill", "--count=3")
	if output.Total != 27 {
		t.Fatalf("fill total = %d, want 27", output.Total)
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    ops.Vec3
		expectError bool
	}{
		{name: "integers", input: "1,2,3", expected: ops.Vec3{X: 1, Y: 2, Z: 3}},
		{name: "decimals with spaces", input: "0.5, -1.25 ,2", expected: ops.Vec3{X: 0.5, Y: -1.25, Z: 2}},
		{name: "too few", input: "1,2", expectError: true},
		{name: "not a number", input: "1,b,3", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVec3(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestParseVoxel(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    ops.Voxel
		expectError bool
	}{
		{name: "no resolution", input: "4,8,-12", expected: ops.Voxel{X: 4, Y: 8, Z: -12}},
		{name: "with resolution", input: "8,0,16@8cm", expected: ops.Voxel{X: 8, Y: 0, Z: 16, Res: "8cm"}},
		{name: "fractional", input: "1.5,0,0", expectError: true},
		{name: "too many", input: "1,2,3,4", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVoxel(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, result)
			}
		})
	}
}

// TestParseDuration tests the parseDuration helper function.
func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int
		expectError bool
	}{
		{name: "valid days", input: "7d", expected: 7},
		{name: "zero days", input: "0d", expected: 0},
		{name: "missing suffix", input: "7", expectError: true},
		{name: "hours not supported", input: "7h", expectError: true},
		{name: "negative", input: "-1d", expectError: true},
		{name: "garbage", input: "xd", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDuration(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestReportFileName(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)
	tests := []struct {
		name     string
		set      string
		format   report.Format
		expected string
	}{
		{name: "current selection", set: "", format: report.FormatMarkdown, expected: "selection-20260301-123045.md"},
		{name: "named set", set: "North Wall", format: report.FormatHTML, expected: "north-wall-20260301-123045.html"},
		{name: "unsafe chars", set: "../etc/passwd", format: report.FormatMarkdown, expected: "etc-passwd-20260301-123045.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportFileName(tt.set, tt.format, now); got != tt.expected {
				t.Errorf("reportFileName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestCLIBox tests the box command.
func TestCLIBox(t *testing.T) {
	s, baseDir := setupTestSession(t)
	fillCube(t, s, baseDir)

	var output ops.SelectionOutput
	runJSON(t, s, baseDir, &output, "box", "--min=-0.01,-0.01,-0.01", "--max=0.05,0.09,0.09")
	if output.Count != 18 {
		t.Errorf("count = %d, want 18", output.Count)
	}
	if !output.Changed || !output.CanUndo {
		t.Errorf("expected a committed change with undo, got %+v", output)
	}

	// Subtract one layer
	runJSON(t, s, baseDir, &output, "box", "--min=-0.01,-0.01,-0.01", "--max=0.01,0.09,0.09", "--mode=subtract")
	if output.Count != 9 {
		t.Errorf("count after subtract = %d, want 9", output.Count)
	}
}

// TestCLISphereAndFlood tests the sphere and flood commands.
func TestCLISphereAndFlood(t *testing.T) {
	s, baseDir := setupTestSession(t)
	fillCube(t, s, baseDir)

	var output ops.SelectionOutput
	runJSON(t, s, baseDir, &output, "sphere", "--center=0.02,0.02,0.02", "--radius=0.01", "--weights")
	if output.Count != 1 || len(output.Weights) != 1 {
		t.Errorf("sphere = %+v, want one voxel with a weight", output)
	}

	runJSON(t, s, baseDir, &output, "flood", "0,0,0", "--max-steps=1")
	if output.Count != 4 {
		t.Errorf("flood count = %d, want 4", output.Count)
	}
}

// TestCLISets tests save, load, sets, delete and purge.
func TestCLISets(t *testing.T) {
	s, baseDir := setupTestSession(t)
	fillCube(t, s, baseDir)

	var sel ops.SelectionOutput
	runJSON(t, s, baseDir, &sel, "scope", "all")
	if sel.Count != 27 {
		t.Fatalf("scope all = %d, want 27", sel.Count)
	}

	var set ops.SetOutput
	runJSON(t, s, baseDir, &set, "save", "Full", "Cube")
	if set.Name != "full cube" || set.VoxelCount != 27 {
		t.Errorf("save = %+v", set)
	}

	if _, err := runCLI(t, s, baseDir, "save", "full cube"); err == nil {
		t.Error("expected name collision error")
	}

	runJSON(t, s, baseDir, &sel, "scope", "none")
	runJSON(t, s, baseDir, &sel, "load", "full cube")
	if sel.Count != 27 {
		t.Errorf("load = %d, want 27", sel.Count)
	}

	var list ops.ListSetsOutput
	runJSON(t, s, baseDir, &list, "sets")
	if len(list.Sets) != 1 || list.Sets[0].Name != "Full Cube" {
		t.Errorf("sets = %+v", list.Sets)
	}

	runJSON(t, s, baseDir, &set, "delete", "full cube")

	var purge ops.PurgeOutput
	runJSON(t, s, baseDir, &purge, "purge")
	if purge.Purged != 1 {
		t.Errorf("purged = %d, want 1", purge.Purged)
	}
}

// TestCLIVoxels tests add, remove, validate and workspace.
func TestCLIVoxels(t *testing.T) {
	s, baseDir := setupTestSession(t)

	var edit ops.VoxelsOutput
	runJSON(t, s, baseDir, &edit, "add", "0,0,0", "8,0,0@8cm")
	if edit.Changed != 2 || edit.Total != 2 {
		t.Errorf("add = %+v, want 2/2", edit)
	}

	var sel ops.SelectionOutput
	runJSON(t, s, baseDir, &sel, "pick", "0,0,0", "8,0,0@8cm")
	if sel.Count != 2 {
		t.Errorf("pick = %d, want 2", sel.Count)
	}

	runJSON(t, s, baseDir, &edit, "remove", "8,0,0@8cm")
	if edit.Total != 1 {
		t.Errorf("remove total = %d, want 1", edit.Total)
	}

	var valid ops.ValidateOutput
	runJSON(t, s, baseDir, &valid, "validate")
	if valid.WasValid || valid.Removed != 1 {
		t.Errorf("validate = %+v, want one stale voxel removed", valid)
	}

	var ws ops.WorkspaceOutput
	runJSON(t, s, baseDir, &ws, "workspace", "--size=3,3,3")
	if ws.Size != (ops.Vec3{X: 3, Y: 3, Z: 3}) || ws.Voxels != 1 {
		t.Errorf("workspace = %+v", ws)
	}
}

// TestCLIReport tests report output and --save.
func TestCLIReport(t *testing.T) {
	s, baseDir := setupTestSession(t)
	fillCube(t, s, baseDir)

	var sel ops.SelectionOutput
	runJSON(t, s, baseDir, &sel, "scope", "all")

	out, err := runCLI(t, s, baseDir, "report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.HasPrefix(out, "# Current selection") {
		t.Errorf("unexpected report:\n%s", out)
	}

	var saved reportSaveOutput
	runJSON(t, s, baseDir, &saved, "report", "--format=html", "--save")
	if filepath.Dir(saved.Path) != filepath.Join(baseDir, "reports") {
		t.Errorf("report saved to %s, want under %s/reports", saved.Path, baseDir)
	}
	data, err := os.ReadFile(saved.Path)
	if err != nil {
		t.Fatalf("read saved report: %v", err)
	}
	if !strings.Contains(string(data), "<table>") {
		t.Error("expected an HTML table in the saved report")
	}
}

// TestCLICall tests running MCP tools through the call command.
func TestCLICall(t *testing.T) {
	s, baseDir := setupTestSession(t)
	fillCube(t, s, baseDir)

	var sel ops.SelectionOutput
	runJSON(t, s, baseDir, &sel, "call", "selection_hemisphere",
		`{"center":{"x":0.06,"y":0.02,"z":0.06},"radius":0.2,"normal":{"x":0,"y":1,"z":0}}`)
	if sel.Count == 0 {
		t.Error("expected hemisphere to select voxels")
	}

	t.Run("stdin arguments", func(t *testing.T) {
		oldStdin := os.Stdin
		stdinR, stdinW, _ := os.Pipe()
		os.Stdin = stdinR
		defer func() { os.Stdin = oldStdin }()

		go func() {
			_, _ = stdinW.WriteString(`{"scope":"none"}`)
			stdinW.Close()
		}()

		runJSON(t, s, baseDir, &sel, "call", "selection_scope")
		if sel.Count != 0 {
			t.Errorf("count = %d, want 0", sel.Count)
		}
	})

	t.Run("tool error", func(t *testing.T) {
		_, err := runCLI(t, s, baseDir, "call", "set_load", `{"name":"missing"}`)
		if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
			t.Errorf("expected [NOT_FOUND] error, got %v", err)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := runCLI(t, s, baseDir, "call", "selection_lasso", "{}")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected [INVALID_REQUEST] error, got %v", err)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		if _, err := runCLI(t, s, baseDir, "call", "selection_scope", "{"); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	s, baseDir := setupTestSession(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{name: "load not found", args: []string{"load", "nonexistent"}, code: "[NOT_FOUND]"},
		{name: "delete not found", args: []string{"delete", "nonexistent"}, code: "[NOT_FOUND]"},
		{name: "invalid duration", args: []string{"purge", "--older-than=invalid"}, code: "[INVALID_REQUEST]"},
		{name: "bad vector", args: []string{"box", "--min=1,2", "--max=1,2,3"}, code: "[INVALID_REQUEST]"},
		{name: "bad scope", args: []string{"scope", "everything"}, code: "[INVALID_REQUEST]"},
		{name: "reserved name", args: []string{"save", "@current"}, code: "[INVALID_REQUEST]"},
		{name: "serve bad port", args: []string{"serve", "--port=0"}, code: "[INVALID_REQUEST]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// cli.Exit writes to stderr, so just verify the error is returned
			_, err := runCLI(t, s, baseDir, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.code) {
				t.Errorf("error %q does not contain %s", err, tt.code)
			}
		})
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"voxsel"}, expected: false},
		{name: "box command", args: []string{"voxsel", "box"}, expected: true},
		{name: "call command", args: []string{"voxsel", "call"}, expected: true},
		{name: "serve command", args: []string{"voxsel", "serve"}, expected: true},
		{name: "help flag", args: []string{"voxsel", "--help"}, expected: true},
		{name: "version flag", args: []string{"voxsel", "--version"}, expected: true},
		{name: "short help flag", args: []string{"voxsel", "-h"}, expected: true},
		{name: "short version flag", args: []string{"voxsel", "-v"}, expected: true},
		{name: "unknown arg defaults to MCP", args: []string{"voxsel", "--unknown"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore os.Args
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isCLIMode()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"voxsel"}, expected: false},
		{name: "help flag", args: []string{"voxsel", "--help"}, expected: true},
		{name: "short help flag", args: []string{"voxsel", "-h"}, expected: true},
		{name: "version flag", args: []string{"voxsel", "--version"}, expected: true},
		{name: "short version flag", args: []string{"voxsel", "-v"}, expected: true},
		{name: "help subcommand", args: []string{"voxsel", "help"}, expected: true},
		{name: "box command is not help", args: []string{"voxsel", "box"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isHelpOrVersion()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdinWithLimit tests the readStdin function respects size limits.
func TestReadStdinWithLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		content := "small content"
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}

		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		result, err := readStdin(1000)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != content {
			t.Errorf("expected %q, got %q", content, result)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		content := strings.Repeat("x", 100)
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}

		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		// Limit is 50 bytes, content is 100
		_, err = readStdin(50)
		if err == nil {
			t.Error("expected error for content exceeding limit, got nil")
		}
	})
}
