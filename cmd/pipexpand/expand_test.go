package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bgricker/pipexpand/internal/output"
	"github.com/bgricker/pipexpand/internal/pipeline"
)

func TestExpandCommandYAML(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	out, err := execute(t, "expand")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	for _, want := range []string{"phases:", "name: Linux", "name: Build2", "Compile release", "export: drop"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "template:") {
		t.Fatalf("expected template references resolved:\n%s", out)
	}
}

func TestDumpCommandSkipsImpliedNames(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	out, err := execute(t, "dump")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.Contains(out, "name: Linux") {
		t.Fatalf("expected resolved jobs:\n%s", out)
	}
	if strings.Contains(out, "Build2") || strings.Contains(out, "template:") {
		t.Fatalf("unexpected normalization or unresolved reference:\n%s", out)
	}
}

func TestExpandCommandExplicitPipeline(t *testing.T) {
	root := packageDir(t)
	chdir(t, root)

	out, err := execute(t, "expand", "testdata/basic/azure-pipelines.yml", "--format", "pretty")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	want := readGolden(t, filepath.Join(root, "testdata", "golden", "list_basic.txt"))
	if diff := diffStrings(want, out); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
}

func TestExpandCommandWritesMetrics(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))
	metricsPath := filepath.Join(t.TempDir(), "pipexpand.prom")

	if _, err := execute(t, "expand", "--metrics-file", metricsPath); err != nil {
		t.Fatalf("command execute: %v", err)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "pipexpand_files_loaded_total 2") {
		t.Fatalf("expected file counter in metrics:\n%s", data)
	}
}

func TestExpandCommandFileLimit(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	_, err := execute(t, "expand", "--max-files", "1")
	var limit *pipeline.ResourceLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected resource limit error, got %v", err)
	}
	if exitCode(err) != 3 {
		t.Fatalf("expected exit code 3, got %d", exitCode(err))
	}
}

func TestExpandCommandUnsupportedFormat(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	_, err := execute(t, "expand", "--format", "toml")
	if err == nil || !strings.Contains(err.Error(), `unsupported format "toml"`) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestValidateCommandJSON(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	out, err := execute(t, "validate", "--format", "json")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if rep.Process != nil {
		t.Fatalf("validate must not include the process")
	}
	if rep.Summary.Pipeline != "azure-pipelines.yml" || rep.Summary.Files != 2 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}
}

func TestValidateCommandPretty(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	out, err := execute(t, "validate")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.Contains(out, "azure-pipelines.yml: 2 files, 2 phases, 3 jobs, 4 steps") {
		t.Fatalf("unexpected summary line %q", out)
	}
}

func TestValidateCommandSyntaxError(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "invalid"))

	_, err := execute(t, "validate")
	var syntaxErr *pipeline.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if syntaxErr.Line != 2 {
		t.Fatalf("expected error on line 2, got %d", syntaxErr.Line)
	}
	if exitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode(err))
	}
}

func TestMissingPipeline(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := execute(t, "list")
	if err == nil || !strings.Contains(err.Error(), "no pipeline found") {
		t.Fatalf("expected discovery error, got %v", err)
	}

	_, err = execute(t, "list", "--pipeline", "nope.yml")
	if err == nil || !strings.Contains(err.Error(), `pipeline "nope.yml" not found`) {
		t.Fatalf("expected explicit path error, got %v", err)
	}
}

func TestInvalidParam(t *testing.T) {
	root := packageDir(t)
	chdir(t, filepath.Join(root, "testdata", "basic"))

	_, err := execute(t, "list", "--param", "novalue")
	if err == nil || !strings.Contains(err.Error(), "expected key=value") {
		t.Fatalf("expected param error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.New("boom"), 1},
		{&pipeline.FormatError{Message: "bad"}, 2},
		{&pipeline.TimeoutError{}, 3},
		{&pipeline.CancellationError{Err: context.Canceled}, 130},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
