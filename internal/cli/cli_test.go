package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

const chainYAML = `name: chain
variables:
  - {name: x, domain: 2}
  - {name: y, domain: 3}
factors:
  - {name: ux, scope: [x], values: [0, 1.5]}
  - {name: xy, scope: [x, y], values: [4, 1, 3, 0, 2, 5]}
query: [y]
`

// isolate points the user config and cache directories at a temp dir so
// tests never read a developer's real config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := map[string]bool{"eval": false, "inspect": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestEvalCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainYAML)
	out := filepath.Join(dir, "marginal.yaml")
	metrics := filepath.Join(dir, "metrics.txt")

	if _, err := execute(t, "eval", path, "--no-cache", "-o", out, "--metrics-out", metrics); err != nil {
		t.Fatalf("eval: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var f problem.Factor
	if err := yaml.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode marginal: %v", err)
	}
	if len(f.Scope) != 1 || f.Scope[0] != "y" {
		t.Errorf("marginal scope = %v, want [y]", f.Scope)
	}
	want := []problem.Value{1.5, 1, 3}
	if len(f.Values) != len(want) {
		t.Fatalf("marginal values = %v, want %v", f.Values, want)
	}
	for i := range want {
		if f.Values[i] != want[i] {
			t.Errorf("marginal[%d] = %v, want %v", i, f.Values[i], want[i])
		}
	}

	m, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(m), `gdlf_pipeline_evaluations_total{outcome="success"} 1`) {
		t.Errorf("metrics missing evaluation counter:\n%s", m)
	}
}

func TestEvalCommandErrors(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainYAML)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"eval", filepath.Join(dir, "absent.yaml"), "--no-cache"}},
		{"bad summarize", []string{"eval", path, "--no-cache", "--summarize", "avg"}},
		{"dense sparse backing", []string{"eval", path, "--no-cache", "--sparse", "dense"}},
		{"unknown query", []string{"eval", path, "--no-cache", "--query", "nope"}},
		{"evidence out of range", []string{"eval", path, "--no-cache", "--evidence", "x=7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEvalCommandCaches(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainYAML)
	cacheDir := filepath.Join(dir, "results")
	cfg := writeFile(t, dir, "gdlf.toml", "[cache]\ndir = \""+cacheDir+"\"\n")

	for range 2 {
		if _, err := execute(t, "--config", cfg, "eval", path); err != nil {
			t.Fatalf("eval: %v", err)
		}
	}

	var entries int
	_ = filepath.WalkDir(cacheDir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(p, ".json") {
			entries++
		}
		return nil
	})
	if entries != 1 {
		t.Errorf("cache holds %d entries, want 1", entries)
	}

	if _, err := execute(t, "--config", cfg, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	out, err := execute(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != cacheDir {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), cacheDir)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainYAML)
	dot := filepath.Join(dir, "graph.dot")

	for _, mode := range []string{"graph", "tree-up"} {
		t.Run(mode, func(t *testing.T) {
			if _, err := execute(t, "inspect", path, "--mode", mode, "--dot", dot); err != nil {
				t.Fatalf("inspect: %v", err)
			}
			data, err := os.ReadFile(dot)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), `"x" -- "y"`) {
				t.Errorf("DOT missing edge:\n%s", data)
			}
		})
	}

	if _, err := execute(t, "inspect", path, "--mode", "async"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestBadConfigFails(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "chain.yaml", chainYAML)
	cfg := writeFile(t, dir, "bad.toml", "[policy]\ncombine = \"avg\"\n")

	if _, err := execute(t, "--config", cfg, "eval", path); err == nil {
		t.Error("expected a config error")
	}
}

func TestPipelineOptionsOverrides(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	opts, err := c.pipelineOptions(evalOpts{summarize: "max", sparse: "sorted", query: []string{"y"}})
	if err != nil {
		t.Fatal(err)
	}
	want := costfn.Policy{Combine: costfn.CombineSum, Summarize: costfn.SummarizeMax, Normalize: costfn.NormalizeNone}
	if opts.Policy != want {
		t.Errorf("policy = %v, want %v", opts.Policy, want)
	}
	if opts.Sparse != costfn.RepresentationSorted {
		t.Errorf("sparse = %v, want sorted", opts.Sparse)
	}
	if c.Config.Policy.Summarize != "min" {
		t.Error("flag overrides must not leak into the loaded config")
	}
}

func TestLoadConfigRaisesVerbosity(t *testing.T) {
	dir := isolate(t)
	cfg := writeFile(t, dir, "debug.toml", "[log]\nlevel = \"debug\"\n")

	c := New(io.Discard, log.InfoLevel)
	c.configPath = cfg
	if err := c.loadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}

	quiet := writeFile(t, dir, "warn.toml", "[log]\nlevel = \"warn\"\n")
	c = New(io.Discard, log.DebugLevel)
	c.configPath = quiet
	if err := c.loadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Error("config must not lower an explicit --verbose")
	}
}
