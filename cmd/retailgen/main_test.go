package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retailsynth/internal/config"
	"retailsynth/internal/engine"
)

// isolate keeps tests independent of the caller's RETAILGEN_* variables and
// scales the sampler down to a few thousand tickets per year.
func isolate(t *testing.T, env map[string]string) {
	t.Helper()
	oldLoad, oldEngine, oldSignal := loadConfig, engineOptions, signalContext
	loadConfig = func() (config.Config, error) { return config.LoadFrom(env) }
	engineOptions = func() engine.Options {
		opts := engine.DefaultOptions()
		opts.Sales.TransactionsMin = 0.5
		opts.Sales.TransactionsMax = 1.5
		return opts
	}
	signalContext = func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }
	t.Cleanup(func() { loadConfig, engineOptions, signalContext = oldLoad, oldEngine, oldSignal })
}

func smallArgs(out string, extra ...string) []string {
	return append([]string{"-seed", "5", "-from", "2024", "-to", "2024", "-products", "40", "-stores", "60", "-out", out}, extra...)
}

func TestCLIGeneratesDataset(t *testing.T) {
	isolate(t, map[string]string{})
	dir := t.TempDir()
	out := filepath.Join(dir, "data")
	metricsFile := filepath.Join(dir, "retailgen.prom")
	var stdout, stderr bytes.Buffer
	args := smallArgs(out, "-prefix", "run5", "-verify", "-metrics-file", metricsFile, "-warehouse", "sqlite", "-dsn", filepath.Join(dir, "wh.db"))
	if code := cli(args, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	for _, name := range []string{"productos.csv", "tiendas.csv", "ventas_2024.csv", "inventarios.csv", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(out, "run5", name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	if !strings.Contains(stdout.String(), "run5/ventas_2024.csv") || !strings.Contains(stdout.String(), "Discounted lines") {
		t.Fatalf("unexpected report:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "run committed") || !strings.Contains(stderr.String(), "artifacts verified") ||
		!strings.Contains(stderr.String(), "manifest available") {
		t.Fatalf("expected progress logs, got:\n%s", stderr.String())
	}
	b, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(b), `retailgen_transactions_total{year="2024"}`) || !strings.Contains(string(b), `retailgen_artifact_bytes{artifact="ventas_2024.csv"}`) {
		t.Fatalf("unexpected metrics file:\n%s", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "wh.db")); err != nil {
		t.Fatalf("warehouse file missing: %v", err)
	}
}

func TestCLIRefusesExistingDatasetUnlessOverwrite(t *testing.T) {
	isolate(t, map[string]string{})
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	if code := cli(smallArgs(out, "-quiet"), &stdout, &stderr); code != 0 {
		t.Fatalf("first run: exit %d: %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("quiet run wrote a report: %s", stdout.String())
	}
	stderr.Reset()
	if code := cli(smallArgs(out, "-quiet"), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "artifacts already exist") {
		t.Fatalf("unexpected error output: %s", stderr.String())
	}
	stderr.Reset()
	if code := cli(smallArgs(out, "-quiet", "-overwrite"), &stdout, &stderr); code != 0 {
		t.Fatalf("overwrite run: exit %d: %s", code, stderr.String())
	}
}

func TestCLIEnvironmentDefaults(t *testing.T) {
	out := t.TempDir()
	isolate(t, map[string]string{
		"RETAILGEN_FROM_YEAR": "2024",
		"RETAILGEN_TO_YEAR":   "2024",
		"RETAILGEN_PRODUCTS":  "40",
		"RETAILGEN_STORES":    "60",
		"RETAILGEN_BLOB_ROOT": out,
		"RETAILGEN_QUIET":     "true",
	})
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(out, "manifest.json")); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	isolate(t, map[string]string{})
	cases := map[string][]string{
		"unknown flag":   {"-nope"},
		"inverted years": {"-from", "2025", "-to", "2024"},
		"extra argument": {"generate"},
		"bad driver":     {"-blob", "ftp"},
		"bad warehouse":  {"-warehouse", "oracle"},
		"too few stores": {"-stores", "10"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := cli(args, &stdout, &stderr); code != 2 {
				t.Fatalf("expected exit 2, got %d (%s)", code, stderr.String())
			}
		})
	}
}

func TestCLIHelp(t *testing.T) {
	isolate(t, map[string]string{})
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-h"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stderr.String(), "RETAILGEN_") || !strings.Contains(stderr.String(), "-seed") {
		t.Fatalf("unexpected usage:\n%s", stderr.String())
	}
}

func TestCLIBadEnvironment(t *testing.T) {
	isolate(t, map[string]string{"RETAILGEN_STORES": "many"})
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestCLICancelledRunLeavesNothing(t *testing.T) {
	isolate(t, map[string]string{})
	signalContext = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	if code := cli(smallArgs(out), &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cancelled run left %d entries", len(entries))
	}
}

func TestMainUsesExitFunc(t *testing.T) {
	isolate(t, map[string]string{})
	var codes []int
	old, oldArgs := exitFunc, os.Args
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc, os.Args = old, oldArgs }()
	os.Args = []string{"retailgen", "-from", "2025", "-to", "2024"}
	main()
	if len(codes) != 1 || codes[0] != 2 {
		t.Fatalf("unexpected exit codes %v", codes)
	}
}
