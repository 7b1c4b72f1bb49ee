package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"daycanvas/internal/config"
)

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "debug"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q", name)
		}
	}
	want := map[string]bool{"serve": false, "layout": false, "preview": false, "tui": false}
	for _, c := range cmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestLayoutCmdFromStdin(t *testing.T) {
	in := `
- id: a
  start: "09:00"
  end: "10:00"
  title: Standup
- id: b
  start: "09:30"
  end: "11:00"
  kind: focus
- id: c
  start: "11:00"
  end: "10:00"
- id: d
  start: "12:00"
  end: "13:00"
  kind: lunch
`
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"layout"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got layoutOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(got.Intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(got.Intervals))
	}
	a, b := got.Intervals[0], got.Intervals[1]
	if a.ID != "a" || a.Column != 0 || a.TotalColumns != 2 {
		t.Errorf("a = %+v", a)
	}
	if b.ID != "b" || b.Column != 1 || b.TotalColumns != 2 {
		t.Errorf("b = %+v", b)
	}
	if len(got.Warnings) != 2 {
		t.Errorf("warnings = %d, want 2", len(got.Warnings))
	}
	if !strings.Contains(errOut.String(), `"d"`) {
		t.Errorf("stderr missing warning for d: %q", errOut.String())
	}
}

func TestReadEntriesReportsClockErrors(t *testing.T) {
	in := `
- id: early
  start: "9am"
  end: "10:00"
- id: ok
  start: "10:00"
  end: "11:00"
- id: late
  start: "12:00"
  end: "25:00"
- id: backwards
  start: "14:00"
  end: "13:00"
`
	df, err := readEntries("-", strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	res := df.Layout()
	if len(res.Intervals) != 1 || res.Intervals[0].ID != "ok" {
		t.Fatalf("intervals = %+v", res.Intervals)
	}

	want := []struct {
		id     string
		index  int
		reason string
	}{
		{"early", 0, "start: model: bad clock"},
		{"late", 2, "end: model: clock"},
		{"backwards", 3, "end 780 not after start 840"},
	}
	if len(res.Warnings) != len(want) {
		t.Fatalf("warnings = %+v", res.Warnings)
	}
	for i, w := range want {
		got := res.Warnings[i]
		if got.ID != w.id || got.Index != w.index || !strings.Contains(got.Reason, w.reason) {
			t.Errorf("warning %d = %+v, want %s at %d containing %q", i, got, w.id, w.index, w.reason)
		}
	}
}

func TestLayoutCmdEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"layout", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"intervals": []`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestPreviewCmdWritesSVG(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	entries := filepath.Join(dir, "day.yaml")
	if err := os.WriteFile(entries, []byte("- id: a\n  start: \"11:00\"\n  end: \"12:00\"\n  title: Standup\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "day.svg")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"preview", "--config", cfgPath, "--input", entries, "--date", "2025-03-10", "-o", out})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, want := range []string{"<svg", `data-id="a"`, "Standup"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("config not created on first run: %v", err)
	}
}

func TestPreviewCmdBadDate(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"preview", "--config", filepath.Join(t.TempDir(), "c.yaml"), "--input", "-", "--date", "10/03/2025"})
	cmd.SetIn(strings.NewReader("[]"))
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Fatalf("err = %v", err)
	}
}

func TestSelfURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = ":9090"
	if got := selfURL(cfg); got != "http://127.0.0.1:9090" {
		t.Errorf("selfURL = %q", got)
	}
	cfg.Listen = "10.0.0.2:8080"
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	if got := selfURL(cfg); got != "http://u:p@10.0.0.2:8080" {
		t.Errorf("selfURL = %q", got)
	}
}
