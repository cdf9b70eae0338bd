package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"musicbridge/itunes/model"
)

func TestConfigCommandPrintsEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[player]\napp = \"iTunes\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "--listen", "127.0.0.1:5999", "config"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config command failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, `app = "iTunes"`) {
		t.Errorf("Expected file value in output, got:\n%s", got)
	}
	if !strings.Contains(got, `listen = "127.0.0.1:5999"`) {
		t.Errorf("Expected flag override in output, got:\n%s", got)
	}
}

func TestConfigCommandMissingExplicitFile(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "config"})
	if err := root.Execute(); err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestConfigPathWithBrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "musicbridge", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[server\nlisten = "), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--path"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config --path failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Errorf("Expected %q, got %q", path, out.String())
	}

	root = newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config"})
	if err := root.Execute(); err == nil {
		t.Error("Expected plain config to report the broken file")
	}
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	err := printResult(&out, model.ActionResult{Success: true, Message: "Music app opened successfully"}, false)
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if out.String() != "Music app opened successfully\n" {
		t.Errorf("Unexpected output %q", out.String())
	}

	out.Reset()
	err = printResult(&out, model.ActionResult{Message: "Track not found: 'x'."}, true)
	if !errors.Is(err, errActionFailed) {
		t.Errorf("Expected errActionFailed, got %v", err)
	}
	if !strings.Contains(out.String(), `"success": false`) {
		t.Errorf("Expected JSON output, got %q", out.String())
	}
}
