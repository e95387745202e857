package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCmd_Version(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--version"})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), Version) {
		t.Errorf("expected version output to contain %q, got %q", Version, buf.String())
	}
}

func TestRootCmd_Help(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--help"})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, sub := range []string{"agentready", "scan", "batch", "history", "check"} {
		if !strings.Contains(output, sub) {
			t.Errorf("expected help output to list %q", sub)
		}
	}
}

func TestCheckCmd_DefaultConfig(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"check"})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "default config") {
		t.Errorf("expected output to mention default config, got: %q", buf.String())
	}
}

func TestCheckCmd_ValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentready.yaml")
	content := "version: 1\nbatch:\n  concurrency: 8\nscan:\n  timeout_seconds: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := rootCmd()
	cmd.SetArgs([]string{"check", "--config", path})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Config validation: OK") {
		t.Errorf("expected validation OK, got: %q", output)
	}
	if !strings.Contains(output, "Concurrency:    8") {
		t.Errorf("expected concurrency echo, got: %q", output)
	}
}

func TestCheckCmd_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentready.yaml")
	if err := os.WriteFile(path, []byte("batch:\n  concurrency: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := rootCmd()
	cmd.SetArgs([]string{"check", "--config", path})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestCheckCmd_NormalizationPreview(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"check", "https://www.Example.COM/shop", "example.com", "other.shop"})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "2 domains after normalization") {
		t.Errorf("expected dedupe down to 2 domains, got: %q", output)
	}
	if !strings.Contains(output, "example.com") || !strings.Contains(output, "other.shop") {
		t.Errorf("expected normalized domains in output, got: %q", output)
	}
	if strings.Contains(output, "www.") {
		t.Errorf("www prefix should be stripped, got: %q", output)
	}
}

func TestCheckCmd_FileInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.txt")
	content := "# merchants\nexample.com\nhttps://www.example.com\nother.shop\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := rootCmd()
	cmd.SetArgs([]string{"check", "-f", path})

	buf := &strings.Builder{}
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "2 domains after normalization") {
		t.Errorf("expected 2 domains from file, got: %q", buf.String())
	}
}

func TestScanCmd_RejectsEmptyDomain(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"scan", "https://"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for un-normalizable input")
	}
}

func TestScanCmd_LogsStartup(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	cfgPath := filepath.Join(dir, "agentready.yaml")
	content := "version: 1\n" +
		"scan:\n  timeout_seconds: 2\n  per_host_rps: 50\n" +
		"logging:\n  format: json\n  output: file\n  file: " + logPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// .invalid never resolves, so the scan completes quickly with a
	// failed result; the startup entry is written regardless.
	cmd := rootCmd()
	cmd.SetArgs([]string{"scan", "startup-check.invalid", "--config", cfgPath})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(raw), `"event":"startup"`) {
		t.Errorf("expected a startup entry in the log, got: %s", raw)
	}
	if !strings.Contains(string(raw), Version) {
		t.Errorf("expected version %q in the startup entry", Version)
	}
}

func TestBatchCmd_RequiresDomains(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"batch"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no domains") {
		t.Errorf("expected no-domains error, got: %v", err)
	}
}

func TestHistoryCmd_StoreDisabled(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"history", "example.com"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "store is disabled") {
		t.Errorf("expected store-disabled error, got: %v", err)
	}
}

func TestCollectDomains_MergesAndDedupes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.txt")
	if err := os.WriteFile(path, []byte("example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	domains, err := collectDomains([]string{"https://example.com", "other.shop"}, path)
	if err != nil {
		t.Fatalf("collectDomains: %v", err)
	}
	if len(domains) != 2 {
		t.Errorf("domains = %v, want example.com and other.shop", domains)
	}
}
