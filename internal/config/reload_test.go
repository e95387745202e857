package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func writeReloadConfig(t *testing.T, path string, concurrency int) {
	t.Helper()
	content := []byte(fmt.Sprintf("version: 1\nbatch:\n  concurrency: %d\n", concurrency))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReloader_FileChange(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	// Give watcher time to start
	time.Sleep(200 * time.Millisecond)

	writeReloadConfig(t, cfgPath, 8)

	select {
	case cfg := <-r.Changes():
		if cfg.Batch.Concurrency != 8 {
			t.Errorf("expected concurrency 8, got %d", cfg.Batch.Concurrency)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestReloader_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	// Concurrency over the cap fails validation; the reload must be dropped.
	if err := os.WriteFile(cfgPath, []byte("batch:\n  concurrency: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-r.Changes():
		t.Fatalf("expected no config for invalid file, got concurrency=%d", cfg.Batch.Concurrency)
	case <-time.After(500 * time.Millisecond):
		// Expected: no config emitted for invalid file
	}
}

func TestReloader_CloseStopsStart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)

	done := make(chan struct{})
	go func() {
		_ = r.Start(context.Background())
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	r.Close()

	select {
	case <-done:
		// Start returned after Close
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Close")
	}
}

func TestReloader_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	r.Close()
	r.Close() // should not panic
}

func TestReloader_SIGHUPReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	// Give watcher time to start
	time.Sleep(200 * time.Millisecond)

	// Update config file (SIGHUP reloads from disk, so the file must change)
	writeReloadConfig(t, cfgPath, 2)

	// Small delay so the file is written before signal
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("failed to send SIGHUP: %v", err)
	}

	select {
	case cfg := <-r.Changes():
		if cfg.Batch.Concurrency != 2 {
			t.Errorf("expected concurrency 2 after SIGHUP, got %d", cfg.Batch.Concurrency)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SIGHUP-based reload")
	}
}

func TestReloader_NonMatchingFileIgnored(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	otherPath := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(otherPath, []byte("version: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-r.Changes():
		t.Fatalf("expected no config for non-matching file, got version=%d", cfg.Version)
	case <-time.After(500 * time.Millisecond):
		// Expected: non-matching file name ignored
	}
}

func TestReloader_RenameReload(t *testing.T) {
	// Simulate vim-style save: write temp file, rename over original
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agentready.yaml")
	writeReloadConfig(t, cfgPath, 4)

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	tmpPath := filepath.Join(dir, "agentready.yaml.tmp")
	writeReloadConfig(t, tmpPath, 6)
	if err := os.Rename(tmpPath, cfgPath); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-r.Changes():
		if cfg.Batch.Concurrency != 6 {
			t.Errorf("expected concurrency 6, got %d", cfg.Batch.Concurrency)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for rename-based reload")
	}
}
