package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSaveBytesWritesUnderGivenDir(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	saved, err := s.SaveBytes(context.Background(), "", "report.md", []byte("hello"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}
	if saved.Path != filepath.Join(dir, "report.md") {
		t.Fatalf("path = %q, want file under %q", saved.Path, dir)
	}
	if saved.Backup != nil {
		t.Fatalf("expected no backup for a fresh file, got %+v", saved.Backup)
	}

	data, err := os.ReadFile(saved.Path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("content = %q, want %q", data, "hello")
	}
}

func TestSaveBytesBacksUpExistingFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()

	if _, err := s.SaveBytes(ctx, "", "report.md", []byte("v1")); err != nil {
		t.Fatalf("first SaveBytes failed: %v", err)
	}
	saved, err := s.SaveBytes(ctx, "", "report.md", []byte("v2"))
	if err != nil {
		t.Fatalf("second SaveBytes failed: %v", err)
	}
	if saved.Backup == nil {
		t.Fatal("expected a backup of the overwritten file")
	}
	backupData, err := os.ReadFile(saved.Backup.Path)
	if err != nil {
		t.Fatalf("read backup file: %v", err)
	}
	if string(backupData) != "v1" {
		t.Fatalf("backup content = %q, want %q", backupData, "v1")
	}

	current, err := os.ReadFile(saved.Path)
	if err != nil {
		t.Fatalf("read current file: %v", err)
	}
	if string(current) != "v2" {
		t.Fatalf("current content = %q, want %q", current, "v2")
	}
}

func TestDefaultHonorsStorageDirEnvVar(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	t.Setenv("AGENT_STORAGE_DIR", dir)
	defaultOnce = sync.Once{}

	saved, err := Default().SaveBytes(context.Background(), "", "notes.txt", []byte("x"))
	if err != nil {
		t.Fatalf("SaveBytes via Default failed: %v", err)
	}
	if filepath.Dir(saved.Path) != dir {
		t.Fatalf("saved under %q, want %q", filepath.Dir(saved.Path), dir)
	}
}
