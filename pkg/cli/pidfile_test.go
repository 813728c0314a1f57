package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultPIDPath(t *testing.T) {
	path := DefaultPIDPath()
	if path == "" {
		t.Error("DefaultPIDPath returned empty string")
	}

	if filepath.Base(path) != "mockdeck.pid" {
		t.Errorf("expected filename mockdeck.pid, got %s", filepath.Base(path))
	}
}

func TestWriteAndReadPIDFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidPath := filepath.Join(tmpDir, "test.pid")

	now := time.Now().Truncate(time.Second)
	info := &PIDFile{
		PID:       12345,
		StartTime: now,
		Version:   "0.1.0",
		Console: ConsoleInfo{
			Port: 4380,
			Host: "127.0.0.1",
		},
	}

	if err := WritePIDFile(pidPath, info); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}

	if _, err := os.Stat(pidPath); os.IsNotExist(err) {
		t.Error("PID file was not created")
	}

	readInfo, err := ReadPIDFile(pidPath)
	if err != nil {
		t.Fatalf("ReadPIDFile failed: %v", err)
	}

	if readInfo.PID != info.PID {
		t.Errorf("expected PID %d, got %d", info.PID, readInfo.PID)
	}
	if !readInfo.StartTime.Equal(now) {
		t.Errorf("expected start time %v, got %v", now, readInfo.StartTime)
	}
	if readInfo.Version != "0.1.0" {
		t.Errorf("expected version 0.1.0, got %s", readInfo.Version)
	}
	if readInfo.Console.Port != 4380 {
		t.Errorf("expected console port 4380, got %d", readInfo.Console.Port)
	}
}

func TestWritePIDFile_CreatesParentDirectory(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nested", "dir", "test.pid")

	info := &PIDFile{PID: 1, StartTime: time.Now()}
	if err := WritePIDFile(pidPath, info); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}
	if _, err := os.Stat(pidPath); err != nil {
		t.Errorf("PID file missing after write: %v", err)
	}
}

func TestWritePIDFile_LeavesNoTempFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidPath := filepath.Join(tmpDir, "test.pid")

	if err := WritePIDFile(pidPath, &PIDFile{PID: 1}); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}
	if _, err := os.Stat(pidPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after atomic write")
	}
}

func TestReadPIDFile_NotFound(t *testing.T) {
	_, err := ReadPIDFile(filepath.Join(t.TempDir(), "absent.pid"))
	if err == nil {
		t.Error("expected error for missing PID file")
	}
}

func TestReadPIDFile_Malformed(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(pidPath, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPIDFile(pidPath); err == nil {
		t.Error("expected error for malformed PID file")
	}
}

func TestRemovePIDFile(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "test.pid")
	if err := WritePIDFile(pidPath, &PIDFile{PID: 1}); err != nil {
		t.Fatal(err)
	}

	if err := RemovePIDFile(pidPath); err != nil {
		t.Fatalf("RemovePIDFile failed: %v", err)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("PID file still exists after remove")
	}

	// Removing a missing file is not an error.
	if err := RemovePIDFile(pidPath); err != nil {
		t.Errorf("RemovePIDFile on missing file: %v", err)
	}
}

func TestIsRunning(t *testing.T) {
	// Our own process is certainly running.
	info := &PIDFile{PID: os.Getpid()}
	if !info.IsRunning() {
		t.Error("expected own PID to be running")
	}

	info = &PIDFile{PID: 0}
	if info.IsRunning() {
		t.Error("PID 0 should never be reported as running")
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5*time.Minute + 10*time.Second, "5m 10s"},
		{2*time.Hour + 3*time.Minute, "2h 3m"},
		{26*time.Hour + 30*time.Minute, "1d 2h 30m"},
	}
	for _, tt := range tests {
		info := &PIDFile{StartTime: time.Now().Add(-tt.age)}
		if got := info.FormatUptime(); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 4380, "http://127.0.0.1:4380"},
		{"0.0.0.0", 4380, "http://localhost:4380"},
		{"", 9000, "http://localhost:9000"},
	}
	for _, tt := range tests {
		info := &PIDFile{Console: ConsoleInfo{Host: tt.host, Port: tt.port}}
		if got := info.ConsoleURL(); got != tt.want {
			t.Errorf("ConsoleURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
