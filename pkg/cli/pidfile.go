package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PIDFile contains process information for a running mockdeck instance.
type PIDFile struct {
	PID       int         `json:"pid"`
	StartTime time.Time   `json:"startTime"`
	Version   string      `json:"version"`
	Console   ConsoleInfo `json:"console"`
}

// ConsoleInfo records where the console API listens.
type ConsoleInfo struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// DefaultPIDPath returns the default PID file location (~/.mockdeck/mockdeck.pid).
func DefaultPIDPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mockdeck", "mockdeck.pid")
	}
	return filepath.Join(home, ".mockdeck", "mockdeck.pid")
}

// WritePIDFile writes the PID file to the specified path, creating the
// parent directory if needed. The write is atomic via temp file + rename
// so a concurrent reader never sees a partial file.
func WritePIDFile(path string, info *PIDFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal PID file: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename PID file: %w", err)
	}
	return nil
}

// ReadPIDFile reads and parses the PID file from the specified path.
func ReadPIDFile(path string) (*PIDFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("PID file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read PID file: %w", err)
	}

	var info PIDFile
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse PID file: %w", err)
	}
	return &info, nil
}

// RemovePIDFile removes the PID file at the specified path. A missing
// file is not an error.
func RemovePIDFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning checks if the process with the stored PID is still running.
func (p *PIDFile) IsRunning() bool {
	if p.PID <= 0 {
		return false
	}
	return checkProcessRunning(p.PID)
}

// Uptime returns the duration since the process started.
func (p *PIDFile) Uptime() time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	return time.Since(p.StartTime)
}

// FormatUptime returns a human-readable uptime string.
func (p *PIDFile) FormatUptime() string {
	d := p.Uptime()
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if hours >= 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// ConsoleURL returns the console base URL recorded in the PID file.
func (p *PIDFile) ConsoleURL() string {
	host := p.Console.Host
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, p.Console.Port)
}
