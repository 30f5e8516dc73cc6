package updatelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerAppendsTaggedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.log")
	l := New(path, false)

	l.Infof("installing update: %s", "2.0.0")
	l.Warnf("slow disk")
	l.Errorf("copy failed: %v", os.ErrPermission)
	l.Successf(MarkerUpdateSuccess)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, want := range []string{"[INFO]", "[WARNING]", "[ERROR]", "[SUCCESS]"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want tag %s", i, lines[i], want)
		}
		if !strings.HasPrefix(lines[i], "[") {
			t.Errorf("line %d missing timestamp prefix: %q", i, lines[i])
		}
	}
}

func TestScanStatus(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		succeed bool
		errLine bool
		exists  bool
	}{
		{
			name:    "success marker",
			lines:   []string{"[2025-01-02 03:04:05] [INFO] installing update: x", "[2025-01-02 03:05:06] [SUCCESS] UPDATE_SUCCESS version 2.0.0"},
			succeed: true,
			exists:  true,
		},
		{
			name:    "installer marker",
			lines:   []string{"[2025-01-02 03:05:06] [SUCCESS] INSTALLER_SUCCESS"},
			succeed: true,
			exists:  true,
		},
		{
			name:    "error after start",
			lines:   []string{"[2025-01-02 03:04:05] [INFO] installing update: x", "[2025-01-02 03:05:06] [ERROR] copy failed"},
			succeed: false,
			errLine: true,
			exists:  true,
		},
		{
			name:    "error superseded by later success",
			lines:   []string{"[t] [ERROR] first attempt failed", "[t] [SUCCESS] UPDATE_SUCCESS"},
			succeed: true,
			exists:  true,
		},
		{
			name:   "missing file",
			exists: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "update.log")
			if tt.exists {
				if err := os.WriteFile(path, []byte(strings.Join(tt.lines, "\n")+"\n"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			st, err := ScanStatus(path)
			if err != nil {
				t.Fatalf("ScanStatus error: %v", err)
			}
			if st.LogExists != tt.exists {
				t.Errorf("LogExists = %v, want %v", st.LogExists, tt.exists)
			}
			if st.Succeeded != tt.succeed {
				t.Errorf("Succeeded = %v, want %v", st.Succeeded, tt.succeed)
			}
			if tt.errLine && st.ErrorLine == "" {
				t.Error("expected ErrorLine to be set")
			}
		})
	}
}

func TestScanStatusPicksUpLastAttemptTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.log")
	content := "[2025-06-01 10:00:00] [INFO] installing update: app.zip\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := ScanStatus(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.LastAttempt != "2025-06-01 10:00:00" {
		t.Errorf("LastAttempt = %q", st.LastAttempt)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.log")
	if err := Clear(path); err != nil {
		t.Errorf("Clear on missing file: %v", err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Clear(path); err != nil {
		t.Errorf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("log file still present after Clear")
	}
}
