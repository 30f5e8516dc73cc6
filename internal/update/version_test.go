package update

import "testing"

func TestIsNewerTimestampScheme(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
		want      bool
	}{
		{"later day", "2025.07.19.0900+aaaaaaa", "2025.07.20.0900+aaaaaaa", true},
		{"earlier day", "2025.07.20.0900+aaaaaaa", "2025.07.19.0900+aaaaaaa", false},
		{"later minute same day", "2025.07.20.0900+aaaaaaa", "2025.07.20.0901+aaaaaaa", true},
		{"later year", "2024.12.31.2359+aaaaaaa", "2025.01.01.0000+aaaaaaa", true},
		{"identical", "2025.07.20.1542+8f3ab12", "2025.07.20.1542+8f3ab12", false},
		{"same time hash tie-break greater", "2025.07.20.1542+1111111", "2025.07.20.1542+2222222", true},
		{"same time hash tie-break lesser", "2025.07.20.1542+2222222", "2025.07.20.1542+1111111", false},
		{"eight char hash", "2025.07.20.1542+8f3ab12f", "2025.07.21.0000+8f3ab12f", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewer(tt.current, tt.candidate); got != tt.want {
				t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIsNewerDottedScheme(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
		want      bool
	}{
		{"patch bump", "1.2.3", "1.2.4", true},
		{"minor bump", "1.2.3", "1.3.0", true},
		{"major bump", "1.9.9", "2.0.0", true},
		{"downgrade", "2.0.0", "1.9.9", false},
		{"equal", "1.2.3", "1.2.3", false},
		{"v prefix mix", "v1.2.3", "1.2.4", true},
		{"prerelease older than release", "1.2.3", "1.2.3-rc.1", false},
		{"release newer than prerelease", "1.2.3-rc.1", "1.2.3", true},
		{"two component", "1.2", "1.3", true},
		{"four component loose", "1.2.3.4", "1.2.3.5", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewer(tt.current, tt.candidate); got != tt.want {
				t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.current, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIsNewerMixedAndUnparseable(t *testing.T) {
	// Scheme switch: any different version counts as an update.
	if !IsNewer("1.2.3", "2025.07.20.1542+8f3ab12") {
		t.Error("dotted -> timestamp should be an update")
	}
	if !IsNewer("2025.07.20.1542+8f3ab12", "1.2.3") {
		t.Error("timestamp -> dotted should be an update")
	}
	// Dev builds always update.
	if !IsNewer("dev", "1.0.0") {
		t.Error("dev build should accept any release")
	}
	// Identical garbage is never an update.
	if IsNewer("dev", "dev") {
		t.Error("identical strings are never newer")
	}
}

func TestIsTimestampVersion(t *testing.T) {
	valid := []string{"2025.07.20.1542+8f3ab12", "v2025.07.20.1542+8f3ab12f"}
	for _, v := range valid {
		if !IsTimestampVersion(v) {
			t.Errorf("IsTimestampVersion(%q) = false, want true", v)
		}
	}
	invalid := []string{
		"1.2.3",
		"2025.07.20.1542",           // no hash
		"2025.07.20.1542+8F3AB12",   // uppercase hex
		"2025.07.20.1542+12345",     // hash too short
		"2025.07.20.1542+123456789", // hash too long
		"2025.7.20.1542+8f3ab12",    // month not zero-padded
	}
	for _, v := range invalid {
		if IsTimestampVersion(v) {
			t.Errorf("IsTimestampVersion(%q) = true, want false", v)
		}
	}
}
