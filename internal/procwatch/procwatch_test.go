package procwatch

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestMatchName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		image string
		want  string
		match bool
	}{
		{"starcitizen", "starcitizen", true},
		{"StarCitizen.exe", "starcitizen", true},
		{`C:\Program Files\Roberts Space Industries\StarCitizen\LIVE\Bin64\StarCitizen.exe`, "starcitizen", true},
		{"/usr/bin/starcitizen\n", "StarCitizen.exe", true},
		{"starcitizen-launcher", "starcitizen", false},
		{"bash", "starcitizen", false},
	}

	for _, tt := range tests {
		if got := matchName(tt.image, tt.want); got != tt.match {
			t.Errorf("matchName(%q, %q) = %v, want %v", tt.image, tt.want, got, tt.match)
		}
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	if ok, _ := Static(true).Running("anything"); !ok {
		t.Fatal("Static(true) reported not running")
	}
	if ok, _ := Static(false).Running("anything"); ok {
		t.Fatal("Static(false) reported running")
	}
}

func TestSystemFindsCurrentProcess(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("process table scan is exercised on linux")
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	ok, err := System{}.Running(filepath.Base(exe))
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if !ok {
		t.Fatalf("expected %s to be running", filepath.Base(exe))
	}

	ok, err = System{}.Running("definitely-not-a-real-process-name")
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if ok {
		t.Fatal("unexpected match for bogus process name")
	}
}
