package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/metro-mecard/mecard/internal/domain/failure"
)

func TestFailureMarkers(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []failure.Failure{
		{CustomerID: "222", Stdout: "<error> 222\nsummary", Stderr: ""},
		{CustomerID: "111", Stdout: "<error> 111", Stderr: "warn\r\nmore"},
	} {
		if _, err := writeFailureMarker(dir, f); err != nil {
			t.Fatalf("write marker: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "metro-1-data.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ListFailures(dir)
	if err != nil {
		t.Fatalf("ListFailures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(got))
	}
	if got[0].CustomerID != "111" || got[0].Stderr != "warn more" {
		t.Errorf("unexpected first failure: %+v", got[0])
	}
	if got[1].CustomerID != "222" || got[1].Stdout != "<error> 222 summary" || got[1].Stderr != "" {
		t.Errorf("unexpected second failure: %+v", got[1])
	}

	if err := RemoveFailure(dir, "111"); err != nil {
		t.Fatalf("RemoveFailure: %v", err)
	}
	if err := RemoveFailure(dir, "111"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist on second remove, got %v", err)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"21221012345678": "21221012345678",
		"../../etc/x":    "x",
		"..":             "_",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
