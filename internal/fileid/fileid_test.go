package fileid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	h1 := Hash("/foo/bar.txt")
	h2 := Hash("/foo/bar.txt")
	if h1 != h2 {
		t.Errorf("same path should give same hash: %q vs %q", h1, h2)
	}
	if len(h1) != 12 {
		t.Errorf("hash length = %d, want 12", len(h1))
	}
}

func TestHash_differentPaths(t *testing.T) {
	if Hash("/foo/bar.txt") == Hash("/foo/baz.txt") {
		t.Error("different paths should give different hashes")
	}
}

func TestHash_normalized(t *testing.T) {
	h1 := Hash("/foo/bar")
	if h2 := Hash("/foo/bar/"); h1 != h2 {
		t.Errorf("paths differing only by trailing slash should match: %q vs %q", h1, h2)
	}
	if h3 := Hash("/foo/./bar"); h1 != h3 {
		t.Errorf("paths with . should normalize: %q vs %q", h1, h3)
	}
}

func TestOutputName(t *testing.T) {
	name := OutputName("/data/in/report.pdf")
	if !strings.HasPrefix(name, "report.pdf.") {
		t.Errorf("OutputName should start with the base name: %q", name)
	}
	if !strings.HasSuffix(name, Suffix) {
		t.Errorf("OutputName should end with %q: %q", Suffix, name)
	}
	if OutputName("/data/a/report.pdf") == OutputName("/data/b/report.pdf") {
		t.Error("same base name in different directories should not collide")
	}
}

func TestIsOutput(t *testing.T) {
	abs, _ := filepath.Abs("notes.txt")
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"generated name", OutputName(abs), true},
		{"plain json", "/tmp/data.json", false},
		{"source document", "/tmp/report.pdf", false},
		{"short hash", "report.pdf.abc.json", false},
		{"non hex hash", "report.pdf.zzzzzzzzzzzz.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOutput(tt.in); got != tt.want {
				t.Errorf("IsOutput(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
