package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	cases := map[string]string{
		"/etc/intellisearch.yaml": "/etc/intellisearch.yaml",
		"":                        "",
		"~":                       home,
		"~/cfg/relay.toml":        filepath.Join(home, "cfg", "relay.toml"),
		"~other/relay.yaml":       "~other/relay.yaml",
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ExpandHome(%q)=%q want %q", in, got, want)
		}
	}
}

func TestRegularFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, ".env")
	if RegularFile(p) {
		t.Fatalf("missing file reported as present")
	}
	if err := os.WriteFile(p, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if !RegularFile(p) {
		t.Fatalf("file not detected")
	}
	if RegularFile(d) {
		t.Fatalf("directory reported as regular file")
	}
}
