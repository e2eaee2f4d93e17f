package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_FlagValidation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "repo.car")
	if err := os.WriteFile(file, []byte{0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing root", nil, "missing --root"},
		{"root is a file", []string{"--root", file}, "must be a directory"},
		{"root does not exist", []string{"--root", filepath.Join(dir, "nope")}, "must be a directory"},
		{"bad log level", []string{"--root", dir, "--log-level", "loud"}, "loud"},
		{"bad chunk size", []string{"--root", dir, "--chunk-size", "0"}, "--chunk-size"},
		{"unknown flag", []string{"--bogus"}, "bogus"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var errOut bytes.Buffer
			if code := run(context.Background(), tc.args, &errOut); code != 2 {
				t.Fatalf("expected exit 2, got %d (%s)", code, errOut.String())
			}
			if !strings.Contains(errOut.String(), tc.want) {
				t.Fatalf("stderr %q does not mention %q", errOut.String(), tc.want)
			}
		})
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer := time.AfterFunc(100*time.Millisecond, cancel)
	defer timer.Stop()

	var errOut bytes.Buffer
	code := run(ctx, []string{"--root", t.TempDir(), "--listen", "127.0.0.1:0"}, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (%s)", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "carstreamd listening") {
		t.Fatalf("expected listening log, got %q", errOut.String())
	}
}

func TestRun_ListenFailure(t *testing.T) {
	var errOut bytes.Buffer
	code := run(context.Background(), []string{"--root", t.TempDir(), "--listen", "not-an-address"}, &errOut)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d (%s)", code, errOut.String())
	}
}
