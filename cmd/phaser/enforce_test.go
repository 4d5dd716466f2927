package main

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func withStdin(t *testing.T, content string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteString(content); err != nil {
		t.Fatal(err)
	}
	w.Close()

	original := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = original })
}

func TestEnforceRequiresStdinFlag(t *testing.T) {
	enforceStdin = false
	if err := enforceCmd.RunE(enforceCmd, nil); err == nil {
		t.Fatal("expected a usage error when --stdin is not set")
	}
}

func TestEnforceAllowsWhenNoContractsMatch(t *testing.T) {
	withStoreRoot(t)
	withStdin(t, `{"event":"PreToolUse","tool_name":"Read","tool_input":{},"cwd":"/tmp"}`)

	enforceStdin = true
	enforceSeverity = "all"
	defer func() { enforceStdin, enforceSeverity = false, "all" }()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = originalStdout }()

	if err := enforceCmd.RunE(enforceCmd, nil); err != nil {
		w.Close()
		t.Fatalf("enforce: %v", err)
	}
	w.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a JSON decision on stdout")
	}
}

func TestEnforceRejectsMalformedJSON(t *testing.T) {
	withStoreRoot(t)
	withStdin(t, `not json`)

	enforceStdin = true
	defer func() { enforceStdin = false }()

	if err := enforceCmd.RunE(enforceCmd, nil); err == nil {
		t.Fatal("expected an error for malformed envelope JSON")
	}
}
