package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "apitrail" {
		t.Errorf("Use = %q", cmd.Use)
	}

	want := map[string]bool{"crawl": false, "history": false, "init": false, "version": false}
	for _, sub := range cmd.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_Help(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "crawl") {
		t.Errorf("help output missing crawl command:\n%s", out.String())
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"explode"})

	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with unknown command succeeded")
	}
}
