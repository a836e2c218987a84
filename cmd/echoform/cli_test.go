package main

import (
	"bytes"
	"strings"
	"testing"
)

func runRootCommandForTest(args ...string) (string, error) {
	root := buildRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	output, err := runRootCommandForTest("--help")
	if err != nil {
		t.Fatalf("execute --help: %v\nOutput:\n%s", err, output)
	}

	for _, cmd := range []string{"chat", "serve", "sessions", "history", "traits", "onboard", "version"} {
		if !strings.Contains(output, cmd) {
			t.Errorf("help output missing %q command:\n%s", cmd, output)
		}
	}
}

func TestBareInvocationRequiresSubcommand(t *testing.T) {
	_, err := runRootCommandForTest()
	if err == nil {
		t.Fatal("bare invocation should return an error")
	}
	if !strings.Contains(err.Error(), "subcommand") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHistoryRequiresSessionArg(t *testing.T) {
	_, err := runRootCommandForTest("history")
	if err == nil {
		t.Fatal("history without a session id should fail")
	}
}
