package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommandExists(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "tenantgate "+Version) {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestRootHasSubcommands(t *testing.T) {
	want := map[string]bool{"simulate": false, "serve": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
