package main

import (
	"strings"
	"testing"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no command", args: nil, wantCode: ExitSuccess, wantStdout: "Commands:"},
		{name: "convert", args: []string{"convert"}, wantCode: ExitSuccess, wantStdout: "--merge <name>"},
		{name: "serve", args: []string{"serve"}, wantCode: ExitSuccess, wantStdout: "GET  /history"},
		{name: "mcp", args: []string{"mcp"}, wantCode: ExitSuccess, wantStdout: "web2md_convert"},
		{name: "doctor", args: []string{"doctor"}, wantCode: ExitSuccess, wantStdout: "--json"},
		{name: "version", args: []string{"version"}, wantCode: ExitSuccess, wantStdout: "Usage: web2md version"},
		{name: "help", args: []string{"help"}, wantCode: ExitSuccess, wantStdout: "Usage: web2md help"},
		{name: "unknown", args: []string{"pdf"}, wantCode: ExitUsage, wantStderr: "unknown command: pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv(t, &fakePool{})
			if code := runHelp(tt.args, env); code != tt.wantCode {
				t.Errorf("runHelp(%v) = %d, want %d", tt.args, code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout should contain %q, got %q", tt.wantStdout, stdout.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr should contain %q, got %q", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestHelp_EveryCommandDocumentsCommonFlags(t *testing.T) {
	t.Parallel()

	for _, cmd := range []string{"convert", "serve", "mcp"} {
		env, stdout, _ := newTestEnv(t, &fakePool{})
		runHelp([]string{cmd}, env)
		for _, flag := range []string{"--workers", "--ocr", "--config", "ROD_NO_SANDBOX"} {
			if !strings.Contains(stdout.String(), flag) {
				t.Errorf("help %s missing %s", cmd, flag)
			}
		}
	}
}
