package main

// Notes:
// - Generated scripts are not executed by a real shell; tests check that
//   every command and the flags read from the real FlagSets appear, with
//   the value completions their metadata asks for.

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion - Script content per shell
// ---------------------------------------------------------------------------

func TestGenerateCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell Shell
		want  []string
	}{
		{
			shell: ShellBash,
			want: []string{
				"complete -F _web2md web2md",
				"convert serve mcp doctor version help completion",
				"-o|--output)",
				`compgen -W "tesseract vision"`,
				"compgen -f -X '!*.@(yaml|yml)'",
				"compgen -f -X '!*.txt'",
				"--temp-dir)",
				"compgen -d",
				"--journal",
			},
		},
		{
			shell: ShellZsh,
			want: []string{
				"#compdef web2md",
				"'convert:Convert web pages to Markdown'",
				"'(-w --workers)'{-w,--workers}",
				"'--stealth[patch headless browser fingerprints]'",
				":ocr:(tesseract vision)",
				`_files -g "*.yaml *.yml"`,
				"'*:url:'",
				"compdef _web2md web2md",
			},
		},
		{
			shell: ShellFish,
			want: []string{
				"complete -c web2md -f",
				"-n __fish_use_subcommand -a serve",
				"'__fish_seen_subcommand_from convert' -l links",
				"-l lang -s l",
				"-x -a 'tesseract vision'",
			},
		},
		{
			shell: ShellPowerShell,
			want: []string{
				"Register-ArgumentCompleter -Native -CommandName web2md",
				"'convert' = @(",
				"'--merge'",
				"'completion' = @('bash', 'zsh', 'fish', 'powershell')",
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.shell), func(t *testing.T) {
			t.Parallel()

			var buf strings.Builder
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("GenerateCompletion(%s) error = %v", tt.shell, err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("%s script missing %q", tt.shell, want)
				}
			}
		})
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	err := GenerateCompletion(&buf, "tcsh")
	if !errors.Is(err, ErrUnsupportedShell) || !errors.Is(err, ErrUsage) {
		t.Errorf("error = %v, want ErrUnsupportedShell and ErrUsage", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for an unsupported shell", buf.Len())
	}
}

// ---------------------------------------------------------------------------
// TestExtractFlags - FlagSet to completion metadata
// ---------------------------------------------------------------------------

func TestExtractFlagsFromFlagSet(t *testing.T) {
	t.Parallel()

	flags := extractFlagsFromFlagSet(newConvertFlagSet(&convertFlags{}, io.Discard))
	byName := make(map[string]flagDef, len(flags))
	for _, f := range flags {
		byName[f.Long] = f
	}

	tests := []struct {
		name  string
		short string
		typ   flagType
	}{
		{name: "output", short: "o", typ: flagFile},
		{name: "workers", short: "w", typ: flagInt},
		{name: "stealth", typ: flagBool},
		{name: "ocr", typ: flagEnum},
		{name: "block", typ: flagEnum},
		{name: "config", short: "c", typ: flagFile},
		{name: "temp-dir", typ: flagDir},
		{name: "model", typ: flagString},
	}

	for _, tt := range tests {
		f, ok := byName[tt.name]
		if !ok {
			t.Errorf("flag --%s not extracted", tt.name)
			continue
		}
		if f.Short != tt.short || f.Type != tt.typ {
			t.Errorf("--%s = short %q type %d, want %q type %d", tt.name, f.Short, f.Type, tt.short, tt.typ)
		}
	}
}

func TestBashGlobFilter(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"*.txt":        "!*.txt",
		"*.yaml,*.yml": "!*.@(yaml|yml)",
	}
	for in, want := range tests {
		if got := bashGlobFilter(in); got != want {
			t.Errorf("bashGlobFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZshEscape(t *testing.T) {
	t.Parallel()

	if got := zshEscape("it's [a]: b"); got != `it'\''s \[a\]\: b` {
		t.Errorf("zshEscape() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestRunCompletion - Command entry point
// ---------------------------------------------------------------------------

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{name: "usage", args: []string{"web2md", "completion"}, wantCode: ExitSuccess, wantOut: "Usage: web2md completion"},
		{name: "bash", args: []string{"web2md", "completion", "bash"}, wantCode: ExitSuccess, wantOut: "_web2md()"},
		{name: "unsupported", args: []string{"web2md", "completion", "tcsh"}, wantCode: ExitUsage},
		{name: "too many", args: []string{"web2md", "completion", "bash", "zsh"}, wantCode: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv(t, &fakePool{})
			if code := runMain(tt.args, env); code != tt.wantCode {
				t.Errorf("runMain(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			if tt.wantOut != "" && !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout should contain %q", tt.wantOut)
			}
		})
	}
}
