package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/ocr"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file, optionally filtered by glob
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags, comma-separated
}

// commandDef describes a command for completion.
type commandDef struct {
	Name      string
	Desc      string
	Flags     []flagDef
	TakesURLs bool
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string
	FileGlob string
	IsFile   bool
	IsDir    bool
}

// flagCompletionMeta maps flag names to their completion metadata.
func flagCompletionMeta() map[string]completionMeta {
	return map[string]completionMeta{
		"ocr":        {Values: ocr.Names()},
		"format":     {Values: []string{config.FormatMarkdown, config.FormatHTML}},
		"style":      {Values: assets.StyleNames()},
		"block":      {Values: []string{"images", "fonts", "media", "stylesheets"}},
		"log-level":  {Values: []string{"debug", "info", "warn", "error", "quiet"}},
		"log-format": {Values: []string{"console", "json"}},

		"config":      {FileGlob: "*.yaml,*.yml"},
		"links":       {FileGlob: "*.txt"},
		"journal":     {FileGlob: "*.db"},
		"output":      {IsFile: true},
		"browser-bin": {IsFile: true},

		"temp-dir":   {IsDir: true},
		"asset-path": {IsDir: true},
	}
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet,
// enriched with completion metadata.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	meta := flagCompletionMeta()
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int64", "uint":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if m, ok := meta[f.Name]; ok {
			switch {
			case len(m.Values) > 0:
				fd.Type = flagEnum
				fd.Values = m.Values
			case m.FileGlob != "" || m.IsFile:
				fd.Type = flagFile
				fd.FileGlob = m.FileGlob
			case m.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags come from the same FlagSets the commands parse with.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:      "convert",
			Desc:      "Convert web pages to Markdown",
			Flags:     extractFlagsFromFlagSet(newConvertFlagSet(&convertFlags{}, io.Discard)),
			TakesURLs: true,
		},
		{
			Name:  "serve",
			Desc:  "Run the HTTP conversion server",
			Flags: extractFlagsFromFlagSet(newServeFlagSet(&serveFlags{}, io.Discard)),
		},
		{
			Name:  "mcp",
			Desc:  "Serve the conversion tool over MCP (stdio)",
			Flags: extractFlagsFromFlagSet(newMCPFlagSet(&mcpFlags{}, io.Discard)),
		},
		{
			Name:  "doctor",
			Desc:  "Check browser, OCR and system readiness",
			Flags: []flagDef{{Long: "json", Type: flagBool, Desc: "machine-readable output"}},
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	cmds := getCommands()
	var script string
	switch shell {
	case ShellBash:
		script = generateBash(cmds)
	case ShellZsh:
		script = generateZsh(cmds)
	case ShellFish:
		script = generateFish(cmds)
	case ShellPowerShell:
		script = generatePowerShell(cmds)
	default:
		return fmt.Errorf("%w: %w: %q (supported: bash, zsh, fish, powershell)", ErrUsage, ErrUnsupportedShell, shell)
	}
	if _, err := io.WriteString(w, script); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	if len(args) > 1 {
		return usageError("completion takes one shell, got %d arguments", len(args))
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:        eval \"$(web2md completion bash)\"  # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:         eval \"$(web2md completion zsh)\"   # in ~/.zshrc, after compinit")
	fmt.Fprintln(w, "  Fish:        web2md completion fish > ~/.config/fish/completions/web2md.fish")
	fmt.Fprintln(w, "  PowerShell:  web2md completion powershell | Out-String | Invoke-Expression")
}

// commandNames returns the command names in registry order.
func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// flagWords returns every spelling of the flags, long first.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# bash completion for web2md\n")
	b.WriteString("_web2md() {\n")
	b.WriteString("    local cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    local prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    COMPREPLY=()\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, c := range cmds {
		switch {
		case c.Name == "help":
			b.WriteString("        help)\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(commandNames(cmds), " "))
			b.WriteString("            ;;\n")
			continue
		case c.Name == "completion":
			b.WriteString("        completion)\n")
			b.WriteString("            COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"${cur}\"))\n")
			b.WriteString("            ;;\n")
			continue
		case len(c.Flags) == 0:
			continue
		}

		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            case \"${prev}\" in\n")
		for _, f := range c.Flags {
			if f.Type == flagBool {
				continue
			}
			fmt.Fprintf(&b, "                %s)\n", bashFlagPattern(f))
			if action := bashValueAction(f); action != "" {
				fmt.Fprintf(&b, "                    %s\n", action)
			}
			b.WriteString("                    return\n")
			b.WriteString("                    ;;\n")
		}
		b.WriteString("            esac\n")
		fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"${cur}\"))\n", strings.Join(flagWords(c.Flags), " "))
		b.WriteString("            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _web2md web2md\n")
	return b.String()
}

func bashFlagPattern(f flagDef) string {
	if f.Short != "" {
		return "-" + f.Short + "|--" + f.Long
	}
	return "--" + f.Long
}

func bashValueAction(f flagDef) string {
	switch f.Type {
	case flagEnum:
		return fmt.Sprintf("COMPREPLY=($(compgen -W %q -- \"${cur}\"))", strings.Join(f.Values, " "))
	case flagDir:
		return "COMPREPLY=($(compgen -d -- \"${cur}\"))"
	case flagFile:
		if f.FileGlob == "" {
			return "COMPREPLY=($(compgen -f -- \"${cur}\"))"
		}
		return fmt.Sprintf("COMPREPLY=($(compgen -f -X '%s' -- \"${cur}\"))", bashGlobFilter(f.FileGlob))
	}
	return ""
}

// bashGlobFilter turns "*.yaml,*.yml" into the compgen -X exclusion
// "!*.@(yaml|yml)". Multi-pattern filters rely on extglob, which
// bash-completion enables.
func bashGlobFilter(globs string) string {
	parts := strings.Split(globs, ",")
	if len(parts) == 1 {
		return "!" + parts[0]
	}
	exts := make([]string, len(parts))
	for i, p := range parts {
		exts[i] = strings.TrimPrefix(p, "*.")
	}
	return "!*.@(" + strings.Join(exts, "|") + ")"
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("#compdef web2md\n\n")
	b.WriteString("_web2md() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=\"${words[2]}\"\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n\n")
	b.WriteString("    case \"${cmd}\" in\n")

	for _, c := range cmds {
		switch {
		case c.Name == "help":
			b.WriteString("        help)\n")
			b.WriteString("            _describe 'command' commands\n")
			b.WriteString("            ;;\n")
			continue
		case c.Name == "completion":
			b.WriteString("        completion)\n")
			b.WriteString("            _values 'shell' bash zsh fish powershell\n")
			b.WriteString("            ;;\n")
			continue
		case len(c.Flags) == 0:
			continue
		}

		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments \\\n")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "                %s \\\n", zshFlagSpec(f))
		}
		if c.TakesURLs {
			b.WriteString("                '*:url:' \\\n")
		}
		b.WriteString("                && return\n")
		b.WriteString("            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _web2md web2md\n")
	return b.String()
}

func zshFlagSpec(f flagDef) string {
	desc := "[" + zshEscape(f.Desc) + "]"
	action := zshValueAction(f)

	if f.Short == "" {
		return "'--" + f.Long + desc + action + "'"
	}
	return "'(-" + f.Short + " --" + f.Long + ")'{-" + f.Short + ",--" + f.Long + "}'" + desc + action + "'"
}

func zshValueAction(f flagDef) string {
	switch f.Type {
	case flagBool:
		return ""
	case flagEnum:
		return ":" + f.Long + ":(" + strings.Join(f.Values, " ") + ")"
	case flagDir:
		return ":directory:_files -/"
	case flagFile:
		if f.FileGlob == "" {
			return ":file:_files"
		}
		return ":file:_files -g \"" + strings.ReplaceAll(f.FileGlob, ",", " ") + "\""
	}
	return ":" + f.Long + ":"
}

// zshEscape escapes text placed inside a single-quoted _arguments spec.
func zshEscape(s string) string {
	return strings.NewReplacer(
		"'", `'\''`,
		"[", `\[`,
		"]", `\]`,
		":", `\:`,
	).Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# fish completion for web2md\n")
	b.WriteString("complete -c web2md -f\n\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c web2md -n __fish_use_subcommand -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	b.WriteString("\n")

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_seen_subcommand_from %s'", c.Name)
		switch c.Name {
		case "help":
			fmt.Fprintf(&b, "complete -c web2md -n %s -a '%s'\n", cond, strings.Join(commandNames(cmds), " "))
			continue
		case "completion":
			fmt.Fprintf(&b, "complete -c web2md -n %s -a 'bash zsh fish powershell'\n", cond)
			continue
		}
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c web2md -n %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -d '" + fishEscape(f.Desc) + "'"
			line += fishValueAction(f)
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func fishValueAction(f flagDef) string {
	switch f.Type {
	case flagBool:
		return ""
	case flagEnum:
		return " -x -a '" + strings.Join(f.Values, " ") + "'"
	case flagDir:
		return " -x -a '(__fish_complete_directories)'"
	case flagFile:
		return " -r -F"
	}
	return " -x"
}

func fishEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "'", `\'`).Replace(s)
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func generatePowerShell(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# PowerShell completion for web2md\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName web2md -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		words := flagWords(c.Flags)
		switch c.Name {
		case "help":
			words = commandNames(cmds)
		case "completion":
			words = []string{"bash", "zsh", "fish", "powershell"}
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = "'" + w + "'"
		}
		fmt.Fprintf(&b, "        '%s' = @(%s)\n", c.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $words = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    if ($words.Count -lt 2 -or ($words.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $candidates = $commands.Keys\n")
	b.WriteString("    } else {\n")
	b.WriteString("        $candidates = $commands[$words[1]]\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $candidates | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}
