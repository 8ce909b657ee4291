package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert web pages to Markdown")
	fmt.Fprintln(w, "  serve      Run the HTTP conversion server")
	fmt.Fprintln(w, "  mcp        Serve the conversion tool over MCP (stdio)")
	fmt.Fprintln(w, "  doctor     Check browser, OCR and system readiness")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'web2md help <command>' for details on a specific command.")
}

// printCommonFlags prints flags shared by converting commands.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel conversions (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Whole-run timeout (e.g., 45s, 2m)")
	fmt.Fprintln(w, "      --temp-dir <dir>      Directory for temporary captures")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom prompts and styles")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --stealth             Patch headless fingerprints")
	fmt.Fprintln(w, "      --block <types>       Skip resources: images, fonts, media, stylesheets")
	fmt.Fprintln(w, "      --width <px>          Viewport width (default 1280)")
	fmt.Fprintln(w, "      --height <px>         Viewport height (default 800)")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium binary")
	fmt.Fprintln(w, "      --control-url <url>   Use a running browser")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OCR:")
	fmt.Fprintln(w, "      --ocr <backend>       tesseract or vision (default: vision if an API key is set)")
	fmt.Fprintln(w, "  -l, --lang <codes>        Tesseract languages (e.g., eng,fra)")
	fmt.Fprintln(w, "      --model <name>        Vision model")
	fmt.Fprintln(w, "      --base-url <url>      OpenAI-compatible API base URL")
	fmt.Fprintln(w, "      --prompt <name>       Vision prompt asset")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "General:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-run details")
	fmt.Fprintln(w, "      --log-level <level>   debug, info, warn, error, quiet")
	fmt.Fprintln(w, "      --log-format <fmt>    console or json")
}

// printEnvVars prints the environment variables read by converting commands.
func printEnvVars(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  WEB2MD_OCR_API_KEY        Vision API key (fallback: TOGETHER_API_KEY)")
	fmt.Fprintln(w, "  WEB2MD_CONFIG, WEB2MD_TIMEOUT, WEB2MD_WORKERS, WEB2MD_OCR_BACKEND, ...")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN, ROD_NO_SANDBOX=1 (containers and CI)")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md convert <url>... [flags]")
	fmt.Fprintln(w, "       web2md convert --links <file> [-o <dir>] [--merge <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render web pages in headless Chrome and OCR them to Markdown.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  url      Page to convert (http, https, file, data)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       File for one URL (default stdout), directory for batches")
	fmt.Fprintln(w, "      --links <file>        One URL per line, # for comments")
	fmt.Fprintln(w, "      --merge <name>        Also write <name>_merged_<timestamp>.md")
	fmt.Fprintln(w, "  -f, --format <fmt>        md or html")
	fmt.Fprintln(w, "      --style <name>        CSS style for html output")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printEnvVars(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  web2md convert https://example.com")
	fmt.Fprintln(w, "  web2md convert https://example.com -o page.md --ocr tesseract -l eng,fra")
	fmt.Fprintln(w, "  web2md convert --links links.txt -o out/ -w 4 --merge school")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve conversions over HTTP:")
	fmt.Fprintln(w, "  POST /convert        {\"url\": \"...\"} -> {\"markdown\": \"...\"}")
	fmt.Fprintln(w, "  GET  /convert/<url>  -> {\"success\", \"url\", \"markdown\" | \"error\"}")
	fmt.Fprintln(w, "  GET  /ok             health check")
	fmt.Fprintln(w, "  GET  /history        recent runs (needs --journal)")
	fmt.Fprintln(w, "Add ?format=html to either convert route for an html field.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --host <host>         Listen host (default 0.0.0.0)")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port (default 3000)")
	fmt.Fprintln(w, "      --journal <path>      SQLite run journal")
	fmt.Fprintln(w, "      --style <name>        CSS style for html responses")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printEnvVars(w)
}

// printMCPUsage prints usage for the mcp command.
func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md mcp [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the web2md_convert tool to an MCP client over stdin/stdout.")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	printEnvVars(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: web2md doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, OCR backends, temp directory and container settings.")
	fmt.Fprintln(w, "Exits 1 when a conversion could not run.")
}

// runHelp prints help for a command and returns an exit code.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "mcp":
		printMCPUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: web2md version")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: web2md help [command]")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
