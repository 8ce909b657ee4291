package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assetstore"
	"github.com/alnah/go-web2md/internal/fileutil"
	"github.com/alnah/go-web2md/internal/hints"
	"github.com/alnah/go-web2md/internal/ocr"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorReport is what `web2md doctor --json` prints.
type doctorReport struct {
	Status   string      `json:"status"`
	Browser  browserInfo `json:"browser"`
	OCR      ocrInfo     `json:"ocr"`
	Host     hostInfo    `json:"host"`
	Capture  captureInfo `json:"capture"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// browserInfo describes the Chrome a converter would launch.
type browserInfo struct {
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Download bool   `json:"download"` // rod fetches a managed Chromium on first run
	Sandbox  bool   `json:"sandbox"`
}

// ocrInfo reports which backend a converter would pick and whether it can run.
type ocrInfo struct {
	Backend          string `json:"backend"`
	TesseractVersion string `json:"tesseract_version,omitempty"`
	APIKeySet        bool   `json:"api_key_set"`
}

// hostInfo describes where conversions run.
type hostInfo struct {
	Platform   string `json:"platform"`
	Container  string `json:"container,omitempty"` // signal that detected it
	CI         bool   `json:"ci"`
	GOMAXPROCS int    `json:"gomaxprocs"`
	PoolSize   int    `json:"pool_size"`
	RodSandbox string `json:"rod_no_sandbox,omitempty"`
	RodBrowser string `json:"rod_browser_bin,omitempty"`
}

// captureInfo describes where screenshots are written.
type captureInfo struct {
	TempDir  string   `json:"temp_dir"`
	Writable bool     `json:"writable"`
	Orphans  []string `json:"orphans,omitempty"` // captures left by interrupted runs
}

func (r *doctorReport) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorReport) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd executes the doctor command and returns an exit code:
// 0 when conversions can run (warnings included), 1 otherwise.
func runDoctorCmd(args []string, env *Environment) int {
	asJSON := false
	for _, arg := range args {
		switch arg {
		case "--json":
			asJSON = true
		case "-h", "--help":
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		default:
			fmt.Fprintf(env.Stderr, "unknown doctor argument: %s\n", arg)
			return ExitUsage
		}
	}

	report := diagnose()
	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDoctorReport(env.Stdout, report)
	}

	if report.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// diagnose runs every check against the current process environment.
func diagnose() *doctorReport {
	r := &doctorReport{
		Host: hostInfo{
			Platform:   runtime.GOOS + "/" + runtime.GOARCH,
			GOMAXPROCS: runtime.GOMAXPROCS(0),
			PoolSize:   web2md.ResolvePoolSize(0),
			RodSandbox: os.Getenv("ROD_NO_SANDBOX"),
			RodBrowser: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkBrowser(r)
	checkOCR(r)
	checkHost(r)
	checkCapture(r)

	r.Status = statusReady
	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	}
	return r
}

// checkBrowser locates Chrome the way the renderer's launcher does.
func checkBrowser(r *doctorReport) {
	r.Browser.Sandbox = r.Host.RodSandbox != "1"

	path := r.Host.RodBrowser
	if path == "" {
		found := false
		if path, found = launcher.LookPath(); !found {
			r.Browser.Download = true
			r.warn("Chrome/Chromium not found; a managed Chromium will be downloaded on first run")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		r.fail("Chrome not found at %s", path)
		return
	}
	r.Browser.Path = path

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path comes from rod or ROD_BROWSER_BIN
	if err != nil {
		r.warn("could not read Chrome version: %v", err)
		return
	}
	r.Browser.Version = strings.TrimSpace(string(out))
}

// checkOCR mirrors backend selection: an explicit WEB2MD_OCR_BACKEND, else
// vision when an API key is present, else tesseract.
func checkOCR(r *doctorReport) {
	key := resolveAPIKey()
	r.OCR.APIKeySet = key != ""
	r.OCR.TesseractVersion = ocr.TesseractVersion()

	r.OCR.Backend = os.Getenv("WEB2MD_OCR_BACKEND")
	if r.OCR.Backend == "" {
		r.OCR.Backend = ocr.TesseractName
		if key != "" {
			r.OCR.Backend = ocr.VisionName
		}
	}

	switch r.OCR.Backend {
	case ocr.VisionName:
		if key == "" {
			r.fail("vision backend selected but no API key: set WEB2MD_OCR_API_KEY or TOGETHER_API_KEY")
		}
	case ocr.TesseractName:
		if r.OCR.TesseractVersion == "" {
			r.fail("libtesseract not available")
		}
	default:
		r.fail("unknown OCR backend %q (available: %s)", r.OCR.Backend, strings.Join(ocr.Names(), ", "))
	}
}

// checkHost flags sandboxed Chrome inside containers and CI, where it
// usually fails to start.
func checkHost(r *doctorReport) {
	r.Host.Container = containerSignal()
	r.Host.CI = hints.InCI() || os.Getenv("CIRCLECI") != ""

	if (r.Host.Container != "" || r.Host.CI) && r.Browser.Sandbox {
		r.warn("container or CI detected but ROD_NO_SANDBOX is not set; set ROD_NO_SANDBOX=1")
	}
}

// containerSignal returns the signal that revealed a container, or "".
func containerSignal() string {
	switch {
	case os.Getenv("WEB2MD_CONTAINER") == "1":
		return "WEB2MD_CONTAINER=1"
	case hints.IsInContainer():
		return "/.dockerenv"
	case os.Getenv("container") != "":
		return "container=" + os.Getenv("container")
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return "KUBERNETES_SERVICE_HOST"
	}
	return ""
}

// checkCapture verifies screenshots can be written.
func checkCapture(r *doctorReport) {
	r.Capture.TempDir = os.TempDir()
	if err := fileutil.DirWritable(r.Capture.TempDir); err != nil {
		r.fail("temp directory not writable: %s", r.Capture.TempDir)
		return
	}
	r.Capture.Writable = true

	store, err := assetstore.New(r.Capture.TempDir)
	if err != nil {
		return
	}
	if r.Capture.Orphans, err = store.Orphans(); err == nil && len(r.Capture.Orphans) > 0 {
		r.warn("%d leftover capture(s) in %s", len(r.Capture.Orphans), r.Capture.TempDir)
	}
}

// printDoctorReport writes the human-readable report.
func printDoctorReport(w io.Writer, r *doctorReport) {
	ok := func(format string, args ...any) { fmt.Fprintf(w, "  [OK] "+format+"\n", args...) }

	fmt.Fprintln(w, "web2md doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Browser")
	switch {
	case r.Browser.Path != "":
		ok("Chrome: %s", r.Browser.Path)
		if r.Browser.Version != "" {
			ok("Version: %s", r.Browser.Version)
		}
	case r.Browser.Download:
		fmt.Fprintln(w, "  [WARN] Chrome: not installed, will be downloaded")
	default:
		fmt.Fprintln(w, "  [ERROR] Chrome: not usable")
	}
	if r.Browser.Sandbox {
		ok("Sandbox: enabled")
	} else {
		ok("Sandbox: disabled (ROD_NO_SANDBOX=1)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OCR")
	ok("Backend: %s", r.OCR.Backend)
	if r.OCR.TesseractVersion != "" {
		ok("Tesseract: %s", r.OCR.TesseractVersion)
	}
	if r.OCR.APIKeySet {
		ok("API key: set")
	} else {
		fmt.Fprintln(w, "  [--] API key: not set")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Host")
	ok("Platform: %s", r.Host.Platform)
	ok("Workers: %d (GOMAXPROCS %d)", r.Host.PoolSize, r.Host.GOMAXPROCS)
	if r.Host.Container != "" {
		ok("Container: detected (%s)", r.Host.Container)
	}
	if r.Host.CI {
		ok("CI: detected")
	}
	if r.Capture.Writable {
		ok("Temp directory: %s", r.Capture.TempDir)
	}
	fmt.Fprintln(w)

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "[WARN] %s\n", warn)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "[ERROR] %s\n", e)
	}
	if len(r.Warnings)+len(r.Errors) > 0 {
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: ready with warnings")
	default:
		fmt.Fprintln(w, "Status: not ready (see errors above)")
	}
}
