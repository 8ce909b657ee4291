package web2md

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/alnah/go-web2md/internal/process"
)

// Renderer drives a headless browser. Each Open returns an isolated session.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
	Close() error
}

// Session is one isolated browsing context, used for a single run.
// Close must be called exactly once the caller is done; extra calls are no-ops.
type Session interface {
	Capture(ctx context.Context, url string) (*Capture, error)
	Close() error
}

// Compile-time interface checks
var (
	_ Renderer = (*rodRenderer)(nil)
	_ Session  = (*rodSession)(nil)
)

// Viewport is the emulated window before the full-page capture expands it.
type Viewport struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// Default render settings.
const (
	defaultRenderTimeout = 30 * time.Second
	defaultSettleIdle    = 500 * time.Millisecond
)

// DefaultViewport is a common laptop window.
var DefaultViewport = Viewport{Width: 1280, Height: 800, Scale: 1}

// RenderOptions configures the rod-backed renderer.
type RenderOptions struct {
	// Timeout bounds navigation plus settling. Zero uses 30s.
	Timeout time.Duration
	// SettleIdle is how long the network must stay quiet after load.
	SettleIdle time.Duration
	Viewport   Viewport
	// Stealth patches common headless fingerprints.
	Stealth bool
	// Block lists resource types not fetched: images, fonts, media, stylesheets.
	Block []string
	// BrowserBin overrides ROD_BROWSER_BIN.
	BrowserBin string
	// ControlURL connects to an already running browser instead of launching one.
	ControlURL string
	NoSandbox  bool
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultRenderTimeout
	}
	if o.SettleIdle <= 0 {
		o.SettleIdle = defaultSettleIdle
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = DefaultViewport
	}
	if o.Viewport.Scale <= 0 {
		o.Viewport.Scale = 1
	}
	return o
}

// rodRenderer implements Renderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	opts RenderOptions

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRenderer creates a renderer that launches the browser on first use.
func NewRenderer(opts RenderOptions) Renderer {
	return &rodRenderer{opts: opts.withDefaults()}
}

// ensureBrowser lazily connects to the browser. ctx bounds the launch,
// including a first-run Chromium download, but not the browser's lifetime.
func (r *rodRenderer) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	controlURL := r.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(true)

		// Pre-installed browser (Docker/containerized environments)
		bin := r.opts.BrowserBin
		if bin == "" {
			bin = os.Getenv("ROD_BROWSER_BIN")
		}
		if bin != "" {
			l = l.Bin(bin)
		}

		// NoSandbox required for CI and containerized environments
		if r.opts.NoSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
			l = l.NoSandbox(true)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBrowserConnect, err)
		}
		r.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		r.killLauncher()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = b
	return b, nil
}

// Open creates an incognito browser context with a single page.
func (r *rodRenderer) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := r.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	var page *rod.Page
	if r.opts.Stealth {
		page, err = stealth.Page(incognito)
	} else {
		page, err = incognito.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	s := &rodSession{browser: incognito, page: page, opts: r.opts}
	if len(r.opts.Block) > 0 {
		s.router = blockResources(page, r.opts.Block)
	}
	return s, nil
}

// Close releases browser resources, killing the whole process group of a
// launched browser so no renderer children outlive it.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		// A remote browser is shared; only its sessions are ours to close.
		if r.launcher != nil {
			err = r.browser.Close()
		}
		r.browser = nil
	}
	r.killLauncher()
	return err
}

// killLauncher must be called with r.mu held.
func (r *rodRenderer) killLauncher() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	r.launcher.Cleanup()
	r.launcher = nil
}

// rodSession is a single incognito context.
type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	opts    RenderOptions

	once     sync.Once
	closeErr error
}

// navigationStatusJS reads the main document's HTTP status from the
// Navigation Timing API. Browsers without responseStatus report 0.
const navigationStatusJS = `() => {
	const nav = performance.getEntriesByType('navigation')[0];
	return nav && nav.responseStatus ? nav.responseStatus : 0;
}`

// Capture navigates to url, waits for the page to settle and takes a
// full-page PNG screenshot.
func (s *rodSession) Capture(ctx context.Context, url string) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Kind: KindTimeout, URL: url, Err: err}
	}

	renderCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	page := s.page.Context(renderCtx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.Viewport.Width,
		Height:            s.opts.Viewport.Height,
		DeviceScaleFactor: s.opts.Viewport.Scale,
	}); err != nil {
		return nil, s.renderErr(renderCtx, KindNavigation, url, err)
	}

	// Registered before navigating so early requests are counted.
	waitIdle := page.WaitRequestIdle(s.opts.SettleIdle, nil, nil, nil)

	if err := page.Navigate(url); err != nil {
		return nil, s.renderErr(renderCtx, KindNavigation, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, s.renderErr(renderCtx, KindNavigation, url, err)
	}
	waitIdle()
	if err := renderCtx.Err(); err != nil {
		return nil, &RenderError{Kind: KindTimeout, URL: url, Err: fmt.Errorf("%w: %v", ErrRenderTimeout, err)}
	}

	status := 0
	if res, err := page.Eval(navigationStatusJS); err == nil {
		status = res.Value.Int()
	}
	if status != 0 && (status < 200 || status > 299) {
		return nil, &RenderError{Kind: KindNavigation, URL: url, Err: fmt.Errorf("%w: HTTP %d", ErrNavigation, status)}
	}

	img, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, s.renderErr(renderCtx, KindCaptureFailed, url, err)
	}
	if len(img) == 0 {
		return nil, &RenderError{Kind: KindCaptureFailed, URL: url, Err: fmt.Errorf("%w: empty image", ErrCaptureFailed)}
	}

	return &Capture{
		Image:      img,
		PageURL:    url,
		Status:     status,
		CapturedAt: time.Now(),
	}, nil
}

// renderErr builds a RenderError, reporting a timeout whenever the render
// deadline expired regardless of the step that noticed it.
func (s *rodSession) renderErr(ctx context.Context, kind Kind, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &RenderError{Kind: KindTimeout, URL: url, Err: fmt.Errorf("%w: %v", ErrRenderTimeout, err)}
	}
	return &RenderError{Kind: kind, URL: url, Err: err}
}

// Close disposes the incognito context and everything in it.
func (s *rodSession) Close() error {
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.page != nil {
			_ = s.page.Close()
		}
		s.closeErr = s.browser.Close()
	})
	return s.closeErr
}

// blockResources fails requests for the listed resource types.
func blockResources(page *rod.Page, types []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]bool, len(types))
	for _, t := range types {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "images", "image":
			blocked[proto.NetworkResourceTypeImage] = true
		case "fonts", "font":
			blocked[proto.NetworkResourceTypeFont] = true
		case "media":
			blocked[proto.NetworkResourceTypeMedia] = true
		case "stylesheets", "stylesheet":
			blocked[proto.NetworkResourceTypeStylesheet] = true
		}
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
