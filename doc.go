// Package web2md converts web pages to Markdown by rendering them in headless
// Chrome, capturing a full-page screenshot and running OCR on it.
//
// # Quick Start
//
// Create a converter, convert a URL, and close when done:
//
//	conv, err := web2md.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	md, err := conv.Convert(ctx, "https://example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md)
//
// A page with no readable text is a success with empty Markdown.
//
// # Conversion Pipeline
//
// Each run goes through these stages:
//
//  1. Rendering: a fresh incognito browser session loads the page and waits
//     for it to settle, then captures a full-page PNG.
//  2. The capture is written to a temporary file unique to the run.
//  3. Extracting: an OCR backend (Tesseract or a hosted vision model)
//     recognizes the text.
//  4. The text is normalized into Markdown.
//
// The browser session is released when rendering ends and the temporary file
// when extraction ends, on every path including failures and panics.
//
// # Errors
//
// Convert returns a *ConversionError wrapping a *RenderError or
// *ExtractionError. Use errors.Is with the sentinels to branch:
//
//	_, err := conv.Convert(ctx, url)
//	switch {
//	case errors.Is(err, web2md.ErrRenderTimeout):
//	    // page never settled
//	case errors.Is(err, web2md.ErrBackendUnavailable):
//	    // OCR service down or misconfigured
//	}
//
// Run reports the same failure as data in Outcome.Failure and never returns
// an error. Runs are never retried.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := web2md.NewConverter(
//	    web2md.WithTimeout(time.Minute),
//	    web2md.WithOCR(web2md.OCRConfig{
//	        Backend: "vision",
//	        APIKey:  apiKey,
//	    }),
//	)
//
// The library never reads API keys from the environment; callers pass them in.
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to manage multiple browser instances:
//
//	pool := web2md.NewConverterPool(4)
//	defer pool.Close()
//
//	out := pool.Run(ctx, web2md.Request{URL: url})
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
// The Tesseract backend needs libtesseract at build and run time.
package web2md
