// capture-fixtures opens a visible browser, walks you through the pages of
// a site and saves each one as an HTML fixture plus a screenshot.
//
// Usage:
//
//	go run ./scripts/capture-fixtures --site=demoshop
//	go run ./scripts/capture-fixtures --site=demoshop --output=/tmp/fixtures --sanitize=false
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grez-lucas/uitest/internal/uitest/driver/roddriver"
	"github.com/grez-lucas/uitest/internal/uitest/testutil"
)

// PageCapture is one fixture to capture.
type PageCapture struct {
	Name         string
	Instructions string
}

// Pages to capture for each site
var capturePages = map[string][]PageCapture{
	"demoshop": {
		{Name: "login", Instructions: "Navigate to the login page (don't sign in yet)"},
		{Name: "login_error", Instructions: "Enter INVALID credentials and submit"},
		{Name: "catalog", Instructions: "Sign in with VALID credentials, wait for the catalog"},
		{Name: "catalog/2", Instructions: "Open the second catalog page"},
	},
}

type options struct {
	site     string
	output   string
	bin      string
	sanitize bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "capture-fixtures",
		Short: "Capture HTML fixtures of a site from a real browser",
		Long: `Capture HTML fixtures of a site from a real browser.

Shadow DOM and iframe content are inlined into the saved HTML so the
in-memory driver can search it like a flat document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.site, "site", "", "Site name, e.g. demoshop")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output directory (default: internal/uitest/site/{site}/testdata/fixtures)")
	cmd.Flags().StringVar(&opts.bin, "bin", "", "Browser binary (default: rod's managed browser)")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", true, "Redact personal data before saving")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	pages, ok := capturePages[opts.site]
	if !ok {
		return fmt.Errorf("unknown site %q", opts.site)
	}

	outDir := opts.output
	if outDir == "" {
		outDir = testutil.FixturesDir(opts.site)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║           FIXTURE CAPTURE TOOL                                 ║")
	fmt.Fprintln(out, "╠════════════════════════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  Site: %-54s  ║\n", strings.ToUpper(opts.site))
	fmt.Fprintf(out, "║  Output: %-52s  ║\n", outDir)
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)

	d, err := roddriver.Open(ctx, roddriver.Config{Headless: false, Stealth: true, Bin: opts.bin})
	if err != nil {
		return err
	}
	defer func() { _ = d.Quit() }()

	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "📋 Instructions:")
	fmt.Fprintln(out, "   - A browser window has opened")
	fmt.Fprintln(out, "   - Follow the prompts below")
	fmt.Fprintln(out, "   - Press ENTER after completing each step")
	fmt.Fprintln(out, "   - Type 'skip' to skip a page, 'quit' to exit")
	fmt.Fprintln(out)

	for _, capture := range pages {
		fmt.Fprintln(out, "────────────────────────────────────────────────────────────────")
		fmt.Fprintf(out, "📄 Capturing: %s.html\n", capture.Name)
		fmt.Fprintf(out, "📝 Instructions: %s\n", capture.Instructions)
		fmt.Fprint(out, "   Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			fmt.Fprintln(out, "\n👋 Exiting...")
			break
		}
		if input == "skip" {
			fmt.Fprintf(out, "   ⏭️  Skipped %s\n\n", capture.Name)
			continue
		}

		if err := captureOne(ctx, d, opts, outDir, capture, out); err != nil {
			fmt.Fprintf(out, "   ❌ %v\n\n", err)
		}
	}

	saveMetadata(outDir, opts.site)

	fmt.Fprintln(out, "════════════════════════════════════════════════════════════════")
	fmt.Fprintln(out, "✅ Capture complete!")
	if !opts.sanitize {
		fmt.Fprintln(out, "⚠️  Fixtures were NOT sanitized. Run:")
		fmt.Fprintln(out, "   go run ./scripts/sanitize-fixtures html --site="+opts.site)
	}
	fmt.Fprintln(out, "════════════════════════════════════════════════════════════════")
	return nil
}

func captureOne(ctx context.Context, d *roddriver.Driver, opts options, outDir string, capture PageCapture, out io.Writer) error {
	// -- Step 1: Wait for DOM to stabilize, including iframes
	if err := roddriver.WaitFrames(ctx, d.Page()); err != nil {
		fmt.Fprintf(out, "   ⚠️  Frames not settled: %v\n", err)
	}
	time.Sleep(1 * time.Second)

	base := filepath.Join(outDir, filepath.FromSlash(capture.Name))
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// -- Step 2: Screenshot BEFORE the DOM is flattened
	if buf, err := d.Screenshot(ctx); err == nil {
		if err := os.WriteFile(base+".png", buf, 0o644); err != nil {
			fmt.Fprintf(out, "   ⚠️  Error saving screenshot: %v\n", err)
		} else {
			fmt.Fprintf(out, "   📸 Screenshot: %s.png\n", base)
		}
	} else {
		fmt.Fprintf(out, "   ⚠️  Screenshot failed: %v\n", err)
	}

	// -- Step 3: Inline shadow roots and iframes
	html, stats, err := d.FlattenedHTML(ctx)
	if err != nil {
		return fmt.Errorf("capture HTML: %w", err)
	}
	if stats.Frames > 0 || stats.ShadowRoots > 0 {
		fmt.Fprintf(out, "   🔲 Inlined %d iframe(s) and %d shadow root(s)\n", stats.Frames, stats.ShadowRoots)
	}

	if opts.sanitize {
		var counts map[string]int
		html, counts = testutil.SanitizeHTML(html)
		for what, n := range counts {
			fmt.Fprintf(out, "   🧹 Redacted %d × %s\n", n, what)
		}
	}

	// -- Step 4: Save HTML fixture
	if err := os.WriteFile(base+".html", []byte(html), 0o644); err != nil {
		return fmt.Errorf("save HTML: %w", err)
	}

	pageURL, _ := d.CurrentURL(ctx)
	fmt.Fprintf(out, "   ✅ Saved: %s.html\n", base)
	fmt.Fprintf(out, "   🔗 URL: %s\n\n", pageURL)
	return nil
}

func saveMetadata(outDir, site string) {
	metadata := fmt.Sprintf(`# Fixture Metadata
site: %s
captured_at: %s
captured_by: %s

## Files
See .html files in this directory.
Screenshots (.png) provided for visual reference.

## Flattening

Shadow roots and same-origin iframes are inlined during capture:

    <div data-shadow-root>...</div>
    <div data-captured-iframe="true" data-iframe-src="...">...</div>

Serve the directory with htmldriver.WithFS to run page objects against it.

## Notes
- Re-run capture if tests start failing after a site change
`, site, time.Now().Format(time.RFC3339), os.Getenv("USER"))

	_ = os.WriteFile(filepath.Join(outDir, "README.md"), []byte(metadata), 0o644)
}
