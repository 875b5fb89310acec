// probe-locators opens pages of a site and reports which of its known
// locators match, walking into every iframe. The output tells which frame
// holds which element and catches locators broken by a site change.
//
// Usage:
//
//	go run ./scripts/probe-locators --site=demoshop --path=/login --path=/catalog
//	go run ./scripts/probe-locators --site=demoshop --driver=html --fixtures=internal/uitest/site/demoshop/testdata/fixtures --base-url=https://shop.test/ --path=/catalog
//	go run ./scripts/probe-locators --site=demoshop --interactive
//
// Settings are read from --config, .env and UITEST_* variables; flags win.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/element"
	"github.com/grez-lucas/uitest/internal/uitest/session"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
	"github.com/grez-lucas/uitest/internal/uitest/site/demoshop"
)

var siteLocators = map[string][]demoshop.NamedLocator{
	"demoshop": demoshop.Locators,
}

type options struct {
	site        string
	config      string
	driver      string
	baseURL     string
	fixtures    string
	paths       []string
	interactive bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "probe-locators",
		Short: "Report which locators of a site match, frame by frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.site, "site", "", "Site name, e.g. demoshop")
	f.StringVar(&opts.config, "config", "", "Settings YAML file")
	f.StringVar(&opts.driver, "driver", "", "Driver: rod, selenium or html")
	f.StringVar(&opts.baseURL, "base-url", "", "Base URL of the site")
	f.StringVar(&opts.fixtures, "fixtures", "", "Fixtures directory for the html driver")
	f.StringArrayVar(&opts.paths, "path", nil, "Page path to probe (repeatable)")
	f.BoolVar(&opts.interactive, "interactive", false, "Navigate by hand and probe on ENTER")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	locators, ok := siteLocators[opts.site]
	if !ok {
		return fmt.Errorf("unknown site %q", opts.site)
	}
	if len(opts.paths) == 0 && !opts.interactive {
		return fmt.Errorf("give at least one --path or use --interactive")
	}

	// Flags may fix what the loaded settings miss; session.Open validates
	// again.
	s, err := settings.Load(opts.config)
	if err != nil && !errors.Is(err, settings.ErrInvalidSettings) {
		return err
	}
	if opts.driver != "" {
		s.Driver = settings.DriverKind(opts.driver)
	}
	if opts.baseURL != "" {
		s.BaseURL = opts.baseURL
	}
	if opts.fixtures != "" {
		s.FixturesDir = opts.fixtures
	}
	if opts.interactive {
		s.Headless = false
	}

	site, closeFn, err := session.Open(ctx, s)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	fmt.Fprintln(out, "================================================================")
	fmt.Fprintf(out, "  LOCATOR PROBE: %s (%s driver)\n", strings.ToUpper(opts.site), s.Driver)
	fmt.Fprintln(out, "================================================================")

	for _, path := range opts.paths {
		if err := site.Open(ctx, path); err != nil {
			fmt.Fprintf(out, "\nPAGE %s: %v\n", path, err)
			continue
		}
		report(ctx, site, locators, out)
	}

	if opts.interactive {
		reader := bufio.NewReader(in)
		for {
			fmt.Fprint(out, "\nNavigate to a page and press ENTER (or 'quit'): ")
			input, err := reader.ReadString('\n')
			if err != nil || strings.TrimSpace(strings.ToLower(input)) == "quit" {
				break
			}
			time.Sleep(500 * time.Millisecond)
			report(ctx, site, locators, out)
		}
	}

	fmt.Fprintln(out, "\n================================================================")
	fmt.Fprintln(out, "  Probe complete.")
	fmt.Fprintln(out, "================================================================")
	return nil
}

func report(ctx context.Context, site *element.Site, locators []demoshop.NamedLocator, out io.Writer) {
	d := site.Driver
	pageURL, _ := d.CurrentURL(ctx)
	title, _ := d.Title(ctx)
	fmt.Fprintln(out, "\n----------------------------------------------------------------")
	fmt.Fprintf(out, "PAGE %s  (%s)\n\n", pageURL, title)

	inspectFrame(ctx, d, nil, "main", 1, locators, out)
	_ = d.SwitchFrame(ctx, nil)
}

// inspectFrame probes the frame reached by following path, an index into
// the iframes of each level, then recurses into its own iframes.
func inspectFrame(ctx context.Context, d driver.Driver, path []int, label string, depth int, locators []demoshop.NamedLocator, out io.Writer) {
	indent := strings.Repeat("  ", depth)
	if err := enter(ctx, d, path); err != nil {
		fmt.Fprintf(out, "%s(cannot access frame: %v)\n", indent, err)
		return
	}

	found := 0
	for _, l := range locators {
		loc, err := by.Parse(l.Locator)
		if err != nil {
			fmt.Fprintf(out, "%sBAD    %-24s  %s  (%v)\n", indent, l.Name, l.Locator, err)
			continue
		}
		els, err := d.FindElements(ctx, loc)
		if err != nil || len(els) == 0 {
			continue
		}
		visible, _ := els[0].IsDisplayed(ctx)
		tag, _ := els[0].TagName(ctx)
		fmt.Fprintf(out, "%sFOUND  %-24s  %s  (count=%d, visible=%v, tag=%s)\n",
			indent, l.Name, l.Locator, len(els), visible, tag)
		found++
	}
	if found == 0 {
		fmt.Fprintf(out, "%s(no known locators found)\n", indent)
	}

	iframes, err := d.FindElements(ctx, by.NewTagName("iframe"))
	if err != nil {
		return
	}
	for i, iframe := range iframes {
		src, _ := iframe.Attribute(ctx, "src")
		id, _ := iframe.Attribute(ctx, "id")
		visible, _ := iframe.IsDisplayed(ctx)

		name := fmt.Sprintf("iframe[%d]", i)
		if id != "" {
			name = "iframe#" + id
		}
		childLabel := label + " > " + name
		fmt.Fprintf(out, "\n%sIFRAME %s  visible=%v  src=%s\n", indent, childLabel, visible, truncate(src, 80))

		inspectFrame(ctx, d, append(append([]int(nil), path...), i), childLabel, depth+1, locators, out)
		// Return to this frame before looking at the next sibling.
		if err := enter(ctx, d, path); err != nil {
			return
		}
	}
}

// enter switches from the top document down the iframe indexes of path.
func enter(ctx context.Context, d driver.Driver, path []int) error {
	if err := d.SwitchFrame(ctx, nil); err != nil {
		return err
	}
	for _, i := range path {
		iframes, err := d.FindElements(ctx, by.NewTagName("iframe"))
		if err != nil {
			return err
		}
		if i >= len(iframes) {
			return fmt.Errorf("iframe %d is gone", i)
		}
		if err := d.SwitchFrame(ctx, iframes[i]); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
