// sanitize-fixtures removes sensitive data from captured fixtures and HAR
// recordings before committing.
//
// Usage:
//
//	go run ./scripts/sanitize-fixtures html --site=demoshop
//	go run ./scripts/sanitize-fixtures har --site=demoshop --scenario=login_success
//	go run ./scripts/sanitize-fixtures har --input=recording.har.json --output=sanitized.har.json
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grez-lucas/uitest/internal/uitest/testutil"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sanitize-fixtures",
		Short: "Remove sensitive data from fixtures before committing",
	}
	root.AddCommand(newHTMLCmd(), newHARCmd())
	return root
}

func newHTMLCmd() *cobra.Command {
	var (
		site   string
		dir    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Redact personal data from the HTML fixtures of a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				if site == "" {
					return fmt.Errorf("either --site or --dir is required")
				}
				dir = testutil.FixturesDir(site)
			}
			return sanitizeHTMLDir(dir, dryRun, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "Site name, e.g. demoshop")
	cmd.Flags().StringVar(&dir, "dir", "", "Fixtures directory (overrides --site)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be changed without modifying files")
	return cmd
}

func sanitizeHTMLDir(dir string, dryRun bool, out io.Writer) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list fixtures: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no HTML files found in %s", dir)
	}

	fmt.Fprintf(out, "🔒 Sanitizing fixtures in %s\n", dir)
	if dryRun {
		fmt.Fprintln(out, "    (DRY RUN - no files will be modified)")
	}
	fmt.Fprintln(out)

	for _, file := range files {
		if err := sanitizeFile(file, dryRun, out); err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✅ Sanitization complete!")
	if dryRun {
		fmt.Fprintln(out, "    Run without --dry-run to apply changes")
	}
	return nil
}

func sanitizeFile(path string, dryRun bool, out io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	sanitized, counts := testutil.SanitizeHTML(string(content))
	name := filepath.Base(path)
	if len(counts) == 0 {
		fmt.Fprintf(out, "📄 %s: No sensitive data found\n", name)
		return nil
	}

	fmt.Fprintf(out, "📄 %s: Found sensitive data\n", name)
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(out, "  - %s: %d matched\n", kind, counts[kind])
	}

	if dryRun {
		return nil
	}
	if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(out, "    ✅ Sanitized and saved")
	return nil
}

func newHARCmd() *cobra.Command {
	var (
		site, scenario string
		input, output  string
		dryRun         bool
	)
	cmd := &cobra.Command{
		Use:   "har",
		Short: "Redact credentials, cookies and tokens from a HAR recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var inPath, outPath string
			switch {
			case site != "" && scenario != "":
				// internal/uitest/site/{site}/testdata/recordings/{scenario}.har.json
				inPath = filepath.Join(filepath.Dir(testutil.FixturesDir(site)), "recordings", scenario+".har.json")
				outPath = inPath
			case input != "":
				inPath, outPath = input, input
				if output != "" {
					outPath = output
				}
			default:
				return fmt.Errorf("either --site with --scenario, or --input is required")
			}
			return sanitizeHARFile(inPath, outPath, dryRun, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "Site name, e.g. demoshop")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Scenario name, e.g. login_success")
	cmd.Flags().StringVar(&input, "input", "", "Input HAR file path")
	cmd.Flags().StringVar(&output, "output", "", "Output HAR file path (defaults to input path)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be redacted without modifying")
	return cmd
}

func sanitizeHARFile(inPath, outPath string, dryRun bool, out io.Writer) error {
	fmt.Fprintf(out, "Loading HAR file: %s\n", inPath)

	// Load HAR (auto-detects devtools vs simplified layout)
	har, err := testutil.LoadHAR(inPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d entries\n", len(har.Entries))

	sanitized := testutil.SanitizeHAR(har)
	changes := redactions(har, sanitized)
	fmt.Fprintf(out, "Redacted %d sensitive values\n", len(changes))

	if dryRun {
		fmt.Fprintln(out, "\n[DRY RUN] No changes written.")
		fmt.Fprintln(out, "\nRedaction Summary:")
		fmt.Fprintln(out, "==================")
		for _, c := range changes {
			fmt.Fprintf(out, "  - %s\n", c)
		}
		return nil
	}

	if err := testutil.SaveHAR(outPath, sanitized); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sanitized HAR saved to: %s\n", outPath)
	fmt.Fprintln(out, "\nSafe to commit!")
	return nil
}

// redactions describes every value SanitizeHAR changed.
func redactions(original, sanitized *testutil.HARLog) []string {
	var changes []string
	for i, orig := range original.Entries {
		san := sanitized.Entries[i]
		entry := fmt.Sprintf("entry %d %s %s", i+1, orig.Request.Method, truncateURL(orig.Request.URL))

		if orig.Request.URL != san.Request.URL {
			changes = append(changes, entry+": URL query parameters")
		}
		for j, h := range orig.Request.Headers {
			if h.Value != san.Request.Headers[j].Value {
				changes = append(changes, fmt.Sprintf("%s: request header '%s'", entry, h.Name))
			}
		}
		if orig.Request.Body != san.Request.Body {
			changes = append(changes, entry+": request body")
		}
		for j, h := range orig.Response.Headers {
			if h.Value != san.Response.Headers[j].Value {
				changes = append(changes, fmt.Sprintf("%s: response header '%s'", entry, h.Name))
			}
		}
		if orig.Response.Content.Text != san.Response.Content.Text {
			changes = append(changes, entry+": response body")
		}
	}
	return changes
}

func truncateURL(url string) string {
	if len(url) > 80 {
		return url[:77] + "..."
	}
	return url
}
