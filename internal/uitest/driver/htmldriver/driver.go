// Package htmldriver is an in-memory driver over static HTML. It parses
// pages with goquery and evaluates XPath with htmlquery, and simulates the
// interactions page objects rely on (clicks on checkboxes, radios, options
// and links, typing into fields) so page objects can be tested against
// captured fixtures without a browser.
package htmldriver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

var ErrPageNotFound = errors.New("page not found")

// blankURL is the address of a driver created from a literal document.
const blankURL = "about:blank"

// ClickHandler runs after the default click behaviour of a matching element.
type ClickHandler func(d *Driver, el *Element) error

// ScriptHandler implements a script for ExecuteScript.
type ScriptHandler func(d *Driver, args []any) (any, error)

type clickRoute struct {
	loc     by.Locator
	handler ClickHandler
}

// Driver is safe for concurrent use.
type Driver struct {
	mu sync.Mutex

	doc     *html.Node
	scope   *html.Node // search root after SwitchFrame
	url     string
	history []string
	frames  map[*html.Node]*html.Node

	pages map[string]string
	fsys  fs.FS
	base  *url.URL

	clicks  []clickRoute
	scripts map[string]ScriptHandler
	hovered *html.Node
	closed  bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithPage serves html at the absolute address rawURL.
func WithPage(rawURL, doc string) Option {
	return func(d *Driver) {
		d.pages[normalizeURL(rawURL)] = doc
	}
}

// WithFS serves files from fsys for addresses under baseURL. A path ending
// in "/" serves its index.html.
func WithFS(fsys fs.FS, baseURL string) Option {
	return func(d *Driver) {
		d.fsys = fsys
		d.base, _ = url.Parse(baseURL)
	}
}

// WithScript registers a handler for an exact script text.
func WithScript(script string, h ScriptHandler) Option {
	return func(d *Driver) {
		d.scripts[script] = h
	}
}

func New(opts ...Option) *Driver {
	d := &Driver{
		pages:   make(map[string]string),
		scripts: make(map[string]ScriptHandler),
		frames:  make(map[*html.Node]*html.Node),
		url:     blankURL,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.doc, _ = html.Parse(strings.NewReader(""))
	return d
}

// FromHTML returns a driver showing doc.
func FromHTML(doc string, opts ...Option) (*Driver, error) {
	d := New(opts...)
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d.doc = root
	return d, nil
}

// OnClick registers h for clicks on elements matched by loc.
func (d *Driver) OnClick(loc by.Locator, h ClickHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, clickRoute{loc: loc, handler: h})
}

// Mutate runs fn against the current document.
func (d *Driver) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(goquery.NewDocumentFromNode(d.doc))
}

// Hovered returns the element the pointer was last moved to.
func (d *Driver) Hovered() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hovered == nil {
		return nil
	}
	return &Element{d: d, n: d.hovered}
}

// History returns visited addresses, oldest first.
func (d *Driver) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.history...)
}

func (d *Driver) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return d.find(d.searchRoot(), loc)
}

func (d *Driver) Get(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.navigate(rawURL, true)
}

func (d *Driver) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.history) < 2 {
		return nil
	}
	d.history = d.history[:len(d.history)-1]
	return d.navigate(d.history[len(d.history)-1], false)
}

func (d *Driver) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.url == blankURL {
		return nil
	}
	return d.navigate(d.url, false)
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(goquery.NewDocumentFromNode(d.doc).Find("title").First().Text()), nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.doc); err != nil {
		return "", fmt.Errorf("render page source: %w", err)
	}
	return b.String(), nil
}

func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	return nil, fmt.Errorf("screenshot: %w", driver.ErrUnsupported)
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.TrimSpace(script) {
	case driver.ScriptClick:
		el, err := d.elementArg(args, 0)
		if err != nil {
			return nil, err
		}
		return nil, d.click(el, false)

	case driver.ScriptSetAttribute:
		el, err := d.elementArg(args, 0)
		if err != nil {
			return nil, err
		}
		if len(args) < 3 {
			return nil, fmt.Errorf("setAttribute needs 3 arguments, got %d", len(args))
		}
		return nil, el.SetAttribute(ctx, fmt.Sprint(args[1]), fmt.Sprint(args[2]))

	case driver.ScriptSelectOption:
		el, err := d.elementArg(args, 0)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		if el.n.Data != "option" {
			return nil, fmt.Errorf("select option: <%s> is not an option", el.n.Data)
		}
		activate(el.n)
		return nil, nil

	case driver.ScriptScrollIntoView:
		_, err := d.elementArg(args, 0)
		return nil, err
	}

	d.mu.Lock()
	h, ok := d.scripts[script]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("script %q: %w", script, driver.ErrUnsupported)
	}
	return h(d, args)
}

func (d *Driver) SwitchFrame(ctx context.Context, frame driver.WebElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil {
		d.scope = nil
		return nil
	}

	el, ok := frame.(*Element)
	if !ok || el.d != d {
		return fmt.Errorf("switch frame: element from another driver")
	}
	if !d.attached(el.n) {
		return driver.ErrStaleElement
	}

	root := el.n
	if strings.EqualFold(el.n.Data, "iframe") {
		doc, err := d.frameDocument(el.n)
		if err != nil {
			return err
		}
		root = doc
	}
	d.scope = root
	return nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) checkOpen() error {
	if d.closed {
		return errors.New("driver has quit")
	}
	return nil
}

func (d *Driver) searchRoot() *html.Node {
	if d.scope != nil && (d.attached(d.scope) || d.isFrameDocument(d.scope)) {
		return d.scope
	}
	return d.doc
}

func (d *Driver) isFrameDocument(n *html.Node) bool {
	for _, doc := range d.frames {
		if doc == n {
			return true
		}
	}
	return false
}

// frameDocument parses the srcdoc of an iframe once.
func (d *Driver) frameDocument(iframe *html.Node) (*html.Node, error) {
	if doc, ok := d.frames[iframe]; ok {
		return doc, nil
	}
	doc, err := html.Parse(strings.NewReader(attr(iframe, "srcdoc")))
	if err != nil {
		return nil, fmt.Errorf("parse iframe srcdoc: %w", err)
	}
	d.frames[iframe] = doc
	return doc, nil
}

// navigate loads rawURL, resolved against the current address. Callers hold
// d.mu.
func (d *Driver) navigate(rawURL string, push bool) error {
	target := d.resolve(rawURL)

	src, err := d.load(target)
	if err != nil {
		return err
	}
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("parse %s: %w", target, err)
	}

	d.doc = root
	d.scope = nil
	d.hovered = nil
	d.frames = make(map[*html.Node]*html.Node)
	d.url = target
	if push {
		d.history = append(d.history, target)
	}
	return nil
}

func (d *Driver) resolve(rawURL string) string {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !ref.IsAbs() {
		if cur, err := url.Parse(d.url); err == nil && cur.IsAbs() && d.url != blankURL {
			ref = cur.ResolveReference(ref)
		} else if d.base != nil {
			ref = d.base.ResolveReference(ref)
		}
	}
	return normalizeURL(ref.String())
}

func (d *Driver) load(target string) (string, error) {
	if src, ok := d.pages[target]; ok {
		return src, nil
	}

	if name, ok := d.fsFile(target); ok {
		data, err := fs.ReadFile(d.fsys, name)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("%w: %s", ErrPageNotFound, target)
}

// fsFile maps target to a regular file of the driver's file system. A
// directory serves its index.html and an extensionless path may name a
// .html file.
func (d *Driver) fsFile(target string) (string, bool) {
	if d.fsys == nil || d.base == nil {
		return "", false
	}
	u, err := url.Parse(target)
	if err != nil || u.Host != d.base.Host || u.Scheme != d.base.Scheme {
		return "", false
	}
	rel, ok := strings.CutPrefix(u.Path, d.base.Path)
	if !ok {
		return "", false
	}
	rel = strings.Trim(rel, "/")

	candidates := []string{path.Join(rel, "index.html")}
	if rel != "" {
		candidates = append([]string{rel, rel + ".html"}, candidates...)
	}
	for _, name := range candidates {
		if info, err := fs.Stat(d.fsys, name); err == nil && info.Mode().IsRegular() {
			return name, true
		}
	}
	return "", false
}

// knows reports whether target can be loaded without loading it.
func (d *Driver) knows(target string) bool {
	if _, ok := d.pages[target]; ok {
		return true
	}
	_, ok := d.fsFile(target)
	return ok
}

func (d *Driver) elementArg(args []any, i int) (*Element, error) {
	if len(args) <= i {
		return nil, fmt.Errorf("missing element argument %d", i)
	}
	el, ok := args[i].(*Element)
	if !ok || el.d != d {
		return nil, fmt.Errorf("argument %d is not an element of this driver", i)
	}
	return el, nil
}

// attached reports whether n is still part of the current document.
func (d *Driver) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.doc {
			return true
		}
	}
	for _, doc := range d.frames {
		for p := n; p != nil; p = p.Parent {
			if p == doc {
				return true
			}
		}
	}
	return false
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	if u.Path == "" && u.Host != "" {
		u.Path = "/"
	}
	return u.String()
}
