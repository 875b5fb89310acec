package htmldriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Element is a node of a Driver's document.
type Element struct {
	d *Driver
	n *html.Node
}

var (
	_ driver.WebElement      = (*Element)(nil)
	_ driver.AttributeSetter = (*Element)(nil)
)

// Node exposes the underlying html node.
func (e *Element) Node() *html.Node { return e.n }

// Selection wraps the element for goquery traversal.
func (e *Element) Selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(e.n).Selection
}

func (e *Element) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	if err := e.begin(ctx); err != nil {
		return nil, err
	}
	defer e.d.mu.Unlock()
	return e.d.find(e.n, loc)
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.d.click(e, true)
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	if err := e.begin(ctx); err != nil {
		return err
	}
	defer e.d.mu.Unlock()

	if !editable(e.n) || !displayed(e.n) || disabled(e.n) {
		return fmt.Errorf("send keys to <%s>: %w", e.n.Data, driver.ErrNotInteractable)
	}
	setAttr(e.n, "value", attr(e.n, "value")+keys)
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	if err := e.begin(ctx); err != nil {
		return err
	}
	defer e.d.mu.Unlock()

	if !editable(e.n) || disabled(e.n) {
		return fmt.Errorf("clear <%s>: %w", e.n.Data, driver.ErrNotInteractable)
	}
	setAttr(e.n, "value", "")
	return nil
}

func (e *Element) MoveTo(ctx context.Context, _, _ int) error {
	if err := e.begin(ctx); err != nil {
		return err
	}
	defer e.d.mu.Unlock()

	if !displayed(e.n) {
		return fmt.Errorf("move to <%s>: %w", e.n.Data, driver.ErrNotInteractable)
	}
	e.d.hovered = e.n
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.begin(ctx); err != nil {
		return "", err
	}
	defer e.d.mu.Unlock()

	if !displayed(e.n) {
		return "", nil
	}
	return visibleText(e.n), nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.begin(ctx); err != nil {
		return "", err
	}
	defer e.d.mu.Unlock()

	name = strings.ToLower(name)
	v, ok := attrOK(e.n, name)
	switch {
	case booleanAttrs[name]:
		if ok {
			return "true", nil
		}
		return "", nil
	case !ok && name == "value" && e.n.Data == "option":
		return visibleText(e.n), nil
	}
	return v, nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	if err := e.begin(ctx); err != nil {
		return "", err
	}
	defer e.d.mu.Unlock()
	return e.n.Data, nil
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := e.begin(ctx); err != nil {
		return false, err
	}
	defer e.d.mu.Unlock()
	return displayed(e.n), nil
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if err := e.begin(ctx); err != nil {
		return false, err
	}
	defer e.d.mu.Unlock()
	return !disabled(e.n), nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	if err := e.begin(ctx); err != nil {
		return false, err
	}
	defer e.d.mu.Unlock()
	return selected(e.n), nil
}

// Size reports 0x0 for hidden elements and 1x1 otherwise; there is no
// layout engine.
func (e *Element) Size(ctx context.Context) (driver.Size, error) {
	if err := e.begin(ctx); err != nil {
		return driver.Size{}, err
	}
	defer e.d.mu.Unlock()
	if !displayed(e.n) {
		return driver.Size{}, nil
	}
	return driver.Size{Width: 1, Height: 1}, nil
}

func (e *Element) SetAttribute(ctx context.Context, name, value string) error {
	if err := e.begin(ctx); err != nil {
		return err
	}
	defer e.d.mu.Unlock()
	setAttr(e.n, strings.ToLower(name), value)
	return nil
}

// begin locks the driver and checks the element is still attached. On
// success the caller must unlock.
func (e *Element) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.d.mu.Lock()
	if err := e.d.checkOpen(); err != nil {
		e.d.mu.Unlock()
		return err
	}
	if !e.d.attached(e.n) {
		e.d.mu.Unlock()
		return fmt.Errorf("<%s>: %w", e.n.Data, driver.ErrStaleElement)
	}
	return nil
}

// find returns the element descendants of root matching loc. Callers hold
// d.mu.
func (d *Driver) find(root *html.Node, loc by.Locator) ([]driver.WebElement, error) {
	if loc.IsZero() {
		return nil, by.ErrEmptyLocator
	}

	var nodes []*html.Node
	if sel, ok := loc.CSS(); ok {
		m, err := cascadia.ParseGroup(sel)
		if err != nil {
			return nil, fmt.Errorf("locator %s: %w", loc, err)
		}
		nodes = cascadia.QueryAll(root, m)
	} else {
		expr, err := loc.XPath()
		if err != nil {
			return nil, err
		}
		// Converted locators are scoped to root like the native strategies
		// of a browser; raw XPath keeps document semantics.
		if loc.Kind != by.XPath && root.Type != html.DocumentNode && strings.HasPrefix(expr, "/") {
			expr = "." + expr
		}
		nodes, err = htmlquery.QueryAll(root, expr)
		if err != nil {
			return nil, fmt.Errorf("locator %s: %w", loc, err)
		}
	}

	out := make([]driver.WebElement, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode || n == root {
			continue
		}
		out = append(out, &Element{d: d, n: n})
	}
	return out, nil
}

// click applies the default action for the element, then runs matching
// click handlers and follows links. checkVisible is false for script
// clicks, which browsers dispatch to hidden elements too.
func (d *Driver) click(e *Element, checkVisible bool) error {
	d.mu.Lock()
	if err := d.checkOpen(); err != nil {
		d.mu.Unlock()
		return err
	}
	if !d.attached(e.n) {
		d.mu.Unlock()
		return fmt.Errorf("click <%s>: %w", e.n.Data, driver.ErrStaleElement)
	}
	if checkVisible && !displayed(e.n) {
		d.mu.Unlock()
		return fmt.Errorf("click <%s>: not displayed: %w", e.n.Data, driver.ErrNotInteractable)
	}
	if disabled(e.n) {
		d.mu.Unlock()
		return fmt.Errorf("click <%s>: disabled: %w", e.n.Data, driver.ErrNotInteractable)
	}

	activate(e.n)

	var handlers []ClickHandler
	for _, r := range d.clicks {
		matches, err := d.find(d.doc, r.loc)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		for _, m := range matches {
			if m.(*Element).n == e.n {
				handlers = append(handlers, r.handler)
				break
			}
		}
	}

	href := ""
	if a := closest(e.n, "a"); a != nil {
		if h, ok := attrOK(a, "href"); ok && h != "" && !strings.HasPrefix(h, "#") && !strings.HasPrefix(h, "javascript:") {
			if target := d.resolve(h); d.knows(target) {
				href = target
			}
		}
	}
	d.mu.Unlock()

	for _, h := range handlers {
		if err := h(d, e); err != nil {
			return err
		}
	}

	if href != "" && len(handlers) == 0 {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.navigate(href, true)
	}
	return nil
}

// activate toggles the state a click changes on form controls.
func activate(n *html.Node) {
	switch {
	case n.Data == "input" && strings.EqualFold(attr(n, "type"), "checkbox"):
		toggleAttr(n, "checked")

	case n.Data == "input" && strings.EqualFold(attr(n, "type"), "radio"):
		if name := attr(n, "name"); name != "" {
			scope := closest(n, "form")
			if scope == nil {
				scope = root(n)
			}
			for _, r := range goquery.NewDocumentFromNode(scope).Find(`input[type="radio"]`).Nodes {
				if attr(r, "name") == name {
					removeAttr(r, "checked")
				}
			}
		}
		setAttr(n, "checked", "")

	case n.Data == "option":
		sel := closest(n, "select")
		if sel != nil {
			if _, multi := attrOK(sel, "multiple"); multi {
				toggleAttr(n, "selected")
				return
			}
			for _, o := range goquery.NewDocumentFromNode(sel).Find("option").Nodes {
				removeAttr(o, "selected")
			}
		}
		setAttr(n, "selected", "")

	case n.Data == "label":
		if id := attr(n, "for"); id != "" {
			if target := byID(root(n), id); target != nil {
				activate(target)
			}
		}
	}
}

var booleanAttrs = map[string]bool{
	"checked":  true,
	"selected": true,
	"disabled": true,
	"hidden":   true,
	"readonly": true,
	"multiple": true,
	"required": true,
}

func displayed(n *html.Node) bool {
	if n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden") {
		return false
	}
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		switch p.Data {
		case "head", "script", "style", "template", "noscript":
			return false
		}
		if _, ok := attrOK(p, "hidden"); ok {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(attr(p, "style")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func disabled(n *html.Node) bool {
	if _, ok := attrOK(n, "disabled"); ok {
		return true
	}
	if strings.EqualFold(attr(n, "aria-disabled"), "true") {
		return true
	}
	// Controls inside a disabled fieldset are disabled too.
	if isFormControl(n) {
		if fs := closest(n.Parent, "fieldset"); fs != nil {
			_, ok := attrOK(fs, "disabled")
			return ok
		}
	}
	return false
}

func selected(n *html.Node) bool {
	if _, ok := attrOK(n, "checked"); ok {
		return true
	}
	if _, ok := attrOK(n, "selected"); ok {
		return true
	}
	return strings.EqualFold(attr(n, "aria-selected"), "true")
}

func editable(n *html.Node) bool {
	switch n.Data {
	case "textarea":
		return true
	case "input":
		switch strings.ToLower(attr(n, "type")) {
		case "", "text", "password", "email", "search", "tel", "url", "number", "date":
			return true
		}
	}
	return strings.EqualFold(attr(n, "contenteditable"), "true")
}

func isFormControl(n *html.Node) bool {
	switch n.Data {
	case "input", "select", "textarea", "button", "option":
		return true
	}
	return false
}

// visibleText joins the displayed text under n with single spaces.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if c != n && !displayed(c) {
				return
			}
			if c.Data == "br" {
				b.WriteByte(' ')
			}
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func closest(n *html.Node, tag string) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return p
		}
	}
	return nil
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func attr(n *html.Node, key string) string {
	v, _ := attrOK(n, key)
	return v
}

func attrOK(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func toggleAttr(n *html.Node, key string) {
	if _, ok := attrOK(n, key); ok {
		removeAttr(n, key)
		return
	}
	setAttr(n, key, "")
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := byID(c, id); m != nil {
			return m
		}
	}
	return nil
}
