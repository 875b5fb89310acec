package element

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/driver/htmldriver"
	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
	"github.com/grez-lucas/uitest/internal/uitest/timer"
)

const shopPage = `<html><head><title>Shop</title></head><body>
<header id="top">
  <a id="home" href="/">Home</a>
  <span class="user">guest</span>
</header>
<form id="search">
  <input id="q" name="q" type="text" value="old">
  <label for="stock">In stock</label>
  <input id="stock" type="checkbox">
  <button id="go" type="submit">Search</button>
</form>
<ul id="products">
  <li class="product" data-sku="a1">Apple</li>
  <li class="product" data-sku="b2" style="display:none">Banana</li>
  <li class="product" data-sku="c3">Cherry pie</li>
</ul>
<div class="panel"><p class="msg">one</p></div>
<div class="panel"><p class="msg">two</p></div>
<div id="spinner">Loading</div>
</body></html>`

type harness struct {
	d    *htmldriver.Driver
	site *Site
	logs *observer.ObservedLogs
}

func newHarness(t *testing.T, doc string) *harness {
	t.Helper()
	d, err := htmldriver.FromHTML(doc)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core), logger.All)

	s := settings.Default()
	s.Driver = settings.DriverHTML
	s.Timeout = 300 * time.Millisecond
	s.RetryInterval = 10 * time.Millisecond

	return &harness{d: d, site: NewSite(d, s, log, asserter.NewErrors(log)), logs: logs}
}

func TestElement_Basics(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()

	user := NewElement(h.site, "User", by.NewCSS("header .user"))
	text, err := user.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guest", text)

	sku, err := NewElement(h.site, "Apple", by.NewCSS("li.product")).Attribute(ctx, "data-sku")
	require.NoError(t, err)
	assert.Equal(t, "a1", sku)

	ok, err := user.IsExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	shown, err := NewElement(h.site, "Banana", by.MustParse("//li[@data-sku='b2']")).IsDisplayed(ctx)
	require.NoError(t, err)
	assert.False(t, shown)

	shown, err = NewElement(h.site, "Missing", by.NewID("nope")).IsDisplayed(ctx)
	require.NoError(t, err)
	assert.False(t, shown)
}

func TestElement_NotFoundIsReported(t *testing.T) {
	h := newHarness(t, shopPage)
	missing := NewElement(h.site, "Missing", by.NewID("nope"))
	missing.SetTimeout(30 * time.Millisecond)

	err := missing.Click(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, asserter.ErrAssertion)

	var elErr *Error
	require.True(t, errors.As(err, &elErr))
	assert.Equal(t, "find", elErr.Op)
	assert.Contains(t, elErr.Element, "Missing")

	assert.Equal(t, 1, h.logs.FilterMessage("Click for Missing (id=nope)").Len())
	assert.Equal(t, 1, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestElement_StrictSearch(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	products := NewElement(h.site, "Product", by.NewClassName("product"))

	text, err := products.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Apple", text)

	h.site.Settings.StrictSearch = true
	_, err = products.Text(ctx)
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestElement_ContextChain(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()

	home := NewElement(h.site, "Home", by.NewTagName("a"))
	home.SetContext(by.NewID("top"))
	ref, err := home.Attribute(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, "/", ref)

	msg := NewElement(h.site, "Message", by.NewClassName("msg"))
	msg.SetContext(by.NewClassName("panel"))
	msg.SetTimeout(30 * time.Millisecond)
	_, err = msg.Text(ctx)
	require.Error(t, err)
	assert.Equal(t, "Instead of 1 element found '2' elements", err.Error())
}

func TestElement_FindLogsLocator(t *testing.T) {
	h := newHarness(t, shopPage)
	h.site.Settings.LogFindElementLocator = true

	_, err := NewElement(h.site, "User", by.NewCSS(".user")).WebElement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.logs.FilterMessage("Get Web Elements 'css=.user'").Len())
}

func TestElement_WaitDisplayed(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()

	go func() {
		time.Sleep(50 * time.Millisecond)
		h.d.Mutate(func(doc *goquery.Document) {
			doc.Find("#products").AppendHtml(`<li class="product late">Date</li>`)
		})
	}()

	late := NewElement(h.site, "Late", by.NewCSS(".late"))
	require.NoError(t, late.WaitDisplayed(ctx))

	banana := NewElement(h.site, "Banana", by.MustParse("//li[@data-sku='b2']"))
	banana.SetTimeout(40 * time.Millisecond)
	err := banana.WaitDisplayed(ctx)
	assert.Error(t, err)
}

func TestElement_WaitVanished(t *testing.T) {
	h := newHarness(t, shopPage)

	go func() {
		time.Sleep(30 * time.Millisecond)
		h.d.Mutate(func(doc *goquery.Document) { doc.Find("#spinner").Remove() })
	}()

	spinner := NewElement(h.site, "Spinner", by.NewID("spinner"))
	require.NoError(t, spinner.WaitVanished(context.Background()))

	ok, err := spinner.IsExists(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestElement_WaitText(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()

	go func() {
		time.Sleep(30 * time.Millisecond)
		h.d.Mutate(func(doc *goquery.Document) { doc.Find("#spinner").SetText("Loaded 3 items") })
	}()

	spinner := NewElement(h.site, "Spinner", by.NewID("spinner"))
	text, err := spinner.WaitText(ctx, "Loaded")
	require.NoError(t, err)
	assert.Equal(t, "Loaded 3 items", text)

	text, err = spinner.WaitMatchText(ctx, `^Loaded \d+ items$`)
	require.NoError(t, err)
	assert.Equal(t, "Loaded 3 items", text)

	_, err = spinner.WaitMatchText(ctx, `(`)
	assert.Error(t, err)
}

func TestElement_Attributes(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	q := NewElement(h.site, "Query", by.NewID("q"))

	require.NoError(t, q.SetAttribute(ctx, "placeholder", "Search…"))
	require.NoError(t, q.WaitAttribute(ctx, "placeholder", "Search…"))

	var seen string
	err := q.Wait(ctx, func(ctx context.Context, el driver.WebElement) (bool, error) {
		v, err := el.Attribute(ctx, "value")
		seen = v
		return v == "old", err
	})
	require.NoError(t, err)
	assert.Equal(t, "old", seen)
}

func TestElement_PointerActions(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	apple := NewElement(h.site, "Apple", by.MustParse("//li[@data-sku='a1']"))

	require.NoError(t, apple.MouseOver(ctx))
	require.NotNil(t, h.d.Hovered())
	text, err := h.d.Hovered().Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Apple", text)

	require.NoError(t, NewElement(h.site, "Home", by.NewID("home")).Focus(ctx))
	id, err := h.d.Hovered().Attribute(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "home", id)
}

func TestElement_ClickJS(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()

	clicked := false
	h.d.OnClick(by.NewID("go"), func(*htmldriver.Driver, *htmldriver.Element) error {
		clicked = true
		return nil
	})
	require.NoError(t, NewButton(h.site, "Go", by.NewID("go")).ClickJS(ctx))
	assert.True(t, clicked)
}

func TestTextField(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	q := NewTextField(h.site, "Query", by.NewID("q"))

	require.NoError(t, q.Input(ctx, "er"))
	v, err := q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "older", v)

	require.NoError(t, q.NewInput(ctx, "pears"))
	v, err = q.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pears", v)

	require.NoError(t, q.Clear(ctx))
	v, err = q.Value(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)

	err = NewTextField(h.site, "Go", by.NewID("go")).Input(ctx, "x")
	assert.ErrorIs(t, err, driver.ErrNotInteractable)
}

func TestCheckBox(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	stock := NewCheckBox(h.site, "In Stock", by.NewID("stock"))

	checked := func() bool {
		t.Helper()
		on, err := stock.IsChecked(ctx)
		require.NoError(t, err)
		return on
	}

	require.NoError(t, stock.Check(ctx))
	assert.True(t, checked())
	require.NoError(t, stock.Check(ctx))
	assert.True(t, checked())

	require.NoError(t, stock.Uncheck(ctx))
	assert.False(t, checked())

	for value, want := range map[string]bool{"on": true, "0": false, " Checked ": true, "unchecked": false, "TRUE": true} {
		require.NoError(t, stock.SetValue(ctx, value), value)
		assert.Equal(t, want, checked(), value)
	}

	assert.ErrorIs(t, stock.SetValue(ctx, "maybe"), asserter.ErrAssertion)
}

func TestLink_Reference(t *testing.T) {
	h := newHarness(t, shopPage)
	ref, err := NewLink(h.site, "Home", by.NewLinkText("Home")).Reference(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", ref)
}

func TestFieldName(t *testing.T) {
	for in, want := range map[string]string{
		"SubmitButton": "Submit Button",
		"URLField":     "URL Field",
		"Next":         "Next",
		"pageTwo":      "page Two",
	} {
		assert.Equal(t, want, fieldName(in), in)
	}
}

const modalPage = `<html><body>
<header><span class="user">guest</span></header>
<div id="modal"><p id="notice">Saved</p><button id="ok">OK</button></div>
</body></html>`

// failures records what the asserter reports to a test.
type failures struct {
	messages []string
}

func (f *failures) Errorf(format string, args ...any) {
	f.messages = append(f.messages, fmt.Sprintf(format, args...))
}

func (f *failures) FailNow() {}

func TestElement_SectionRemoved(t *testing.T) {
	h := newHarness(t, modalPage)
	ctx := context.Background()
	rec := &failures{}
	h.site.Assert = asserter.NewTesting(rec, h.site.Log)

	ok := NewElement(h.site, "OK", by.NewID("ok"))
	ok.SetContext(by.NewID("modal"))

	shown, err := ok.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, shown)

	go func() {
		time.Sleep(50 * time.Millisecond)
		h.d.Mutate(func(doc *goquery.Document) { doc.Find("#modal").Remove() })
	}()
	require.NoError(t, ok.WaitVanished(ctx))

	shown, err = ok.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.False(t, shown)

	exists, err := ok.IsExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	buttons := NewElements(h.site, "Buttons", by.NewTagName("button"))
	buttons.SetContext(by.NewID("modal"))
	exists, err = buttons.IsExistsWithin(ctx, 30*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Empty(t, rec.messages)
	assert.Zero(t, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestElement_SectionAppearsWhileWaiting(t *testing.T) {
	h := newHarness(t, `<html><body><main></main></body></html>`)
	ctx := context.Background()
	rec := &failures{}
	h.site.Assert = asserter.NewTesting(rec, h.site.Log)

	go func() {
		time.Sleep(50 * time.Millisecond)
		h.d.Mutate(func(doc *goquery.Document) {
			doc.Find("main").AppendHtml(`<div id="modal"><p id="notice">Saved</p></div>`)
		})
	}()

	notice := NewElement(h.site, "Notice", by.NewID("notice"))
	notice.SetContext(by.NewID("modal"))
	text, err := notice.WaitText(ctx, "Saved")
	require.NoError(t, err)
	assert.Equal(t, "Saved", text)

	assert.Empty(t, rec.messages)
	assert.Zero(t, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestElement_SectionNeverAppearsIsReportedOnce(t *testing.T) {
	h := newHarness(t, `<html><body></body></html>`)
	rec := &failures{}
	h.site.Assert = asserter.NewTesting(rec, h.site.Log)

	notice := NewElement(h.site, "Notice", by.NewID("notice"))
	notice.SetContext(by.NewID("modal"))
	notice.SetTimeout(50 * time.Millisecond)

	err := notice.WaitDisplayed(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, timer.ErrTimeout)
	assert.Contains(t, err.Error(), "Instead of 1 element found '0' elements")
	assert.Len(t, rec.messages, 1)
	assert.Equal(t, 1, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

// slowDriver answers every top-level lookup after delay.
type slowDriver struct {
	driver.Driver
	delay time.Duration
}

func (d *slowDriver) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	select {
	case <-time.After(d.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return d.Driver.FindElements(ctx, loc)
}

func TestElement_SlowDriver(t *testing.T) {
	h := newHarness(t, shopPage)
	ctx := context.Background()
	h.site.Driver = &slowDriver{Driver: h.d, delay: 30 * time.Millisecond}

	user := NewElement(h.site, "User", by.NewCSS("header .user"))
	shown, err := user.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, shown)

	require.NoError(t, user.WaitDisplayed(ctx))

	home := NewElement(h.site, "Home", by.NewTagName("a"))
	home.SetContext(by.NewID("top"))
	text, err := home.WaitText(ctx, "Home")
	require.NoError(t, err)
	assert.Equal(t, "Home", text)
}
