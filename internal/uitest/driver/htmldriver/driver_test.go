package htmldriver

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

const formPage = `<html><head><title> Sign in </title></head><body>
<form id="login">
  <input id="user" name="user" type="text">
  <input id="pass" name="pass" type="password" value="x">
  <input id="token" type="hidden" value="t">
  <label for="remember">Remember</label>
  <input id="remember" type="checkbox">
  <input type="radio" name="plan" value="a" checked>
  <input type="radio" name="plan" value="b">
  <select id="colour">
    <option>Red</option>
    <option value="g" selected>Green</option>
  </select>
  <button id="go" type="submit">Go</button>
  <button id="off" disabled>Off</button>
</form>
<ul class="items">
  <li class="item">One</li>
  <li class="item" style="display: none">Two</li>
  <li class="item special">Three <b>bold</b></li>
</ul>
<div hidden><span id="ghost">boo</span></div>
<a id="next" href="/page/2">Next</a>
</body></html>`

func mustDriver(t *testing.T, doc string, opts ...Option) *Driver {
	t.Helper()
	d, err := FromHTML(doc, opts...)
	require.NoError(t, err)
	return d
}

func one(t *testing.T, sc driver.SearchContext, loc by.Locator) driver.WebElement {
	t.Helper()
	els, err := sc.FindElements(context.Background(), loc)
	require.NoError(t, err)
	require.Len(t, els, 1, "locator %s", loc)
	return els[0]
}

func TestFindElements_Strategies(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	tests := []struct {
		loc  by.Locator
		want int
	}{
		{by.NewID("user"), 1},
		{by.NewName("plan"), 2},
		{by.NewCSS("ul.items > li"), 3},
		{by.NewCSS("#user, #pass"), 2},
		{by.NewCSS("li.special, li.item"), 3},
		{by.NewClassName("item"), 3},
		{by.NewClassName("special"), 1},
		{by.NewTagName("option"), 2},
		{by.NewXPath("//li[contains(@class,'item')]"), 3},
		{by.NewLinkText("Next"), 1},
		{by.Locator{Kind: by.PartialLinkText, Value: "Nex"}, 1},
		{by.NewID("missing"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.loc.String(), func(t *testing.T) {
			els, err := d.FindElements(ctx, tt.loc)
			require.NoError(t, err)
			assert.Len(t, els, tt.want)
		})
	}
}

func TestFindElements_BadLocator(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	_, err := d.FindElements(ctx, by.NewCSS("li[[["))
	assert.Error(t, err)

	_, err = d.FindElements(ctx, by.Locator{})
	assert.ErrorIs(t, err, by.ErrEmptyLocator)
}

func TestElement_FindElementsIsScoped(t *testing.T) {
	d := mustDriver(t, formPage)
	form := one(t, d, by.NewID("login"))

	els, err := form.FindElements(context.Background(), by.NewTagName("li"))
	require.NoError(t, err)
	assert.Empty(t, els)

	ul := one(t, d, by.NewCSS("ul.items"))
	els, err = ul.FindElements(context.Background(), by.NewClassName("item"))
	require.NoError(t, err)
	assert.Len(t, els, 3)

	els, err = ul.FindElements(context.Background(), by.NewCSS("ul, li.special, b"))
	require.NoError(t, err)
	require.Len(t, els, 2, "root itself is never a match")
	tag, err := els[0].TagName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "li", tag)
}

func TestElement_State(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	title, err := d.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sign in", title)

	items, err := d.FindElements(ctx, by.NewClassName("item"))
	require.NoError(t, err)

	shown, _ := items[0].IsDisplayed(ctx)
	assert.True(t, shown)
	shown, _ = items[1].IsDisplayed(ctx)
	assert.False(t, shown)

	text, _ := items[1].Text(ctx)
	assert.Empty(t, text, "hidden elements have no text")
	text, _ = items[2].Text(ctx)
	assert.Equal(t, "Three bold", text)

	ghost := one(t, d, by.NewID("ghost"))
	shown, _ = ghost.IsDisplayed(ctx)
	assert.False(t, shown, "hidden ancestor")

	token := one(t, d, by.NewID("token"))
	shown, _ = token.IsDisplayed(ctx)
	assert.False(t, shown)

	off := one(t, d, by.NewID("off"))
	enabled, _ := off.IsEnabled(ctx)
	assert.False(t, enabled)
	v, _ := off.Attribute(ctx, "disabled")
	assert.Equal(t, "true", v)

	opts, err := d.FindElements(ctx, by.NewTagName("option"))
	require.NoError(t, err)
	v, _ = opts[0].Attribute(ctx, "value")
	assert.Equal(t, "Red", v, "option value falls back to text")
	sel, _ := opts[1].IsSelected(ctx)
	assert.True(t, sel)

	tag, _ := opts[0].TagName(ctx)
	assert.Equal(t, "option", tag)

	size, _ := items[1].Size(ctx)
	assert.Equal(t, driver.Size{}, size)
}

func TestClick_FormControls(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	remember := one(t, d, by.NewID("remember"))
	require.NoError(t, remember.Click(ctx))
	checked, _ := remember.IsSelected(ctx)
	assert.True(t, checked)

	label := one(t, d, by.NewCSS(`label[for="remember"]`))
	require.NoError(t, label.Click(ctx))
	checked, _ = remember.IsSelected(ctx)
	assert.False(t, checked, "label toggles its control")

	radios, err := d.FindElements(ctx, by.NewName("plan"))
	require.NoError(t, err)
	require.NoError(t, radios[1].Click(ctx))
	a, _ := radios[0].IsSelected(ctx)
	b, _ := radios[1].IsSelected(ctx)
	assert.False(t, a)
	assert.True(t, b)

	opts, err := d.FindElements(ctx, by.NewTagName("option"))
	require.NoError(t, err)
	require.NoError(t, opts[0].Click(ctx))
	red, _ := opts[0].IsSelected(ctx)
	green, _ := opts[1].IsSelected(ctx)
	assert.True(t, red)
	assert.False(t, green)
}

func TestClick_NotInteractable(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	err := one(t, d, by.NewID("off")).Click(ctx)
	assert.ErrorIs(t, err, driver.ErrNotInteractable)

	ghost := one(t, d, by.NewID("ghost"))
	assert.ErrorIs(t, ghost.Click(ctx), driver.ErrNotInteractable)

	_, err = d.ExecuteScript(ctx, driver.ScriptClick, ghost)
	assert.NoError(t, err, "script clicks reach hidden elements")
}

func TestSendKeysAndClear(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	user := one(t, d, by.NewID("user"))
	require.NoError(t, user.SendKeys(ctx, "ali"))
	require.NoError(t, user.SendKeys(ctx, "ce"))
	v, _ := user.Attribute(ctx, "value")
	assert.Equal(t, "alice", v)

	require.NoError(t, user.Clear(ctx))
	v, _ = user.Attribute(ctx, "value")
	assert.Empty(t, v)

	err := one(t, d, by.NewID("remember")).SendKeys(ctx, "x")
	assert.ErrorIs(t, err, driver.ErrNotInteractable)
}

func TestOnClick_RunsHandler(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx := context.Background()

	d.OnClick(by.NewID("go"), func(d *Driver, _ *Element) error {
		d.Mutate(func(doc *goquery.Document) {
			doc.Find("body").AppendHtml(`<p id="welcome">Welcome</p>`)
		})
		return nil
	})

	require.NoError(t, one(t, d, by.NewID("go")).Click(ctx))
	text, err := one(t, d, by.NewID("welcome")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", text)
}

func TestNavigation(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":        {Data: []byte(`<title>Home</title><a id="next" href="/page/2">Next</a>`)},
		"page/2/index.html": {Data: []byte(`<title>Two</title><p id="p">two</p>`)},
	}
	d := New(WithFS(fsys, "https://shop.test/"))
	ctx := context.Background()

	require.NoError(t, d.Get(ctx, "https://shop.test/"))
	link := one(t, d, by.NewID("next"))

	require.NoError(t, link.Click(ctx))
	title, _ := d.Title(ctx)
	assert.Equal(t, "Two", title)
	u, _ := d.CurrentURL(ctx)
	assert.Equal(t, "https://shop.test/page/2", u)

	_, err := link.Text(ctx)
	assert.ErrorIs(t, err, driver.ErrStaleElement, "old page elements are stale")

	require.NoError(t, d.Back(ctx))
	title, _ = d.Title(ctx)
	assert.Equal(t, "Home", title)

	assert.ErrorIs(t, d.Get(ctx, "/nowhere"), ErrPageNotFound)
}

func TestWithPage(t *testing.T) {
	d := New(WithPage("https://shop.test/cart#top", `<title>Cart</title>`))
	ctx := context.Background()

	require.NoError(t, d.Get(ctx, "https://shop.test/cart"))
	title, _ := d.Title(ctx)
	assert.Equal(t, "Cart", title)
	assert.Equal(t, []string{"https://shop.test/cart"}, d.History())
}

func TestSwitchFrame(t *testing.T) {
	doc := `<body>
<p class="where">top</p>
<iframe id="pay" srcdoc="&lt;p class=&quot;where&quot;&gt;inside&lt;/p&gt;"></iframe>
<div id="captured" data-captured-iframe="x"><p class="where">captured</p></div>
</body>`
	d := mustDriver(t, doc)
	ctx := context.Background()

	require.NoError(t, d.SwitchFrame(ctx, one(t, d, by.NewID("pay"))))
	text, err := one(t, d, by.NewClassName("where")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "inside", text)

	require.NoError(t, d.SwitchFrame(ctx, nil))
	require.NoError(t, d.SwitchFrame(ctx, one(t, d, by.NewID("captured"))))
	text, err = one(t, d, by.NewClassName("where")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "captured", text)

	require.NoError(t, d.SwitchFrame(ctx, nil))
	els, err := d.FindElements(ctx, by.NewClassName("where"))
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestExecuteScript(t *testing.T) {
	d := mustDriver(t, formPage, WithScript("return document.readyState;", func(*Driver, []any) (any, error) {
		return "complete", nil
	}))
	ctx := context.Background()

	user := one(t, d, by.NewID("user"))
	_, err := d.ExecuteScript(ctx, driver.ScriptSetAttribute, user, "placeholder", "name")
	require.NoError(t, err)
	v, _ := user.Attribute(ctx, "placeholder")
	assert.Equal(t, "name", v)

	got, err := d.ExecuteScript(ctx, "return document.readyState;")
	require.NoError(t, err)
	assert.Equal(t, "complete", got)

	_, err = d.ExecuteScript(ctx, "window.scrollTo(0, 0);")
	assert.ErrorIs(t, err, driver.ErrUnsupported)

	_, err = d.Screenshot(ctx)
	assert.ErrorIs(t, err, driver.ErrUnsupported)
}

func TestCanceledContext(t *testing.T) {
	d := mustDriver(t, formPage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.FindElements(ctx, by.NewID("user"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuit(t *testing.T) {
	d := mustDriver(t, formPage)
	require.NoError(t, d.Quit())
	_, err := d.FindElements(context.Background(), by.NewID("user"))
	assert.Error(t, err)
}
