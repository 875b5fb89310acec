// Package driver defines the browser driver contract page objects run on.
// Backends live in the subpackages.
package driver

import (
	"context"
	"errors"

	"github.com/grez-lucas/uitest/internal/uitest/by"
)

var (
	ErrNoSuchElement   = errors.New("no such element")
	ErrNotInteractable = errors.New("element not interactable")
	ErrStaleElement    = errors.New("stale element reference")
	ErrUnsupported     = errors.New("not supported by this driver")
)

// Scripts the page-object layer runs through ExecuteScript. Backends
// without a JavaScript engine recognise them verbatim.
const (
	ScriptClick          = "arguments[0].click();"
	ScriptSetAttribute   = "arguments[0].setAttribute(arguments[1], arguments[2]);"
	ScriptScrollIntoView = "arguments[0].scrollIntoView(true);"
	ScriptSelectOption   = "arguments[0].selected = true; arguments[0].closest('select').dispatchEvent(new Event('change', {bubbles: true}));"
)

// Size is the rendered size of an element.
type Size struct {
	Width, Height int
}

// SearchContext is anything elements can be searched from: the page or an
// element.
type SearchContext interface {
	// FindElements returns every match; no match is not an error.
	FindElements(ctx context.Context, loc by.Locator) ([]WebElement, error)
}

type WebElement interface {
	SearchContext

	Click(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error
	Clear(ctx context.Context) error
	// MoveTo hovers the pointer at an offset from the element's top-left
	// corner, scrolling it into view.
	MoveTo(ctx context.Context, x, y int) error

	Text(ctx context.Context) (string, error)
	// Attribute returns "" for a missing attribute.
	Attribute(ctx context.Context, name string) (string, error)
	TagName(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	Size(ctx context.Context) (Size, error)
}

type Driver interface {
	SearchContext

	Get(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Refresh(ctx context.Context) error

	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// ExecuteScript runs a script body where arguments[i] are args.
	// WebElement arguments must come from the same driver.
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)

	// SwitchFrame makes searches run inside the given iframe element; nil
	// returns to the top-level document.
	SwitchFrame(ctx context.Context, frame WebElement) error

	Quit() error
}

// AttributeSetter is implemented by elements that can change attributes
// without running a script.
type AttributeSetter interface {
	SetAttribute(ctx context.Context, name, value string) error
}
