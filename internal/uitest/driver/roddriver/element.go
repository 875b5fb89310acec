package roddriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

type Element struct {
	d  *Driver
	el *rod.Element
}

var (
	_ driver.WebElement      = (*Element)(nil)
	_ driver.AttributeSetter = (*Element)(nil)
)

// Rod exposes the underlying element.
func (e *Element) Rod() *rod.Element { return e.el }

func (e *Element) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	el := e.el.Context(ctx)
	return e.d.find(loc, true, el.Elements, el.ElementsX)
}

func (e *Element) Click(ctx context.Context) error {
	return convert(e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1))
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	el := e.el.Context(ctx)
	if e.d.humanTyping {
		return convert(TypeHuman(ctx, el, keys))
	}
	return convert(TypeFast(el, keys))
}

func (e *Element) Clear(ctx context.Context) error {
	_, err := e.el.Context(ctx).Eval(`() => {
		this.value = '';
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`)
	return convert(err)
}

func (e *Element) MoveTo(ctx context.Context, x, y int) error {
	el := e.el.Context(ctx)
	if x == 0 && y == 0 {
		return convert(el.Hover())
	}
	if err := el.ScrollIntoView(); err != nil {
		return convert(err)
	}
	shape, err := el.Shape()
	if err != nil {
		return convert(err)
	}
	box := shape.Box()
	if box == nil {
		return driver.ErrNotInteractable
	}
	return el.Page().Mouse.MoveTo(proto.Point{X: box.X + float64(x), Y: box.Y + float64(y)})
}

func (e *Element) Text(ctx context.Context) (string, error) {
	s, err := e.el.Context(ctx).Text()
	return s, convert(err)
}

// Attribute reads the live property for value-like names, the way
// WebDriver does, and the markup attribute otherwise.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	el := e.el.Context(ctx)
	switch name {
	case "value", "checked", "selected", "disabled":
		v, err := el.Property(name)
		if err != nil {
			return "", convert(err)
		}
		if v.Nil() {
			return "", nil
		}
		switch val := v.Val().(type) {
		case bool:
			if val {
				return "true", nil
			}
			return "", nil
		case string:
			return val, nil
		default:
			return fmt.Sprint(val), nil
		}
	}

	v, err := el.Attribute(name)
	if err != nil {
		return "", convert(err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	res, err := e.el.Context(ctx).Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", convert(err)
	}
	return res.Value.Str(), nil
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	ok, err := e.el.Context(ctx).Visible()
	return ok, convert(err)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => !this.disabled`)
	if err != nil {
		return false, convert(err)
	}
	return res.Value.Bool(), nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(`() => !!(this.checked || this.selected)`)
	if err != nil {
		return false, convert(err)
	}
	return res.Value.Bool(), nil
}

func (e *Element) Size(ctx context.Context) (driver.Size, error) {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil {
		var invisible *rod.InvisibleShapeError
		if errors.As(err, &invisible) {
			return driver.Size{}, nil
		}
		return driver.Size{}, convert(err)
	}
	box := shape.Box()
	if box == nil {
		return driver.Size{}, nil
	}
	return driver.Size{Width: int(box.Width), Height: int(box.Height)}, nil
}

func (e *Element) SetAttribute(ctx context.Context, name, value string) error {
	_, err := e.el.Context(ctx).Eval(`(name, value) => this.setAttribute(name, value)`, name, value)
	return convert(err)
}
