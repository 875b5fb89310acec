package seleniumdriver

import (
	"context"

	"github.com/tebeka/selenium"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

type Element struct {
	we selenium.WebElement
}

var _ driver.WebElement = (*Element)(nil)

// WebElement exposes the underlying element.
func (e *Element) WebElement() selenium.WebElement { return e.we }

func (e *Element) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	return findElements(ctx, e.we.FindElements, loc)
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(e.we.Click())
}

func (e *Element) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(e.we.SendKeys(keys))
}

func (e *Element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(e.we.Clear())
}

func (e *Element) MoveTo(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(e.we.MoveTo(x, y))
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := e.we.Text()
	return s, convert(err)
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := e.we.GetAttribute(name)
	if err != nil && !isMissingAttribute(err) {
		return "", convert(err)
	}
	return s, nil
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := e.we.TagName()
	return s, convert(err)
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.we.IsDisplayed()
	return ok, convert(err)
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.we.IsEnabled()
	return ok, convert(err)
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.we.IsSelected()
	return ok, convert(err)
}

func (e *Element) Size(ctx context.Context) (driver.Size, error) {
	if err := ctx.Err(); err != nil {
		return driver.Size{}, err
	}
	s, err := e.we.Size()
	if err != nil {
		return driver.Size{}, convert(err)
	}
	return driver.Size{Width: s.Width, Height: s.Height}, nil
}

// isMissingAttribute reports the error tebeka/selenium returns for an
// attribute with a null value.
func isMissingAttribute(err error) bool {
	return err != nil && err.Error() == "nil return value"
}
