package element

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Elements is a collection of elements sharing one locator.
type Elements struct {
	Base
}

func NewElements(site *Site, name string, loc by.Locator) *Elements {
	e := &Elements{}
	e.bind(site, name, loc, nil)
	return e
}

// WebElements waits for at least one match and returns all of them. Running
// out of time returns an empty list.
func (e *Elements) WebElements(ctx context.Context) ([]driver.WebElement, error) {
	return e.findAll(ctx, e.timer())
}

// WebElementsWithin is WebElements with its own timeout.
func (e *Elements) WebElementsWithin(ctx context.Context, timeout time.Duration) ([]driver.WebElement, error) {
	return e.findAll(ctx, e.timer().WithTimeout(timeout))
}

// IsExists waits for a match. An absent section means false.
func (e *Elements) IsExists(ctx context.Context) (bool, error) {
	return e.IsExistsWithin(ctx, e.timer().Timeout)
}

func (e *Elements) IsExistsWithin(ctx context.Context, timeout time.Duration) (bool, error) {
	els, err := e.poll(ctx, e.timer().WithTimeout(timeout))
	if sectionMissing(err) {
		return false, nil
	}
	var count *contextCountError
	if errors.As(err, &count) {
		return false, e.site.Assert.Exception("%s", count.Error())
	}
	return len(els) > 0, err
}

// Element returns the i-th element of the collection as its own page
// object.
func (e *Elements) Element(i int) (*Element, error) {
	return e.element(i, "")
}

// ElementByTag is Element for locators whose repeating step is tag rather
// than the last one.
func (e *Elements) ElementByTag(i int, tag string) (*Element, error) {
	return e.element(i, tag)
}

func (e *Elements) element(i int, tag string) (*Element, error) {
	loc, err := e.nth(i, tag)
	if err != nil {
		return nil, e.site.Assert.SilentException(func() error { return e.fail("get element", err) })
	}
	return e.child(fmt.Sprintf("Element #%d", i), loc), nil
}

// VisibleElement returns the first displayed element as a page object.
func (e *Elements) VisibleElement(ctx context.Context) (*Element, error) {
	var out *Element
	err := e.do(ctx, "get first visible element", func(ctx context.Context) error {
		i, _, err := e.firstVisible(ctx)
		if err != nil {
			return err
		}
		loc, err := e.nth(i, "")
		if err != nil {
			return err
		}
		out = e.child(fmt.Sprintf("Element #%d", i), loc)
		return nil
	})
	return out, err
}

func (e *Elements) ClickBy(ctx context.Context, i int) error {
	return e.do(ctx, fmt.Sprintf("click by element with index %d", i), func(ctx context.Context) error {
		el, err := e.at(ctx, i)
		if err != nil {
			return err
		}
		return el.Click(ctx)
	})
}

// ClickByText retries until an element with exactly text is found and
// clicked.
func (e *Elements) ClickByText(ctx context.Context, text string) error {
	return e.do(ctx, fmt.Sprintf("click by element with text '%s'", text), func(ctx context.Context) error {
		return e.timer().AlwaysDone(ctx, func(ctx context.Context) error {
			els, err := e.probe(ctx)
			if err != nil {
				return err
			}
			i, err := indexWhere(ctx, els, textEquals(text))
			if err != nil {
				return err
			}
			if i < 0 {
				return fmt.Errorf("%w: text '%s'", ErrNotFound, text)
			}
			return els[i].Click(ctx)
		})
	})
}

// ClickByWhileObjectNotDisplayed clicks the i-th element until expected is
// displayed, at most tries times.
func (e *Elements) ClickByWhileObjectNotDisplayed(ctx context.Context, i int, expected *Element, tries int) error {
	action := fmt.Sprintf("click by element with index '%d' while %s not displayed", i, expected)
	return e.do(ctx, action, func(ctx context.Context) error {
		for n := 1; ; n++ {
			el, err := e.at(ctx, i)
			if err != nil {
				return err
			}
			if err := el.Click(ctx); err != nil {
				return err
			}
			if n >= tries {
				return nil
			}
			shown, err := expected.IsDisplayed(ctx)
			if err != nil {
				return err
			}
			if shown {
				return nil
			}
		}
	})
}

func (e *Elements) Focus(ctx context.Context, i int) error {
	return e.do(ctx, fmt.Sprintf("focus element with index %d", i), func(ctx context.Context) error {
		el, err := e.at(ctx, i)
		if err != nil {
			return err
		}
		return focus(ctx, el)
	})
}

func (e *Elements) MouseOver(ctx context.Context, i int) error {
	return e.do(ctx, fmt.Sprintf("mouse over element with index %d", i), func(ctx context.Context) error {
		el, err := e.at(ctx, i)
		if err != nil {
			return err
		}
		return el.MoveTo(ctx, 0, 0)
	})
}

func (e *Elements) ClickByJS(ctx context.Context, i int) error {
	return e.do(ctx, fmt.Sprintf("click with JS element with index %d", i), func(ctx context.Context) error {
		el, err := e.at(ctx, i)
		if err != nil {
			return err
		}
		_, err = e.site.Driver.ExecuteScript(ctx, driver.ScriptClick, el)
		return err
	})
}

func (e *Elements) WebElement(ctx context.Context, i int) (driver.WebElement, error) {
	return invoke(ctx, &e.Base, fmt.Sprintf("get by element with index '%d'", i), func(ctx context.Context) (driver.WebElement, error) {
		return e.at(ctx, i)
	})
}

func (e *Elements) VisibleWebElement(ctx context.Context) (driver.WebElement, error) {
	return invoke(ctx, &e.Base, "get first visible element", func(ctx context.Context) (driver.WebElement, error) {
		_, el, err := e.firstVisible(ctx)
		return el, err
	})
}

func (e *Elements) IsVisibleWebElementAvailable(ctx context.Context) (bool, error) {
	e.logAction("is first visible element available")
	els, err := e.WebElements(ctx)
	if err != nil {
		return false, err
	}
	i, err := indexWhere(ctx, els, displayed)
	return i >= 0, err
}

func (e *Elements) WebElementByText(ctx context.Context, text string) (driver.WebElement, error) {
	return e.webElementWhere(ctx, fmt.Sprintf("text '%s'", text), textEquals(text))
}

func (e *Elements) WebElementByTextContains(ctx context.Context, text string) (driver.WebElement, error) {
	return e.webElementWhere(ctx, fmt.Sprintf("text contains '%s'", text), textMatches(text, strings.Contains))
}

func (e *Elements) IndexByAttribute(ctx context.Context, attribute, value string) (int, error) {
	return e.indexWhere(ctx, fmt.Sprintf("attribute '%s'='%s'", attribute, value),
		func(ctx context.Context, el driver.WebElement) (bool, error) {
			v, err := el.Attribute(ctx, attribute)
			return v == value, err
		})
}

func (e *Elements) IndexByText(ctx context.Context, text string) (int, error) {
	return e.indexWhere(ctx, fmt.Sprintf("text '%s'", text), textEquals(text))
}

func (e *Elements) IndexByTextContains(ctx context.Context, text string) (int, error) {
	return e.indexWhere(ctx, fmt.Sprintf("text contains '%s'", text), textMatches(text, strings.Contains))
}

func (e *Elements) IndexByTextStartsWith(ctx context.Context, text string) (int, error) {
	return e.indexWhere(ctx, fmt.Sprintf("text starts with '%s'", text), textMatches(text, strings.HasPrefix))
}

func (e *Elements) Text(ctx context.Context, i int) (string, error) {
	return invoke(ctx, &e.Base, fmt.Sprintf("get text of element with index '%d'", i), func(ctx context.Context) (string, error) {
		el, err := e.at(ctx, i)
		if err != nil {
			return "", err
		}
		return el.Text(ctx)
	})
}

func (e *Elements) TextList(ctx context.Context) ([]string, error) {
	return e.collect(ctx, "get text list", func(ctx context.Context, el driver.WebElement) (string, error) {
		return el.Text(ctx)
	})
}

func (e *Elements) AttributeList(ctx context.Context, name string) ([]string, error) {
	return e.collect(ctx, fmt.Sprintf("get attribute '%s' list", name), func(ctx context.Context, el driver.WebElement) (string, error) {
		return el.Attribute(ctx, name)
	})
}

// at returns the i-th element found, waiting for the collection to appear.
func (e *Elements) at(ctx context.Context, i int) (driver.WebElement, error) {
	els, err := e.WebElements(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(els) {
		return nil, fmt.Errorf("%w: index %d, %d elements", ErrIndexOutOfRange, i, len(els))
	}
	return els[i], nil
}

func (e *Elements) firstVisible(ctx context.Context) (int, driver.WebElement, error) {
	els, err := e.WebElements(ctx)
	if err != nil {
		return -1, nil, err
	}
	i, err := indexWhere(ctx, els, displayed)
	if err != nil {
		return -1, nil, err
	}
	if i < 0 {
		return -1, nil, fmt.Errorf("%w: no visible elements available", ErrNotFound)
	}
	return i, els[i], nil
}

func (e *Elements) indexWhere(ctx context.Context, what string, match func(context.Context, driver.WebElement) (bool, error)) (int, error) {
	return invoke(ctx, &e.Base, "get index of element with "+what, func(ctx context.Context) (int, error) {
		els, err := e.WebElements(ctx)
		if err != nil {
			return -1, err
		}
		i, err := indexWhere(ctx, els, match)
		if err != nil {
			return -1, err
		}
		if i < 0 {
			return -1, fmt.Errorf("%w: cannot find element with %s", ErrNotFound, what)
		}
		return i, nil
	})
}

func (e *Elements) webElementWhere(ctx context.Context, what string, match func(context.Context, driver.WebElement) (bool, error)) (driver.WebElement, error) {
	return invoke(ctx, &e.Base, "get element with "+what, func(ctx context.Context) (driver.WebElement, error) {
		els, err := e.WebElements(ctx)
		if err != nil {
			return nil, err
		}
		i, err := indexWhere(ctx, els, match)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: cannot find element with %s", ErrNotFound, what)
		}
		return els[i], nil
	})
}

func (e *Elements) collect(ctx context.Context, action string, get func(context.Context, driver.WebElement) (string, error)) ([]string, error) {
	return invoke(ctx, &e.Base, action, func(ctx context.Context) ([]string, error) {
		els, err := e.WebElements(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(els))
		for _, el := range els {
			v, err := get(ctx, el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}

func indexWhere(ctx context.Context, els []driver.WebElement, match func(context.Context, driver.WebElement) (bool, error)) (int, error) {
	for i, el := range els {
		ok, err := match(ctx, el)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

func displayed(ctx context.Context, el driver.WebElement) (bool, error) {
	return el.IsDisplayed(ctx)
}

func textEquals(text string) func(context.Context, driver.WebElement) (bool, error) {
	return textMatches(text, func(s, t string) bool { return s == t })
}

func textMatches(text string, match func(s, text string) bool) func(context.Context, driver.WebElement) (bool, error) {
	return func(ctx context.Context, el driver.WebElement) (bool, error) {
		t, err := el.Text(ctx)
		return err == nil && match(t, text), err
	}
}
