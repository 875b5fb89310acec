// Package by describes how page elements are located.
package by

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyLocator = errors.New("empty locator")
	ErrUnsupported  = errors.New("locator cannot be converted")
)

// Kind is the search strategy of a Locator.
type Kind string

const (
	ID              Kind = "id"
	CSS             Kind = "css"
	XPath           Kind = "xpath"
	Name            Kind = "name"
	TagName         Kind = "tag"
	ClassName       Kind = "class"
	LinkText        Kind = "link"
	PartialLinkText Kind = "partiallink"
)

var kinds = []Kind{ID, CSS, XPath, Name, TagName, ClassName, PartialLinkText, LinkText}

// templateMark is the placeholder filled by Fill.
const templateMark = "%s"

// Locator is a search strategy plus the value it searches for.
type Locator struct {
	Kind  Kind
	Value string
}

func NewID(v string) Locator        { return Locator{Kind: ID, Value: v} }
func NewCSS(v string) Locator       { return Locator{Kind: CSS, Value: v} }
func NewXPath(v string) Locator     { return Locator{Kind: XPath, Value: v} }
func NewName(v string) Locator      { return Locator{Kind: Name, Value: v} }
func NewTagName(v string) Locator   { return Locator{Kind: TagName, Value: v} }
func NewClassName(v string) Locator { return Locator{Kind: ClassName, Value: v} }
func NewLinkText(v string) Locator  { return Locator{Kind: LinkText, Value: v} }

// Parse reads a locator of the form "kind=value". A locator without a known
// kind prefix is an XPath expression.
func Parse(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, ErrEmptyLocator
	}

	for _, k := range kinds {
		prefix := string(k) + "="
		if strings.HasPrefix(s, prefix) {
			v := strings.TrimSpace(s[len(prefix):])
			if v == "" {
				return Locator{}, fmt.Errorf("%w: %q", ErrEmptyLocator, s)
			}
			return Locator{Kind: k, Value: v}, nil
		}
	}

	return Locator{Kind: XPath, Value: s}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Locator {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Locator) String() string {
	if l.IsZero() {
		return ""
	}
	return string(l.Kind) + "=" + l.Value
}

func (l Locator) IsZero() bool {
	return l.Value == ""
}

// IsTemplate reports whether the locator has placeholders to Fill.
func (l Locator) IsTemplate() bool {
	return strings.Contains(l.Value, templateMark)
}

// Fill replaces the placeholders of a template locator, in order, with the
// string form of args. Placeholders without a matching argument are kept.
func (l Locator) Fill(args ...any) Locator {
	v := l.Value
	for _, arg := range args {
		if !strings.Contains(v, templateMark) {
			break
		}
		v = strings.Replace(v, templateMark, fmt.Sprint(arg), 1)
	}
	return Locator{Kind: l.Kind, Value: v}
}

// Nth returns an XPath locator for the i-th (0-based) element matched by l.
func (l Locator) Nth(i int) (Locator, error) {
	if i < 0 {
		return Locator{}, fmt.Errorf("negative index %d", i)
	}
	x, err := l.XPath()
	if err != nil {
		return Locator{}, err
	}
	return NewXPath(fmt.Sprintf("(%s)[%d]", x, i+1)), nil
}

// NthByTag numbers the last step named tag with the i-th (0-based) position,
// replacing a numeric position already present on that step.
func (l Locator) NthByTag(i int, tag string) (Locator, error) {
	if i < 0 {
		return Locator{}, fmt.Errorf("negative index %d", i)
	}
	x, err := l.XPath()
	if err != nil {
		return Locator{}, err
	}

	pos := lastStep(x, tag)
	if pos < 0 {
		return Locator{}, fmt.Errorf("%w: no step %q in %q", ErrUnsupported, tag, x)
	}

	end := pos + len(tag)
	rest := x[end:]
	if strings.HasPrefix(rest, "[") {
		if closing := strings.IndexByte(rest, ']'); closing > 1 && isDigits(rest[1:closing]) {
			rest = rest[closing+1:]
		}
	}

	return NewXPath(fmt.Sprintf("%s[%d]%s", x[:end], i+1, rest)), nil
}

// lastStep returns the offset of the last location step named tag in x.
func lastStep(x, tag string) int {
	limit := len(x)
	for limit > 0 {
		idx := strings.LastIndex(x[:limit], tag)
		if idx < 0 {
			return -1
		}
		before := idx == 0 || x[idx-1] == '/' || x[idx-1] == ':' || x[idx-1] == '('
		after := idx+len(tag) == len(x) || strings.ContainsRune("[/)", rune(x[idx+len(tag)]))
		if before && after {
			return idx
		}
		limit = idx
	}
	return -1
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// InsertValue replaces every "$VALUE" in s with v.
func InsertValue(s, v string) string {
	return strings.ReplaceAll(s, "$VALUE", v)
}
