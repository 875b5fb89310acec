package by

import (
	"fmt"
	"strings"
)

// XPath renders the locator as an XPath expression.
func (l Locator) XPath() (string, error) {
	switch l.Kind {
	case XPath:
		return l.Value, nil
	case ID:
		return "//*[@id=" + literal(l.Value) + "]", nil
	case Name:
		return "//*[@name=" + literal(l.Value) + "]", nil
	case ClassName:
		return "//*[" + classPredicate(l.Value) + "]", nil
	case TagName:
		return "//" + l.Value, nil
	case LinkText:
		return "//a[normalize-space(.)=" + literal(l.Value) + "]", nil
	case PartialLinkText:
		return "//a[contains(., " + literal(l.Value) + ")]", nil
	case CSS:
		return cssToXPath(l.Value)
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrUnsupported, l.Kind)
}

// CSS renders the locator as a CSS selector. ok is false for kinds CSS cannot
// express (XPath, link text).
func (l Locator) CSS() (sel string, ok bool) {
	switch l.Kind {
	case CSS:
		return l.Value, true
	case ID:
		return `[id="` + cssEscape(l.Value) + `"]`, true
	case Name:
		return `[name="` + cssEscape(l.Value) + `"]`, true
	case ClassName:
		return "." + l.Value, true
	case TagName:
		return l.Value, true
	}
	return "", false
}

func cssEscape(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

// literal quotes s as an XPath string literal.
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func classPredicate(class string) string {
	return "contains(concat(' ', normalize-space(@class), ' '), " + literal(" "+class+" ") + ")"
}

// cssToXPath handles the CSS subset page objects use: type and universal
// selectors, #id, .class, [attr], [attr=value] and the descendant and child
// combinators.
func cssToXPath(sel string) (string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return "", ErrEmptyLocator
	}

	var (
		out  strings.Builder
		axis = "//"
		i    = 0
	)
	for i < len(sel) {
		switch c := sel[i]; {
		case c == ' ' || c == '\t' || c == '\n':
			i++
			continue
		case c == '>':
			if axis == "/" {
				return "", fmt.Errorf("%w: %q", ErrUnsupported, sel)
			}
			axis = "/"
			i++
			continue
		case strings.IndexByte("+~,:", c) >= 0:
			return "", fmt.Errorf("%w: %q", ErrUnsupported, sel)
		}

		step, n, err := compound(sel[i:])
		if err != nil {
			return "", fmt.Errorf("%w: %q", err, sel)
		}
		out.WriteString(axis)
		out.WriteString(step)
		axis = "//"
		i += n
	}

	if axis == "/" {
		return "", fmt.Errorf("%w: dangling combinator in %q", ErrUnsupported, sel)
	}
	return out.String(), nil
}

// compound converts one compound selector at the start of s and reports how
// many bytes it consumed.
func compound(s string) (string, int, error) {
	tag := "*"
	i := 0
	if n := identLen(s); n > 0 {
		tag = s[:n]
		i = n
	} else if strings.HasPrefix(s, "*") {
		i = 1
	}

	var preds []string
	for i < len(s) {
		switch s[i] {
		case '#':
			n := identLen(s[i+1:])
			if n == 0 {
				return "", 0, ErrUnsupported
			}
			preds = append(preds, "@id="+literal(s[i+1:i+1+n]))
			i += 1 + n
		case '.':
			n := identLen(s[i+1:])
			if n == 0 {
				return "", 0, ErrUnsupported
			}
			preds = append(preds, classPredicate(s[i+1:i+1+n]))
			i += 1 + n
		case '[':
			closing := strings.IndexByte(s[i:], ']')
			if closing < 0 {
				return "", 0, ErrUnsupported
			}
			pred, err := attribute(s[i+1 : i+closing])
			if err != nil {
				return "", 0, err
			}
			preds = append(preds, pred)
			i += closing + 1
		case ' ', '\t', '\n', '>':
			return step(tag, preds), i, nil
		default:
			return "", 0, ErrUnsupported
		}
	}
	return step(tag, preds), i, nil
}

func step(tag string, preds []string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, p := range preds {
		b.WriteString("[" + p + "]")
	}
	return b.String()
}

func attribute(body string) (string, error) {
	name, value, hasValue := strings.Cut(body, "=")
	name = strings.TrimSpace(name)
	if identLen(name) != len(name) || name == "" {
		return "", ErrUnsupported
	}
	if !hasValue {
		return "@" + name, nil
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 && (value[0] == '\'' || value[0] == '"') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	return "@" + name + "=" + literal(value), nil
}

func identLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			n++
			continue
		}
		break
	}
	return n
}
