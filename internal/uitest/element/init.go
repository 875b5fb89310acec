package element

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/grez-lucas/uitest/internal/uitest/by"
)

var ErrInit = errors.New("page object init")

// Struct tags read by InitPage and InitSite.
const (
	tagLocator = "ui"
	tagName    = "name"
	tagExpand  = "expand"
	tagAll     = "all"
	tagNext    = "next"
	tagPrev    = "prev"
	tagFirst   = "first"
	tagLast    = "last"
	tagURL     = "url"
	tagTitle   = "title"
)

// configurer is implemented by elements reading extra struct tags.
type configurer interface {
	configure(tag reflect.StructTag) error
}

// container is implemented by elements whose exported fields are page
// objects too.
type container interface {
	binder
	scope() []by.Locator
}

type clicker interface {
	asClickable() *Clickable
}

func (c *Clickable) asClickable() *Clickable { return c }

func (s *Selector) configure(tag reflect.StructTag) error {
	loc, err := tagLocatorValue(tag, tagAll)
	if err != nil {
		return err
	}
	if !loc.IsZero() {
		s.all = loc
	}
	return nil
}

func (d *Dropdown) configure(tag reflect.StructTag) error {
	if err := d.Selector.configure(tag); err != nil {
		return err
	}
	loc, err := tagLocatorValue(tag, tagExpand)
	if err != nil {
		return err
	}
	if !loc.IsZero() {
		d.expand = loc
	}
	return nil
}

func (p *Pagination) configure(tag reflect.StructTag) error {
	for key, dst := range map[string]*by.Locator{
		tagNext: &p.next, tagPrev: &p.prev, tagFirst: &p.first, tagLast: &p.last,
	} {
		loc, err := tagLocatorValue(tag, key)
		if err != nil {
			return err
		}
		if !loc.IsZero() {
			*dst = loc
		}
	}
	return nil
}

func (p *Pagination) scope() []by.Locator {
	if p.locator.IsZero() || p.locator.IsTemplate() {
		return p.Context()
	}
	return append(p.Context(), p.locator)
}

func (p *Page) configure(tag reflect.StructTag) error {
	if v, ok := tag.Lookup(tagURL); ok {
		p.url = v
	}
	if v, ok := tag.Lookup(tagTitle); ok {
		p.title = v
	}
	return nil
}

func (p *Page) scope() []by.Locator { return nil }

// InitPage binds every page object declared in the struct ptr points to.
// Nil element pointers are allocated. A field is named by its name tag or
// its split field name, and located by its ui tag. Sections and
// paginations are walked recursively with their locator added to the
// context. Clickables declared next to a Pagination are registered on it.
func InitPage(site *Site, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: want a non-nil struct pointer, got %T", ErrInit, ptr)
	}
	if b, ok := ptr.(binder); ok {
		base := b.base()
		base.site = site
		if base.name == "" {
			base.name = fieldName(v.Elem().Type().Name())
		}
	}
	site.Log.Init("Init page %s", v.Elem().Type().Name())
	return walk(site, v.Elem(), nil)
}

// InitSite binds every page declared on a site struct.
func InitSite(site *Site, ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: want a non-nil struct pointer, got %T", ErrInit, ptr)
	}
	site.Log.Init("Init site %s", v.Elem().Type().Name())
	return walk(site, v.Elem(), nil)
}

func walk(site *Site, v reflect.Value, ctx []by.Locator) error {
	t := v.Type()
	var (
		clickables  []*Clickable
		paginations []*Pagination
	)

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		target, ok := addressable(v.Field(i))
		if !ok {
			continue
		}
		obj := target.Interface().(binder)

		if f.Anonymous {
			// The embedded element is the struct itself, bound by whoever
			// declared it; only its extra tags apply here.
			if err := configure(obj, f); err != nil {
				return err
			}
			continue
		}

		if err := bindField(site, obj, f, ctx); err != nil {
			return err
		}
		if c, ok := obj.(clicker); ok {
			clickables = append(clickables, c.asClickable())
		}
		if p, ok := obj.(interface{ pagination() *Pagination }); ok {
			paginations = append(paginations, p.pagination())
		}
		if c, ok := obj.(container); ok {
			if err := walk(site, target.Elem(), c.scope()); err != nil {
				return err
			}
		}
	}

	for _, p := range paginations {
		p.Register(clickables...)
	}
	if p, ok := v.Addr().Interface().(interface{ pagination() *Pagination }); ok {
		p.pagination().Register(clickables...)
	}
	return nil
}

func (p *Pagination) pagination() *Pagination { return p }

func bindField(site *Site, obj binder, f reflect.StructField, ctx []by.Locator) error {
	loc, err := tagLocatorValue(f.Tag, tagLocator)
	if err != nil {
		return fmt.Errorf("%w: field %s: %w", ErrInit, f.Name, err)
	}
	name := f.Tag.Get(tagName)
	if name == "" {
		name = fieldName(f.Name)
	}

	b := obj.base()
	if loc.IsZero() {
		loc = b.locator
	}
	b.bind(site, name, loc, ctx)
	return configure(obj, f)
}

func configure(obj binder, f reflect.StructField) error {
	c, ok := obj.(configurer)
	if !ok {
		return nil
	}
	if err := c.configure(f.Tag); err != nil {
		return fmt.Errorf("%w: field %s: %w", ErrInit, f.Name, err)
	}
	return nil
}

var binderType = reflect.TypeFor[binder]()

// addressable returns a pointer to the page object held by field,
// allocating nil pointers.
func addressable(field reflect.Value) (reflect.Value, bool) {
	switch {
	case field.Kind() == reflect.Pointer && field.Type().Implements(binderType):
		if field.IsNil() {
			if !field.CanSet() {
				return reflect.Value{}, false
			}
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field, true
	case field.Kind() == reflect.Struct && field.CanAddr() && reflect.PointerTo(field.Type()).Implements(binderType):
		return field.Addr(), true
	}
	return reflect.Value{}, false
}

func tagLocatorValue(tag reflect.StructTag, key string) (by.Locator, error) {
	v, ok := tag.Lookup(key)
	if !ok || v == "" {
		return by.Locator{}, nil
	}
	return by.Parse(v)
}
