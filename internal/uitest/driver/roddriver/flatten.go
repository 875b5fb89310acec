package roddriver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

// flattenJS inlines open shadow roots and same-origin iframe documents into
// the light DOM and returns the serialized document.
//
// Shadow content is appended to its host inside <div data-shadow-root>.
// Iframes are replaced by <div data-captured-iframe> holding their body;
// inaccessible ones get data-iframe-error. Children are processed before
// their container is serialized, because copying a shadow root detaches the
// live documents of iframes nested in it.
const flattenJS = `() => {
	const LIMIT = 100;
	const stats = {shadow: 0, frames: 0};

	const visit = (el, depth) => {
		if (depth > LIMIT) return;
		if (el.tagName === 'IFRAME') return inlineFrame(el, depth);
		if (el.shadowRoot) return inlineShadow(el, depth);
		for (const c of Array.from(el.children)) visit(c, depth + 1);
	};

	const inlineShadow = (host, depth) => {
		const root = host.shadowRoot;
		for (const c of Array.from(root.children)) visit(c, depth + 1);

		const box = document.createElement('div');
		box.setAttribute('data-shadow-root', 'true');
		box.setAttribute('data-shadow-host', host.tagName.toLowerCase());
		for (const n of Array.from(root.childNodes)) {
			try { box.appendChild(n.cloneNode(true)); } catch (e) {}
		}
		host.appendChild(box);
		stats.shadow++;
	};

	const inlineFrame = (frame, depth) => {
		const owner = frame.ownerDocument;
		const box = owner.createElement('div');
		box.setAttribute('data-captured-iframe', 'true');
		box.setAttribute('data-iframe-src', frame.src || '');
		box.setAttribute('data-iframe-id', frame.id || '');
		box.setAttribute('data-iframe-name', frame.name || '');
		try {
			const doc = frame.contentDocument;
			if (!doc || !doc.documentElement) throw new Error('no contentDocument');
			visit(doc.documentElement, depth + 1);
			if (doc.head) {
				for (const s of Array.from(doc.head.querySelectorAll('style'))) {
					box.appendChild(s.cloneNode(true));
				}
			}
			if (doc.body) box.insertAdjacentHTML('beforeend', doc.body.innerHTML);
			stats.frames++;
		} catch (e) {
			box.setAttribute('data-iframe-error', e.message);
			box.textContent = '[iframe not accessible: ' + e.message + ']';
		}
		try { frame.replaceWith(box); } catch (e) {}
	};

	visit(document.documentElement, 0);
	return JSON.stringify({html: document.documentElement.outerHTML, shadow: stats.shadow, frames: stats.frames});
}`

// FlattenStats counts what FlattenedHTML inlined.
type FlattenStats struct {
	ShadowRoots int `json:"shadow"`
	Frames      int `json:"frames"`
}

// FlattenedHTML returns the page markup with shadow DOM and iframe content
// inlined, so captures of component-heavy pages can be searched as plain
// HTML. The live DOM is modified. When the script fails the plain page HTML
// is returned with zero stats.
func FlattenedHTML(ctx context.Context, p *rod.Page) (string, FlattenStats, error) {
	p = p.Context(ctx)

	var out struct {
		HTML string `json:"html"`
		FlattenStats
	}
	res, err := p.Eval(flattenJS)
	if err == nil {
		err = json.Unmarshal([]byte(res.Value.Str()), &out)
	}
	if err != nil {
		html, herr := p.HTML()
		if herr != nil {
			return "", FlattenStats{}, fmt.Errorf("flatten dom: %w; page html: %w", err, herr)
		}
		return html, FlattenStats{}, nil
	}
	return out.HTML, out.FlattenStats, nil
}

// FlattenedHTML flattens the top-level page.
func (d *Driver) FlattenedHTML(ctx context.Context) (string, FlattenStats, error) {
	return FlattenedHTML(ctx, d.top)
}
