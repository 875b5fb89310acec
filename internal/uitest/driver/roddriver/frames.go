package roddriver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// WaitFrames waits for the DOM of p and of every visible iframe below it to
// settle.
func WaitFrames(ctx context.Context, p *rod.Page) error {
	p = p.Context(ctx)
	if err := p.WaitDOMStable(settleWindow, 0); err != nil {
		return fmt.Errorf("wait dom stable: %w", err)
	}

	frames, err := p.Elements("iframe")
	if err != nil {
		return nil
	}
	for _, f := range frames {
		if visible, _ := f.Visible(); !visible {
			continue
		}
		child, err := f.Frame()
		if err != nil {
			continue
		}
		if err := WaitFrames(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// DeepestVisibleFrame follows the first visible iframe at each level and
// returns the innermost document, or p when it has none.
func DeepestVisibleFrame(ctx context.Context, p *rod.Page) *rod.Page {
	p = p.Context(ctx)
	frames, err := p.Elements("iframe")
	if err != nil {
		return p
	}
	for _, f := range frames {
		if visible, _ := f.Visible(); !visible {
			continue
		}
		child, err := f.Frame()
		if err != nil {
			return p
		}
		return DeepestVisibleFrame(ctx, child)
	}
	return p
}

// SwitchToDeepestFrame makes searches run in the innermost visible iframe.
func (d *Driver) SwitchToDeepestFrame(ctx context.Context) {
	d.mu.Lock()
	top := d.top
	d.mu.Unlock()

	deepest := DeepestVisibleFrame(ctx, top)

	d.mu.Lock()
	d.cur = deepest.Context(context.Background())
	d.mu.Unlock()
}

// settleWindow is how long the DOM must stay unchanged.
const settleWindow = time.Second
