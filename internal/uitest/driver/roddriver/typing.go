package roddriver

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

// TypeHuman focuses el and types text one key at a time with 50-150ms
// pauses. Each key fires keydown and keyup.
func TypeHuman(ctx context.Context, el *rod.Element, text string) error {
	for _, r := range text {
		if err := typeRune(el, r); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(50+rand.IntN(100)) * time.Millisecond):
		}
	}
	return nil
}

// TypeFast types text without pauses. Runes without a key on a US layout
// are inserted as text.
func TypeFast(el *rod.Element, text string) error {
	keys := make([]input.Key, 0, len(text))
	for _, r := range text {
		if !hasKey(r) {
			return el.Input(text)
		}
		keys = append(keys, input.Key(r))
	}
	return el.Type(keys...)
}

func typeRune(el *rod.Element, r rune) error {
	if !hasKey(r) {
		return el.Input(string(r))
	}
	return el.Type(input.Key(r))
}

// hasKey reports whether r is printable ASCII, which input.Key covers.
func hasKey(r rune) bool {
	return r >= ' ' && r <= '~' || r == '\t' || r == '\r'
}
