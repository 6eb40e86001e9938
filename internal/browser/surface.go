package browser

import (
	"context"
)

// Surface is the one shared rendering surface a capture batch runs over.
// Implementations are not safe for concurrent use; callers serialize access.
type Surface interface {
	// SetViewport resizes the surface viewport.
	SetViewport(ctx context.Context, width int, height int) error
	// Navigate loads the given URL and blocks until the document is available.
	Navigate(ctx context.Context, url string) error
	// Reset points the surface back at a blank, neutral document.
	Reset(ctx context.Context) error
	// ContentHeight measures the full scrollable height of the current
	// document, forcing scroll containers open so nothing is clipped.
	ContentHeight(ctx context.Context) (int, error)
	// Screenshot rasterizes the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
	// ScrollTo scrolls the whole document to the given coordinates.
	ScrollTo(ctx context.Context, x int, y int) error
	// Locate resolves a selector to the first matching element. A selector
	// starting with "/" is evaluated as XPath, anything else as CSS. No
	// match returns (nil, nil), not an error.
	Locate(ctx context.Context, selector string) (Element, error)
	// Close releases the surface and its backing browser.
	Close() error
}

// Element is one resolved DOM node the action runner manipulates.
type Element interface {
	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// SetHighlight toggles a transient visual marker on the element. It
	// exists for human-observable debugging of automated runs and must not
	// change the element's behavior.
	SetHighlight(ctx context.Context, on bool) error
	Focus(ctx context.Context) error
	ClearValue(ctx context.Context) error
	// TypeChar appends one character to the element's value and fires an
	// input event, mimicking keystroke-driven reactivity.
	TypeChar(ctx context.Context, c rune) error
	SetValue(ctx context.Context, value string) error
	DispatchChange(ctx context.Context) error
	// Hover dispatches a single pointerover event at the element.
	Hover(ctx context.Context) error
	ScrollTo(ctx context.Context, x int, y int) error
}
