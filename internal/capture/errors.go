package capture

import (
	"fmt"
)

// LoadError means navigation to the target URL failed. Fatal to the capture.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RenderError means the rasterization step failed. Fatal to the capture.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// BatchAbortError means one sequence of a batch failed; the whole batch is
// aborted and earlier results are dropped.
type BatchAbortError struct {
	Sequence string
	Index    int
	Err      error
}

func (e *BatchAbortError) Error() string {
	return fmt.Sprintf("sequence %q (index %d) aborted batch: %v", e.Sequence, e.Index, e.Err)
}

func (e *BatchAbortError) Unwrap() error {
	return e.Err
}
