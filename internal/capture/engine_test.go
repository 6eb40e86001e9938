package capture_test

import (
	"capture-engine/internal/action"
	"capture-engine/internal/browser"
	"capture-engine/internal/capture"
	"capture-engine/internal/preset"
	"capture-engine/internal/retry"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubElement struct{}

func (e *stubElement) Click(ctx context.Context) error                  { return nil }
func (e *stubElement) ScrollIntoView(ctx context.Context) error         { return nil }
func (e *stubElement) SetHighlight(ctx context.Context, on bool) error  { return nil }
func (e *stubElement) Focus(ctx context.Context) error                  { return nil }
func (e *stubElement) ClearValue(ctx context.Context) error             { return nil }
func (e *stubElement) TypeChar(ctx context.Context, c rune) error       { return nil }
func (e *stubElement) SetValue(ctx context.Context, value string) error { return nil }
func (e *stubElement) DispatchChange(ctx context.Context) error         { return nil }
func (e *stubElement) Hover(ctx context.Context) error                  { return nil }
func (e *stubElement) ScrollTo(ctx context.Context, x int, y int) error { return nil }

type fakeSurface struct {
	ops []string

	selectors     map[string]bool
	contentHeight int
	screenshot    []byte

	// navigateFailures counts down: each failed Navigate decrements it.
	navigateFailures int
	// failOnNavigateCall fails exactly the n-th Navigate call (1-based).
	failOnNavigateCall int
	navigateCalls      int

	// navigated, when set, receives a signal after each successful Navigate.
	navigated chan struct{}
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		selectors:     map[string]bool{},
		contentHeight: 0,
		screenshot:    []byte("raster"),
	}
}

func (s *fakeSurface) SetViewport(ctx context.Context, width int, height int) error {
	s.ops = append(s.ops, fmt.Sprintf("setViewport %dx%d", width, height))
	return nil
}

func (s *fakeSurface) Navigate(ctx context.Context, url string) error {
	s.navigateCalls++
	if s.navigateFailures > 0 || s.navigateCalls == s.failOnNavigateCall {
		if s.navigateFailures > 0 {
			s.navigateFailures--
		}
		s.ops = append(s.ops, "navigate failed "+url)
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	s.ops = append(s.ops, "navigate "+url)
	if s.navigated != nil {
		select {
		case s.navigated <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *fakeSurface) Reset(ctx context.Context) error {
	s.ops = append(s.ops, "reset")
	return nil
}

func (s *fakeSurface) ContentHeight(ctx context.Context) (int, error) {
	return s.contentHeight, nil
}

func (s *fakeSurface) Screenshot(ctx context.Context) ([]byte, error) {
	s.ops = append(s.ops, "screenshot")
	return s.screenshot, nil
}

func (s *fakeSurface) ScrollTo(ctx context.Context, x int, y int) error {
	return nil
}

func (s *fakeSurface) Locate(ctx context.Context, selector string) (browser.Element, error) {
	if s.selectors[selector] {
		return &stubElement{}, nil
	}
	return nil, nil
}

func (s *fakeSurface) Close() error {
	return nil
}

func (s *fakeSurface) resetCount() int {
	n := 0
	for _, op := range s.ops {
		if op == "reset" {
			n++
		}
	}
	return n
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(ctx context.Context, p preset.Preset) (*capture.RenderOutput, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &capture.RenderOutput{
		Image:  []byte("raster"),
		Width:  p.Width,
		Height: p.Height,
	}, nil
}

type stubThumbnailer struct{}

func (t *stubThumbnailer) Generate(data []byte) []byte {
	return []byte("thumb")
}

func testConfig() capture.EngineConfig {
	// No settle countdown and zero action timing keep the tests instant.
	return capture.EngineConfig{
		Renderer:    &fakeRenderer{},
		Thumbnailer: &stubThumbnailer{},
	}
}

func TestTakeScreenshot(t *testing.T) {
	surface := newFakeSurface()
	engine := capture.NewEngine(surface, testConfig(), nil)

	result, err := engine.TakeScreenshot(context.Background(), "https://example.com", "mobile", nil)
	if err != nil {
		t.Fatalf("TakeScreenshot returned error: %v", err)
	}

	if result.Preset != "mobile" {
		t.Errorf("expected preset %q, got %q", "mobile", result.Preset)
	}
	if result.Width != 375 || result.Height != 812 {
		t.Errorf("expected 375x812, got %dx%d", result.Width, result.Height)
	}
	if string(result.Screenshot) != "raster" {
		t.Errorf("unexpected screenshot payload %q", result.Screenshot)
	}
	if string(result.Thumbnail) != "thumb" {
		t.Errorf("unexpected thumbnail payload %q", result.Thumbnail)
	}
	if result.TimeTakenSeconds < 0 {
		t.Errorf("negative elapsed time %f", result.TimeTakenSeconds)
	}

	// The viewport matches the preset before anything else touches the
	// surface, and the surface ends up blank again.
	if len(surface.ops) == 0 || surface.ops[0] != "setViewport 375x812" {
		t.Errorf("expected viewport set first, ops: %v", surface.ops)
	}
	if surface.ops[len(surface.ops)-1] != "reset" {
		t.Errorf("expected reset last, ops: %v", surface.ops)
	}
}

func TestTakeScreenshotLoadFailure(t *testing.T) {
	surface := newFakeSurface()
	surface.navigateFailures = 1
	engine := capture.NewEngine(surface, testConfig(), nil)

	_, err := engine.TakeScreenshot(context.Background(), "https://unreachable.invalid", "full-hd", nil)

	var loadErr *capture.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if loadErr.URL != "https://unreachable.invalid" {
		t.Errorf("unexpected URL in error: %q", loadErr.URL)
	}

	// Cleanup still runs on the failure path.
	if surface.resetCount() != 1 {
		t.Errorf("expected 1 reset, ops: %v", surface.ops)
	}
}

func TestTakeScreenshotRenderFailure(t *testing.T) {
	surface := newFakeSurface()
	config := testConfig()
	config.Renderer = &fakeRenderer{err: errors.New("tainted canvas")}
	engine := capture.NewEngine(surface, config, nil)

	_, err := engine.TakeScreenshot(context.Background(), "https://example.com", "full-hd", nil)

	var renderErr *capture.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if surface.resetCount() != 1 {
		t.Errorf("expected 1 reset, ops: %v", surface.ops)
	}
}

func TestTakeScreenshotFullPage(t *testing.T) {
	surface := newFakeSurface()
	surface.contentHeight = 4732

	config := testConfig()
	// The real surface renderer measures and grows the viewport.
	config.Renderer = capture.NewSurfaceRenderer(surface)
	engine := capture.NewEngine(surface, config, nil)

	result, err := engine.TakeScreenshot(context.Background(), "https://example.com", "full-page", nil)
	if err != nil {
		t.Fatalf("TakeScreenshot returned error: %v", err)
	}

	if result.Width != 1920 {
		t.Errorf("expected width 1920, got %d", result.Width)
	}
	if result.Height != 4732 {
		t.Errorf("expected measured height 4732, got %d", result.Height)
	}
	if result.Height < 1080 {
		t.Errorf("full-page height %d below nominal preset height", result.Height)
	}

	grown := false
	for _, op := range surface.ops {
		if op == "setViewport 1920x4732" {
			grown = true
		}
	}
	if !grown {
		t.Errorf("viewport never grew to content height, ops: %v", surface.ops)
	}
}

func TestTakeScreenshotMissingActionTarget(t *testing.T) {
	surface := newFakeSurface()
	engine := capture.NewEngine(surface, testConfig(), nil)

	actions := []action.Action{
		{Type: action.TypeClick, Selector: "#missing"},
		{Type: action.TypeWait, Duration: time.Millisecond},
	}

	if _, err := engine.TakeScreenshot(context.Background(), "https://example.com", "mobile", actions); err != nil {
		t.Fatalf("missing action target failed the capture: %v", err)
	}
}

func TestTakeScreenshotNavigationRetry(t *testing.T) {
	surface := newFakeSurface()
	surface.navigateFailures = 2

	config := testConfig()
	config.Strategy = retry.NewExponentialBackOff(time.Millisecond, time.Millisecond, 3, func(i int64) int64 {
		return 0
	})
	engine := capture.NewEngine(surface, config, nil)

	if _, err := engine.TakeScreenshot(context.Background(), "https://flaky.example.com", "full-hd", nil); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
}

func TestTakeSequentialScreenshots(t *testing.T) {
	surface := newFakeSurface()
	engine := capture.NewEngine(surface, testConfig(), nil)

	sequences := []action.Sequence{
		{Name: "landing"},
		{Name: "search", Actions: []action.Action{{Type: action.TypeWait, Duration: time.Millisecond}}},
	}

	results, err := engine.TakeSequentialScreenshots(context.Background(), "https://example.com", "mobile", sequences)
	if err != nil {
		t.Fatalf("TakeSequentialScreenshots returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, result := range results {
		if result.SequenceIndex != i {
			t.Errorf("result %d has sequence index %d", i, result.SequenceIndex)
		}
		if result.Preset != "mobile" {
			t.Errorf("result %d has preset %q", i, result.Preset)
		}
	}
	if results[0].SequenceName != "landing" || results[1].SequenceName != "search" {
		t.Errorf("unexpected sequence names: %q, %q", results[0].SequenceName, results[1].SequenceName)
	}
}

func TestTakeSequentialScreenshotsFailFast(t *testing.T) {
	surface := newFakeSurface()
	engine := capture.NewEngine(surface, testConfig(), nil)

	sequences := []action.Sequence{
		{Name: "first"},
		{Name: "second"},
		{Name: "third"},
	}

	// The first sequence succeeds, the second one fails to navigate.
	surface.failOnNavigateCall = 2

	results, err := engine.TakeSequentialScreenshots(context.Background(), "https://example.com", "mobile", sequences)

	var batchErr *capture.BatchAbortError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchAbortError, got %v", err)
	}
	if batchErr.Sequence != "second" || batchErr.Index != 1 {
		t.Errorf("unexpected failing sequence %q (index %d)", batchErr.Sequence, batchErr.Index)
	}

	var loadErr *capture.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("expected underlying LoadError, got %v", batchErr.Err)
	}

	// The successful first result is discarded with the batch; current
	// behavior, asserted deliberately.
	if results != nil {
		t.Errorf("expected earlier results to be discarded, got %d", len(results))
	}

	// Cleanup ran for the successful capture and the failed one.
	if surface.resetCount() != 2 {
		t.Errorf("expected 2 resets, ops: %v", surface.ops)
	}
}

func TestTakeScreenshotCancelsPendingCountdown(t *testing.T) {
	surface := newFakeSurface()
	surface.navigated = make(chan struct{}, 2)

	config := testConfig()
	config.MaxWaitSeconds = 60
	engine := capture.NewEngine(surface, config, nil)

	first := make(chan error, 1)
	go func() {
		_, err := engine.TakeScreenshot(context.Background(), "https://example.com/slow", "", nil)
		first <- err
	}()

	// Wait for the first capture to load and enter its settle countdown.
	select {
	case <-surface.navigated:
	case <-time.After(5 * time.Second):
		t.Fatal("first capture never navigated")
	}
	time.Sleep(100 * time.Millisecond)

	secondCtx, stopSecond := context.WithCancel(context.Background())
	defer stopSecond()

	second := make(chan error, 1)
	go func() {
		_, err := engine.TakeScreenshot(secondCtx, "https://example.com/next", "", nil)
		second <- err
	}()

	// The new request cancels the pending countdown; the first capture
	// rejects promptly instead of waiting out the full ceiling.
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first capture was not interrupted by the second request")
	}

	stopSecond()
	select {
	case err := <-second:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second capture did not stop after context cancellation")
	}

	// Both captures reset the surface on their way out.
	if surface.resetCount() != 2 {
		t.Errorf("expected 2 resets, got %d", surface.resetCount())
	}
}
