package capture

import (
	"capture-engine/internal/action"
	"capture-engine/internal/browser"
	"capture-engine/internal/preset"
	"capture-engine/internal/retry"
	"capture-engine/internal/thumbnail"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Thumbnailer downsizes a rendered screenshot; nil output means no preview,
// which is never fatal.
type Thumbnailer interface {
	Generate(data []byte) []byte
}

type EngineConfig struct {
	// MaxWaitSeconds bounds the settle countdown after a successful load.
	MaxWaitSeconds int
	Timing         action.Timing

	// Strategy drives navigation retries; the default never retries, so a
	// load failure is fatal to the capture.
	Strategy    retry.Strategy
	Renderer    Renderer
	Thumbnailer Thumbnailer
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxWaitSeconds: 10,
		Timing:         action.DefaultTiming(),
	}
}

// Engine drives captures over one shared rendering surface. Captures are
// serialized internally because every capture mutates the one surface; a
// capture requested while another is waiting out its settle countdown
// cancels that countdown first.
type Engine struct {
	surface     browser.Surface
	presets     *preset.Resolver
	runner      *action.Runner
	renderer    Renderer
	thumbnailer Thumbnailer
	strategy    retry.Strategy
	maxWait     int
	logger      *slog.Logger

	runMu sync.Mutex

	mu          sync.Mutex
	pendingWait context.CancelFunc
}

func NewEngine(surface browser.Surface, config EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	renderer := config.Renderer
	if renderer == nil {
		renderer = NewSurfaceRenderer(surface)
	}

	thumbnailer := config.Thumbnailer
	if thumbnailer == nil {
		thumbnailer = thumbnail.NewGenerator(thumbnail.DefaultWidth, thumbnail.DefaultHeight, logger)
	}

	strategy := config.Strategy
	if strategy == nil {
		strategy = retry.NewNever()
	}

	return &Engine{
		surface:     surface,
		presets:     preset.NewResolver(),
		runner:      action.NewRunner(config.Timing, logger),
		renderer:    renderer,
		thumbnailer: thumbnailer,
		strategy:    strategy,
		maxWait:     config.MaxWaitSeconds,
		logger:      logger,
	}
}

// TakeScreenshot drives one URL through load, settle, actions, render and
// thumbnail. Whatever happens, the surface is reset to a blank document and
// any pending countdown is cancelled before the call returns.
func (e *Engine) TakeScreenshot(ctx context.Context, url string, presetName string, actions []action.Action) (*Result, error) {
	// A countdown left pending by an earlier capture must not keep the
	// surface busy once a new request is in; cancel it before queueing.
	e.cancelPendingWait()

	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.take(ctx, url, presetName, actions)
}

func (e *Engine) take(ctx context.Context, url string, presetName string, actions []action.Action) (result *Result, err error) {
	s := newSession(e.logger.With("url", url, "preset", presetName))
	start := time.Now()

	defer func() {
		s.transition(PhaseCleanup)
		e.cancelPendingWait()
		if resetErr := e.surface.Reset(context.WithoutCancel(ctx)); resetErr != nil {
			s.logger.Error("failed to reset surface after capture", "error", resetErr)
		}
		if err != nil {
			s.transition(PhaseRejected)
		} else {
			s.transition(PhaseResolved)
		}
	}()

	p := e.presets.Resolve(presetName)
	if viewportErr := e.surface.SetViewport(ctx, p.Width, p.Height); viewportErr != nil {
		return nil, &LoadError{URL: url, Err: viewportErr}
	}

	s.transition(PhaseLoading)
	if navErr := e.navigate(ctx, url); navErr != nil {
		return nil, &LoadError{URL: url, Err: navErr}
	}

	s.transition(PhaseWaiting)
	if waitErr := s.countdown(ctx, e.maxWait, e.registerWait); waitErr != nil {
		return nil, waitErr
	}

	s.transition(PhaseActing)
	if len(actions) > 0 {
		if actErr := e.runner.Run(ctx, e.surface, actions); actErr != nil {
			return nil, actErr
		}
	}

	s.transition(PhaseRendering)
	output, renderErr := e.renderer.Render(ctx, p)
	if renderErr != nil {
		return nil, &RenderError{URL: url, Err: renderErr}
	}

	s.transition(PhaseThumbnailing)
	thumb := e.thumbnailer.Generate(output.Image)

	return &Result{
		Screenshot:       output.Image,
		Thumbnail:        thumb,
		TimeTakenSeconds: time.Since(start).Seconds(),
		Preset:           p.Name,
		Width:            output.Width,
		Height:           output.Height,
	}, nil
}

// TakeSequentialScreenshots captures one result per named sequence, strictly
// in order over the shared surface. It fails fast: the first failing
// sequence aborts the batch and earlier results are dropped.
func (e *Engine) TakeSequentialScreenshots(ctx context.Context, url string, presetName string, sequences []action.Sequence) ([]*Result, error) {
	e.cancelPendingWait()

	e.runMu.Lock()
	defer e.runMu.Unlock()

	results := make([]*Result, 0, len(sequences))
	for i, sequence := range sequences {
		result, err := e.take(ctx, url, presetName, sequence.Actions)
		if err != nil {
			return nil, &BatchAbortError{Sequence: sequence.Name, Index: i, Err: err}
		}

		result.SequenceName = sequence.Name
		result.SequenceIndex = i
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) navigate(ctx context.Context, url string) error {
	var attempt uint
	for {
		err := e.surface.Navigate(ctx, url)
		if err == nil {
			return nil
		}

		delay, stop := e.strategy.Sleep(attempt)
		if stop {
			return err
		}

		e.logger.Warn("retrying navigation", "url", url, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		attempt++
	}
}

func (e *Engine) registerWait(cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingWait = cancel
}

func (e *Engine) cancelPendingWait() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingWait != nil {
		e.pendingWait()
		e.pendingWait = nil
	}
}
