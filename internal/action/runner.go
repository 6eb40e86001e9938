package action

import (
	"capture-engine/internal/browser"
	"context"
	"log/slog"
	"time"
)

// Timing holds the fixed settle delays the runner awaits between DOM
// operations. Tests substitute near-zero values.
type Timing struct {
	// InterAction is the default pause after each action when the action
	// itself carries no delay.
	InterAction time.Duration
	// ScrollSettleBeforeClick follows the smooth scroll that brings a click
	// target into view.
	ScrollSettleBeforeClick time.Duration
	// Highlight is awaited on both sides of the native click while the
	// target carries its transient highlight.
	Highlight time.Duration
	// Keystroke is the per-character pause while typing.
	Keystroke time.Duration
	// ScrollSettle follows every scroll action.
	ScrollSettle time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		InterAction:             DefaultDelay,
		ScrollSettleBeforeClick: 300 * time.Millisecond,
		Highlight:               200 * time.Millisecond,
		Keystroke:               30 * time.Millisecond,
		ScrollSettle:            500 * time.Millisecond,
	}
}

// Runner interprets an action script against a rendering surface, strictly
// in order. A missing target is a soft failure: the action is logged and
// skipped, the rest of the script still runs. Only a failed native DOM call
// or context cancellation aborts the run.
type Runner struct {
	timing Timing
	logger *slog.Logger
}

func NewRunner(timing Timing, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		timing: timing,
		logger: logger,
	}
}

func (r *Runner) Run(ctx context.Context, surface browser.Surface, actions []Action) error {
	for i, a := range actions {
		if err := r.apply(ctx, surface, i, a); err != nil {
			return err
		}

		delay := a.Delay
		if delay <= 0 {
			delay = r.timing.InterAction
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, surface browser.Surface, index int, a Action) error {
	switch a.Type {
	case TypeClick:
		target, err := r.locate(ctx, surface, index, a)
		if err != nil || target == nil {
			return err
		}
		return r.click(ctx, target)
	case TypeType:
		target, err := r.locate(ctx, surface, index, a)
		if err != nil || target == nil {
			return err
		}
		return r.typeValue(ctx, target, a.Value)
	case TypeSelect:
		target, err := r.locate(ctx, surface, index, a)
		if err != nil || target == nil {
			return err
		}
		if err := target.SetValue(ctx, a.Value); err != nil {
			return err
		}
		return target.DispatchChange(ctx)
	case TypeWait:
		duration := a.Duration
		if duration <= 0 {
			duration = DefaultWaitDuration
		}
		return sleep(ctx, duration)
	case TypeScroll:
		return r.scroll(ctx, surface, index, a)
	case TypeHover:
		target, err := r.locate(ctx, surface, index, a)
		if err != nil || target == nil {
			return err
		}
		return target.Hover(ctx)
	}
	return nil
}

// locate resolves the action target. A nil element with a nil error means
// the target is absent and the action should be skipped.
func (r *Runner) locate(ctx context.Context, surface browser.Surface, index int, a Action) (browser.Element, error) {
	target, err := surface.Locate(ctx, a.Selector)
	if err != nil {
		return nil, err
	}
	if target == nil {
		r.logger.Warn("action target not found, skipping",
			"index", index,
			"action", string(a.Type),
			"selector", a.Selector,
		)
		return nil, nil
	}
	return target, nil
}

func (r *Runner) click(ctx context.Context, target browser.Element) error {
	if err := target.ScrollIntoView(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, r.timing.ScrollSettleBeforeClick); err != nil {
		return err
	}

	if err := target.SetHighlight(ctx, true); err != nil {
		return err
	}
	if err := sleep(ctx, r.timing.Highlight); err != nil {
		return err
	}
	if err := target.Click(ctx); err != nil {
		return err
	}
	if err := sleep(ctx, r.timing.Highlight); err != nil {
		return err
	}
	return target.SetHighlight(ctx, false)
}

func (r *Runner) typeValue(ctx context.Context, target browser.Element, value string) error {
	if err := target.Focus(ctx); err != nil {
		return err
	}
	if err := target.ClearValue(ctx); err != nil {
		return err
	}

	for _, c := range value {
		if err := target.TypeChar(ctx, c); err != nil {
			return err
		}
		if err := sleep(ctx, r.timing.Keystroke); err != nil {
			return err
		}
	}

	return target.DispatchChange(ctx)
}

func (r *Runner) scroll(ctx context.Context, surface browser.Surface, index int, a Action) error {
	if a.Selector != "" {
		target, err := r.locate(ctx, surface, index, a)
		if err != nil {
			return err
		}
		if target != nil {
			if err := target.ScrollTo(ctx, a.X, a.Y); err != nil {
				return err
			}
		}
	} else {
		if err := surface.ScrollTo(ctx, a.X, a.Y); err != nil {
			return err
		}
	}

	// The settle runs whether an element or the whole document scrolled.
	return sleep(ctx, r.timing.ScrollSettle)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
