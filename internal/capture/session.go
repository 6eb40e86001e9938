package capture

import (
	"context"
	"log/slog"
	"time"
)

// Phase is one step of the capture state machine. A session only ever moves
// forward through phases; no phase is re-entered.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseWaiting
	PhaseActing
	PhaseRendering
	PhaseThumbnailing
	PhaseCleanup
	PhaseResolved
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseWaiting:
		return "waiting"
	case PhaseActing:
		return "acting"
	case PhaseRendering:
		return "rendering"
	case PhaseThumbnailing:
		return "thumbnailing"
	case PhaseCleanup:
		return "cleanup"
	case PhaseResolved:
		return "resolved"
	case PhaseRejected:
		return "rejected"
	}
	return "unknown"
}

// session is the ephemeral state of one TakeScreenshot invocation. It owns
// the lifetime of the one in-flight countdown timer and is discarded when
// the capture resolves or rejects.
type session struct {
	phase      Phase
	cancelWait context.CancelFunc
	logger     *slog.Logger
}

func newSession(logger *slog.Logger) *session {
	return &session{
		phase:  PhaseIdle,
		logger: logger,
	}
}

func (s *session) transition(next Phase) {
	if next <= s.phase {
		s.logger.Error("refusing non-monotonic phase transition",
			"from", s.phase.String(),
			"to", next.String(),
		)
		return
	}
	s.logger.Debug("phase transition", "from", s.phase.String(), "to", next.String())
	s.phase = next
}

// countdown is the bounded settle wait after a successful load: one tick per
// second with a progress line, proceeding at zero regardless of actual page
// readiness. It is a fixed ceiling, not re-armed by activity. The register
// callback exposes the countdown's cancel so the engine can defensively
// clear a pending wait when a new capture starts; it is called again with
// nil once the countdown returns, so nothing keeps pointing at a finished
// timer.
func (s *session) countdown(ctx context.Context, seconds int, register func(context.CancelFunc)) error {
	if seconds <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelWait = cancel
	defer func() {
		cancel()
		s.cancelWait = nil
		if register != nil {
			register(nil)
		}
	}()
	if register != nil {
		register(cancel)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		s.logger.Info("waiting for page to settle", "remaining_seconds", remaining)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
