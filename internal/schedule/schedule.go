package schedule

import (
	"capture-engine/internal/action"
	"capture-engine/internal/capture"
	"capture-engine/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Entry is one recurring capture: a cron schedule plus the same capture
// parameters the HTTP API accepts.
type Entry struct {
	Name      string          `json:"name"`
	Schedule  string          `json:"schedule"`
	URL       string          `json:"url"`
	Preset    string          `json:"preset,omitempty"`
	Actions   json.RawMessage `json:"actions,omitempty"`
	Sequences json.RawMessage `json:"sequences,omitempty"`
}

type Capturer interface {
	TakeScreenshot(ctx context.Context, url string, preset string, actions []action.Action) (*capture.Result, error)
	TakeSequentialScreenshots(ctx context.Context, url string, preset string, sequences []action.Sequence) ([]*capture.Result, error)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseConfig decodes a JSON array of schedule entries and validates each
// cron expression up front.
func ParseConfig(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal schedule config: %w", err)
	}

	for i, entry := range entries {
		if entry.URL == "" {
			return nil, xerrors.Errorf("schedule entry %d: url is required", i)
		}
		if _, err := parser.Parse(entry.Schedule); err != nil {
			return nil, xerrors.Errorf("failed to parse schedule %q: %w", entry.Schedule, err)
		}
	}

	return entries, nil
}

type Scheduler struct {
	capturer      Capturer
	storageClient storage.Storage
	entries       []Entry
	logger        *slog.Logger
}

func NewScheduler(capturer Capturer, storageClient storage.Storage, entries []Entry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		capturer:      capturer,
		storageClient: storageClient,
		entries:       entries,
		logger:        logger,
	}
}

// Start runs one loop per entry until the context is cancelled. A failed
// capture is logged and retried at the next scheduled time.
func (s *Scheduler) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, entry := range s.entries {
		eg.Go(func() error {
			return s.runEntry(ctx, entry)
		})
	}
	return eg.Wait()
}

func (s *Scheduler) runEntry(ctx context.Context, entry Entry) error {
	schedule, err := parser.Parse(entry.Schedule)
	if err != nil {
		return xerrors.Errorf("failed to parse schedule %q: %w", entry.Schedule, err)
	}

	for {
		next := schedule.Next(time.Now())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		s.logger.Info("running scheduled capture", "entry", entry.Name, "url", entry.URL)
		if err := s.RunOnce(ctx, entry); err != nil {
			s.logger.Error("scheduled capture failed", "entry", entry.Name, "error", err)
		}
	}
}

// RunOnce captures the entry immediately and persists the artifacts.
func (s *Scheduler) RunOnce(ctx context.Context, entry Entry) error {
	var results []*capture.Result

	if len(entry.Sequences) > 0 {
		sequences, err := action.DecodeSequences(entry.Sequences, s.logger)
		if err != nil {
			return xerrors.Errorf("failed to decode sequences: %w", err)
		}

		results, err = s.capturer.TakeSequentialScreenshots(ctx, entry.URL, entry.Preset, sequences)
		if err != nil {
			return xerrors.Errorf("failed to capture %s: %w", entry.URL, err)
		}
	} else {
		var actions []action.Action
		if len(entry.Actions) > 0 {
			var err error
			actions, err = action.Decode(entry.Actions, s.logger)
			if err != nil {
				return xerrors.Errorf("failed to decode actions: %w", err)
			}
		}

		result, err := s.capturer.TakeScreenshot(ctx, entry.URL, entry.Preset, actions)
		if err != nil {
			return xerrors.Errorf("failed to capture %s: %w", entry.URL, err)
		}
		results = append(results, result)
	}

	return s.persist(ctx, entry, results)
}

func (s *Scheduler) persist(ctx context.Context, entry Entry, results []*capture.Result) error {
	eg, ctx := errgroup.WithContext(ctx)

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(entry.URL))
	urlHash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	for _, result := range results {
		baseKey := fmt.Sprintf("scheduled/%s/%s/%s", entry.Name, urlHash, timestamp)
		if result.SequenceName != "" {
			baseKey = fmt.Sprintf("%s/%d", baseKey, result.SequenceIndex)
		}

		eg.Go(func() error {
			if _, err := s.storageClient.Put(ctx, baseKey+"/screenshot.png", result.Screenshot); err != nil {
				return xerrors.Errorf("failed to upload screenshot: %w", err)
			}
			return nil
		})

		if len(result.Thumbnail) > 0 {
			eg.Go(func() error {
				if _, err := s.storageClient.Put(ctx, baseKey+"/thumbnail.png", result.Thumbnail); err != nil {
					return xerrors.Errorf("failed to upload thumbnail: %w", err)
				}
				return nil
			})
		}
	}

	return eg.Wait()
}
