package schedule_test

import (
	"capture-engine/internal/action"
	"capture-engine/internal/capture"
	"capture-engine/internal/schedule"
	"capture-engine/internal/storage"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConfig(t *testing.T) {
	data := `[
		{"name": "home", "schedule": "*/5 * * * *", "url": "https://example.com"},
		{"name": "checkout", "schedule": "0 3 * * *", "url": "https://example.com/checkout", "preset": "mobile"}
	]`

	entries, err := schedule.ParseConfig([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	expected := []schedule.Entry{
		{Name: "home", Schedule: "*/5 * * * *", URL: "https://example.com"},
		{Name: "checkout", Schedule: "0 3 * * *", URL: "https://example.com/checkout", Preset: "mobile"},
	}
	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Errorf("(-expected, +actual)\n%s", diff)
	}
}

func TestParseConfigInvalidSchedule(t *testing.T) {
	_, err := schedule.ParseConfig([]byte(`[{"name": "home", "schedule": "not-cron", "url": "https://example.com"}]`))
	if err == nil {
		t.Error("expected an error for an invalid cron expression")
	}
}

func TestParseConfigMissingURL(t *testing.T) {
	_, err := schedule.ParseConfig([]byte(`[{"name": "home", "schedule": "* * * * *"}]`))
	if err == nil {
		t.Error("expected an error for a missing url")
	}
}

type fakeCapturer struct {
	lastActions []action.Action
}

func (f *fakeCapturer) TakeScreenshot(ctx context.Context, url string, preset string, actions []action.Action) (*capture.Result, error) {
	f.lastActions = actions
	return &capture.Result{
		Screenshot: []byte("raster"),
		Thumbnail:  []byte("thumb"),
		Preset:     "full-hd",
		Width:      1920,
		Height:     1080,
	}, nil
}

func (f *fakeCapturer) TakeSequentialScreenshots(ctx context.Context, url string, preset string, sequences []action.Sequence) ([]*capture.Result, error) {
	results := make([]*capture.Result, 0, len(sequences))
	for i, sequence := range sequences {
		results = append(results, &capture.Result{
			Screenshot:    []byte("raster"),
			Preset:        "full-hd",
			SequenceName:  sequence.Name,
			SequenceIndex: i,
		})
	}
	return results, nil
}

func TestRunOncePersistsArtifacts(t *testing.T) {
	ctx := context.Background()
	storageClient, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	capturer := &fakeCapturer{}
	scheduler := schedule.NewScheduler(capturer, storageClient, nil, nil)

	entry := schedule.Entry{
		Name:     "home",
		Schedule: "* * * * *",
		URL:      "https://example.com",
		Actions:  []byte(`[{"type": "click", "selector": "#go"}]`),
	}
	if err := scheduler.RunOnce(ctx, entry); err != nil {
		t.Fatal(err)
	}

	expectedActions := []action.Action{
		{Type: action.TypeClick, Selector: "#go"},
	}
	if diff := cmp.Diff(expectedActions, capturer.lastActions); diff != "" {
		t.Errorf("(-expected, +actual)\n%s", diff)
	}

	keys, err := storageClient.List(ctx, "scheduled/home/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected screenshot and thumbnail keys, got %v", keys)
	}
	for _, key := range keys {
		if !strings.HasSuffix(key, "/screenshot.png") && !strings.HasSuffix(key, "/thumbnail.png") {
			t.Errorf("unexpected key %q", key)
		}
	}
}

func TestRunOnceSequences(t *testing.T) {
	ctx := context.Background()
	storageClient, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	scheduler := schedule.NewScheduler(&fakeCapturer{}, storageClient, nil, nil)

	entry := schedule.Entry{
		Name:      "flows",
		Schedule:  "* * * * *",
		URL:       "https://example.com",
		Sequences: []byte(`[{"name": "login", "actions": []}, {"name": "dashboard", "actions": []}]`),
	}
	if err := scheduler.RunOnce(ctx, entry); err != nil {
		t.Fatal(err)
	}

	keys, err := storageClient.List(ctx, "scheduled/flows/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected one screenshot per sequence, got %v", keys)
	}
}
