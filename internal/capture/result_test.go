package capture_test

import (
	"capture-engine/internal/capture"
	"encoding/json"
	"testing"
)

func TestResultMarshalSingleCapture(t *testing.T) {
	result := capture.Result{
		Screenshot:       []byte("raster"),
		Thumbnail:        []byte("thumb"),
		TimeTakenSeconds: 1.5,
		Preset:           "full-hd",
		Width:            1920,
		Height:           1080,
	}

	b, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}

	if _, ok := fields["sequenceIndex"]; ok {
		t.Errorf("single capture serialized a sequence index: %s", b)
	}
	if _, ok := fields["sequenceName"]; ok {
		t.Errorf("single capture serialized a sequence name: %s", b)
	}
	for _, key := range []string{"screenshot", "Screenshot", "thumbnail", "Thumbnail"} {
		if _, ok := fields[key]; ok {
			t.Errorf("raw payload %q leaked into JSON: %s", key, b)
		}
	}
}

func TestResultMarshalBatchCapture(t *testing.T) {
	result := capture.Result{
		Preset:        "mobile",
		Width:         375,
		Height:        812,
		SequenceName:  "login",
		SequenceIndex: 0,
	}

	b, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatal(err)
	}

	if fields["sequenceName"] != "login" {
		t.Errorf("expected sequence name login, got %v", fields["sequenceName"])
	}

	// Index zero is still emitted for the first sequence of a batch.
	index, ok := fields["sequenceIndex"]
	if !ok {
		t.Fatalf("batch capture dropped its sequence index: %s", b)
	}
	if index != float64(0) {
		t.Errorf("expected sequence index 0, got %v", index)
	}
}
