package capture

import "encoding/json"

// Result is the record produced once per capture and handed to downstream
// consumers (storage, export, grouping). It is immutable once returned;
// width and height reflect the actual rendered dimensions, which for
// full-page presets differ from the preset's nominal height.
type Result struct {
	Screenshot       []byte
	Thumbnail        []byte
	TimeTakenSeconds float64
	Preset           string
	Width            int
	Height           int
	SequenceName     string
	SequenceIndex    int
}

// MarshalJSON leaves the raw image payloads out and emits the sequence
// fields only for batch results, so a single capture is not mistaken for the
// first entry of a batch.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		TimeTakenSeconds float64 `json:"timeTakenSeconds"`
		Preset           string  `json:"preset"`
		Width            int     `json:"width"`
		Height           int     `json:"height"`
		SequenceName     string  `json:"sequenceName,omitempty"`
		SequenceIndex    *int    `json:"sequenceIndex,omitempty"`
	}{
		TimeTakenSeconds: r.TimeTakenSeconds,
		Preset:           r.Preset,
		Width:            r.Width,
		Height:           r.Height,
		SequenceName:     r.SequenceName,
	}
	if r.SequenceName != "" {
		out.SequenceIndex = &r.SequenceIndex
	}
	return json.Marshal(out)
}
