package action

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Type is the closed set of scripted interactions. Decoding rejects anything
// outside this set, so downstream dispatch never sees an unknown type.
type Type string

const (
	TypeClick  Type = "click"
	TypeType   Type = "type"
	TypeSelect Type = "select"
	TypeWait   Type = "wait"
	TypeScroll Type = "scroll"
	TypeHover  Type = "hover"
)

func (t Type) Valid() bool {
	switch t {
	case TypeClick, TypeType, TypeSelect, TypeWait, TypeScroll, TypeHover:
		return true
	}
	return false
}

const (
	DefaultDelay        = 500 * time.Millisecond
	DefaultWaitDuration = 1000 * time.Millisecond
)

// Action is one scripted DOM interaction. Selector targets the element
// (XPath when it starts with "/", CSS otherwise); Delay is awaited after the
// action completes, before the next one runs.
type Action struct {
	Type     Type
	Selector string
	// Value is the string typed character-by-character (type) or the option
	// value to set (select).
	Value string
	// Duration is the pause length of a wait action.
	Duration time.Duration
	X        int
	Y        int
	Delay    time.Duration
}

// Sequence is one named scenario: an ordered list of actions executed before
// a single capture.
type Sequence struct {
	Name    string
	Actions []Action
}

type wireAction struct {
	Type     string `json:"type"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Duration *int   `json:"duration,omitempty"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
	Delay    *int   `json:"delay,omitempty"`
}

type wireSequence struct {
	Name    string            `json:"name"`
	Actions []json.RawMessage `json:"actions"`
}

// Decode parses a JSON array of action records. Malformed entries and unknown
// action types are logged and dropped rather than failing the whole script.
func Decode(data []byte, logger *slog.Logger) ([]Action, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeEntries(raw, logger), nil
}

// DecodeSequences parses a JSON array of named action sequences.
func DecodeSequences(data []byte, logger *slog.Logger) ([]Sequence, error) {
	var raw []wireSequence
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	sequences := make([]Sequence, 0, len(raw))
	for _, s := range raw {
		sequences = append(sequences, Sequence{
			Name:    s.Name,
			Actions: decodeEntries(s.Actions, logger),
		})
	}
	return sequences, nil
}

func decodeEntries(raw []json.RawMessage, logger *slog.Logger) []Action {
	if logger == nil {
		logger = slog.Default()
	}

	actions := make([]Action, 0, len(raw))
	for i, entry := range raw {
		var w wireAction
		if err := json.Unmarshal(entry, &w); err != nil {
			logger.Warn("skipping malformed action", "index", i, "error", err)
			continue
		}

		t := Type(w.Type)
		if !t.Valid() {
			logger.Warn("skipping action with unknown type", "index", i, "type", w.Type)
			continue
		}

		a := Action{
			Type:     t,
			Selector: w.Selector,
			Value:    w.Value,
		}
		if w.Duration != nil {
			a.Duration = time.Duration(*w.Duration) * time.Millisecond
		}
		if w.Delay != nil {
			a.Delay = time.Duration(*w.Delay) * time.Millisecond
		}
		if w.X != nil {
			a.X = *w.X
		}
		if w.Y != nil {
			a.Y = *w.Y
		}

		actions = append(actions, a)
	}
	return actions
}
