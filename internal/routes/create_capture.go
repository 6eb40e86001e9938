package routes

import (
	"capture-engine/internal/action"
	"capture-engine/internal/capture"
	"capture-engine/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Capturer is the slice of the capture engine the HTTP layer needs.
type Capturer interface {
	TakeScreenshot(ctx context.Context, url string, preset string, actions []action.Action) (*capture.Result, error)
	TakeSequentialScreenshots(ctx context.Context, url string, preset string, sequences []action.Sequence) ([]*capture.Result, error)
}

type CaptureRequest struct {
	URL       string          `json:"url"`
	Preset    string          `json:"preset,omitempty"`
	Actions   json.RawMessage `json:"actions,omitempty"`
	Sequences json.RawMessage `json:"sequences,omitempty"`
}

type CaptureArtifact struct {
	Preset           string  `json:"preset"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TimeTakenSeconds float64 `json:"timeTakenSeconds"`
	SequenceName     string  `json:"sequenceName,omitempty"`
	ScreenshotURL    string  `json:"screenshotURL"`
	ThumbnailURL     string  `json:"thumbnailURL,omitempty"`
}

type CaptureResponse struct {
	Captures []CaptureArtifact `json:"captures"`
}

func CreateCapture(capturer Capturer, storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			slog.Error(fmt.Sprintf("failed to read request body: %s", err))
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		var request CaptureRequest
		if err := json.Unmarshal(body, &request); err != nil {
			slog.Error(fmt.Sprintf("failed to unmarshal request: %s", err))
			http.Error(w, "Invalid JSON format", http.StatusBadRequest)
			return
		}
		if request.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		var results []*capture.Result
		if len(request.Sequences) > 0 {
			sequences, decodeErr := action.DecodeSequences(request.Sequences, slog.Default())
			if decodeErr != nil {
				http.Error(w, "Invalid sequences format", http.StatusBadRequest)
				return
			}
			results, err = capturer.TakeSequentialScreenshots(r.Context(), request.URL, request.Preset, sequences)
		} else {
			var actions []action.Action
			if len(request.Actions) > 0 {
				var decodeErr error
				actions, decodeErr = action.Decode(request.Actions, slog.Default())
				if decodeErr != nil {
					http.Error(w, "Invalid actions format", http.StatusBadRequest)
					return
				}
			}

			var result *capture.Result
			result, err = capturer.TakeScreenshot(r.Context(), request.URL, request.Preset, actions)
			if result != nil {
				results = append(results, result)
			}
		}
		if err != nil {
			slog.Error(fmt.Sprintf("failed to capture %s: %s", request.URL, err))

			var loadError *capture.LoadError
			if errors.As(err, &loadError) {
				http.Error(w, "Failed to load page", http.StatusBadGateway)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		prefix := fmt.Sprintf("captures/%s/%d", shortDigest(request.URL), time.Now().UnixNano())

		response := CaptureResponse{Captures: make([]CaptureArtifact, 0, len(results))}
		for _, result := range results {
			base := prefix
			if result.SequenceName != "" {
				base = fmt.Sprintf("%s/%d", prefix, result.SequenceIndex)
			}

			screenshotURL, err := storageClient.Put(r.Context(), base+"/screenshot.png", result.Screenshot)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to store screenshot: %s", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			var thumbnailURL string
			if len(result.Thumbnail) > 0 {
				thumbnailURL, err = storageClient.Put(r.Context(), base+"/thumbnail.png", result.Thumbnail)
				if err != nil {
					slog.Error(fmt.Sprintf("failed to store thumbnail: %s", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			response.Captures = append(response.Captures, CaptureArtifact{
				Preset:           result.Preset,
				Width:            result.Width,
				Height:           result.Height,
				TimeTakenSeconds: result.TimeTakenSeconds,
				SequenceName:     result.SequenceName,
				ScreenshotURL:    screenshotURL,
				ThumbnailURL:     thumbnailURL,
			})
		}

		b, err := json.Marshal(response)
		if err != nil {
			slog.Error(fmt.Sprintf("failed to marshal json: %s", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func shortDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
