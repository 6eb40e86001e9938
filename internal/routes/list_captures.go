package routes

import (
	"capture-engine/internal/storage"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type CapturesResponse struct {
	Keys []string `json:"keys"`
}

func ListCaptures(storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := storageClient.List(r.Context(), "captures/")
		if err != nil {
			slog.Error(fmt.Sprintf("failed to list captures: %s", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		b, err := json.Marshal(CapturesResponse{Keys: keys})
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
