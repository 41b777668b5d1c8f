package web

import (
	"encoding/json"
	"net/http"
	"time"

	"seismic-stations/internal/station"
	"seismic-stations/internal/storage"
	"seismic-stations/pkg/logger"
)

// StationsResponse is the JSON response for the stations API.
type StationsResponse struct {
	Count    int               `json:"count"`
	Stations []station.Station `json:"stations"`
}

// Handler provides HTTP handlers over a station store.
type Handler struct {
	store storage.Store
}

// NewHandler creates a new web handler.
func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers all HTTP routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stations", h.handleStations)
	mux.HandleFunc("/api/stations.csv", h.handleStationsCSV)
	mux.HandleFunc("/healthz", h.handleHealth)
}

// handleStations serves the persisted collection.
func (h *Handler) handleStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stations, err := h.store.Load(r.Context())
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load stations")
		http.Error(w, "Failed to load station data", http.StatusInternalServerError)
		return
	}

	response := StationsResponse{
		Count:    len(stations),
		Stations: stations,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Log.Error().Err(err).Msg("JSON encoding error")
	}
}

// handleStationsCSV redirects to a freshly presigned link for the CSV export.
func (h *Handler) handleStationsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	csvStore, ok := h.store.(storage.CSVStore)
	if !ok {
		http.Error(w, "CSV export not available with current storage backend", http.StatusNotImplemented)
		return
	}

	presigned, err := csvStore.GeneratePresignedCSVURL(r.Context())
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to presign CSV export")
		http.Error(w, "Failed to generate CSV link", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Expires", presigned.ExpiresAt.UTC().Format(http.TimeFormat))
	http.Redirect(w, r, presigned.URL, http.StatusFound)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
