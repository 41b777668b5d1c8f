package storage

import (
	"context"
	"time"

	"seismic-stations/internal/station"
)

// Store persists a station collection as a single document.
// It's implemented by both LocalStorage and S3Storage.
type Store interface {
	// Load returns the persisted collection, or an empty one if nothing has
	// been saved yet.
	Load(ctx context.Context) ([]station.Station, error)

	// Save replaces the persisted collection with stations.
	Save(ctx context.Context, stations []station.Station) error
}

// CSVStore publishes the CSV export next to the collection.
type CSVStore interface {
	Store

	// SaveCSV overwrites the CSV export with csv, byte for byte.
	SaveCSV(ctx context.Context, csv string) error

	// GeneratePresignedCSVURL returns a credential-free GET link for the CSV
	// export, valid for PresignExpiry.
	GeneratePresignedCSVURL(ctx context.Context) (*PresignedURL, error)
}

// PresignedURL is a time-boxed link to a single object.
type PresignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}
