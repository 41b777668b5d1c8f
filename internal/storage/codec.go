package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"seismic-stations/internal/station"
)

// encodeStations serializes a collection. A nil slice is written as [].
func encodeStations(stations []station.Station) ([]byte, error) {
	if stations == nil {
		stations = []station.Station{}
	}
	data, err := json.Marshal(stations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stations: %w", err)
	}
	return data, nil
}

// decodeStations parses a collection. Invalid UTF-8 is replaced rather than
// rejected; anything that is not a JSON array of stations is ErrDecode.
func decodeStations(data []byte) ([]station.Station, error) {
	text := strings.ToValidUTF8(string(data), "\uFFFD")

	var stations []station.Station
	if err := json.Unmarshal([]byte(text), &stations); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if stations == nil {
		return nil, fmt.Errorf("%w: document is null", ErrDecode)
	}
	return stations, nil
}
