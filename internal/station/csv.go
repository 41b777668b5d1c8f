package station

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader defines the column headers of the CSV export.
var CSVHeader = []string{"code", "name", "prefecture", "latitude", "longitude", "intensity"}

// WriteCSV writes stations to w as CSV, one row per station, in order.
func WriteCSV(w io.Writer, stations []Station) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range stations {
		intensity := ""
		if s.Intensity != nil {
			intensity = strconv.FormatFloat(*s.Intensity, 'f', 1, 64)
		}
		row := []string{
			s.Code,
			s.Name,
			s.Prefecture,
			strconv.FormatFloat(s.Latitude, 'f', 6, 64),
			strconv.FormatFloat(s.Longitude, 'f', 6, 64),
			intensity,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write station %s: %w", s.Code, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	return nil
}

// EncodeCSV returns the CSV export of stations as text.
func EncodeCSV(stations []Station) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, stations); err != nil {
		return "", err
	}
	return buf.String(), nil
}
