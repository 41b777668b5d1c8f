package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"seismic-stations/internal/config"
	"seismic-stations/internal/station"
	"seismic-stations/internal/storage"
	"seismic-stations/pkg/logger"
)

const storeKey = "store"

var errNoCSV = errors.New("CSV export needs the s3 backend")

// openStore loads configuration, applies flag overrides and opens the
// selected backend. It runs as each storage command's Before hook so that
// help and usage output never need a reachable backend.
func openStore(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	store, err := config.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]interface{}{storeKey: store}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Read()

	if v := c.String("backend"); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v := c.String("path"); v != "" {
		cfg.LocalPath = v
	}
	if v := c.String("bucket"); v != "" {
		cfg.S3.BucketName = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func storeFrom(c *cli.Context) storage.Store {
	return c.App.Metadata[storeKey].(storage.Store)
}

func csvStoreFrom(c *cli.Context) (storage.CSVStore, error) {
	csvStore, ok := storeFrom(c).(storage.CSVStore)
	if !ok {
		return nil, errNoCSV
	}
	return csvStore, nil
}

func runLoad(c *cli.Context) error {
	stations, err := storeFrom(c).Load(c.Context)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(stations)
}

func runSave(c *cli.Context) error {
	stations, err := readStations(c)
	if err != nil {
		return err
	}
	if err := storeFrom(c).Save(c.Context, stations); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Saved %d stations\n", len(stations))
	return nil
}

func runExportCSV(c *cli.Context) error {
	csvStore, err := csvStoreFrom(c)
	if err != nil {
		return err
	}

	stations, err := csvStore.Load(c.Context)
	if err != nil {
		return err
	}
	csv, err := station.EncodeCSV(stations)
	if err != nil {
		return err
	}
	if err := csvStore.SaveCSV(c.Context, csv); err != nil {
		return err
	}

	logger.Log.Info().Int("stations", len(stations)).Msg("CSV export written")
	return printPresigned(c, csvStore)
}

func runPresign(c *cli.Context) error {
	csvStore, err := csvStoreFrom(c)
	if err != nil {
		return err
	}
	return printPresigned(c, csvStore)
}

func runPublish(c *cli.Context) error {
	csvStore, err := csvStoreFrom(c)
	if err != nil {
		return err
	}

	stations, err := readStations(c)
	if err != nil {
		return err
	}
	csv, err := station.EncodeCSV(stations)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		return csvStore.Save(ctx, stations)
	})
	g.Go(func() error {
		return csvStore.SaveCSV(ctx, csv)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Log.Info().Int("stations", len(stations)).Msg("Collection and CSV export published")
	return printPresigned(c, csvStore)
}

func printPresigned(c *cli.Context, csvStore storage.CSVStore) error {
	presigned, err := csvStore.GeneratePresignedCSVURL(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, presigned.URL)
	fmt.Fprintf(c.App.Writer, "expires %s\n", presigned.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

// readStations reads and validates a JSON station array from --file.
func readStations(c *cli.Context) ([]station.Station, error) {
	var r io.Reader = c.App.Reader
	if name := c.String("file"); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations: %w", err)
	}

	var stations []station.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("failed to parse stations: %w", err)
	}
	for _, s := range stations {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return stations, nil
}
