package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"seismic-stations/pkg/logger"
)

func main() {
	app := newApp(os.Stdin, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("stationctl failed")
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:   "stationctl",
		Usage:  "Load, save and publish the seismic station collection",
		Reader: in,
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Storage backend: local or s3",
				EnvVars: []string{"STORAGE_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Collection file for the local backend",
				EnvVars: []string{"LOCAL_PATH"},
			},
			&cli.StringFlag{
				Name:    "bucket",
				Usage:   "Bucket for the s3 backend",
				EnvVars: []string{"S3_BUCKET_NAME"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Print the persisted station collection as JSON",
				Before: openStore,
				Action: runLoad,
			},
			{
				Name:  "save",
				Usage: "Replace the persisted collection with a JSON array of stations",
				Flags: []cli.Flag{
					newFileFlag(),
				},
				Before: openStore,
				Action: runSave,
			},
			{
				Name:   "export-csv",
				Usage:  "Write the CSV export of the persisted collection and print a download link (s3 only)",
				Before: openStore,
				Action: runExportCSV,
			},
			{
				Name:   "presign",
				Usage:  "Print a 7-day download link for the CSV export (s3 only)",
				Before: openStore,
				Action: runPresign,
			},
			{
				Name:  "publish",
				Usage: "Save a collection and its CSV export together, then print a download link (s3 only)",
				Flags: []cli.Flag{
					newFileFlag(),
				},
				Before: openStore,
				Action: runPublish,
			},
		},
	}
}

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "JSON file with the station collection (- for stdin)",
		Value:   "-",
	}
}
