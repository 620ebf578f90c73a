package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/storage/dataset"
)

// DatasetsCommand returns the datasets subcommand group.
func DatasetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "datasets",
		Usage: "Inspect the local annotation datasets",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the datasets with entry counts",
				Action: datasetsList,
			},
			{
				Name:      "show",
				Usage:     "Show the entries of a dataset",
				ArgsUsage: "<cube|center|NAME>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "last",
						Usage: "Show only the last N entries (0 = all)",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the dataset file as stored",
					},
				},
				Action: datasetsShow,
			},
		},
	}
}

// datasetInfo is one row of "datasets list".
type datasetInfo struct {
	Name     string    `json:"name"`
	Entries  int       `json:"entries"`
	Bytes    int64     `json:"bytes"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path" table:"wide"`
}

// openDatasets opens the dataset files without the outbox, so inspection
// works while an annotate session holds the journal.
func openDatasets(c *cli.Context) (*dataset.Store, error) {
	cfg := configFrom(c)
	return dataset.Open(dataset.Config{
		Dir:        cfg.Storage.DataDir,
		CubeName:   cfg.Storage.CubeName,
		CenterName: cfg.Storage.CenterName,
		Logger:     loggerFrom(c),
	})
}

func datasetsList(c *cli.Context) error {
	store, err := openDatasets(c)
	if err != nil {
		return err
	}

	rows := make([]datasetInfo, 0, 2)
	for _, name := range []string{store.CubeName(), store.CenterName()} {
		entries, err := store.Load(name)
		if err != nil {
			return err
		}
		info := datasetInfo{Name: name, Entries: len(entries), Path: store.Path(name)}
		st, err := os.Stat(info.Path)
		switch {
		case err == nil:
			info.Bytes = st.Size()
			info.Modified = st.ModTime()
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
		rows = append(rows, info)
	}
	return render(c, rows)
}

func datasetsShow(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: datasets show <cube|center|NAME>")
	}
	store, err := openDatasets(c)
	if err != nil {
		return err
	}

	name := c.Args().First()
	switch name {
	case "cube":
		name = store.CubeName()
	case "center":
		name = store.CenterName()
	}
	if name != store.CubeName() && name != store.CenterName() {
		return fmt.Errorf("unknown dataset %q (want %s or %s)", name, store.CubeName(), store.CenterName())
	}

	if c.Bool("raw") {
		data, err := store.Snapshot(name)
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(data)
		if err == nil && (len(data) == 0 || data[len(data)-1] != '\n') {
			_, err = fmt.Fprintln(c.App.Writer)
		}
		return err
	}

	last := c.Int("last")
	if name == store.CubeName() {
		cubes, err := store.Cubes()
		if err != nil {
			return err
		}
		return render(c, tail(cubes, last))
	}
	centers, err := store.Centers()
	if err != nil {
		return err
	}
	return render(c, tail(centers, last))
}

// tail returns the last n elements of s, or all of s when n <= 0.
func tail[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
