package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/cli/output"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/service"
	"github.com/johnmalek312/android-ui-collector/internal/storage"
	"github.com/johnmalek312/android-ui-collector/internal/storage/outbox"
	"github.com/johnmalek312/android-ui-collector/internal/upload"
)

// UploadCommand returns the upload subcommand group.
func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Manage uploads to the sink",
		Subcommands: []*cli.Command{
			{
				Name:   "retry",
				Usage:  "Re-upload every pending commit, oldest first",
				Action: uploadRetry,
			},
			{
				Name:  "list",
				Usage: "List journaled commits",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status: pending, uploaded, rejected, all",
						Value: string(outbox.StatusPending),
					},
				},
				Action: uploadList,
			},
			{
				Name:   "health",
				Usage:  "Check that the sink is reachable",
				Action: uploadHealth,
			},
		},
	}
}

// openEngine opens the storage engine described by the configuration.
func openEngine(c *cli.Context) (*storage.Engine, error) {
	cfg := configFrom(c)
	return storage.New(cfg.Storage.Engine(loggerFrom(c).With("component", "storage")))
}

// newUploader returns the upload client, or ErrUploadDisabled when
// uploads are switched off.
func newUploader(c *cli.Context) (*upload.Client, error) {
	cfg := configFrom(c)
	if !cfg.Upload.Enabled {
		return nil, domain.ErrUploadDisabled
	}
	return upload.New(cfg.Upload.Client(), loggerFrom(c).With("component", "upload"))
}

// commitConfig assembles the commit service configuration. Journal is
// left nil when the engine runs without an outbox.
func commitConfig(c *cli.Context, engine *storage.Engine, uploader *upload.Client) service.CommitConfig {
	cfg := configFrom(c)
	cc := service.CommitConfig{
		QueueSize:  cfg.Session.QueueSize,
		CubeName:   cfg.Storage.CubeName,
		CenterName: cfg.Storage.CenterName,
		Logger:     loggerFrom(c).With("component", "commit"),
	}
	if uploader != nil {
		cc.Uploader = uploader
	}
	if ob := engine.Outbox(); ob != nil {
		cc.Journal = ob
	}
	return cc
}

func uploadRetry(c *cli.Context) error {
	uploader, err := newUploader(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	svc := service.NewCommitService(engine, commitConfig(c, engine, uploader))

	spinner := output.NewSpinner(c.App.ErrWriter, "uploading pending commits")
	spinner.Start()
	summary, err := svc.RetryPending(c.Context)
	if err != nil {
		spinner.Fail(err.Error())
		if summary != nil {
			_ = render(c, summary)
		}
		return err
	}
	spinner.Success(fmt.Sprintf("%d of %d uploaded", summary.Uploaded, summary.Attempted))
	return render(c, summary)
}

// recordRow is one row of "upload list".
type recordRow struct {
	ID         string    `json:"id"`
	Screenshot string    `json:"screenshot"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Updated    time.Time `json:"updated"`
	LastError  string    `json:"last_error" table:"wide"`
	DraftID    string    `json:"draft_id" table:"wide"`
}

func uploadList(c *cli.Context) error {
	status := outbox.Status(c.String("status"))
	switch status {
	case "all":
		status = ""
	case outbox.StatusPending, outbox.StatusUploaded, outbox.StatusRejected:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ob := engine.Outbox()
	if ob == nil {
		return domain.ErrInvalidArgument.WithDetails("outbox is disabled")
	}
	records, err := ob.List(c.Context, status)
	if err != nil {
		return err
	}

	if format, _ := output.ParseFormat(c.String("output")); format != output.FormatTable {
		return render(c, records)
	}
	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow{
			ID:         rec.ID,
			Screenshot: rec.Screenshot,
			Status:     string(rec.Status),
			Attempts:   rec.Attempts,
			Updated:    time.UnixMilli(rec.UpdatedAt),
			LastError:  rec.LastError,
			DraftID:    rec.DraftID,
		})
	}
	return render(c, rows)
}

func uploadHealth(c *cli.Context) error {
	uploader, err := newUploader(c)
	if err != nil {
		return err
	}
	timeout := configFrom(c).Upload.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()

	if err := uploader.Health(ctx); err != nil {
		return fmt.Errorf("sink %s unhealthy: %w", uploader.URL(), err)
	}
	fmt.Fprintf(c.App.Writer, "sink %s is healthy\n", uploader.URL())
	return nil
}
