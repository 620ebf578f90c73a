package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/cli/repl"
	"github.com/johnmalek312/android-ui-collector/internal/config"
	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
	"github.com/johnmalek312/android-ui-collector/internal/core/service"
	"github.com/johnmalek312/android-ui-collector/internal/core/session"
	"github.com/johnmalek312/android-ui-collector/internal/infra/confloader"
	"github.com/johnmalek312/android-ui-collector/internal/infra/shutdown"
	"github.com/johnmalek312/android-ui-collector/internal/server/sinkserver"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/metric"
)

// AnnotateCommand returns the interactive annotation command.
func AnnotateCommand() *cli.Command {
	return &cli.Command{
		Name:  "annotate",
		Usage: "Start an interactive annotation session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Capture source: adb, file",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Image read by the file source",
			},
			&cli.StringFlag{
				Name:  "serial",
				Usage: "ADB device serial",
			},
			&cli.BoolFlag{
				Name:  "save-history",
				Usage: "Keep shell history in ~/.uicollector/history when session.history_file is unset",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9090)",
			},
		},
		Action: annotate,
	}
}

// captureSection applies the annotate flags to the configured capture source.
func captureSection(c *cli.Context, cfg *config.Config) config.CaptureSection {
	section := cfg.Capture
	if c.IsSet("source") {
		section.Source = c.String("source")
	}
	if c.IsSet("file") {
		section.File = c.String("file")
		if !c.IsSet("source") {
			section.Source = config.CaptureFile
		}
	}
	if c.IsSet("serial") {
		section.Serial = c.String("serial")
	}
	return section
}

func annotate(c *cli.Context) error {
	effective := *configFrom(c)
	effective.Capture = captureSection(c, &effective)
	if err := config.Verify(&effective); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	cfg := &effective
	log := loggerFrom(c)

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	handler := shutdown.NewHandler(cfg.Sink.ShutdownTimeout, log)

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	handler.OnShutdown("storage", func(context.Context) error { return engine.Close() })

	registry := metric.NewRegistry()
	if ob := engine.Outbox(); ob != nil {
		if err := registry.Register(metric.NewOutboxCollector(ob)); err != nil {
			log.Warn("outbox metrics not registered", "error", err)
		}
	}

	uploader, err := newUploader(c)
	switch {
	case errors.Is(err, domain.ErrUploadDisabled):
		log.Info("uploads disabled, commits stay local")
	case err != nil:
		_ = handler.Shutdown()
		return err
	}

	cc := commitConfig(c, engine, uploader)
	cc.Metrics = registry
	svc := service.NewCommitService(engine, cc)
	svc.Start(c.Context)
	drained := make(chan struct{})
	handler.OnShutdown("commit pipeline", func(ctx context.Context) error {
		if err := svc.Close(ctx); err != nil {
			return err
		}
		select {
		case <-drained:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	sess := session.New(svc, session.Config{
		Viewport:     cfg.Session.Viewport(),
		HistoryLimit: cfg.Session.HistoryLimit,
		Logger:       log.With("component", "session"),
	})

	var uploads repl.UploadRetrier
	if uploader != nil && engine.Outbox() != nil {
		uploads = svc
	}
	historyFile := cfg.Session.HistoryFile
	if historyFile == "" && c.Bool("save-history") {
		historyFile = repl.DefaultHistoryFile()
	}
	shell := repl.New(repl.Config{
		Session:   sess,
		Source:    cfg.Capture.NewSource(log.With("component", "capture")),
		Uploads:   uploads,
		Input:     c.App.Reader,
		Output:    c.App.Writer,
		History:   repl.NewHistory(historyFile, 0),
		Formatter: formatterFrom(c),
		Logger:    log,
	})

	go func() {
		defer close(drained)
		for res := range svc.Results() {
			sess.HandleResult(res)
			shell.Notify(res)
		}
	}()

	if addr := c.String("metrics-addr"); addr != "" {
		srv := sinkserver.New(addr, registry.Handler(), log.With("component", "metrics"))
		metricsCtx, cancel := context.WithCancel(context.Background())
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := srv.Run(metricsCtx, cfg.Sink.ShutdownTimeout); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
		handler.OnShutdown("metrics server", func(context.Context) error {
			cancel()
			<-served
			return nil
		})
	}

	if path := c.String("config"); path != "" {
		if err := watchConfig(c, path, handler, log); err != nil {
			log.Warn("config reload disabled", "error", err)
		}
	}

	// The shell blocks on input, so a signal must not wait for the next line.
	ran := make(chan error, 1)
	go func() { ran <- shell.Run(ctx) }()

	var runErr error
	select {
	case runErr = <-ran:
	case <-ctx.Done():
		fmt.Fprintln(c.App.Writer)
	}
	stop()

	if err := handler.Shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// watchConfig reloads the log level whenever the configuration file changes.
func watchConfig(c *cli.Context, path string, handler *shutdown.Handler, log *slog.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.With("component", "config")))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return err
	}
	flags := overrides(c)
	w.OnChange(func(string) {
		next, err := config.Load(path, flags)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		log.Info("config reloaded", "log_level", next.Log.Level)
	})
	w.StartAsync()
	handler.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}
