package command

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/cli/output"
	"github.com/johnmalek312/android-ui-collector/internal/config"
	"github.com/johnmalek312/android-ui-collector/internal/infra/buildinfo"
	"github.com/johnmalek312/android-ui-collector/internal/telemetry/logger"
)

// Metadata keys set by Before.
const (
	metaConfig  = "config"
	metaSources = "config_sources"
	metaLogger  = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "uicollector",
		Usage:                "Capture Android screenshots and annotate UI elements",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			AnnotateCommand(),
			DatasetsCommand(),
			UploadCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: before,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"UICOLLECTOR_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the datasets and screenshots",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Upload sink base URL (e.g., http://localhost:8000)",
		},
		&cli.BoolFlag{
			Name:  "no-upload",
			Usage: "Keep commits local only",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Append logs to this file instead of stderr",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// overrides maps the global flags that were set to configuration keys.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	if c.IsSet("data-dir") {
		out["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("endpoint") {
		out["upload.endpoint"] = c.String("endpoint")
	}
	if c.Bool("no-upload") {
		out["upload.enabled"] = false
	}
	if c.IsSet("log-level") {
		out["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		out["log.format"] = c.String("log-format")
	}
	if c.IsSet("log-file") {
		out["log.file"] = c.String("log-file")
	}
	return out
}

// before loads and verifies the configuration and sets up logging.
func before(c *cli.Context) error {
	if _, err := output.ParseFormat(c.String("output")); err != nil {
		return err
	}

	cfg, sources, err := config.LoadWithSources(c.String("config"), overrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.RegisterSecret(cfg.Upload.APIKey)
	logger.RegisterSecret(cfg.Sink.APIKey)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaSources] = sources
	c.App.Metadata[metaLogger] = log
	return nil
}

// configFrom returns the configuration loaded by Before.
func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// loggerFrom returns the logger created by Before.
func loggerFrom(c *cli.Context) *slog.Logger {
	if log, ok := c.App.Metadata[metaLogger].(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// formatterFrom builds the formatter selected by --output and --wide.
func formatterFrom(c *cli.Context) output.Formatter {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		format = output.FormatTable
	}
	return output.NewFormatter(format, c.Bool("wide"))
}

// render writes data to the app writer with the selected formatter.
func render(c *cli.Context, data any) error {
	return formatterFrom(c).Format(c.App.Writer, data)
}
