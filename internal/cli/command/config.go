package command

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/johnmalek312/android-ui-collector/internal/cli/output"
	"github.com/johnmalek312/android-ui-collector/internal/config"
	"github.com/johnmalek312/android-ui-collector/internal/infra/confloader"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-secrets",
						Usage: "Print API keys unmasked",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "List every key with the layer that set it (default, file, env, flag)",
					},
				},
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg := configFrom(c)
	if !c.Bool("show-secrets") {
		cfg = config.Sanitize(cfg)
	}
	if c.Bool("sources") {
		return configSources(c, cfg)
	}

	// Nested sections do not fit a two-column table.
	if format, _ := output.ParseFormat(c.String("output")); format == output.FormatJSON {
		return (&output.JSONFormatter{}).Format(c.App.Writer, cfg)
	}
	return (&output.YAMLFormatter{Direct: true}).Format(c.App.Writer, cfg)
}

// sourceRow is one row of "config show --sources".
type sourceRow struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func configSources(c *cli.Context, cfg *config.Config) error {
	values, err := confloader.Flatten(cfg)
	if err != nil {
		return err
	}
	sources, _ := c.App.Metadata[metaSources].(config.Sources)

	rows := make([]sourceRow, 0, len(values))
	for key, v := range values {
		src := sources[key]
		if src == "" {
			src = confloader.SourceDefault
		}
		rows = append(rows, sourceRow{Key: key, Value: fmt.Sprint(v), Source: string(src)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return render(c, rows)
}

func configValidate(c *cli.Context) error {
	cfg := configFrom(c)
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := config.VerifySink(cfg); err != nil {
		return fmt.Errorf("invalid sink configuration:\n%w", err)
	}
	fmt.Fprintln(c.App.Writer, "configuration is valid")
	return nil
}
