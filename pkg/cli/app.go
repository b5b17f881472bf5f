package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mchmarny/celleval/pkg/auth"
	"github.com/mchmarny/celleval/pkg/config"
	"github.com/mchmarny/celleval/pkg/data"
	"github.com/mchmarny/celleval/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "celleval"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	envPrefix = "CELLEVAL_"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Debug     bool
	Format    string
	FormatSet bool
	HomeDir   string
}

func getConfig(cmd *cli.Command) *appConfig {
	if c, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok {
		return c
	}
	return &appConfig{Format: formatJSON, HomeDir: "."}
}

// tokenStore keeps the source token next to the default run database.
func (c *appConfig) tokenStore() *auth.Store {
	return &auth.Store{Dir: c.HomeDir}
}

func (c *appConfig) defaultDBPath() string {
	return filepath.Join(c.HomeDir, data.DataFileName)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Scores generated crystal structures against ground truth by unit-cell parameters",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: envVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "Log level [debug, info, warn, error]",
				Value:   "info",
				Sources: envVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*cli.Command{
			newEvalCmd(),
			newScoreCmd(),
			newVolumeCmd(),
			newInspectCmd(),
			newFetchCmd(),
			newHistoryCmd(),
			newAuthCmd(),
			newConfigCmd(),
		},
		Metadata: map[string]any{},
		Before:   before,
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	debug := cmd.Bool(flagDebug)
	level := cmd.String(flagLogLevel)
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)

	format := formatJSON
	switch f := cmd.String(flagFormat); f {
	case formatJSON:
	case formatYAML, "yml":
		format = formatYAML
	default:
		return ctx, fmt.Errorf("unsupported format: %s", f)
	}

	cmd.Metadata[appConfigKey] = &appConfig{
		Debug:     debug,
		Format:    format,
		FormatSet: cmd.IsSet(flagFormat),
		HomeDir:   getHomeDir(),
	}
	return ctx, nil
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// output writes v in the selected format to the app writer.
func output(cmd *cli.Command, v any) error {
	return encode(cmd.Root().Writer, getConfig(cmd).Format, v)
}
