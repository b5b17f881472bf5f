package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/celleval/pkg/config"
	"github.com/urfave/cli/v3"
)

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:            "config",
		Usage:           "Manage the run config file",
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config file with the default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagPath,
						Usage: "Where to write the config file",
						Value: config.FileName,
					},
					&cli.BoolFlag{
						Name:  flagForce,
						Usage: "Overwrite an existing file",
					},
				},
				Action: cmdConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective run config (file, environment and flags merged)",
				Flags:  runFlags(),
				Action: cmdConfigShow,
			},
		},
	}
}

func cmdConfigInit(_ context.Context, cmd *cli.Command) error {
	path := cmd.String(flagPath)
	_, err := os.Stat(path)
	switch {
	case err == nil && !cmd.Bool(flagForce):
		return fmt.Errorf("%s already exists (use --%s to overwrite)", path, flagForce)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	slog.Info("config written", "path", path)
	return nil
}

func cmdConfigShow(_ context.Context, cmd *cli.Command) error {
	cfg, err := runConfig(cmd)
	if cfg == nil {
		return err
	}
	if err != nil {
		slog.Warn("config is not runnable", "error", err)
	}
	return output(cmd, cfg)
}
