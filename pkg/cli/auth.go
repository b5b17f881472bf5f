package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the bearer token used for http(s) collection sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagToken,
				Usage: "Bearer token sent to http(s) collection sources",
			},
			&cli.BoolFlag{
				Name:  flagDelete,
				Usage: "Remove the stored token",
			},
		},
		Action: cmdAuth,
	}
}

func cmdAuth(_ context.Context, cmd *cli.Command) error {
	store := getConfig(cmd).tokenStore()

	if cmd.Bool(flagDelete) {
		if err := store.Delete(); err != nil {
			return fmt.Errorf("deleting token: %w", err)
		}
		slog.Info("token deleted")
		return nil
	}

	token := cmd.String(flagToken)
	if token == "" {
		return fmt.Errorf("--%s: %w", flagToken, errNoInput)
	}
	if err := store.Save(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	slog.Info("token saved")
	return nil
}
