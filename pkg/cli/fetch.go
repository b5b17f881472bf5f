package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/mchmarny/celleval/pkg/auth"
	"github.com/mchmarny/celleval/pkg/net"
	"github.com/urfave/cli/v3"
)

func newFetchCmd() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download an http(s) collection to a local file",
		UsageText: "celleval fetch --in https://host/gen.pkl.gz [--out gen.pkl.gz]",
		Flags: []cli.Flag{
			inFlag("Collection URL"),
			&cli.StringFlag{
				Name:    flagOut,
				Aliases: []string{"o"},
				Usage:   "Local path (default: last element of the URL path)",
			},
			tokenFlag(),
		},
		Action: cmdFetch,
	}
}

func cmdFetch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String(flagIn)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("--%s must be an http(s) URL: %w", flagIn, errNoInput)
	}

	out := cmd.String(flagOut)
	if out == "" {
		out = path.Base(strings.SplitN(url, "?", 2)[0])
	}

	token, err := auth.Resolve(cmd.String(flagToken), getConfig(cmd).tokenStore())
	if err != nil {
		return fmt.Errorf("resolving token: %w", err)
	}

	c, err := net.GetClient(ctx, token)
	if err != nil {
		return err
	}
	if err := net.Download(ctx, c, url, out); err != nil {
		return err
	}

	slog.Info("collection downloaded", "url", url, "path", out)
	return nil
}
