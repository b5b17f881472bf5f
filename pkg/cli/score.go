package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/celleval/pkg/score"
	"github.com/mchmarny/celleval/pkg/table"
	"github.com/urfave/cli/v3"
)

var errNoInput = errors.New("input required")

func newScoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Aliases:   []string{"s"},
		Usage:     "Score an existing result table CSV",
		UsageText: "celleval score --in results.csv [--attempts 3] [--metrics-file celleval.prom]",
		Flags: []cli.Flag{
			inFlag("Result table CSV"),
			&cli.IntFlag{
				Name:    flagAttempts,
				Aliases: []string{"k"},
				Usage:   "Attempts to score (default: inferred from the CSV header)",
			},
			metricsFileFlag(),
			allowUndefinedFlag(),
		},
		Action: cmdScore,
	}
}

func cmdScore(_ context.Context, cmd *cli.Command) error {
	path := cmd.String(flagIn)
	if path == "" {
		return fmt.Errorf("--%s: %w", flagIn, errNoInput)
	}

	f, err := table.LoadCSV(path)
	if err != nil {
		return err
	}

	attempts := int(cmd.Int(flagAttempts))
	if attempts == 0 {
		if attempts, err = table.AttemptsFromHeader(f.Header()); err != nil {
			return fmt.Errorf("reading attempts from %s: %w", path, err)
		}
	}
	if attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", attempts)
	}
	slog.Debug("scoring table", "path", path, "rows", f.Len(), "attempts", attempts)

	rep := score.Evaluate(f, attempts)
	if err := report(cmd, rep); err != nil {
		return err
	}

	if p := cmd.String(flagMetricsFile); p != "" {
		if err := rep.WriteTextfile(p); err != nil {
			return err
		}
	}

	return checkUndefined(cmd, rep)
}
