package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/mchmarny/celleval/pkg/auth"
	"github.com/mchmarny/celleval/pkg/config"
	"github.com/mchmarny/celleval/pkg/data"
	"github.com/mchmarny/celleval/pkg/dataset"
	"github.com/mchmarny/celleval/pkg/eval"
	"github.com/mchmarny/celleval/pkg/score"
	"github.com/mchmarny/celleval/pkg/table"
	"github.com/urfave/cli/v3"
)

func newEvalCmd() *cli.Command {
	return &cli.Command{
		Name:    "eval",
		Aliases: []string{"e"},
		Usage:   "Extract cell parameters of both collections, write the result table and score it",
		UsageText: `celleval eval --true true.pkl.gz --generated gen.pkl.gz --attempts 3
   celleval eval --config celleval.yaml --db runs.db --label baseline
   celleval eval --true s3://bucket/true.pkl.gz --generated https://host/gen.json.zst`,
		Flags: append(runFlags(),
			allowUndefinedFlag(),
			&cli.BoolFlag{
				Name:    flagQuiet,
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
			tokenFlag(),
		),
		Action: cmdEval,
	}
}

// runConfig merges the config file with the flags; set flags and their
// environment variables win.
func runConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if p := cmd.String(flagConfig); p != "" {
		var err error
		if cfg, err = config.Load(p); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*string{
		flagTrue:        &cfg.True,
		flagGenerated:   &cfg.Generated,
		flagOut:         &cfg.Output,
		flagArrow:       &cfg.Arrow,
		flagMetricsFile: &cfg.MetricsFile,
		flagDB:          &cfg.DB,
		flagLabel:       &cfg.Label,
	} {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	if cmd.IsSet(flagAttempts) {
		cfg.Attempts = int(cmd.Int(flagAttempts))
	}

	cfg.S3 = mergeS3(cfg.S3, dataset.S3ConfigFromEnv())
	return cfg, cfg.Validate()
}

func mergeS3(file, env dataset.S3Config) dataset.S3Config {
	if env.Region != "" {
		file.Region = env.Region
	}
	if env.Endpoint != "" {
		file.Endpoint = env.Endpoint
	}
	if env.PathStyle {
		file.PathStyle = true
	}
	return file
}

func cmdEval(ctx context.Context, cmd *cli.Command) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	app := getConfig(cmd)

	token, err := auth.Resolve(cmd.String(flagToken), app.tokenStore())
	if err != nil {
		return fmt.Errorf("resolving token: %w", err)
	}

	log := slog.Default().WithGroup("eval")
	log.Info("loading collections", "true", cfg.True, "generated", cfg.Generated)

	trueCol, genCol, err := dataset.LoadPair(ctx, cfg.True, cfg.Generated, dataset.Options{
		Token: token,
		S3:    cfg.S3,
	})
	if err != nil {
		return fmt.Errorf("loading collections: %w", err)
	}

	trueSet, err := trueCol.Flat()
	if err != nil {
		return fmt.Errorf("true collection %s: %w", cfg.True, err)
	}

	var progress io.Writer
	if !cmd.Bool(flagQuiet) {
		progress = os.Stderr
	}

	t, err := eval.Run(ctx, trueSet, genCol, eval.Options{
		Attempts: cfg.Attempts,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("evaluating: %w", err)
	}
	logUndefined(log, t.Undefined())

	f, err := t.Frame()
	if err != nil {
		return fmt.Errorf("building result table: %w", err)
	}

	if err := table.SaveCSV(cfg.Output, f); err != nil {
		return err
	}
	log.Info("result table saved", "path", cfg.Output, "rows", f.Len(), "columns", len(f.Header()))

	if cfg.Arrow != "" {
		if err := table.SaveArrow(cfg.Arrow, f); err != nil {
			return err
		}
		log.Info("arrow table saved", "path", cfg.Arrow)
	}

	rep := score.Evaluate(f, cfg.Attempts)
	if err := report(cmd, rep); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := rep.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		log.Info("metrics textfile saved", "path", cfg.MetricsFile)
	}

	if cfg.DB != "" {
		id, err := saveRun(cfg, rep)
		if err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		log.Info("run saved", "id", id, "db", cfg.DB)
	}

	return checkUndefined(cmd, rep)
}

func logUndefined(log *slog.Logger, counts map[string]int) {
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	slices.Sort(reasons)
	for _, r := range reasons {
		log.Info("undefined values", "reason", r, "count", counts[r])
	}
}

// report prints the plain report, or the encoded metrics when --format was given.
func report(cmd *cli.Command, rep *score.Report) error {
	if getConfig(cmd).FormatSet {
		return output(cmd, reportMetrics(rep))
	}
	return rep.Write(cmd.Root().Writer)
}

func checkUndefined(cmd *cli.Command, rep *score.Report) error {
	err := rep.Err()
	if err == nil {
		return nil
	}
	if cmd.Bool(flagAllowUndefined) {
		slog.Warn("some metrics are undefined", "error", err)
		return nil
	}
	return fmt.Errorf("undefined metrics (use --%s to ignore): %w", flagAllowUndefined, err)
}

func reportMetrics(rep *score.Report) []*data.Metric {
	list := make([]*data.Metric, 0, len(rep.Results))
	for _, res := range rep.Results {
		m := &data.Metric{
			Attempt:   res.Attempt,
			Reference: res.Reference,
			Candidate: res.Candidate,
			N:         res.N,
		}
		if res.Err != nil {
			m.Error = res.Err.Error()
		} else {
			r2, mae := res.R2, res.MAE
			m.R2, m.MAE = &r2, &mae
		}
		list = append(list, m)
	}
	return list
}

func saveRun(cfg *config.Config, rep *score.Report) (int64, error) {
	if err := data.Init(cfg.DB); err != nil {
		return 0, err
	}
	db, err := data.GetDB(cfg.DB)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return data.SaveRun(db, &data.Run{
		Label:         cfg.Label,
		TruePath:      cfg.True,
		GeneratedPath: cfg.Generated,
		Attempts:      rep.Attempts,
		Rows:          rep.Rows,
		Metrics:       reportMetrics(rep),
	})
}
