package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mchmarny/celleval/pkg/data"
	"github.com/urfave/cli/v3"
)

const historyLimitDefault = 20

func newHistoryCmd() *cli.Command {
	return &cli.Command{
		Name:            "history",
		Aliases:         []string{"h"},
		Usage:           "List saved evaluation runs",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			dbFlag(),
			labelFlag(),
			&cli.IntFlag{
				Name:  flagLimit,
				Usage: "Limits number of runs returned",
				Value: historyLimitDefault,
			},
		},
		Action: cmdHistoryList,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show one run with its metrics",
				Flags:  []cli.Flag{dbFlag(), runIDFlag()},
				Action: cmdHistoryShow,
			},
			{
				Name:   "delete",
				Usage:  "Delete one run",
				Flags:  []cli.Flag{dbFlag(), runIDFlag()},
				Action: cmdHistoryDelete,
			},
		},
	}
}

// openHistory opens the --db database, or data.db in the app home dir.
func openHistory(cmd *cli.Command) (*sql.DB, error) {
	dsn := cmd.String(flagDB)
	if dsn == "" {
		dsn = getConfig(cmd).defaultDBPath()
	}

	if err := data.Init(dsn); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	db, err := data.GetDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runID(cmd *cli.Command) (int64, error) {
	id := int64(cmd.Int(flagID))
	if id < 1 {
		return 0, fmt.Errorf("--%s required", flagID)
	}
	return id, nil
}

func cmdHistoryList(_ context.Context, cmd *cli.Command) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var label *string
	if cmd.IsSet(flagLabel) {
		l := cmd.String(flagLabel)
		label = &l
	}

	runs, err := data.ListRuns(db, label, int(cmd.Int(flagLimit)))
	if err != nil {
		return err
	}
	return output(cmd, runs)
}

func cmdHistoryShow(_ context.Context, cmd *cli.Command) error {
	id, err := runID(cmd)
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := data.GetRun(db, id)
	if err != nil {
		return err
	}
	if run.Metrics, err = data.GetRunMetrics(db, id); err != nil {
		return err
	}
	return output(cmd, run)
}

func cmdHistoryDelete(_ context.Context, cmd *cli.Command) error {
	id, err := runID(cmd)
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := data.GetRun(db, id); err != nil {
		return err
	}
	if err := data.DeleteRun(db, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "run %d deleted\n", id)
	return err
}
