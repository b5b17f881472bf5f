package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/celleval/pkg/auth"
	"github.com/mchmarny/celleval/pkg/cif"
	"github.com/mchmarny/celleval/pkg/dataset"
	"github.com/mchmarny/celleval/pkg/eval"
	"github.com/mchmarny/celleval/pkg/table"
	"github.com/urfave/cli/v3"
)

func newInspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the properties extracted from the records of a collection",
		UsageText: "celleval inspect --in gen.pkl.gz --index 3 --format yaml",
		Flags: []cli.Flag{
			inFlag("Collection (path, http(s):// or s3:// URI)"),
			&cli.IntFlag{
				Name:  flagIndex,
				Usage: "Entry to inspect (default: all)",
				Value: -1,
			},
			tokenFlag(),
		},
		Action: cmdInspect,
	}
}

// RecordInfo is what a single record yields on extraction.
type RecordInfo struct {
	Index      int                 `json:"index" yaml:"index"`
	Candidate  int                 `json:"candidate" yaml:"candidate"`
	Formula    string              `json:"formula,omitempty" yaml:"formula,omitempty"`
	SpaceGroup string              `json:"sg,omitempty" yaml:"sg,omitempty"`
	Values     map[string]*float64 `json:"values" yaml:"values"`
	Errors     map[string]string   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func cmdInspect(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.String(flagIn)
	if uri == "" {
		return fmt.Errorf("--%s: %w", flagIn, errNoInput)
	}

	token, err := auth.Resolve(cmd.String(flagToken), getConfig(cmd).tokenStore())
	if err != nil {
		return fmt.Errorf("resolving token: %w", err)
	}

	c, err := dataset.Load(ctx, uri, dataset.Options{Token: token, S3: dataset.S3ConfigFromEnv()})
	if err != nil {
		return err
	}

	entries := c
	first := 0
	if i := int(cmd.Int(flagIndex)); i >= 0 {
		if i >= len(c) {
			return fmt.Errorf("index %d out of range, collection has %d entries", i, len(c))
		}
		entries, first = c[i:i+1], i
	}

	list := make([]*RecordInfo, 0, len(entries))
	for n, e := range entries {
		for k, rec := range e.Records {
			list = append(list, inspectRecord(first+n, k+1, rec))
		}
	}
	return output(cmd, list)
}

func inspectRecord(index, candidate int, rec string) *RecordInfo {
	info := &RecordInfo{
		Index:     index,
		Candidate: candidate,
		Values:    make(map[string]*float64, len(table.AttemptFields)),
		Errors:    make(map[string]string),
	}

	var err error
	if info.Formula, err = cif.Formula(rec); err != nil {
		info.Errors[table.ColFormula] = err.Error()
	}
	if info.SpaceGroup, err = cif.SpaceGroup(rec); err != nil {
		info.Errors[table.ColSpaceGroup] = err.Error()
	}

	for i, m := range eval.ExtractAttempt(rec).Measures() {
		field := table.AttemptFields[i]
		if !m.Valid() {
			info.Values[field] = nil
			info.Errors[field] = m.Reason.Error()
			continue
		}
		v := m.Value
		info.Values[field] = &v
	}
	return info
}
