package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/celleval/pkg/cell"
	"github.com/urfave/cli/v3"
)

var cellParams = []struct {
	name  string
	usage string
}{
	{"a", "Cell length a"},
	{"b", "Cell length b"},
	{"c", "Cell length c"},
	{"alpha", "Cell angle alpha in degrees"},
	{"beta", "Cell angle beta in degrees"},
	{"gamma", "Cell angle gamma in degrees"},
}

func newVolumeCmd() *cli.Command {
	flags := make([]cli.Flag, 0, len(cellParams))
	for _, p := range cellParams {
		flags = append(flags, &cli.Float64Flag{Name: p.name, Usage: p.usage, Required: true})
	}

	return &cli.Command{
		Name:      "volume",
		Usage:     "Print the unit-cell volume implied by six cell parameters",
		UsageText: "celleval volume --a 5 --b 5 --c 5 --alpha 90 --beta 90 --gamma 90",
		Flags:     flags,
		Action:    cmdVolume,
	}
}

func cmdVolume(_ context.Context, cmd *cli.Command) error {
	var v [6]float64
	for i, p := range cellParams {
		v[i] = cmd.Float64(p.name)
	}

	vol, err := cell.FromSlice(v).Volume()
	if err != nil {
		return fmt.Errorf("volume undefined: %w", err)
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "%.4f\n", vol)
	return err
}
