package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/world"
)

const glyphPath = '+'

func newPathCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Plan a path on the scenario map and draw it",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := world.ParsePos(from)
			if err != nil {
				return err
			}
			goal, err := world.ParsePos(to)
			if err != nil {
				return err
			}
			sim, _, err := buildColony(cfg)
			if err != nil {
				return err
			}
			path, err := sim.FindPath(start, goal)
			if err != nil {
				return fmt.Errorf("%v -> %v: %w", start, goal, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%v -> %v: %d steps %s\n\n", start, goal, path.Len(), path)

			rows := sim.RenderMap()
			grid := make([][]byte, len(rows))
			for y, r := range rows {
				grid[y] = []byte(r)
			}
			pos := start
			for d := range path.All() {
				pos = pos.Add(d)
				grid[pos.Y][pos.X] = glyphPath
			}
			for _, r := range grid {
				fmt.Fprintln(out, string(r))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start tile as x,y")
	cmd.Flags().StringVar(&to, "to", "", "Destination tile as x,y")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
