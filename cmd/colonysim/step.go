package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/economy"
	"github.com/talgya/mini-colony/internal/engine"
)

func newStepCommand() *cobra.Command {
	var (
		ticks   uint64
		showMap bool
	)
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Run the scenario headless for a number of ticks and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, sc, err := buildColony(cfg)
			if err != nil {
				return err
			}
			began := time.Now()
			for tick := uint64(1); tick <= ticks; tick++ {
				if err := sim.Tick(tick); err != nil {
					return fmt.Errorf("tick %d: %w", tick, err)
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s after %s ticks (%s) in %s\n\n",
				sc.Name, humanize.Comma(int64(ticks)), engine.SimTime(ticks), time.Since(began).Round(time.Millisecond))
			printSummary(out, sim)
			if showMap {
				fmt.Fprintln(out)
				for _, row := range sim.RenderMap() {
					fmt.Fprintln(out, row)
				}
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&ticks, "ticks", engine.TicksPerMinute, "Ticks to simulate")
	cmd.Flags().BoolVar(&showMap, "map", false, "Print the map at the end")
	return cmd
}

func printSummary(out io.Writer, sim *engine.Simulation) {
	st := sim.Status()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "characters\t%d\n", st.Characters)
	fmt.Fprintf(tw, "stations\t%d\n", st.Stations)
	fmt.Fprintf(tw, "loose piles\t%d\n", st.Piles)
	fmt.Fprintf(tw, "open hauls\t%d\n", st.OpenHauls)
	fmt.Fprintf(tw, "hauls delivered\t%s\n", humanize.Comma(int64(st.Stats.Delivered)))
	for res := economy.ResourceKind(1); res < economy.NumResources; res++ {
		fmt.Fprintf(tw, "%s produced\t%s\n", res, humanize.Comma(int64(st.Stats.Produced[res])))
	}
	fmt.Fprintf(tw, "goals abandoned\t%d\n", st.Stats.Abandoned)
	fmt.Fprintf(tw, "stack resets\t%d\n", st.Stats.Resets)
	fmt.Fprintf(tw, "suffocations\t%d\n", st.Stats.Suffocated)
	fmt.Fprintf(tw, "avg oxygen\t%.1f\n", st.Stats.AvgOxygen)
	fmt.Fprintf(tw, "avg morale\t%.1f\n", st.Stats.AvgMorale)
	tw.Flush()

	counts := occupationCounts(sim.Agents())
	names := make([]string, 0, len(counts))
	byName := make(map[string]int, len(counts))
	for occ, n := range counts {
		names = append(names, occ.String())
		byName[occ.String()] = n
	}
	sort.Strings(names)
	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%d\n", name, byName[name])
	}
	tw.Flush()
}
