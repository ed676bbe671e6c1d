package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/beatclash/internal/beatmapgen"
	"github.com/okian/beatclash/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cfg := beatmapgen.DefaultConfig()
	var (
		output  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "beatmap-gen",
		Short: "Generate a random playable beatmap",
		Long: `beatmap-gen writes a random but valid beatmap as an indented JSON array
of event records. Attacks alternate between players, some are sustained over
several steps, and segment markers are placed on regular downbeats.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			if verbose {
				_ = logger.SetLevelString("debug")
			}
			if !cmd.Flags().Changed("seed") {
				cfg.Seed = time.Now().UnixNano()
			}

			path, n, err := beatmapgen.WriteFile(cmd.Context(), cfg, output)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events to %s\n", n, path)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "Output file (default: beatmap-<uuid>.json)")
	f.StringVar(&cfg.Track.Name, "name", cfg.Track.Name, "Track name, logged only")
	f.Float64Var(&cfg.Track.BPM, "bpm", cfg.Track.BPM, "Tempo in beats per minute")
	f.IntVar(&cfg.Track.BeatsPerBar, "beats-per-bar", cfg.Track.BeatsPerBar, "Beats in one bar")
	f.IntVar(&cfg.Track.StepsPerBeat, "steps-per-beat", cfg.Track.StepsPerBeat, "Steps in one beat")
	f.IntVarP(&cfg.Bars, "bars", "b", cfg.Bars, "Number of bars to fill")
	f.IntVar(&cfg.Players, "players", cfg.Players, "Number of players owning attacks")
	f.Float64VarP(&cfg.Density, "density", "d", cfg.Density, "Chance of an attack on each step")
	f.Float64Var(&cfg.SustainedChance, "sustained-chance", cfg.SustainedChance, "Chance that an attack is sustained")
	f.IntVar(&cfg.MaxDuration, "max-duration", cfg.MaxDuration, "Longest sustained attack in steps")
	f.IntVar(&cfg.SegmentEvery, "segment-every", cfg.SegmentEvery, "Bars between segment markers, 0 disables")
	f.Float64Var(&cfg.MaxOffsetFraction, "max-offset", cfg.MaxOffsetFraction, "Largest sub-step offset as a fraction of a step")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (default: current time)")
	f.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
