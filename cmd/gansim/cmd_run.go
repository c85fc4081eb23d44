package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/choreography"
	"github.com/GoSim-25-26J-441/gansim/internal/journal"
	"github.com/GoSim-25-26J-441/gansim/internal/metrics"
	"github.com/GoSim-25-26J-441/gansim/internal/sim"
	"github.com/GoSim-25-26J-441/gansim/internal/walkthrough"
	"github.com/GoSim-25-26J-441/gansim/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// lossStats summarizes one loss series over the chart window.
type lossStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func newLossStats(values []float64) lossStats {
	lo, hi := utils.MinMax(values)
	return lossStats{
		Mean:   utils.Round(utils.Mean(values), 4),
		StdDev: utils.Round(utils.StdDev(values), 4),
		Min:    utils.Round(lo, 4),
		Max:    utils.Round(hi, 4),
	}
}

type runReport struct {
	SessionID               string           `json:"session_id,omitempty"`
	State                   sim.State        `json:"state"`
	GeneratorPercent        string           `json:"generator_percent"`
	DiscriminatorPercent    string           `json:"discriminator_percent"`
	Summary                 *metrics.Summary `json:"summary"`
	WindowGeneratorLoss     lossStats        `json:"window_generator_loss"`
	WindowDiscriminatorLoss lossStats        `json:"window_discriminator_loss"`
}

func newRunReport(sessionID string, st sim.State, summary *metrics.Summary) runReport {
	return runReport{
		SessionID:               sessionID,
		State:                   st,
		GeneratorPercent:        walkthrough.SkillPercent(st.GeneratorSkill),
		DiscriminatorPercent:    walkthrough.SkillPercent(st.DiscriminatorSkill),
		Summary:                 summary,
		WindowGeneratorLoss:     newLossStats(st.LossHistory.GeneratorLoss),
		WindowDiscriminatorLoss: newLossStats(st.LossHistory.DiscriminatorLoss),
	}
}

func printReport(w io.Writer, r runReport) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generator: %s  Discriminator: %s  Progress: %d%%\n",
		r.GeneratorPercent, r.DiscriminatorPercent, r.State.Progress)
	fmt.Fprintf(w, "Steps: %d (real %d, fake %d)\n",
		r.Summary.Steps, r.Summary.RealVerdicts, r.Summary.FakeVerdicts)
	fmt.Fprintf(w, "Generator loss (last %d):     mean %.4f  sd %.4f  min %.4f  max %.4f\n",
		r.State.LossHistory.Len(), r.WindowGeneratorLoss.Mean, r.WindowGeneratorLoss.StdDev,
		r.WindowGeneratorLoss.Min, r.WindowGeneratorLoss.Max)
	fmt.Fprintf(w, "Discriminator loss (last %d): mean %.4f  sd %.4f  min %.4f  max %.4f\n",
		r.State.LossHistory.Len(), r.WindowDiscriminatorLoss.Mean, r.WindowDiscriminatorLoss.StdDev,
		r.WindowDiscriminatorLoss.Min, r.WindowDiscriminatorLoss.Max)
	if r.SessionID != "" {
		fmt.Fprintf(w, "Journal session: %s\n", r.SessionID)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run training steps locally",
		Long: `Run N training steps and print each log line, newest last.

Examples:
  gansim run -n 20 --seed 7
  gansim run -n 3 --samples 0.5,0.9       # fixed samples, cycled
  gansim run -n 2 --animate --speed 4     # play the step animation at 4x
  gansim run -n 50 --journal steps.db     # journal every step to SQLite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			seed, _ := cmd.Flags().GetInt64("seed")
			samplesText, _ := cmd.Flags().GetString("samples")
			animate, _ := cmd.Flags().GetBool("animate")
			speed, _ := cmd.Flags().GetFloat64("speed")
			dbPath, _ := cmd.Flags().GetString("journal")
			sessionID, _ := cmd.Flags().GetString("session")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if steps < 0 {
				return fmt.Errorf("--steps must be >= 0, got %d", steps)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			samples, err := utils.ParseSamples(samplesText)
			if err != nil {
				return fmt.Errorf("invalid --samples: %w", err)
			}
			if seed == 0 {
				seed = cfg.Simulator.Seed
			}
			delay, err := cfg.Server.GetEffectDelay()
			if err != nil {
				return fmt.Errorf("invalid effect_delay: %w", err)
			}

			var sampler sim.Sampler = utils.NewRandSource(seed)
			if len(samples) > 0 {
				sampler = utils.NewSequenceSource(samples...)
			}
			simulator := sim.NewWithParams(sampler, cfg.SimParams())

			var j *journal.Journal
			if dbPath != "" {
				j, err = journal.Open(dbPath)
				if err != nil {
					return err
				}
				defer j.Close()
				if sessionID == "" {
					sessionID = "cli-" + uuid.New().String()
				}
			} else {
				sessionID = ""
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			collector := metrics.NewCollector()
			for i := 0; i < steps; i++ {
				o := simulator.Advance()
				metrics.RecordStep(collector, o, time.Now().UTC())
				if j != nil {
					if err := j.Record(ctx, sessionID, o); err != nil {
						return err
					}
				}
				switch {
				case jsonOut:
				case animate:
					fmt.Fprintf(out, "step %d\n", o.State.Steps)
					err := choreography.Play(ctx, choreography.ForStep(o, delay), speed, func(e choreography.Effect) {
						fmt.Fprintf(out, "  %8s  %-13s %-11s %s\n", e.At, e.Target, e.Action, e.Detail)
					})
					if err != nil {
						return err
					}
				default:
					fmt.Fprintln(out, o.LogLine)
				}
			}

			report := newRunReport(sessionID, simulator.State(), metrics.Summarize(collector))
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().IntP("steps", "n", 20, "Number of steps to run")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = config seed, or the clock)")
	cmd.Flags().String("samples", "", "Comma-separated fixed samples in [0,1), cycled")
	cmd.Flags().Bool("animate", false, "Play the per-step animation timeline")
	cmd.Flags().Float64("speed", 1, "Animation speed multiplier (<= 0 plays instantly)")
	cmd.Flags().String("journal", "", "SQLite file to journal steps into")
	cmd.Flags().String("session", "", "Journal session ID (generated when empty)")
	return cmd
}
