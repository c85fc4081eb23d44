package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/journal"
	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect a step journal",
		Long: `Read a SQLite step journal written by "gansim run --journal" or simd.

Without --session the journaled session IDs are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			sessionID, _ := cmd.Flags().GetString("session")
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if dbPath == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				dbPath = cfg.Journal.Path
			}
			if dbPath == "" {
				return fmt.Errorf("--db is required when the config has no journal path")
			}

			j, err := journal.Open(dbPath)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if sessionID == "" {
				ids, err := j.Sessions(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{"sessions": ids})
				}
				if len(ids) == 0 {
					fmt.Fprintln(out, "No journaled sessions.")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			entries, err := j.Entries(ctx, sessionID, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"session_id": sessionID,
					"entries":    entries,
				})
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "No entries for session %s.\n", sessionID)
				return nil
			}
			for _, e := range entries {
				switch e.Kind {
				case journal.KindReset:
					fmt.Fprintf(out, "%s  reset     G: %.2f, D: %.2f\n",
						e.CreatedAt.Format(time.RFC3339), e.GeneratorSkill, e.DiscriminatorSkill)
				default:
					fmt.Fprintf(out, "%s  step %-4d %s  progress %d%%\n",
						e.CreatedAt.Format(time.RFC3339), e.Step, e.LogLine, e.Progress)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite journal file (defaults to journal.path from config)")
	cmd.Flags().String("session", "", "Session ID to show")
	cmd.Flags().Int("limit", 20, "Maximum entries, newest first")
	return cmd
}
