package main

import (
	"encoding/json"
	"fmt"

	"github.com/GoSim-25-26J-441/gansim/internal/walkthrough"
	"github.com/spf13/cobra"
)

type stageInfo struct {
	Stage       walkthrough.Stage `json:"stage"`
	Label       string            `json:"label"`
	Explanation string            `json:"explanation"`
}

func newStageInfo(s walkthrough.Stage) stageInfo {
	return stageInfo{Stage: s, Label: s.Label(), Explanation: walkthrough.Explanation(s)}
}

func newWalkthroughCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walkthrough",
		Short: "Explain each stage of the adversarial loop",
		Long: `Print every stage of the guided walkthrough in order, or with --from
print only the stage that follows the given one (loss wraps back to noise).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			stages := walkthrough.Order
			if cmd.Flags().Changed("from") {
				from, _ := cmd.Flags().GetString("from")
				current, err := walkthrough.Parse(from)
				if err != nil {
					return err
				}
				stages = []walkthrough.Stage{walkthrough.Next(current)}
			}

			infos := make([]stageInfo, 0, len(stages))
			for _, s := range stages {
				infos = append(infos, newStageInfo(s))
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(infos)
			}
			for i, info := range infos {
				fmt.Fprintf(out, "%d. %-14s %s\n", i+1, info.Label, info.Explanation)
			}
			return nil
		},
	}
	cmd.Flags().String("from", "", "Current stage; print only the next one")
	return cmd
}
