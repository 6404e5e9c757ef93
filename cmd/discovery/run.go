package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run <candidate-id>",
	Short: "Run discovery once for a candidate and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		orch := s.orch
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetBool("score")
			orch = orch.WithScore(score)
		}

		result, runErr := orch.Run(cmd.Context(), args[0])
		if result != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		return runErr
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <candidate-id>",
	Short: "Recompute match scores of a candidate's new postings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		changed, err := s.orch.Rescore(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		s.log.Info("rescore finished", zap.String("candidate_id", args[0]), zap.Int("changed", changed))
		fmt.Fprintf(cmd.OutOrStdout(), "%d scores changed\n", changed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, scoreCmd)

	runCmd.Flags().Bool("score", true, "score postings inline and keep only matches (defaults to SCORE_INLINE)")
}
