package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fedwatch/fedwatch/pkg/sdk"
)

// Exit codes for drift check, so shell pipelines can branch on the verdict.
const (
	exitNoDrift    = 0
	exitError      = 1
	exitRetrained  = 2
	exitSuppressed = 3
)

var (
	driftReferenceDate string
	driftCurrentDate   string
	driftNodeID        string
	driftThreshold     float64
	driftNoRetrain     bool
)

func NewDriftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift [check|decisions]",
		Short: "Drift monitor",
		Long:  `Check for feature drift and inspect recorded retraining decisions.`,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check drift",
		Long: `Compare current data against the reference window and report the verdict.

The exit code encodes the outcome: 0 no drift, 2 retrained, 3 drift detected
but retraining suppressed, 1 on errors.

Examples:
  # Check today's data for the default node
  fedwatch-cli drift check

  # Check a specific date without retraining
  fedwatch-cli drift check --current-date=2025-01-14 --no-retrain`,
		Run: func(cmd *cobra.Command, args []string) {
			decision, err := fsdk.CheckDrift(sdk.DriftCheckSpec{
				ReferenceDate:     driftReferenceDate,
				CurrentDate:       driftCurrentDate,
				NodeID:            driftNodeID,
				Threshold:         driftThreshold,
				TriggerRetraining: !driftNoRetrain,
			})
			if err != nil {
				logErrorCmd(*cmd, err)
				os.Exit(exitError)
			}
			logJSONCmd(*cmd, decision)

			switch decision.Outcome {
			case "retrained":
				os.Exit(exitRetrained)
			case "suppressed":
				os.Exit(exitSuppressed)
			case "retraining-failed":
				os.Exit(exitError)
			}
		},
	}

	checkCmd.Flags().StringVar(&driftReferenceDate, "reference-date", "", "Reference data date, YYYY-MM-DD (empty uses the service default)")
	checkCmd.Flags().StringVar(&driftCurrentDate, "current-date", "", "Current data date, YYYY-MM-DD (empty uses today)")
	checkCmd.Flags().StringVar(&driftNodeID, "node-id", "", "Node whose data is checked (empty uses the service default)")
	checkCmd.Flags().Float64Var(&driftThreshold, "threshold", 0, "Drift threshold (0 uses the service default)")
	checkCmd.Flags().BoolVar(&driftNoRetrain, "no-retrain", false, "Report drift without triggering retraining")

	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "List decisions",
		Long:  `List recorded retraining decisions, oldest first.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListDecisions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(checkCmd)
	cmd.AddCommand(decisionsCmd)

	return cmd
}
