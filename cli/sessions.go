package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedwatch/fedwatch/pkg/sdk"
)

var (
	sessionRounds          int
	sessionMinParticipants int
	sessionTimeoutSeconds  int
	sessionEvaluate        bool
	sessionDate            string
)

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [run|view|list]",
		Short: "Training sessions manager",
		Long:  `Run federated training sessions and inspect their logs.`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run training session",
		Long: `Run a federated training session over the registered participants.

Examples:
  # Run with service defaults
  fedwatch-cli sessions run

  # Run a short session against a fixed data date
  fedwatch-cli sessions run --rounds=3 --date=2024-01-14`,
		Run: func(cmd *cobra.Command, args []string) {
			session, err := fsdk.RunSession(sdk.SessionSpec{
				Rounds:          sessionRounds,
				MinParticipants: sessionMinParticipants,
				TimeoutSeconds:  sessionTimeoutSeconds,
				Evaluate:        sessionEvaluate,
				Date:            sessionDate,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, session)
		},
	}

	runCmd.Flags().IntVar(&sessionRounds, "rounds", 0, "Number of training rounds (0 uses the service default)")
	runCmd.Flags().IntVar(&sessionMinParticipants, "min-participants", 0, "Minimum participants per round (0 uses the service default)")
	runCmd.Flags().IntVar(&sessionTimeoutSeconds, "timeout", 0, "Per-round timeout in seconds (0 uses the service default)")
	runCmd.Flags().BoolVar(&sessionEvaluate, "evaluate", true, "Broadcast evaluation after each round")
	runCmd.Flags().StringVar(&sessionDate, "date", "", "Training data date, YYYY-MM-DD (empty uses today)")

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View session",
		Long:  `View one session log, per-round records included.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			session, err := fsdk.GetSession(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, session)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Long:  `List completed sessions.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListSessions(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	cmd.AddCommand(runCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(listCmd)

	return cmd
}
