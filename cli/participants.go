package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedwatch/fedwatch/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
)

var fsdk sdk.SDK

func SetFedwatchSDK(s sdk.SDK) {
	fsdk = s
}

func NewParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants [list|view|delete]",
		Short: "Participants manager",
		Long:  `List, view and delete registered training participants.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Long:  `List registered participants with their liveness state.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListParticipants(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View participant",
		Long:  `View participant.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p, err := fsdk.GetParticipant(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete participant",
		Long:  `Remove a participant from the registry.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.DeleteParticipant(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(deleteCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
