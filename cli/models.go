package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [list|view|latest]",
		Short: "Global models manager",
		Long:  `List and inspect global model versions.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List models",
		Long:  `List global model versions.`,
		Run: func(cmd *cobra.Command, args []string) {
			page, err := fsdk.ListModels(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <version>",
		Short: "View model",
		Long:  `View one global model version, parameters included.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			version, err := strconv.Atoi(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			model, err := fsdk.GetModel(version)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, model)
		},
	}

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "View latest model",
		Long:  `View the newest global model version.`,
		Run: func(cmd *cobra.Command, args []string) {
			model, err := fsdk.LatestModel()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, model)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(latestCmd)

	return cmd
}
