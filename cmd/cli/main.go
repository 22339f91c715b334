package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/fedwatch/fedwatch/cli"
	"github.com/fedwatch/fedwatch/fedwatchd"
	"github.com/fedwatch/fedwatch/pkg/sdk"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedwatch-cli",
		Short: "Fedwatch CLI",
		Long:  `Fedwatch CLI is a command line interface for interacting with fedwatch components.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				ManagerURL:      fedwatchd.DefManagerURL,
				TLSVerification: fedwatchd.DefTLSVerification,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetFedwatchSDK(s)
		},
	}

	rootCmd.AddCommand(cli.NewParticipantsCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewSessionsCmd())
	rootCmd.AddCommand(cli.NewDriftCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
