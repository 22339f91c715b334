package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/fedwatch/fedwatch/fedwatchd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedwatchd",
		Short: "Fedwatch Daemon",
		Long:  `Fedwatch Daemon manages the lifecycle of fedwatch components.`,
	}

	rootCmd.AddCommand(fedwatchd.NewManagerCmd())
	rootCmd.AddCommand(fedwatchd.NewAgentCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
