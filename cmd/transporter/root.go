package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "transporter",
		Short: "Send HTTP requests through a registered transporter",
		Long: `transporter sends a single HTTP request with one of the registered
transporters and prints the normalized response.

Configuration is read from --config (yaml, json or toml), a .env file in
the working directory and TRANSPORTER_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file")
	root.AddCommand(newSendCmd(&configPath), newListCmd())
	return root
}
