package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var envFile string

// NewRootCmd creates the root command for the Cartify API binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartify-api",
		Short: "Cartify credential and session service",
		Long: `Cartify API handles registration, login/logout with Redis-mirrored
token pairs, and the three-step OTP password reset flow.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
