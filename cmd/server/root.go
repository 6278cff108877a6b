package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/config"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/version"
)

var (
	cfgFile string
	v       = config.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "interview-server",
	Short: "Live interview-room coordinator",
	Long: `interview-server hosts two-party interview rooms over websockets. It relays
WebRTC call setup between the two participants and keeps the room's chat,
shared code and notes in sync.

Running it without a subcommand is the same as "interview-server serve".`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	if err := config.BindFlags(v, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}
