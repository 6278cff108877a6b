package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/logging"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/roomclient"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/ui"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/version"
)

const (
	keyServer   = "server"
	keyToken    = "token"
	keyLogLevel = "log_level"
	keyTURNUser = "turn_user"
	keyTURNPass = "turn_pass"

	defaultServer = "http://localhost:8080"
)

var v = viper.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "interviewctl",
	Short: "Client for the interview-room coordinator",
	Long: `interviewctl talks to an interview-server. It provisions and inspects rooms
through the administrative API and can take a seat in a room from the
terminal, optionally opening a WebRTC data channel to the other participant.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(v.GetString(keyLogLevel))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func newAPI() *roomclient.API {
	return roomclient.NewAPI(v.GetString(keyServer), v.GetString(keyToken))
}

func init() {
	v.SetEnvPrefix("INTERVIEW")
	v.AutomaticEnv()
	v.SetDefault(keyServer, defaultServer)
	v.SetDefault(keyLogLevel, "warn")

	flags := rootCmd.PersistentFlags()
	flags.String(keyServer, defaultServer, "coordinator base URL (env INTERVIEW_SERVER)")
	flags.String(keyToken, "", "admin bearer token (env INTERVIEW_TOKEN)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error (env INTERVIEW_LOG_LEVEL)")

	for key, name := range map[string]string{keyServer: keyServer, keyToken: keyToken, keyLogLevel: "log-level"} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(roomCmd)
	rootCmd.AddCommand(joinCmd)
}
