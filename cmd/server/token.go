package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/auth"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/config"
)

var (
	flagTokenSubject string
	flagTokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin token for the room API",
	Long: `Sign a bearer token with the configured jwt secret. The token authorizes
POST /rooms; its subject is recorded as the room's creator.

Examples:
  interview-server token --jwt-secret change-me --subject recruiter-7
  interview-server token --subject ops --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		token, err := auth.New(cfg.JWTSecret).GenerateToken(flagTokenSubject, flagTokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenSubject, "subject", "", "Identity recorded as the caller (required)")
	tokenCmd.Flags().DurationVar(&flagTokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("subject")
}
