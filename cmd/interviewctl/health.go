package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show how many rooms and connections the server holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stop := ui.RunConnectionSpinner("Contacting server...")
		h, err := newAPI().Health(cmd.Context())
		stop()
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Fprintln(ui.Output, ui.HealthView(h.RoomCount, h.ConnectionCount))
		return nil
	},
}
