package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/roomclient"
	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/ui"
)

var (
	flagCreateID       string
	flagCreatePasskey  string
	flagCreateDuration int
	flagWatchInterval  time.Duration
)

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Provision and inspect rooms",
}

var roomGetCmd = &cobra.Command{
	Use:   "get <room-id|url>",
	Short: "Show a room's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		sum, err := newAPI().Room(cmd.Context(), roomID)
		if err != nil {
			return fmt.Errorf("get room %s: %w", roomID, err)
		}
		fmt.Fprintln(ui.Output, ui.RoomSummaryView(*sum))
		return nil
	},
}

var roomCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a room before anyone joins",
	Long: `Provision a room with a passkey and an optional duration. Without --id the
server picks a memorable id. Requires an admin token, see
"interview-server token".

Examples:
  interviewctl room create --id R1 --passkey abc --duration 45 --token $TOKEN
  interviewctl room create --passkey abc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api := newAPI()
		if api.Token == "" {
			return errors.New("an admin token is required (--token or INTERVIEW_TOKEN)")
		}
		sum, err := api.CreateRoom(cmd.Context(), roomclient.CreateRoom{
			ID:              flagCreateID,
			Passkey:         flagCreatePasskey,
			DurationMinutes: flagCreateDuration,
		})
		if err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		ui.PrintSuccessf("Room %s created", sum.ID)
		fmt.Fprintln(ui.Output, ui.RoomSummaryView(*sum))
		return nil
	},
}

var roomWatchCmd = &cobra.Command{
	Use:   "watch <room-id|url>",
	Short: "Follow a room's status live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		api := newAPI()
		model := ui.NewWatchModel(roomID, flagWatchInterval, func(ctx context.Context) (*interview.Summary, error) {
			return api.Room(ctx, roomID)
		})
		return ui.RunWatch(model)
	},
}

func init() {
	roomCmd.AddCommand(roomGetCmd)
	roomCmd.AddCommand(roomCreateCmd)
	roomCmd.AddCommand(roomWatchCmd)

	roomCreateCmd.Flags().StringVar(&flagCreateID, "id", "", "Room id (generated when empty)")
	roomCreateCmd.Flags().StringVarP(&flagCreatePasskey, "passkey", "p", "", "Passkey participants must present")
	roomCreateCmd.Flags().IntVarP(&flagCreateDuration, "duration", "d", 0, "Planned duration in minutes (0 for none)")
	roomCreateCmd.MarkFlagRequired("passkey")

	roomWatchCmd.Flags().DurationVarP(&flagWatchInterval, "interval", "i", 2*time.Second, "Polling interval")
}
