package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/akashsiripuram/Nexus/internal/chatclient"
	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/ui"
)

var flagRoomsURL string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active rooms on a running relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.Options{RelayURL: flagRoomsURL})
		if err != nil {
			return err
		}

		base, err := cfg.HTTPBaseURL()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		snap, err := chatclient.FetchRooms(ctx, base)
		if err != nil {
			return err
		}

		ui.RenderRooms(snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)

	roomsCmd.Flags().StringVarP(&flagRoomsURL, "url", "u", "", "Relay websocket URL (env RELAY_URL, default ws://localhost:8080/ws)")
}
