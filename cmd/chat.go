package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/akashsiripuram/Nexus/internal/chatclient"
	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/ui"
)

const dialTimeout = 10 * time.Second

var (
	flagRelayURL string
	flagSelfID   string
	flagPeerID   string
	flagName     string
	flagPeerName string
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Chat with a teammate from the terminal",
	Long: `Open the one-to-one chat room shared with a teammate.

The room id is derived from both user ids, so the teammate can join from
the web app or another terminal.

Examples:
  nexus chat --self 64f1a --peer 64f2b --name Alice --peer-name Bob
  nexus chat --url wss://chat.example.com/ws --self 64f1a --peer 64f2b --name Alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSelfID == "" || flagPeerID == "" {
			return errors.New("both --self and --peer are required")
		}
		if flagSelfID == flagPeerID {
			return errors.New("--self and --peer must differ")
		}

		cfg, err := loadConfig(config.Options{RelayURL: flagRelayURL})
		if err != nil {
			return err
		}

		id := chatclient.Identity{
			SelfID:   flagSelfID,
			PeerID:   flagPeerID,
			SelfName: nameOr(flagName, flagSelfID),
			PeerName: nameOr(flagPeerName, flagPeerID),
		}
		return runChat(cmd.Context(), cfg, id)
	},
}

func runChat(ctx context.Context, cfg *config.Config, id chatclient.Identity) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := chatclient.Dial(dialCtx, cfg.RelayURL)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.RelayURL, err)
	}
	defer client.Close()

	if err := client.Join(id); err != nil {
		return err
	}

	model := ui.NewChatModel(client, client.Events(), id)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("chat ui: %w", err)
	}
	return nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&flagRelayURL, "url", "u", "", "Relay websocket URL (env RELAY_URL, default ws://localhost:8080/ws)")
	chatCmd.Flags().StringVar(&flagSelfID, "self", "", "Your user id")
	chatCmd.Flags().StringVar(&flagPeerID, "peer", "", "Teammate's user id")
	chatCmd.Flags().StringVarP(&flagName, "name", "n", "", "Your display name")
	chatCmd.Flags().StringVar(&flagPeerName, "peer-name", "", "Teammate's display name")
}
