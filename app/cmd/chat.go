package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/canvaspilot/canvaspilot/app/tui"
	"github.com/canvaspilot/canvaspilot/session"
)

func newChatCmd() *cobra.Command {
	var serverURL string
	var sessionID string
	var dbPath string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat with a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := globalCfg
			if serverURL == "" {
				serverURL = "http://localhost:8080"
			}

			client := tui.NewStreamClient(serverURL)
			if err := client.Healthy(cmd.Context()); err != nil {
				return fmt.Errorf("server at %s is not reachable (start one with `canvaspilot serve`): %w", serverURL, err)
			}

			var store *session.Store
			if !noStore {
				if dbPath == "" {
					dbPath = defaultSessionDB()
				}
				var err error
				store, err = session.Open(dbPath)
				if err != nil {
					return fmt.Errorf("open session store: %w", err)
				}
				defer store.Close()
			}

			return tui.Run(cmd.Context(), tui.Options{
				ServerURL:   serverURL,
				SessionID:   sessionID,
				Store:       store,
				CanvasURL:   cfg.Canvas.BaseURL,
				CanvasToken: cfg.Canvas.Token,
			})
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "Base URL of the assistant server")
	cmd.Flags().StringVar(&sessionID, "session", "default", "Session name for stored history")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the session database")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not persist conversation history")
	return cmd
}

func defaultSessionDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions.db"
	}
	return filepath.Join(home, ".canvaspilot", "sessions.db")
}
