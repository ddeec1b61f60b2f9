package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvaspilot/canvaspilot/session"
)

func newSessionsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored chat sessions",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the session database")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			names, err := store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear <session>",
		Short: "Delete one session's history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, clear)
	return cmd
}

func openSessionStore(dbPath string) (*session.Store, error) {
	if dbPath == "" {
		dbPath = defaultSessionDB()
	}
	return session.Open(dbPath)
}
