package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List known sessions, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sessions, err := rt.store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions yet.")
				return nil
			}

			for _, s := range sessions {
				updated := time.UnixMilli(s.UpdatedAtMS).Format("2006-01-02 15:04:05")
				fmt.Printf("%s  level=%d  updated=%s\n", s.ID, s.MutationLevel, updated)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list")

	return cmd
}

func newHistoryCommand() *cobra.Command {
	var showReasoning bool

	cmd := &cobra.Command{
		Use:     "history <session-id>",
		Short:   "Print a session's dialogue in order",
		Args:    cobra.ExactArgs(1),
		Example: "  echoform history 7f3b2c1a-... --reasoning",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sessionID := args[0]
			messages, err := rt.store.History(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			for _, m := range messages {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}

			if showReasoning {
				snaps, err := rt.store.ReasoningHistory(cmd.Context(), sessionID)
				if err != nil {
					return err
				}
				fmt.Println("\n--- REASONING ---")
				for _, s := range snaps {
					if s.Compressed != "" {
						fmt.Println(s.Compressed)
					} else {
						fmt.Println(s.Raw)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showReasoning, "reasoning", "r", false, "Also print reasoning snapshots")

	return cmd
}

func newTraitsCommand() *cobra.Command {
	var showRevisions bool

	cmd := &cobra.Command{
		Use:   "traits <session-id>",
		Short: "Show a session's trait profile and mutation history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sessionID := args[0]
			profile, err := rt.store.GetOrInitTraits(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			sess, err := rt.store.GetSession(cmd.Context(), sessionID)
			if err != nil {
				return err
			}

			fmt.Printf("creativity:  %.2f\n", profile.Traits.Creativity)
			fmt.Printf("abstraction: %.2f\n", profile.Traits.Abstraction)
			fmt.Printf("verbosity:   %.2f\n", profile.Traits.Verbosity)
			fmt.Printf("formality:   %.2f\n", profile.Traits.Formality)
			fmt.Printf("mutation level: %d\n", sess.MutationLevel)

			if showRevisions {
				revisions, err := rt.store.ListTraitRevisions(cmd.Context(), sessionID, 0)
				if err != nil {
					return err
				}
				fmt.Println("\n--- REVISIONS (newest first) ---")
				for _, r := range revisions {
					at := time.UnixMilli(r.CreatedAtMS).Format("2006-01-02 15:04:05")
					fmt.Printf("%s  overall=%.2f  creativity %.2f->%.2f  abstraction %.2f->%.2f\n",
						at, r.Overall,
						r.Before.Creativity, r.After.Creativity,
						r.Before.Abstraction, r.After.Abstraction)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showRevisions, "revisions", "r", false, "Also print the mutation audit trail")

	return cmd
}
