package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/echoform/echoform/pkg/engine"
)

func newChatCommand() *cobra.Command {
	var (
		message string
		session string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive local session (or a one-shot prompt)",
		Long:  "Chat with the agent in the terminal. Every turn shows the reply, scores, traits and mutation level.",
		Example: strings.Join([]string{
			"  echoform chat",
			"  echoform chat --session 7f3b2c1a-...",
			"  echoform chat --message \"what is recursion\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyDebug(debug)

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if strings.TrimSpace(message) != "" {
				outcome, err := rt.engine.ProcessTurn(cmd.Context(), session, message)
				if err != nil {
					return err
				}
				printOutcome(outcome, true)
				return nil
			}

			return interactiveChat(cmd.Context(), rt.engine, session)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot prompt to send to the agent")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session id to resume (empty starts a new session)")
	debugFlag(cmd, &debug)

	return cmd
}

func interactiveChat(ctx context.Context, eng *engine.Engine, sessionID string) error {
	fmt.Println()
	fmt.Println(strings.ToUpper(appName))
	fmt.Println(appTagline)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Type 'exit' to quit.")
	fmt.Println()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You > ",
		HistoryFile:     filepath.Join(os.TempDir(), ".echoform_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\n[ECHOFORM] Session closed.")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("\n[ECHOFORM] Session closed.")
			return nil
		}

		outcome, err := eng.ProcessTurn(ctx, sessionID, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		// Later turns resume the session the first turn created.
		sessionID = outcome.SessionID

		printOutcome(outcome, false)
	}
}

func printOutcome(o engine.TurnOutcome, verbose bool) {
	fmt.Println("\nECHOFORM >")
	fmt.Println(o.Reply)

	fmt.Println("\n--- SCORES ---")
	fmt.Printf("accuracy: %.2f\n", o.Scores.Accuracy)
	fmt.Printf("clarity: %.2f\n", o.Scores.Clarity)
	fmt.Printf("depth: %.2f\n", o.Scores.Depth)
	fmt.Printf("originality: %.2f\n", o.Scores.Originality)
	fmt.Printf("overall: %.2f\n", o.Overall)

	fmt.Println("\n--- TRAITS ---")
	fmt.Printf("creativity: %.2f\n", o.TraitsAfter.Creativity)
	fmt.Printf("abstraction: %.2f\n", o.TraitsAfter.Abstraction)
	fmt.Printf("verbosity: %.2f\n", o.TraitsAfter.Verbosity)
	fmt.Printf("formality: %.2f\n", o.TraitsAfter.Formality)

	fmt.Printf("\n[MUTATION] Level: %d\n", o.MutationLevel)
	fmt.Printf("[SESSION] %s\n", o.SessionID)

	if verbose {
		fmt.Println("\n[REASONING]")
		fmt.Println(o.Reasoning)
	}
	fmt.Println()
}
