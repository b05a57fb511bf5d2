package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/session"
	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage agent sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <ticket-id>",
	Short: "Start a session for a ticket (or return the active one)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := ticketIDArg(cmd, args[0])
		var result session.Result
		if handled, err := viaDaemon(rpc.OpSessionCreate, &rpc.SessionCreateArgs{TicketID: id}, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printSessionResult(&result)
			return
		}

		mgr, err := managerForTicket(cmd.Context(), id)
		if err != nil {
			exitError("%v", err)
		}
		r, err := mgr.Create(cmd.Context(), id)
		if err != nil {
			exitError("%v", err)
		}
		printSessionResult(r)
	},
}

var sessionUpdateCmd = &cobra.Command{
	Use:   "update <session-id>",
	Short: "Move a session to a new state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, _ := cmd.Flags().GetString("state")
		if state == "" {
			exitError("--state is required")
		}

		updateArgs := &rpc.SessionUpdateArgs{
			SessionID: args[0],
			State:     types.SessionState(state),
		}

		var result session.Result
		if handled, err := viaDaemon(rpc.OpSessionUpdate, updateArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printSessionResult(&result)
			return
		}

		mgr, err := managerForSession(cmd.Context(), args[0])
		if err != nil {
			exitError("%v", err)
		}
		r, err := mgr.UpdateState(cmd.Context(), args[0], types.SessionState(state), nil)
		if err != nil {
			exitError("%v", err)
		}
		printSessionResult(r)
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Finish a session with an outcome",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		outcome, _ := cmd.Flags().GetString("outcome")
		errorMessage, _ := cmd.Flags().GetString("error")

		completeArgs := &rpc.SessionCompleteArgs{
			SessionID:    args[0],
			Outcome:      types.Outcome(outcome),
			ErrorMessage: errorMessage,
		}

		var result session.Result
		if handled, err := viaDaemon(rpc.OpSessionComplete, completeArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printSessionResult(&result)
			return
		}

		mgr, err := managerForSession(cmd.Context(), args[0])
		if err != nil {
			exitError("%v", err)
		}
		r, err := mgr.Complete(cmd.Context(), args[0], types.Outcome(outcome), errorMessage)
		if err != nil {
			exitError("%v", err)
		}
		printSessionResult(r)
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its state history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var sess types.Session
		if handled, err := viaDaemon(rpc.OpSessionShow, &rpc.SessionShowArgs{SessionID: args[0]}, &sess); handled {
			if err != nil {
				exitError("%v", err)
			}
			printSession(&sess)
			return
		}

		s, err := ensureDirectStore().GetSession(cmd.Context(), args[0])
		if err != nil {
			exitError("%v", err)
		}
		printSession(s)
	},
}

func printSessionResult(r *session.Result) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	printSession(r.Session)
	if r.Reused {
		fmt.Println("  (reused active session)")
	}
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func printSession(s *types.Session) {
	fmt.Printf("%s ticket=%s state=%s", s.ID, s.TicketID, s.CurrentState)
	if s.Completed() {
		fmt.Printf(" outcome=%s", s.Outcome)
	}
	fmt.Println()
	for _, entry := range s.History {
		fmt.Printf("  %s  %s\n", entry.Timestamp.Format("15:04:05"), entry.State)
	}
}

// managerForTicket builds a session manager mirroring into the ticket's
// project directory, when the ticket belongs to a project.
func managerForTicket(ctx context.Context, ticketID string) (*session.Manager, error) {
	store := ensureDirectStore()
	ticket, err := store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	var channel statefile.Channel
	if ticket.ProjectID != "" {
		project, err := store.GetProject(ctx, ticket.ProjectID)
		if err != nil {
			return nil, err
		}
		channel = statefile.DefaultChannel(project.Path)
	}
	return session.NewManager(store, channel), nil
}

func managerForSession(ctx context.Context, sessionID string) (*session.Manager, error) {
	sess, err := ensureDirectStore().GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return managerForTicket(ctx, sess.TicketID)
}

func init() {
	sessionUpdateCmd.Flags().StringP("state", "s", "", "New state (idle|analyzing|implementing|testing|committing|reviewing|done)")
	sessionCompleteCmd.Flags().StringP("outcome", "o", "success", "Outcome (success|failure|timeout|cancelled)")
	sessionCompleteCmd.Flags().String("error", "", "Error message for failed sessions")

	sessionCmd.AddCommand(sessionStartCmd, sessionUpdateCmd, sessionCompleteCmd, sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
