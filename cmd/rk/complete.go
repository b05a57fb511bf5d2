package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/workflow"
)

var completeCmd = &cobra.Command{
	Use:   "complete <ticket-id>",
	Short: "Complete work and hand the ticket to AI review",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		summary, _ := cmd.Flags().GetString("summary")

		id := ticketIDArg(cmd, args[0])
		completeArgs := &rpc.CompleteWorkArgs{TicketID: id, Summary: summary}

		var result workflow.CompleteResult
		if handled, err := viaDaemon(rpc.OpCompleteWork, completeArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printCompleteResult(&result)
			return
		}

		svc := workflow.NewService(store, actor)
		r, err := svc.CompleteWork(cmd.Context(), id, summary)
		if err != nil {
			exitError("%v", err)
		}
		printCompleteResult(r)
	},
}

func printCompleteResult(r *workflow.CompleteResult) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	if r.NoOp {
		fmt.Printf("%s is already %s, nothing to do\n", r.TicketID, r.Status)
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s moved to %s\n", green("✓"), r.TicketID, r.Status)
	if r.NextTicket != nil {
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("Next up: %s %s\n", cyan(r.NextTicket.ID), r.NextTicket.Title)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func init() {
	completeCmd.Flags().StringP("summary", "m", "", "Work summary for the review trail")
	rootCmd.AddCommand(completeCmd)
}
