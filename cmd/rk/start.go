package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/workflow"
)

var startCmd = &cobra.Command{
	Use:   "start <ticket-id>",
	Short: "Start work on a ticket",
	Long: `Moves the ticket to in_progress, checks out its feature branch, and
records a start comment. Safe to re-run: a ticket already in progress is
left untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := ticketIDArg(cmd, args[0])
		var result workflow.StartResult
		if handled, err := viaDaemon(rpc.OpStartWork, &rpc.StartWorkArgs{TicketID: id}, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printStartResult(&result)
			return
		}

		svc := workflow.NewService(store, actor)
		r, err := svc.StartWork(cmd.Context(), id)
		if err != nil {
			exitError("%v", err)
		}
		printStartResult(r)
	},
}

func printStartResult(r *workflow.StartResult) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	if r.AlreadyStarted {
		fmt.Printf("%s already in progress on branch %s\n", r.TicketID, r.BranchName)
		return
	}
	verb := "reusing"
	if r.BranchCreated {
		verb = "created"
	}
	fmt.Printf("%s Started %s (%s branch %s)\n", green("✓"), r.TicketID, verb, r.BranchName)
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func init() {
	rootCmd.AddCommand(startCmd)
}
