package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/workflow"
)

var commitCmd = &cobra.Command{
	Use:   "commit <ticket-id> <hash>",
	Short: "Link a commit to a ticket",
	Long: `Records a commit hash against a ticket. A hash that is a prefix of,
or extends, an already-linked hash is treated as a duplicate and skipped.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		message, _ := cmd.Flags().GetString("message")

		id := ticketIDArg(cmd, args[0])
		linkArgs := &rpc.LinkCommitArgs{TicketID: id, Hash: args[1], Message: message}

		var result struct {
			Added bool `json:"added"`
		}
		if handled, err := viaDaemon(rpc.OpLinkCommit, linkArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printCommitResult(id, args[1], result.Added)
			return
		}

		svc := workflow.NewService(store, actor)
		added, err := svc.LinkCommit(cmd.Context(), id, args[1], message)
		if err != nil {
			exitError("%v", err)
		}
		printCommitResult(id, args[1], added)
	},
}

func printCommitResult(ticketID, hash string, added bool) {
	if jsonOutput {
		outputJSON(map[string]interface{}{"ticket_id": ticketID, "hash": hash, "added": added})
		return
	}
	if added {
		fmt.Printf("Linked %s to %s\n", hash, ticketID)
	} else {
		fmt.Printf("%s already linked to %s\n", hash, ticketID)
	}
}

func init() {
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	rootCmd.AddCommand(commitCmd)
}
