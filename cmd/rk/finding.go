package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/review"
	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/types"
)

var findingCmd = &cobra.Command{
	Use:   "finding",
	Short: "Manage review findings",
}

var findingSubmitCmd = &cobra.Command{
	Use:   "submit <ticket-id> <description>",
	Short: "Submit a review finding against a ticket in ai_review",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		severity, _ := cmd.Flags().GetString("severity")
		category, _ := cmd.Flags().GetString("category")

		submitArgs := &rpc.FindingSubmitArgs{
			TicketID:    ticketIDArg(cmd, args[0]),
			Severity:    types.Severity(severity),
			Category:    category,
			Description: args[1],
		}

		var result review.FindingResult
		if handled, err := viaDaemon(rpc.OpFindingSubmit, submitArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printFindingResult(&result)
			return
		}

		gate := review.NewGate(store, actor)
		r, err := gate.SubmitFinding(cmd.Context(), &types.Finding{
			TicketID:    submitArgs.TicketID,
			Severity:    submitArgs.Severity,
			Category:    submitArgs.Category,
			Description: submitArgs.Description,
		})
		if err != nil {
			exitError("%v", err)
		}
		printFindingResult(r)
	},
}

var findingFixCmd = &cobra.Command{
	Use:   "fix <finding-id>",
	Short: "Mark a finding as fixed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var result review.FindingResult
		if handled, err := viaDaemon(rpc.OpFindingFix, &rpc.FindingFixArgs{FindingID: args[0]}, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printFindingResult(&result)
			return
		}

		gate := review.NewGate(store, actor)
		r, err := gate.MarkFixed(cmd.Context(), args[0])
		if err != nil {
			exitError("%v", err)
		}
		printFindingResult(r)
	},
}

var findingListCmd = &cobra.Command{
	Use:   "list <ticket-id>",
	Short: "List findings for a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := ticketIDArg(cmd, args[0])
		var findings []*types.Finding
		if handled, err := viaDaemon(rpc.OpFindingList, &rpc.FindingListArgs{TicketID: id}, &findings); handled {
			if err != nil {
				exitError("%v", err)
			}
			printFindings(findings)
			return
		}

		findings, err := store.ListFindings(cmd.Context(), id)
		if err != nil {
			exitError("%v", err)
		}
		printFindings(findings)
	},
}

func printFindingResult(r *review.FindingResult) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	f := r.Finding
	fmt.Printf("%s [%s/%s] %s\n", f.ID, severityColor(f.Severity), f.Status, f.Description)
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func printFindings(findings []*types.Finding) {
	if jsonOutput {
		outputJSON(findings)
		return
	}
	if len(findings) == 0 {
		fmt.Println("No findings")
		return
	}
	for _, f := range findings {
		marker := " "
		if f.Status == types.FindingOpen && f.Severity.Blocking() {
			marker = color.New(color.FgRed).Sprint("!")
		}
		fmt.Printf("%s %s [%s/%s] iter %d: %s\n", marker, f.ID, severityColor(f.Severity), f.Status, f.Iteration, f.Description)
	}
}

func severityColor(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return color.New(color.FgRed).Sprint(s)
	case types.SeverityMajor:
		return color.New(color.FgYellow).Sprint(s)
	default:
		return string(s)
	}
}

func init() {
	findingSubmitCmd.Flags().StringP("severity", "s", "minor", "Severity (critical|major|minor)")
	findingSubmitCmd.Flags().StringP("category", "c", "", "Finding category")

	findingCmd.AddCommand(findingSubmitCmd, findingFixCmd, findingListCmd)
	rootCmd.AddCommand(findingCmd)
}
