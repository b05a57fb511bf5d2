package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/review"
	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/types"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate demo scripts and record human feedback",
}

var demoGenerateCmd = &cobra.Command{
	Use:   "generate <ticket-id>",
	Short: "Generate a demo script and hand the ticket to human review",
	Long: `Passes the review gate: requires the ticket to be in ai_review with no
open critical or major findings. Steps are given as --step flags, each
"description=expected outcome".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rawSteps, _ := cmd.Flags().GetStringArray("step")
		if len(rawSteps) == 0 {
			exitError("at least one --step is required")
		}

		steps := make([]types.DemoStep, 0, len(rawSteps))
		for _, raw := range rawSteps {
			desc, outcome, found := strings.Cut(raw, "=")
			if !found {
				exitError("invalid step %q, expected \"description=expected outcome\"", raw)
			}
			steps = append(steps, types.DemoStep{
				Description:     strings.TrimSpace(desc),
				ExpectedOutcome: strings.TrimSpace(outcome),
			})
		}

		id := ticketIDArg(cmd, args[0])
		genArgs := &rpc.DemoGenerateArgs{TicketID: id, Steps: steps}

		var result review.DemoResult
		if handled, err := viaDaemon(rpc.OpDemoGenerate, genArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printDemoResult(&result)
			return
		}

		gate := review.NewGate(store, actor)
		r, err := gate.GenerateDemoScript(cmd.Context(), id, steps)
		if err != nil {
			exitError("%v", err)
		}
		printDemoResult(r)
	},
}

func printDemoResult(r *review.DemoResult) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Demo script for %s (%d steps), ticket moved to human_review\n",
		green("✓"), r.Script.TicketID, len(r.Script.Steps))
	for _, step := range r.Script.Steps {
		fmt.Printf("  %d. %s → %s\n", step.Order, step.Description, step.ExpectedOutcome)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

var demoFeedbackCmd = &cobra.Command{
	Use:   "feedback <ticket-id>",
	Short: "Record the human verdict on a demo",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pass, _ := cmd.Flags().GetBool("pass")
		fail, _ := cmd.Flags().GetBool("fail")
		feedback, _ := cmd.Flags().GetString("feedback")

		if pass == fail {
			exitError("exactly one of --pass or --fail is required")
		}

		id := ticketIDArg(cmd, args[0])
		fbArgs := &rpc.DemoFeedbackArgs{TicketID: id, Passed: pass, Feedback: feedback}

		var result review.FeedbackResult
		if handled, err := viaDaemon(rpc.OpDemoFeedback, fbArgs, &result); handled {
			if err != nil {
				exitError("%v", err)
			}
			printFeedbackResult(&result)
			return
		}

		gate := review.NewFeedbackGate(store, actor)
		r, err := gate.SubmitFeedback(cmd.Context(), id, pass, feedback)
		if err != nil {
			exitError("%v", err)
		}
		printFeedbackResult(r)
	},
}

func printFeedbackResult(r *review.FeedbackResult) {
	if jsonOutput {
		outputJSON(r)
		return
	}
	if r.Passed {
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Demo approved, %s is done\n", green("✓"), r.TicketID)
	} else {
		fmt.Printf("Demo rejected, %s stays in %s\n", r.TicketID, r.Status)
	}
	for _, w := range r.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func init() {
	demoGenerateCmd.Flags().StringArray("step", nil, "Demo step as \"description=expected outcome\" (repeatable)")
	demoFeedbackCmd.Flags().Bool("pass", false, "Approve the demo and complete the ticket")
	demoFeedbackCmd.Flags().Bool("fail", false, "Reject the demo")
	demoFeedbackCmd.Flags().StringP("feedback", "f", "", "Feedback text")

	demoCmd.AddCommand(demoGenerateCmd, demoFeedbackCmd)
	rootCmd.AddCommand(demoCmd)
}
