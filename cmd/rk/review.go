package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/hooks"
	"github.com/ralphkit/ralphkit/internal/statefile"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review-completeness checks",
}

var reviewCheckCmd = &cobra.Command{
	Use:   "check [payload-file]",
	Short: "Check a reviewer payload and mint the push marker on success",
	Long: `Reads a reviewer payload (from a file or stdin) and creates the review
marker only when it positively confirms completeness: an explicit complete
flag, an explicit proceed flag, or zero open critical and major findings.
Anything else fails and clears any existing marker.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		projectDir, _ := cmd.Flags().GetString("project-dir")

		var payload []byte
		var err error
		if len(args) == 1 {
			payload, err = os.ReadFile(args[0]) // #nosec G304 - user-supplied payload path
		} else {
			payload, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			exitError("failed to read payload: %v", err)
		}

		checker := hooks.NewChecker(statefile.MarkerPath(projectDir))
		verdict, err := checker.Run(payload)
		if err != nil {
			if jsonOutput && verdict != nil {
				outputJSON(verdict)
			}
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}

		if jsonOutput {
			outputJSON(verdict)
			return
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Review complete, push marker created\n", green("✓"))
	},
}

func init() {
	reviewCheckCmd.Flags().String("project-dir", ".", "Project directory holding .ralphkit/")
	reviewCmd.AddCommand(reviewCheckCmd)
	rootCmd.AddCommand(reviewCmd)
}
