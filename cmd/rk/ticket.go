package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/types"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Manage tickets",
}

var ticketCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		projectID, _ := cmd.Flags().GetString("project")
		epicID, _ := cmd.Flags().GetString("epic")

		createArgs := &rpc.TicketCreateArgs{
			Title:       args[0],
			Description: description,
			Priority:    types.Priority(priority),
			ProjectID:   projectID,
			EpicID:      epicID,
		}

		var ticket types.Ticket
		if handled, err := viaDaemon(rpc.OpTicketCreate, createArgs, &ticket); handled {
			if err != nil {
				exitError("%v", err)
			}
			printTicketCreated(&ticket)
			return
		}

		t := &types.Ticket{
			Title:       createArgs.Title,
			Description: createArgs.Description,
			Priority:    createArgs.Priority,
			ProjectID:   createArgs.ProjectID,
			EpicID:      createArgs.EpicID,
		}
		if err := store.CreateTicket(cmd.Context(), t); err != nil {
			exitError("%v", err)
		}
		printTicketCreated(t)
	},
}

func printTicketCreated(t *types.Ticket) {
	if jsonOutput {
		outputJSON(t)
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Created %s: %s\n", green("✓"), t.ID, t.Title)
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := ticketIDArg(cmd, args[0])
		var ticket types.Ticket
		if handled, err := viaDaemon(rpc.OpTicketShow, &rpc.TicketShowArgs{ID: id}, &ticket); handled {
			if err != nil {
				exitError("%v", err)
			}
			printTicket(&ticket)
			return
		}

		t, err := store.GetTicket(cmd.Context(), id)
		if err != nil {
			exitError("%v", err)
		}
		printTicket(t)
	},
}

func printTicket(t *types.Ticket) {
	if jsonOutput {
		outputJSON(t)
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("%s %s [%s]", cyan(t.ID), t.Title, statusColor(t.Status))
	if t.Priority != types.PriorityNone {
		fmt.Printf(" (%s)", t.Priority)
	}
	fmt.Println()
	if t.Description != "" {
		fmt.Printf("  %s\n", t.Description)
	}
	if t.CompletedAt != nil {
		fmt.Printf("  completed: %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
	}
}

func statusColor(s types.Status) string {
	switch s {
	case types.StatusDone:
		return color.New(color.FgGreen).Sprint(s)
	case types.StatusInProgress:
		return color.New(color.FgYellow).Sprint(s)
	case types.StatusAIReview, types.StatusHumanReview:
		return color.New(color.FgMagenta).Sprint(s)
	default:
		return string(s)
	}
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		projectID, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")

		listArgs := &rpc.TicketListArgs{
			ProjectID: projectID,
			Status:    types.Status(status),
			Limit:     limit,
		}

		var tickets []*types.Ticket
		if handled, err := viaDaemon(rpc.OpTicketList, listArgs, &tickets); handled {
			if err != nil {
				exitError("%v", err)
			}
			printTickets(tickets)
			return
		}

		filter := types.TicketFilter{Limit: limit}
		if projectID != "" {
			filter.ProjectID = &projectID
		}
		if status != "" {
			st := types.Status(status)
			filter.Status = &st
		}
		tickets, err := store.ListTickets(cmd.Context(), filter)
		if err != nil {
			exitError("%v", err)
		}
		printTickets(tickets)
	},
}

func printTickets(tickets []*types.Ticket) {
	if jsonOutput {
		outputJSON(tickets)
		return
	}
	if len(tickets) == 0 {
		fmt.Println("No tickets found")
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	for _, t := range tickets {
		fmt.Printf("%s  %-12s  %s\n", cyan(t.ID), statusColor(t.Status), t.Title)
	}
}

var ticketDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a ticket and all its records",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := ticketIDArg(cmd, args[0])
		if handled, err := viaDaemon(rpc.OpTicketDelete, &rpc.TicketShowArgs{ID: id}, nil); handled {
			if err != nil {
				exitError("%v", err)
			}
		} else if err := store.DeleteTicket(cmd.Context(), id); err != nil {
			exitError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": id})
		} else {
			fmt.Printf("Deleted %s\n", id)
		}
	},
}

var ticketNextCmd = &cobra.Command{
	Use:   "next <project-id>",
	Short: "Show the highest-priority ticket available for work",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		next, err := ensureDirectStore().NextTicket(cmd.Context(), args[0], "")
		if err != nil {
			exitError("%v", err)
		}
		if next == nil {
			if jsonOutput {
				outputJSON(nil)
			} else {
				fmt.Println("No tickets available")
			}
			os.Exit(0)
		}
		printTicket(next)
	},
}

func init() {
	ticketCreateCmd.Flags().StringP("description", "d", "", "Ticket description")
	ticketCreateCmd.Flags().StringP("priority", "p", "", "Priority (high|medium|low)")
	ticketCreateCmd.Flags().String("project", "", "Project ID")
	ticketCreateCmd.Flags().String("epic", "", "Epic ticket ID")

	ticketListCmd.Flags().StringP("status", "s", "", "Filter by status")
	ticketListCmd.Flags().String("project", "", "Filter by project ID")
	ticketListCmd.Flags().Int("limit", 0, "Maximum number of tickets")

	ticketCmd.AddCommand(ticketCreateCmd, ticketShowCmd, ticketListCmd, ticketDeleteCmd, ticketNextCmd)
	rootCmd.AddCommand(ticketCmd)
}
