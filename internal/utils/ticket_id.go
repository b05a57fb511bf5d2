// Package utils provides ticket ID parsing and path handling helpers.
package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/types"
)

// DefaultTicketPrefix is used when no prefix is configured.
// Ticket IDs are "<prefix>-<n>", e.g. "rk-7".
const DefaultTicketPrefix = "rk"

// ParseTicketID ensures a ticket ID carries the configured prefix.
// "rk-7" stays "rk-7"; a bare "7" becomes "rk-7".
func ParseTicketID(input, prefix string) string {
	if prefix == "" {
		prefix = DefaultTicketPrefix
	}
	if strings.HasPrefix(input, prefix+"-") {
		return input
	}
	return prefix + "-" + input
}

// ExtractTicketPrefix returns the prefix of a ticket ID: "rk-12" -> "rk".
func ExtractTicketPrefix(id string) string {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 {
		return ""
	}
	return id[:idx]
}

// ExtractTicketNumber returns the numeric suffix of a ticket ID: "rk-12" -> 12.
func ExtractTicketNumber(id string) int {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx == len(id)-1 {
		return 0
	}
	var num int
	fmt.Sscanf(id[idx+1:], "%d", &num)
	return num
}

// ResolveTicketID resolves prefix-optional input to a stored ticket ID.
// Tries an exact match first, then a unique prefix match over all tickets.
func ResolveTicketID(ctx context.Context, store storage.Storage, input string) (string, error) {
	prefix, err := store.GetConfig(ctx, "ticket-prefix")
	if err != nil || prefix == "" {
		prefix = DefaultTicketPrefix
	}

	parsed := ParseTicketID(input, prefix)

	if _, err := store.GetTicket(ctx, parsed); err == nil {
		return parsed, nil
	}

	tickets, err := store.ListTickets(ctx, types.TicketFilter{})
	if err != nil {
		return "", fmt.Errorf("failed to list tickets: %w", err)
	}

	var matches []string
	for _, t := range tickets {
		if strings.HasPrefix(t.ID, parsed) {
			matches = append(matches, t.ID)
		}
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no ticket found matching %q", input)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous ID %q matches %d tickets: %v", input, len(matches), matches)
	}
	return matches[0], nil
}
