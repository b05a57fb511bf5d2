package workflow

import (
	"strings"
	"unicode"
)

const maxSlugLen = 40

// Slugify converts a ticket title into a branch-safe slug: lowercase
// alphanumerics joined by single hyphens, truncated to a sane length.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// ShortID compacts a ticket id for use in branch names. Counter-style ids
// (rk-7) pass through; long ids (UUIDs) are truncated to 8 characters.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// BranchName computes the deterministic feature branch for a ticket
func BranchName(ticketID, title string) string {
	slug := Slugify(title)
	if slug == "" {
		return "feature/" + ShortID(ticketID)
	}
	return "feature/" + ShortID(ticketID) + "-" + slug
}
