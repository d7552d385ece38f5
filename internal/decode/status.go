package decode

import "strings"

// Canonical todo item statuses. Every incoming token maps to exactly one
// of these three.
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// Canonical todo priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// NormalizeTodoStatus maps a free-form status token to one of the three
// canonical values. Matching is case-insensitive and whitespace-tolerant;
// unrecognized tokens default to pending. Normalizing an already-canonical
// token is the identity.
func NormalizeTodoStatus(s string) string {
	tok := strings.ToLower(strings.TrimSpace(s))
	tok = strings.ReplaceAll(tok, "-", "_")
	tok = strings.ReplaceAll(tok, " ", "_")

	switch tok {
	case "in_progress", "inprogress", "active", "doing", "started":
		return TodoInProgress
	case "completed", "complete", "done", "finished", "closed":
		return TodoCompleted
	default:
		return TodoPending
	}
}

// NormalizeTodoPriority maps a free-form priority token to low, medium or
// high. Numeric shorthand maps 1→low, 2→medium, 3→high; anything
// unrecognized defaults to medium.
func NormalizeTodoPriority(s string) string {
	tok := strings.ToLower(strings.TrimSpace(s))

	switch tok {
	case "1", "low", "minor", "trivial":
		return PriorityLow
	case "3", "high", "urgent", "critical":
		return PriorityHigh
	case "2", "medium", "med", "normal", "":
		return PriorityMedium
	default:
		return PriorityMedium
	}
}
