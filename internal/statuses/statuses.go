package statuses

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// IsTerminal reports whether no further moves are accepted for the status.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusAbandoned
}
