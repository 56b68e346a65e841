package tui

import "time"

// refreshMsg contains refreshed data from the status API.
type refreshMsg struct {
	health *HealthSnapshot
	err    error
}

// tickMsg triggers a data refresh.
type tickMsg time.Time
