package domain

import "time"

type Lease struct {
	ID       int32      `json:"id"`
	ItemID   int32      `json:"item_id"`
	ClientID int32      `json:"client_id"`
	Start    time.Time  `json:"lease_start"`
	End      *time.Time `json:"lease_end,omitempty"` // nil while the lease is active
}

// Active reports whether the lease has not been terminated yet.
func (l Lease) Active() bool {
	return l.End == nil
}
