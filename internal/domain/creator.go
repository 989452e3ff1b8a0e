package domain

import "time"

// CreatorAccount is a managed content-creator account on whose behalf
// tickets are raised.
type CreatorAccount struct {
	ID          string
	DisplayName string
	Handle      string
	Platform    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
