package models

import "time"

// RefreshToken is a server-stored opaque token that can be exchanged for a
// new token pair until Expires.
type RefreshToken struct {
	AccountID string
	Token     string
	Expires   time.Time
}
