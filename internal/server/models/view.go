package models

import "time"

// LibrarySummary describes the media libraries an account can reach.
type LibrarySummary struct {
	Libraries []string
	ItemCount int
}

// AccountView is the public projection of an Account. It is rebuilt on
// every request and never carries credential material.
type AccountView struct {
	ID            string
	Name          string
	HasPassword   bool
	Configuration []byte
	Library       LibrarySummary
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
