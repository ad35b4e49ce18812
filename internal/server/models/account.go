// Package models holds the server-side domain records shared by the
// repositories, services and transports.
package models

import "time"

// Account is a user identity in the directory. ID is assigned once at
// creation and never changes; Name is unique across the directory.
type Account struct {
	ID            string
	Name          string
	Configuration []byte
	Credential    *Credential
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether a secret has been set for the account.
func (a *Account) HasPassword() bool {
	return a != nil && a.Credential != nil
}

// Clone returns a deep copy so callers can hand accounts across goroutines
// without sharing byte slices.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Configuration = append([]byte(nil), a.Configuration...)
	c.Credential = a.Credential.Clone()
	return &c
}

// AccountRename records one name change of an account.
type AccountRename struct {
	AccountID string
	OldName   string
	NewName   string
	RenamedAt time.Time
}
