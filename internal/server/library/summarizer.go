// Package library reports which media libraries an account can reach. The
// catalog itself lives elsewhere; this package only summarises it for
// account view-models.
package library

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// Summarizer returns the media-access summary of one account.
type Summarizer interface {
	SummarizeAccessFor(ctx context.Context, accountID string) (models.LibrarySummary, error)
}

// NoLibraries is the Summarizer used when no catalog is configured.
type NoLibraries struct{}

func (NoLibraries) SummarizeAccessFor(context.Context, string) (models.LibrarySummary, error) {
	return models.LibrarySummary{Libraries: []string{}}, nil
}
