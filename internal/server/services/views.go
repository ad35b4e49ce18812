package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/accountkeeper/internal/server/library"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// ViewAssembler builds AccountViews. Views are rebuilt on every call.
type ViewAssembler struct {
	library library.Summarizer
	limit   int
}

// NewViewAssembler returns an assembler that builds at most limit views at
// once; limit < 1 means no bound.
func NewViewAssembler(l library.Summarizer, limit int) *ViewAssembler {
	return &ViewAssembler{library: l, limit: limit}
}

func (v *ViewAssembler) BuildOne(ctx context.Context, a *models.Account) (*models.AccountView, error) {
	summary, err := v.library.SummarizeAccessFor(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("error summarizing libraries of %s: %w", a.ID, err)
	}
	return &models.AccountView{
		ID:            a.ID,
		Name:          a.Name,
		HasPassword:   a.HasPassword(),
		Configuration: append([]byte(nil), a.Configuration...),
		Library:       summary,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}, nil
}

// BuildMany returns one view per account ordered by name, byte-wise
// ascending with ties kept in input order. Views are built concurrently and
// the first failure fails the whole batch. accounts is not modified.
func (v *ViewAssembler) BuildMany(ctx context.Context, accounts []*models.Account) ([]*models.AccountView, error) {
	sorted := append([]*models.Account(nil), accounts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	views := make([]*models.AccountView, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	if v.limit > 0 {
		g.SetLimit(v.limit)
	}
	for i, a := range sorted {
		g.Go(func() error {
			view, err := v.BuildOne(gctx, a)
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
