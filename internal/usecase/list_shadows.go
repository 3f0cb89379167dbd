package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/shadow-fork/shadow-cli/internal/domain"
)

// ListShadowsResult contains the result of listing shadow contracts
type ListShadowsResult struct {
	Shadows []*domain.ShadowContract
}

// ListShadows is the use case for listing recorded shadow contracts
type ListShadows struct {
	store ShadowStore
	sink  ProgressSink
}

// NewListShadows creates a new ListShadows use case
func NewListShadows(store ShadowStore, sink ProgressSink) *ListShadows {
	return &ListShadows{
		store: store,
		sink:  sink,
	}
}

// Execute lists shadow contracts, oldest deployment first
func (uc *ListShadows) Execute(ctx context.Context) (*ListShadowsResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading shadow contracts",
		Spinner: true,
	})

	shadows, err := uc.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrShadowStore, err)
	}

	sortShadows(shadows)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Shadow contracts loaded",
	})

	return &ListShadowsResult{Shadows: shadows}, nil
}

// sortShadows sorts by deployment time, then address for equal times
func sortShadows(shadows []*domain.ShadowContract) {
	sort.SliceStable(shadows, func(i, j int) bool {
		a, b := shadows[i], shadows[j]
		if !a.DeployedAt.Equal(b.DeployedAt) {
			return a.DeployedAt.Before(b.DeployedAt)
		}
		return a.Address.Cmp(b.Address) < 0
	})
}
