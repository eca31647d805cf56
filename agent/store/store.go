package store

import (
	"context"
	"errors"
)

var ErrUnknownField = errors.New("unknown field")

// Store is the read surface over the ERP records plus the single write
// path. Every error is wrapped with contract.ErrDataAccess, except duplicate
// creation, which wraps contract.ErrConflict.
type Store interface {
	SearchProducts(ctx context.Context, where Term, page Page) ([]Product, error)
	CountProducts(ctx context.Context, where Term) (int, error)

	SearchOpportunities(ctx context.Context, where Term, page Page) ([]Opportunity, error)
	CountOpportunities(ctx context.Context, where Term) (int, error)
	GroupOpportunitiesByStage(ctx context.Context, where Term) ([]StageGroup, error)

	SearchStages(ctx context.Context, where Term, page Page) ([]Stage, error)
	SearchQuotations(ctx context.Context, where Term, page Page) ([]Quotation, error)

	CreateOpportunity(ctx context.Context, in NewOpportunity) (Opportunity, error)
}

// Seeder loads a fixture into an empty store.
type Seeder interface {
	Seed(ctx context.Context, fx *Fixture) error
}
