package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

// CreateOpportunity is the only mutating operation. The store runs it in a
// single transaction; a duplicate active record yields ConflictError.
func (e *Engine) CreateOpportunity(ctx context.Context, in storex.NewOpportunity) contractx.QueryResult {
	return e.run(ctx, contractx.ToolCreateOpportunity, func(ctx context.Context) (any, error) {
		in = normalizeNewOpportunity(in)
		if err := e.validate.StructCtx(ctx, in); err != nil {
			return nil, fmt.Errorf("%w: %s", contractx.ErrValidation, describeValidation(err))
		}

		created, err := e.store.CreateOpportunity(ctx, in)
		if err != nil {
			return nil, err
		}
		return contractx.OpportunityCreated{
			Created:     true,
			Opportunity: leadDetail(created),
			Currency:    e.cfg.Currency,
		}, nil
	})
}

func normalizeNewOpportunity(in storex.NewOpportunity) storex.NewOpportunity {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if in.Type == "" {
		in.Type = storex.RecordTypeOpportunity
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.StageName = strings.TrimSpace(in.StageName)
	in.Salesperson = strings.TrimSpace(in.Salesperson)
	return in
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
