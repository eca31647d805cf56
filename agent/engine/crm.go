package engine

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

// NoStageLabel names the bucket of records without a stage.
const NoStageLabel = "Sin etapa"

type OpportunityStatus string

const (
	StatusOpen     OpportunityStatus = "open"
	StatusWon      OpportunityStatus = "won"
	StatusLost     OpportunityStatus = "lost"
	StatusArchived OpportunityStatus = "archived"
)

// Classify is the only place the open/won/lost partition is decided. Stage
// flags win; probability only matters for archived records.
func Classify(o storex.Opportunity) OpportunityStatus {
	isWon := o.Stage != nil && o.Stage.IsWon
	isLost := o.Stage != nil && o.Stage.IsLost

	switch {
	case o.Active && isWon:
		return StatusWon
	case o.Active && isLost:
		return StatusLost
	case o.Active:
		return StatusOpen
	case o.Probability == 0:
		return StatusLost
	default:
		return StatusArchived
	}
}

func opportunitiesOnly() storex.Term {
	return storex.Where(storex.FieldType, storex.OpEq, storex.RecordTypeOpportunity)
}

func activeOpportunities() storex.Term {
	return storex.And(opportunitiesOnly(), storex.Where(storex.FieldActive, storex.OpEq, true))
}

func (e *Engine) CRMSummary(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolCRMSummary, func(ctx context.Context) (any, error) {
		rows, err := e.store.SearchOpportunities(ctx, opportunitiesOnly(), storex.Page{})
		if err != nil {
			return nil, err
		}

		out := contractx.CRMSummary{Currency: e.cfg.Currency}
		revenue := decimal.Zero
		for _, o := range rows {
			switch Classify(o) {
			case StatusOpen:
				out.OpenOpportunities++
				revenue = revenue.Add(dec(o.ExpectedRevenue))
			case StatusWon:
				out.WonOpportunities++
			case StatusLost:
				out.LostOpportunities++
			}
		}
		out.TotalOpportunities = out.OpenOpportunities + out.WonOpportunities + out.LostOpportunities
		out.TotalExpectedRevenue = money(revenue)
		return out, nil
	})
}

func (e *Engine) OpenOpportunityCount(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolOpenOpportunityCount, func(ctx context.Context) (any, error) {
		rows, err := e.store.SearchOpportunities(ctx, activeOpportunities(), storex.Page{})
		if err != nil {
			return nil, err
		}
		var n int
		for _, o := range rows {
			if Classify(o) == StatusOpen {
				n++
			}
		}
		return contractx.OpenOpportunityCount{OpenOpportunities: n}, nil
	})
}

// stageGroups joins the grouped aggregation with the stage list. Stages
// without rows are left out; the stage-less bucket comes back separately.
func (e *Engine) stageGroups(ctx context.Context) ([]storex.Stage, map[int64]storex.StageGroup, error) {
	groups, err := e.store.GroupOpportunitiesByStage(ctx, activeOpportunities())
	if err != nil {
		return nil, nil, err
	}
	byStage := make(map[int64]storex.StageGroup, len(groups))
	for _, g := range groups {
		byStage[g.StageID] = g
	}

	stages, err := e.store.SearchStages(ctx, nil, storex.Page{Order: byStageOrder})
	if err != nil {
		return nil, nil, err
	}
	used := make([]storex.Stage, 0, len(stages))
	for _, st := range stages {
		if g, ok := byStage[st.ID]; ok && g.Count > 0 {
			used = append(used, st)
		}
	}
	return used, byStage, nil
}

func (e *Engine) OpportunitiesByStage(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolOpportunitiesByStage, func(ctx context.Context) (any, error) {
		stages, groups, err := e.stageGroups(ctx)
		if err != nil {
			return nil, err
		}

		buckets := make([]contractx.StageBucket, 0, len(stages))
		for _, st := range stages {
			g := groups[st.ID]
			buckets = append(buckets, contractx.StageBucket{
				StageID:         st.ID,
				StageName:       st.Name,
				Sequence:        st.Sequence,
				Count:           g.Count,
				ExpectedRevenue: money(dec(g.Revenue)),
			})
		}
		return contractx.OpportunitiesByStage{
			Stages:      buckets,
			TotalStages: len(buckets),
			Currency:    e.cfg.Currency,
		}, nil
	})
}

func (e *Engine) PipelineSummary(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolPipelineSummary, func(ctx context.Context) (any, error) {
		stages, groups, err := e.stageGroups(ctx)
		if err != nil {
			return nil, err
		}

		out := contractx.PipelineSummary{
			Stages:   make([]contractx.PipelineStage, 0, len(stages)+1),
			Currency: e.cfg.Currency,
		}
		revenue := decimal.Zero
		add := func(name string, sequence int, g storex.StageGroup) {
			r := dec(g.Revenue)
			out.Stages = append(out.Stages, contractx.PipelineStage{
				Stage:       name,
				Sequence:    sequence,
				Count:       g.Count,
				Revenue:     money(r),
				AverageDeal: money(average(r, g.Count)),
			})
			out.TotalOpportunities += g.Count
			revenue = revenue.Add(r)
		}
		for _, st := range stages {
			add(st.Name, st.Sequence, groups[st.ID])
		}
		if g, ok := groups[0]; ok && g.Count > 0 {
			last := 0
			if n := len(stages); n > 0 {
				last = stages[n-1].Sequence + 1
			}
			add(NoStageLabel, last, g)
		}

		out.TotalStages = len(out.Stages)
		out.TotalRevenue = money(revenue)
		out.AverageDeal = money(average(revenue, out.TotalOpportunities))
		return out, nil
	})
}

func average(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

func (e *Engine) ListOpenOpportunities(ctx context.Context, limit int) contractx.QueryResult {
	if limit <= 0 {
		limit = e.cfg.OpenListLimit
	}
	return e.run(ctx, contractx.ToolListOpenOpportunities, func(ctx context.Context) (any, error) {
		rows, err := e.store.SearchOpportunities(ctx, activeOpportunities(), storex.Page{Order: []storex.Order{
			storex.OrderBy(storex.FieldProbability, true),
			storex.OrderBy(storex.FieldExpectedRevenue, true),
			storex.OrderBy(storex.FieldID, false),
		}})
		if err != nil {
			return nil, err
		}

		out := contractx.OpenOpportunities{
			Opportunities: make([]contractx.OpportunityRow, 0, limit),
			Currency:      e.cfg.Currency,
		}
		total := decimal.Zero
		for _, o := range rows {
			if Classify(o) != StatusOpen {
				continue
			}
			if len(out.Opportunities) == limit {
				break
			}
			r := dec(o.ExpectedRevenue)
			total = total.Add(r)
			out.Opportunities = append(out.Opportunities, contractx.OpportunityRow{
				ID:              o.ID,
				Name:            o.Name,
				Customer:        o.CustomerName(),
				Stage:           o.StageName(),
				Probability:     o.Probability,
				ExpectedRevenue: o.ExpectedRevenue,
				WeightedRevenue: money(r.Mul(dec(o.Probability)).Div(decimal.NewFromInt(100))),
			})
		}
		out.Count = len(out.Opportunities)
		out.TotalRevenue = money(total)
		return out, nil
	})
}

func (e *Engine) SearchByStage(ctx context.Context, stage string) contractx.QueryResult {
	stage = strings.TrimSpace(stage)
	return e.run(ctx, contractx.ToolSearchByStage, func(ctx context.Context) (any, error) {
		stages, err := e.store.SearchStages(ctx,
			storex.Where(storex.FieldName, storex.OpILike, stage),
			storex.Page{Order: byStageOrder},
		)
		if err != nil {
			return nil, err
		}

		out := contractx.StageSearch{
			Stage:         stage,
			MatchedStages: make([]string, 0, len(stages)),
			Records:       make([]contractx.CRMRecordRow, 0),
		}
		if len(stages) == 0 {
			return out, nil
		}
		ids := make([]int64, 0, len(stages))
		for _, st := range stages {
			ids = append(ids, st.ID)
			out.MatchedStages = append(out.MatchedStages, st.Name)
		}

		rows, err := e.store.SearchOpportunities(ctx,
			storex.And(
				storex.Where(storex.FieldActive, storex.OpEq, true),
				storex.Where(storex.FieldStageID, storex.OpIn, ids),
			),
			storex.Page{Limit: e.cfg.StageSearchLimit},
		)
		if err != nil {
			return nil, err
		}
		for _, o := range rows {
			out.Records = append(out.Records, contractx.CRMRecordRow{
				ID:    o.ID,
				Name:  o.Name,
				Type:  o.Type,
				Stage: o.StageName(),
			})
		}
		out.Count = len(out.Records)
		return out, nil
	})
}

func (e *Engine) LeadInfo(ctx context.Context, name string) contractx.QueryResult {
	name = strings.TrimSpace(name)
	return e.run(ctx, contractx.ToolLeadInfo, func(ctx context.Context) (any, error) {
		rows, err := e.store.SearchOpportunities(ctx,
			storex.And(
				storex.Where(storex.FieldActive, storex.OpEq, true),
				storex.Or(
					storex.Where(storex.FieldName, storex.OpILike, name),
					storex.Where(storex.FieldPartner, storex.OpILike, name),
				),
			),
			storex.Page{Limit: e.cfg.LeadLimit},
		)
		if err != nil {
			return nil, err
		}

		records := make([]contractx.LeadDetail, 0, len(rows))
		for _, o := range rows {
			records = append(records, leadDetail(o))
		}
		return contractx.LeadInfo{Term: name, Count: len(records), Records: records, Currency: e.cfg.Currency}, nil
	})
}

func leadDetail(o storex.Opportunity) contractx.LeadDetail {
	d := contractx.LeadDetail{
		ID:              o.ID,
		Name:            o.Name,
		Type:            o.Type,
		Stage:           o.StageName(),
		Customer:        o.CustomerName(),
		Salesperson:     o.Salesperson,
		Email:           o.Email,
		Phone:           o.Phone,
		Probability:     o.Probability,
		ExpectedRevenue: o.ExpectedRevenue,
	}
	if d.Email == "" && o.Partner != nil {
		d.Email = o.Partner.Email
	}
	if d.Phone == "" && o.Partner != nil {
		d.Phone = o.Partner.Phone
	}
	return d
}
