package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func newDemoMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	require.NoError(t, st.Seed(context.Background(), DemoFixture()))
	return st
}

func TestMemoryStoreSearchProductsOrFilter(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	where := And(
		Where(FieldActive, OpEq, true),
		Or(
			Where(FieldName, OpILike, "SILLA"),
			Where(FieldDescription, OpILike, "silla"),
			Where(FieldCategory, OpILike, "silla"),
		),
	)
	rows, err := st.SearchProducts(context.Background(), where, Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Silla ergonómica", rows[0].Name)
	assert.Equal(t, "Muebles", rows[0].Category)
}

func TestMemoryStoreOrderAndLimit(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	rows, err := st.SearchProducts(context.Background(),
		Where(FieldType, OpEq, ProductTypeStorable),
		Page{Limit: 2, Order: []Order{OrderBy(FieldQtyAvailable, true)}},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Cuaderno A4", rows[0].Name)
	assert.Equal(t, "Escritorio de roble", rows[1].Name)
}

func TestMemoryStoreNullStageCondition(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	rows, err := st.SearchOpportunities(context.Background(), Where(FieldStageID, OpEq, nil), Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, RecordTypeLead, rows[0].Type)
}

func TestMemoryStoreUnknownField(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	_, err := st.SearchProducts(context.Background(), Where("colour", OpEq, "red"), Page{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contractx.ErrDataAccess))
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestMemoryStoreGroupByStage(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	groups, err := st.GroupOpportunitiesByStage(context.Background(), And(
		Where(FieldType, OpEq, RecordTypeOpportunity),
		Where(FieldActive, OpEq, true),
	))
	require.NoError(t, err)
	require.Len(t, groups, 4)

	var total float64
	for _, g := range groups {
		assert.Equal(t, 1, g.Count)
		total += g.Revenue
	}
	assert.InDelta(t, 20800, total, 0.001)
}

func TestMemoryStoreQuotationsByProduct(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	rows, err := st.SearchQuotations(context.Background(), And(
		Where(FieldProductID, OpIn, []int64{1}),
		Where(FieldState, OpIn, []string{QuotationDraft, QuotationSent}),
	), Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "S00012", rows[0].Name)
	require.Len(t, rows[0].Lines, 2)
	assert.Equal(t, float64(3), rows[0].Lines[0].QtyAvailable)
}

func TestMemoryStoreCreateOpportunityFirstWriterWins(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	in := NewOpportunity{Name: "Mesas comedor", Type: RecordTypeOpportunity, CustomerName: "Nuevo Cliente SA"}

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.CreateOpportunity(context.Background(), in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, contractx.ErrConflict):
				conflicts++
			default:
				t.Errorf("CreateOpportunity() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)

	rows, err := st.SearchOpportunities(context.Background(), Where(FieldName, OpEq, "Mesas comedor"), Page{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Nuevo", rows[0].StageName())
	assert.Equal(t, "Nuevo Cliente SA", rows[0].CustomerName())
}

func TestMemoryStoreCreateOpportunityReusesPartnerByEmail(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	opp, err := st.CreateOpportunity(context.Background(), NewOpportunity{
		Name:      "Ampliación",
		Type:      RecordTypeOpportunity,
		Email:     "COMPRAS@acme.example",
		StageName: "propu",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", opp.CustomerName())
	assert.Equal(t, "Propuesta", opp.StageName())
}

func TestMemoryStoreCreateOpportunityConflictsWithSeededRecord(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	_, err := st.CreateOpportunity(context.Background(), NewOpportunity{
		Name:         "renovación  mobiliario ACME",
		Type:         RecordTypeOpportunity,
		CustomerName: "acme corp",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contractx.ErrConflict))

	n, err := st.CountOpportunities(context.Background(), Where(FieldName, OpILike, "Renovación mobiliario Acme"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStoreCreateOpportunityConflictsWithMaterialisedRecord(t *testing.T) {
	t.Parallel()
	st := NewMemoryStoreWith(nil, nil, []Opportunity{
		{ID: 1, Name: "Soporte anual", Type: RecordTypeLead, Active: true, Partner: &Partner{ID: 9, Name: "Initech"}},
		{ID: 2, Name: "Licencias", Type: RecordTypeOpportunity, Active: false, Partner: &Partner{ID: 9, Name: "Initech"}},
	})

	_, err := st.CreateOpportunity(context.Background(), NewOpportunity{Name: "Soporte anual", Type: RecordTypeLead, CustomerName: "Initech"})
	assert.True(t, errors.Is(err, contractx.ErrConflict))

	// Archived records do not block a new one.
	_, err = st.CreateOpportunity(context.Background(), NewOpportunity{Name: "Licencias", Type: RecordTypeOpportunity, CustomerName: "Initech"})
	assert.NoError(t, err)

	// Same name for another customer is a different record.
	_, err = st.CreateOpportunity(context.Background(), NewOpportunity{Name: "Soporte anual", Type: RecordTypeLead, CustomerName: "Globex"})
	assert.NoError(t, err)
}

func TestMemoryStoreILikeIgnoresAccents(t *testing.T) {
	t.Parallel()
	st := newDemoMemoryStore(t)

	for _, term := range []string{"silla ergonomica", "SILLA ERGONÓMICA", "Ergonómica"} {
		rows, err := st.SearchProducts(context.Background(), Where(FieldName, OpILike, term), Page{})
		require.NoError(t, err)
		require.Len(t, rows, 1, term)
		assert.Equal(t, "Silla ergonómica", rows[0].Name)
	}
}
