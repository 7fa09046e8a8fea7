package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func irpef() generic.Table {
	return generic.Table{
		ID:           "it-irpef",
		Name:         "IRPEF",
		Jurisdiction: "it",
		Year:         2024,
		Currency:     generic.EUR,
		Brackets: []generic.Bracket{
			generic.UpTo(28000, "0.23"),
			generic.UpTo(50000, "0.35"),
			generic.Above("0.43"),
		},
	}
}

func calculation(id, key string, at time.Time) generic.Calculation {
	return generic.Calculation{
		ID:             generic.CalculationID(id),
		Kind:           "evaluate",
		TableID:        "it-irpef",
		Year:           2024,
		Input:          map[string]any{"base": "40000"},
		Result:         generic.Evaluate(generic.MustParseDecimal("40000"), irpef()),
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

func TestSaveGet_RoundTripsResult(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, calculation("c1", "k1", at)))

	got, err := store.Get(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, "evaluate", got.Kind)
	assert.Equal(t, generic.TableID("it-irpef"), got.TableID)
	assert.Equal(t, "40000", got.Input["base"])
	assert.True(t, at.Equal(got.CreatedAt))
	assert.Equal(t, "10640", got.Result.TotalTax.String())
	require.Len(t, got.Result.Breakdown, 2)
	assert.Equal(t, "28000", got.Result.Breakdown[0].To.Decimal.String())
}

func TestGet_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, generic.ErrCalculationNotFound))
}

func TestSave_RejectsDuplicateIdempotencyKey(t *testing.T) {
	// GIVEN: A saved calculation with key k1
	// WHEN: Saving another calculation with the same key
	// THEN: ErrDuplicateIdempotencyKey, only one row exists
	ctx := context.Background()
	store := newStore(t)
	now := time.Now()

	require.NoError(t, store.Save(ctx, calculation("c1", "k1", now)))
	err := store.Save(ctx, calculation("c2", "k1", now))
	assert.True(t, errors.Is(err, generic.ErrDuplicateIdempotencyKey))

	// empty keys never collide
	require.NoError(t, store.Save(ctx, calculation("c3", "", now)))
	require.NoError(t, store.Save(ctx, calculation("c4", "", now)))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, calculation(fmt.Sprintf("c%d", i), "", base.Add(time.Duration(i)*time.Hour))))
	}

	got, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.CalculationID("c4"), got[0].ID)
	assert.Equal(t, generic.CalculationID("c3"), got[1].ID)
}

func TestTables_SaveReplaceLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	t2024 := irpef()
	t2023 := irpef()
	t2023.Year = 2023
	require.NoError(t, store.SaveTable(ctx, t2024))
	require.NoError(t, store.SaveTable(ctx, t2023))

	// same id and year replaces
	t2024.Name = "IRPEF 2024"
	require.NoError(t, store.SaveTable(ctx, t2024))

	tables, err := store.LoadTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 2023, tables[0].Year)
	assert.Equal(t, "IRPEF 2024", tables[1].Name)
	assert.True(t, tables[1].Brackets[2].Unbounded())
	assert.NoError(t, tables[1].Validate())
}

func TestNew_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brackets.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveTable(ctx, irpef()))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	tables, err := reopened.LoadTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestGet_CorruptCreatedAt(t *testing.T) {
	// GIVEN: A saved calculation whose created_at was rewritten outside the store
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brackets.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, calculation("c1", "", time.Now())))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE calculations SET created_at = 'yesterday' WHERE id = 'c1'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// WHEN: Reading it back
	_, err = reopened.Get(ctx, "c1")

	// THEN: The bad timestamp is reported instead of a zero time
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at of c1")

	_, err = reopened.List(ctx, 10)
	assert.Error(t, err)
}
