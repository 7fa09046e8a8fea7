package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/generic/store"
)

func calc(id string, key string, at time.Time) generic.Calculation {
	return generic.Calculation{
		ID:             generic.CalculationID(id),
		Kind:           "evaluate",
		TableID:        "it-irpef",
		Year:           2024,
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

func TestMemory_SaveGet(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.Save(ctx, calc("c1", "k1", time.Now())))

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, generic.TableID("it-irpef"), got.TableID)

	_, err = m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, generic.ErrCalculationNotFound))
}

func TestMemory_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.Save(ctx, calc("c1", "same", time.Now())))
	err := m.Save(ctx, calc("c2", "same", time.Now()))

	assert.True(t, errors.Is(err, generic.ErrDuplicateIdempotencyKey))
	_, err = m.Get(ctx, "c2")
	assert.Error(t, err, "rejected calculation must not be stored")
}

func TestMemory_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Save(ctx, calc("old", "", base)))
	require.NoError(t, m.Save(ctx, calc("new", "", base.Add(time.Hour))))
	require.NoError(t, m.Save(ctx, calc("mid", "", base.Add(time.Minute))))

	got, err := m.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, generic.CalculationID("new"), got[0].ID)
	assert.Equal(t, generic.CalculationID("mid"), got[1].ID)
}

func TestMemory_Tables(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveTable(ctx, generic.Table{ID: "b", Year: 2024}))
	require.NoError(t, m.SaveTable(ctx, generic.Table{ID: "a", Year: 2025}))
	require.NoError(t, m.SaveTable(ctx, generic.Table{ID: "a", Year: 2024}))

	got, err := m.LoadTables(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, generic.TableID("a"), got[0].ID)
	assert.Equal(t, 2024, got[0].Year)
}
