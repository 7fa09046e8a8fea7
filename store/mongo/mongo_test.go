package mongo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalkit/bracket-engine/generic"
	"github.com/fiscalkit/bracket-engine/store/mongo"
)

// newStore connects to MONGO_URI using a throwaway database.
func newStore(t *testing.T) *mongo.Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := mongo.New(ctx, uri, "bracket_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func irpef() generic.Table {
	return generic.Table{
		ID:       "it-irpef",
		Year:     2024,
		Currency: generic.EUR,
		Brackets: []generic.Bracket{
			generic.UpTo(28000, "0.23"),
			generic.UpTo(50000, "0.35"),
			generic.Above("0.43"),
		},
	}
}

func TestMongo_Calculations(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, generic.Calculation{
			ID:             generic.CalculationID(fmt.Sprintf("c%d", i)),
			Kind:           "evaluate",
			Result:         generic.Evaluate(generic.MustParseDecimal("60000"), irpef()),
			IdempotencyKey: fmt.Sprintf("k%d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	err := store.Save(ctx, generic.Calculation{ID: "c9", Kind: "evaluate", IdempotencyKey: "k0"})
	assert.True(t, errors.Is(err, generic.ErrDuplicateIdempotencyKey))

	got, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "18440", got.Result.TotalTax.String())
	assert.False(t, got.Result.Breakdown[2].To.Valid)

	list, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, generic.CalculationID("c2"), list[0].ID)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, generic.ErrCalculationNotFound))
}

func TestMongo_Tables(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTable(ctx, irpef()))
	require.NoError(t, store.SaveTable(ctx, irpef()))

	tables, err := store.LoadTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.NoError(t, tables[0].Validate())
}
