package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/potion-shop/ledger"
	"github.com/warp/potion-shop/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func entry(r ledger.Resource, change int64) ledger.Entry {
	return ledger.Entry{Resource: r, Change: change, Context: "test"}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestBalanceOf_EmptyLedger_IsZero(t *testing.T) {
	agg := ledger.NewAggregator(memory.New())

	for _, r := range ledger.AllResources {
		got, err := agg.BalanceOf(context.Background(), r)
		require.NoError(t, err)
		assert.Zero(t, got, r)
	}
}

func TestBalanceOf_EqualsSignedSum(t *testing.T) {
	// GIVEN: a mixed sequence of credits and debits across resources
	// THEN: each balance is the exact sum of its own changes

	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store)

	changes := map[ledger.Resource][]int64{
		ledger.Gold:        {100, -60, 25, -5},
		ledger.RedML:       {500, -250, 100},
		ledger.GreenPotion: {3, -1, -2, 7},
	}
	want := make(map[ledger.Resource]int64)
	for r, cs := range changes {
		for _, c := range cs {
			require.NoError(t, l.Post(ctx, entry(r, c)))
			want[r] += c
		}
	}

	agg := ledger.NewAggregator(store)
	for r, w := range want {
		got, err := agg.BalanceOf(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, w, got, r)
	}
	blue, err := agg.BalanceOf(ctx, ledger.BlueML)
	require.NoError(t, err)
	assert.Zero(t, blue)
}

func TestBalancesOf_UnknownResource(t *testing.T) {
	_, err := ledger.NewAggregator(memory.New()).BalancesOf(context.Background(), "mithril")
	assert.ErrorIs(t, err, ledger.ErrUnknownResource)
	assert.True(t, ledger.IsClientError(err))
}

func TestAudit_SumsPools(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, ledger.New(store).Post(ctx,
		entry(ledger.Gold, 120),
		entry(ledger.RedML, 100),
		entry(ledger.DarkML, 50),
		entry(ledger.BluePotion, 4),
		entry(ledger.GreenPotion, 2),
		entry(ledger.MLCapacity, 1),
	))

	audit, err := ledger.NewAggregator(store).Audit(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.Audit{Gold: 120, MLInBarrels: 150, NumberOfPotions: 6}, audit)
}

// =============================================================================
// WRITER INVARIANTS
// =============================================================================

func TestPost_Overdraft_RejectedAndNothingWritten(t *testing.T) {
	// GIVEN: 50 gold
	// WHEN: a batch credits red ml and debits 60 gold
	// THEN: InsufficientBalanceError, and the ml credit was not written

	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store)
	require.NoError(t, l.Post(ctx, entry(ledger.Gold, 50)))

	err := l.Post(ctx, entry(ledger.RedML, 500), entry(ledger.Gold, -60))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	var ibe *ledger.InsufficientBalanceError
	require.True(t, errors.As(err, &ibe))
	assert.Equal(t, ledger.Gold, ibe.Resource)
	assert.EqualValues(t, 50, ibe.Available)
	assert.EqualValues(t, 60, ibe.Requested)

	b, err := ledger.NewAggregator(store).BalancesOf(ctx, ledger.Gold, ledger.RedML)
	require.NoError(t, err)
	assert.EqualValues(t, 50, b.Get(ledger.Gold))
	assert.Zero(t, b.Get(ledger.RedML))
}

func TestPost_RunningSumCheckedInOrder(t *testing.T) {
	// A debit before its matching credit in the same batch is refused even
	// though the batch total is zero.
	ctx := context.Background()
	l := ledger.New(memory.New())

	err := l.Post(ctx, entry(ledger.RedPotion, -1), entry(ledger.RedPotion, 1))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	require.NoError(t, l.Post(ctx, entry(ledger.RedPotion, 1), entry(ledger.RedPotion, -1)))
}

func TestPost_SkipsZeroChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store)

	require.NoError(t, l.Post(ctx, entry(ledger.Gold, 0), entry(ledger.RedML, 10), entry(ledger.BlueML, 0)))

	entries, err := l.Entries(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.RedML, entries[0].Resource)
	assert.NotZero(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestPost_UnknownResource(t *testing.T) {
	err := ledger.New(memory.New()).Post(context.Background(), entry("gems", 1))
	assert.ErrorIs(t, err, ledger.ErrUnknownResource)
}

func TestEntries_NewestFirstWithFilter(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(memory.New())
	require.NoError(t, l.Post(ctx, entry(ledger.Gold, 1)))
	require.NoError(t, l.Post(ctx, entry(ledger.RedML, 2)))
	require.NoError(t, l.Post(ctx, entry(ledger.Gold, 3)))

	entries, err := l.Entries(ctx, ledger.Filter{Resources: []ledger.Resource{ledger.Gold}})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.EqualValues(t, 3, entries[0].Change)
	assert.EqualValues(t, 1, entries[1].Change)

	entries, err = l.Entries(ctx, ledger.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0].Change)
}

// =============================================================================
// RESOURCES
// =============================================================================

func TestParseResource(t *testing.T) {
	r, err := ledger.ParseResource(" red_ml ")
	require.NoError(t, err)
	assert.Equal(t, ledger.RedML, r)

	_, err = ledger.ParseResource("purple_ml")
	assert.ErrorIs(t, err, ledger.ErrUnknownResource)
}
