package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
)

func testIntent() models.OrderIntent {
	return models.OrderIntent{
		Pair: models.AssetPair{
			Base:    models.AssetRef{Native: true},
			Counter: models.AssetRef{Code: "USDC", Issuer: "GATEST"},
		},
		Side:     models.SideBuy,
		Quantity: decimal.NewFromInt(5),
		Price:    decimal.NewFromFloat(1.25),
		OfferID:  1,
	}
}

func TestSubmissionIndexRecordAndSeen(t *testing.T) {
	idx, err := OpenSubmissionIndex(filepath.Join(t.TempDir(), "submissions.db"))
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()

	seen, err := idx.Seen(ctx, "cafebabe")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, idx.Record(ctx, "cafebabe", testIntent()))

	seen, err = idx.Seen(ctx, "cafebabe")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSubmissionIndexDuplicateRecordIsNoOp(t *testing.T) {
	idx, err := OpenSubmissionIndex(filepath.Join(t.TempDir(), "submissions.db"))
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Record(ctx, "deadbeef", testIntent()))
	require.NoError(t, idx.Record(ctx, "deadbeef", testIntent()))

	seen, err := idx.Seen(ctx, "deadbeef")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSubmissionIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.db")
	ctx := context.Background()

	idx, err := OpenSubmissionIndex(path)
	require.NoError(t, err)
	require.NoError(t, idx.Record(ctx, "abc123", testIntent()))
	require.NoError(t, idx.Close())

	reopened, err := OpenSubmissionIndex(path)
	require.NoError(t, err)
	defer reopened.Close()

	seen, err := reopened.Seen(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, seen, "hash must survive a restart")
}
