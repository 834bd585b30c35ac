package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
)

func newExecutor(t *testing.T, gw *fakeGateway, b *fakeBuilder, idx *fakeIndex) (*OrderExecutor, *RiskManager) {
	t.Helper()
	rm := NewRiskManager(RiskConfig{RiskPercent: 2, StopDistance: 0.1}, newTestLogger(t))
	// A nil *fakeIndex must become a nil interface, not a typed nil, so the
	// executor's index guard works.
	var index repository.SubmissionIndex
	if idx != nil {
		index = idx
	}
	return NewOrderExecutor(gw, b, index, rm, nopMetrics{}, newTestLogger(t), "GACCOUNT"), rm
}

func approved(qty, price int64) models.PositionSizeDecision {
	return models.PositionSizeDecision{
		Quantity: decimal.NewFromInt(qty),
		Price:    decimal.NewFromInt(price),
		Approved: true,
	}
}

func TestExecuteRejectsUnapprovedDecision(t *testing.T) {
	exec, _ := newExecutor(t, &fakeGateway{}, &fakeBuilder{}, nil)

	res := exec.Execute(context.Background(), testPair(), models.SideBuy, models.PositionSizeDecision{})
	assert.Equal(t, models.ExecutionFailed, res.Status)

	res = exec.Execute(context.Background(), testPair(), models.Side("short"), approved(1, 1))
	assert.Equal(t, models.ExecutionFailed, res.Status)
}

func TestExecuteInsufficientCounterBalanceOnBuy(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{account: snapshotWith(pair.Counter, "5")}
	b := &fakeBuilder{}
	exec, _ := newExecutor(t, gw, b, nil)

	// Needs 10 * 1 = 10 counter units, only 5 available.
	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(10, 1))

	assert.Equal(t, models.ExecutionRejectedBalance, res.Status)
	assert.NotEmpty(t, res.ErrorDetail)
	assert.Empty(t, b.intents, "no envelope should be built")
	assert.Equal(t, 0, gw.submitCalls)
}

func TestExecuteInsufficientBaseBalanceOnSell(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{account: snapshotWith(pair.Counter, "1000")} // no base at all
	exec, _ := newExecutor(t, gw, &fakeBuilder{}, nil)

	res := exec.Execute(context.Background(), pair, models.SideSell, approved(10, 1))
	assert.Equal(t, models.ExecutionRejectedBalance, res.Status)
}

func TestExecuteOfferIDsIncreaseMonotonically(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		receipt: repository.SubmitReceipt{Hash: "abc", Ledger: 1},
	}
	b := &fakeBuilder{}
	exec, _ := newExecutor(t, gw, b, nil)

	for i := 0; i < 3; i++ {
		res := exec.Execute(context.Background(), pair, models.SideBuy, approved(1, 1))
		require.Equal(t, models.ExecutionSubmitted, res.Status)
	}

	require.Len(t, b.intents, 3)
	assert.Equal(t, int64(1), b.intents[0].OfferID)
	assert.Equal(t, int64(2), b.intents[1].OfferID)
	assert.Equal(t, int64(3), b.intents[2].OfferID)
	assert.Equal(t, int64(4), exec.NextOfferID())
}

func TestExecuteLedgerRejectionIsNotRetryable(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account:   snapshotWith(pair.Counter, "1000"),
		submitErr: &repository.LedgerError{ResultCode: "op_underfunded", Detail: "offer"},
	}
	exec, _ := newExecutor(t, gw, &fakeBuilder{}, nil)

	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(1, 1))

	assert.Equal(t, models.ExecutionRejectedByNetwork, res.Status)
	assert.Contains(t, res.ErrorDetail, "op_underfunded")
}

func TestExecuteTransportFailure(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account:   snapshotWith(pair.Counter, "1000"),
		submitErr: errors.New("connection reset"),
	}
	exec, _ := newExecutor(t, gw, &fakeBuilder{}, nil)

	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(1, 1))
	assert.Equal(t, models.ExecutionFailed, res.Status)
}

func TestExecuteBuildFailure(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{account: snapshotWith(pair.Counter, "1000")}
	exec, _ := newExecutor(t, gw, &fakeBuilder{err: errors.New("bad asset")}, nil)

	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(1, 1))
	assert.Equal(t, models.ExecutionRejectedByNetwork, res.Status)
	assert.Equal(t, 0, gw.submitCalls)
}

func TestExecuteSuccessRecordsHashAndFill(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		receipt: repository.SubmitReceipt{Hash: "deadbeef", Ledger: 42},
	}
	idx := &fakeIndex{}
	exec, rm := newExecutor(t, gw, &fakeBuilder{}, idx)

	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(2, 3))

	require.Equal(t, models.ExecutionSubmitted, res.Status)
	assert.Equal(t, "deadbeef", res.LedgerHash)
	assert.Equal(t, int64(1), res.OfferID)

	// The index key is the envelope hash, computable before the submit.
	seen, err := idx.Seen(context.Background(), envelopeHash(repository.SignedEnvelope{Base64: "AAAA"}))
	require.NoError(t, err)
	assert.True(t, seen)

	buy, _ := rm.LastPrices()
	assert.True(t, buy.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 1, rm.Stats().TradeCount)
}

func TestExecuteSkipsDuplicateEnvelope(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		receipt: repository.SubmitReceipt{Hash: "deadbeef", Ledger: 42},
	}
	idx := &fakeIndex{}
	exec, _ := newExecutor(t, gw, &fakeBuilder{}, idx)

	res := exec.Execute(context.Background(), pair, models.SideBuy, approved(2, 3))
	require.Equal(t, models.ExecutionSubmitted, res.Status)

	// The fake builder signs every intent to the same blob, so the second
	// execute produces an envelope the index has already seen.
	res = exec.Execute(context.Background(), pair, models.SideBuy, approved(2, 3))
	assert.Equal(t, models.ExecutionSkippedDuplicate, res.Status)
	assert.Equal(t, 1, gw.submitCalls, "duplicate must not reach the ledger")
}

func TestExecuteSurvivesIndexAcrossProcessLives(t *testing.T) {
	pair := testPair()
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		receipt: repository.SubmitReceipt{Hash: "deadbeef", Ledger: 42},
	}
	idx := &fakeIndex{}

	first, _ := newExecutor(t, gw, &fakeBuilder{}, idx)
	require.Equal(t, models.ExecutionSubmitted,
		first.Execute(context.Background(), pair, models.SideBuy, approved(2, 3)).Status)

	// A fresh executor with a reset offer counter, same index: the replayed
	// envelope is caught even though the offer id repeats.
	second, _ := newExecutor(t, gw, &fakeBuilder{}, idx)
	res := second.Execute(context.Background(), pair, models.SideBuy, approved(2, 3))
	assert.Equal(t, models.ExecutionSkippedDuplicate, res.Status)
	assert.Equal(t, 1, gw.submitCalls)
}
