package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	xlogger "LumenTrade/pkg/logger"
)

// OrderExecutor turns an approved decision into exactly one signed
// manage-offer submission. Offer ids increase monotonically within the
// process and reset on restart; cross-restart de-duplication keys on the
// SHA-256 of the signed envelope via the submission index, checked before
// every submit.
type OrderExecutor struct {
	gateway   repository.LedgerGateway
	builder   repository.EnvelopeBuilder
	index     repository.SubmissionIndex // optional
	risk      *RiskManager
	metrics   repository.Metrics
	logger    *xlogger.Logger
	accountID string

	offerID atomic.Int64
}

func NewOrderExecutor(
	gateway repository.LedgerGateway,
	builder repository.EnvelopeBuilder,
	index repository.SubmissionIndex,
	risk *RiskManager,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	accountID string,
) *OrderExecutor {
	return &OrderExecutor{
		gateway:   gateway,
		builder:   builder,
		index:     index,
		risk:      risk,
		metrics:   metrics,
		logger:    logger,
		accountID: accountID,
	}
}

// Execute submits one order. The caller guarantees decision.Approved and a
// non-hold side; a hold reaching this point is a programming error.
func (e *OrderExecutor) Execute(ctx context.Context, pair models.AssetPair, side models.Side, decision models.PositionSizeDecision) models.ExecutionResult {
	if !decision.Approved || (side != models.SideBuy && side != models.SideSell) {
		return models.ExecutionResult{
			Status:      models.ExecutionFailed,
			ErrorDetail: fmt.Sprintf("executor called with unapproved decision or side %q", side),
		}
	}

	// Re-fetch the balance: time has passed since the sizing snapshot, and
	// this window is exactly where stale-balance submissions slip through.
	snapshot, err := e.gateway.LoadAccount(ctx, e.accountID)
	if err != nil {
		e.metrics.RecordError("balance_refetch")
		return models.ExecutionResult{Status: models.ExecutionFailed, ErrorDetail: err.Error()}
	}

	if reason, ok := e.sufficientBalance(pair, side, decision, snapshot); !ok {
		e.metrics.RecordOrder(side, models.ExecutionRejectedBalance)
		return models.ExecutionResult{Status: models.ExecutionRejectedBalance, ErrorDetail: reason}
	}

	intent := models.OrderIntent{
		Pair:     pair,
		Side:     side,
		Quantity: decision.Quantity,
		Price:    decision.Price,
		OfferID:  e.offerID.Add(1),
	}

	envelope, err := e.builder.BuildManageOffer(intent)
	if err != nil {
		// A build failure is permanent for this intent: the same inputs will
		// fail again.
		e.metrics.RecordOrder(side, models.ExecutionRejectedByNetwork)
		return models.ExecutionResult{Status: models.ExecutionRejectedByNetwork, OfferID: intent.OfferID, ErrorDetail: err.Error()}
	}

	hash := envelopeHash(envelope)
	if e.index != nil {
		seen, err := e.index.Seen(ctx, hash)
		if err != nil {
			// The index is a guard, not a gate: an unreadable index must not
			// stop trading.
			e.logger.Warn("submission index lookup failed",
				xlogger.String("hash", hash), xlogger.Error(err))
		} else if seen {
			e.logger.Warn("duplicate envelope, skipping submit",
				xlogger.String("pair", pair.String()),
				xlogger.String("hash", hash),
			)
			e.metrics.RecordOrder(side, models.ExecutionSkippedDuplicate)
			return models.ExecutionResult{
				Status:      models.ExecutionSkippedDuplicate,
				OfferID:     intent.OfferID,
				ErrorDetail: "envelope already submitted",
			}
		}
	}

	receipt, err := e.gateway.Submit(ctx, envelope)
	if err != nil {
		var le *repository.LedgerError
		if errors.As(err, &le) {
			e.metrics.RecordOrder(side, models.ExecutionRejectedByNetwork)
			return models.ExecutionResult{Status: models.ExecutionRejectedByNetwork, OfferID: intent.OfferID, ErrorDetail: le.Error()}
		}
		e.metrics.RecordOrder(side, models.ExecutionFailed)
		return models.ExecutionResult{Status: models.ExecutionFailed, OfferID: intent.OfferID, ErrorDetail: err.Error()}
	}

	e.risk.RecordFill(side, decision.Price)
	e.metrics.RecordOrder(side, models.ExecutionSubmitted)

	if e.index != nil {
		if err := e.index.Record(ctx, hash, intent); err != nil {
			e.logger.Warn("submission index write failed",
				xlogger.String("hash", hash), xlogger.Error(err))
		}
	}

	e.logger.Info("order submitted",
		xlogger.String("pair", pair.String()),
		xlogger.String("side", string(side)),
		xlogger.String("quantity", decision.Quantity.String()),
		xlogger.String("price", decision.Price.String()),
		xlogger.Int64("offer_id", intent.OfferID),
		xlogger.String("hash", receipt.Hash),
	)

	return models.ExecutionResult{Status: models.ExecutionSubmitted, OfferID: intent.OfferID, LedgerHash: receipt.Hash}
}

// envelopeHash is the de-duplication key: it can be computed before the
// submit, unlike the ledger receipt hash.
func envelopeHash(envelope repository.SignedEnvelope) string {
	sum := sha256.Sum256([]byte(envelope.Base64))
	return hex.EncodeToString(sum[:])
}

// sufficientBalance checks the asset actually spent: counter for buys
// (quantity * price), base for sells (quantity).
func (e *OrderExecutor) sufficientBalance(pair models.AssetPair, side models.Side, decision models.PositionSizeDecision, snapshot models.AccountSnapshot) (string, bool) {
	if side == models.SideBuy {
		need := decision.Quantity.Mul(decision.Price)
		have := snapshot.Balance(pair.Counter)
		if have.LessThan(need) {
			return fmt.Sprintf("need %s %s, have %s", need, pair.Counter, have), false
		}
		return "", true
	}

	have := snapshot.Balance(pair.Base)
	if have.LessThan(decision.Quantity) {
		return fmt.Sprintf("need %s %s, have %s", decision.Quantity, pair.Base, have), false
	}
	return "", true
}

// NextOfferID exposes the counter for tests and status reporting.
func (e *OrderExecutor) NextOfferID() int64 {
	return e.offerID.Load() + 1
}
