package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"LumenTrade/internal/domain/models"
	pkgch "LumenTrade/pkg/clickhouse"
	applogger "LumenTrade/pkg/logger"
)

// CHJournal implements the trading journal backed by ClickHouse. Writes are
// best-effort from the caller's point of view; errors are returned but the
// loop only logs them.
type CHJournal struct {
	db *sql.DB
	l  *applogger.Logger
}

var journalSchema = []string{
	`CREATE DATABASE IF NOT EXISTS lumentrade`,
	`CREATE TABLE IF NOT EXISTS lumentrade.cycles (
		id String,
		ts DateTime64(3),
		strategy String,
		action String,
		bar_time DateTime64(3),
		approved UInt8,
		quantity String,
		price String,
		reason String,
		status String,
		error_detail String,
		ledger_hash String
	) ENGINE = MergeTree() ORDER BY ts`,
	`CREATE TABLE IF NOT EXISTS lumentrade.executions (
		id String,
		ts DateTime64(3),
		pair String,
		side String,
		quantity String,
		price String,
		offer_id Int64,
		status String,
		error_detail String,
		ledger_hash String
	) ENGINE = MergeTree() ORDER BY ts`,
}

func NewCHJournal(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHJournal, error) {
	if err := ch.InitSchema(ctx, journalSchema); err != nil {
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &CHJournal{db: ch.DB(), l: l}, nil
}

func (j *CHJournal) RecordCycle(ctx context.Context, sig models.Signal, dec models.PositionSizeDecision, res *models.ExecutionResult) error {
	start := time.Now()

	status, detail, hash := "", "", ""
	if res != nil {
		status = string(res.Status)
		detail = res.ErrorDetail
		hash = res.LedgerHash
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO lumentrade.cycles
		 (id, ts, strategy, action, bar_time, approved, quantity, price, reason, status, error_detail, ledger_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now(), sig.Strategy, string(sig.Action), sig.BarTime,
		boolToUint8(dec.Approved), dec.Quantity.String(), dec.Price.String(), dec.Reason,
		status, detail, hash,
	)
	if err != nil {
		j.l.Error("clickhouse cycle insert error",
			applogger.String("strategy", sig.Strategy),
			applogger.Error(err),
		)
		return fmt.Errorf("record cycle: %w", err)
	}

	j.l.Debug("clickhouse cycle insert ok",
		applogger.String("strategy", sig.Strategy),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (j *CHJournal) RecordExecution(ctx context.Context, intent models.OrderIntent, res models.ExecutionResult) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO lumentrade.executions
		 (id, ts, pair, side, quantity, price, offer_id, status, error_detail, ledger_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now(), intent.Pair.String(), string(intent.Side),
		intent.Quantity.String(), intent.Price.String(), intent.OfferID,
		string(res.Status), res.ErrorDetail, res.LedgerHash,
	)
	if err != nil {
		j.l.Error("clickhouse execution insert error",
			applogger.String("pair", intent.Pair.String()),
			applogger.Error(err),
		)
		return fmt.Errorf("record execution: %w", err)
	}
	return nil
}

func (j *CHJournal) Close() error { return nil }

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
