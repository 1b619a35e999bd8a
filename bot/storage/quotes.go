package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/harshitajha4680/cryptobot/bot/coingecko"
	"github.com/harshitajha4680/cryptobot/core/logger"

	"log/slog"
)

// QuoteStore persists fetched quote snapshots for later inspection.
type QuoteStore struct {
	db *sqlx.DB
}

func NewQuoteStore(db *sqlx.DB) *QuoteStore {
	return &QuoteStore{db: db}
}

const insertSnapshot = `
INSERT INTO quote_snapshots (user_id, asset_id, currency, price, change_24h, market_cap, volume_24h, fetched_at)
VALUES (:user_id, :asset_id, :currency, :price, :change_24h, :market_cap, :volume_24h, :fetched_at)`

type snapshotRow struct {
	UserID    int64     `db:"user_id"`
	AssetID   string    `db:"asset_id"`
	Currency  string    `db:"currency"`
	Price     float64   `db:"price"`
	Change24h *float64  `db:"change_24h"`
	MarketCap *float64  `db:"market_cap"`
	Volume24h *float64  `db:"volume_24h"`
	FetchedAt time.Time `db:"fetched_at"`
}

// RecordQuote stores a snapshot of a successfully fetched quote. Failures
// are logged and swallowed so the dialog is never degraded by storage.
func (s *QuoteStore) RecordQuote(ctx context.Context, userID int64, q *coingecko.Quote) {
	if s == nil || s.db == nil || q == nil {
		return
	}

	row := snapshotRow{
		UserID:    userID,
		AssetID:   q.AssetID,
		Currency:  q.Currency,
		Price:     q.Price,
		Change24h: q.Change24h,
		MarketCap: q.MarketCap,
		Volume24h: q.Volume24h,
		FetchedAt: time.Now().UTC(),
	}

	if _, err := s.db.NamedExecContext(ctx, insertSnapshot, row); err != nil {
		logger.Store.Error("snapshot insert failed",
			slog.String("event", "snapshot.failed"),
			slog.String("asset", q.AssetID),
			slog.String("currency", q.Currency),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}

	logger.Store.Debug("snapshot stored",
		slog.String("event", "snapshot.stored"),
		slog.String("asset", q.AssetID),
		slog.String("currency", q.Currency),
		slog.Int64("user_id", userID),
	)
}
