package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"options-advisor/internal/types"
)

// SQLiteStore persists suggestions in a single-file database. WAL mode so
// the tracker and the generator can touch it from different goroutines.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS suggestions (
	id               TEXT PRIMARY KEY,
	created_at       INTEGER NOT NULL,
	index_name       TEXT NOT NULL,
	option_type      TEXT NOT NULL,
	strike_price     REAL NOT NULL,
	expiry_date      INTEGER NOT NULL,
	entry_price      REAL NOT NULL,
	target1          REAL NOT NULL,
	target2          REAL NOT NULL,
	target3          REAL NOT NULL,
	stop_loss        REAL NOT NULL,
	risk_reward      TEXT NOT NULL,
	current_price    REAL NOT NULL,
	high_since       REAL NOT NULL,
	low_since        REAL NOT NULL,
	target1_hit      INTEGER NOT NULL DEFAULT 0,
	target1_hit_at   INTEGER,
	target2_hit      INTEGER NOT NULL DEFAULT 0,
	target2_hit_at   INTEGER,
	target3_hit      INTEGER NOT NULL DEFAULT 0,
	target3_hit_at   INTEGER,
	stop_loss_hit    INTEGER NOT NULL DEFAULT 0,
	stop_loss_at     INTEGER,
	pnl_percent      REAL NOT NULL DEFAULT 0,
	pnl_amount       REAL NOT NULL DEFAULT 0,
	status           TEXT NOT NULL,
	confidence       TEXT NOT NULL,
	confidence_score REAL NOT NULL,
	conditions       TEXT NOT NULL,
	conditions_met   INTEGER NOT NULL,
	reasoning        TEXT NOT NULL,
	failure_reason   TEXT NOT NULL DEFAULT '',
	lessons_learned  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status);
CREATE INDEX IF NOT EXISTS idx_suggestions_created ON suggestions(created_at);
`

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

const openStatuses = "('ACTIVE','T1_HIT','T2_HIT','T3_HIT')"

func (s *SQLiteStore) Insert(ctx context.Context, sg *types.Suggestion) error {
	conditions, err := json.Marshal(sg.Conditions)
	if err != nil {
		return err
	}
	reasoning, err := json.Marshal(sg.Reasoning)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO suggestions (
		id, created_at, index_name, option_type, strike_price, expiry_date,
		entry_price, target1, target2, target3, stop_loss, risk_reward,
		current_price, high_since, low_since,
		target1_hit, target1_hit_at, target2_hit, target2_hit_at,
		target3_hit, target3_hit_at, stop_loss_hit, stop_loss_at,
		pnl_percent, pnl_amount, status, confidence, confidence_score,
		conditions, conditions_met, reasoning, failure_reason, lessons_learned
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sg.ID, sg.CreatedAt.Unix(), sg.Index, string(sg.OptionType), sg.StrikePrice,
		sg.ExpiryDate.Unix(), sg.EntryPrice, sg.Target1, sg.Target2, sg.Target3,
		sg.StopLoss, sg.RiskReward, sg.CurrentPrice, sg.HighSince, sg.LowSince,
		boolInt(sg.Target1Hit), unixPtr(sg.Target1HitAt),
		boolInt(sg.Target2Hit), unixPtr(sg.Target2HitAt),
		boolInt(sg.Target3Hit), unixPtr(sg.Target3HitAt),
		boolInt(sg.StopLossHit), unixPtr(sg.StopLossAt),
		sg.PnlPercent, sg.PnlAmount, string(sg.Status), string(sg.Confidence),
		sg.ConfidenceScore, string(conditions), sg.ConditionsMet, string(reasoning),
		sg.FailureReason, sg.LessonsLearned)
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, sg *types.Suggestion) error {
	conditions, err := json.Marshal(sg.Conditions)
	if err != nil {
		return err
	}
	reasoning, err := json.Marshal(sg.Reasoning)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE suggestions SET
		current_price=?, high_since=?, low_since=?,
		target1_hit=?, target1_hit_at=?, target2_hit=?, target2_hit_at=?,
		target3_hit=?, target3_hit_at=?, stop_loss_hit=?, stop_loss_at=?,
		pnl_percent=?, pnl_amount=?, status=?, conditions=?, conditions_met=?,
		reasoning=?, failure_reason=?, lessons_learned=?
	WHERE id=?`,
		sg.CurrentPrice, sg.HighSince, sg.LowSince,
		boolInt(sg.Target1Hit), unixPtr(sg.Target1HitAt),
		boolInt(sg.Target2Hit), unixPtr(sg.Target2HitAt),
		boolInt(sg.Target3Hit), unixPtr(sg.Target3HitAt),
		boolInt(sg.StopLossHit), unixPtr(sg.StopLossAt),
		sg.PnlPercent, sg.PnlAmount, string(sg.Status), string(conditions),
		sg.ConditionsMet, string(reasoning), sg.FailureReason, sg.LessonsLearned,
		sg.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("suggestion %s not found", sg.ID)
	}
	return err
}

const selectCols = `id, created_at, index_name, option_type, strike_price, expiry_date,
	entry_price, target1, target2, target3, stop_loss, risk_reward,
	current_price, high_since, low_since,
	target1_hit, target1_hit_at, target2_hit, target2_hit_at,
	target3_hit, target3_hit_at, stop_loss_hit, stop_loss_at,
	pnl_percent, pnl_amount, status, confidence, confidence_score,
	conditions, conditions_met, reasoning, failure_reason, lessons_learned`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.Suggestion, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectCols+" FROM suggestions WHERE id=?", id)
	return scanSuggestion(row)
}

func (s *SQLiteStore) Open(ctx context.Context) ([]*types.Suggestion, error) {
	return s.query(ctx,
		"SELECT "+selectCols+" FROM suggestions WHERE status IN "+openStatuses+" ORDER BY created_at")
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]*types.Suggestion, error) {
	return s.query(ctx,
		"SELECT "+selectCols+" FROM suggestions ORDER BY created_at DESC LIMIT ?", n)
}

func (s *SQLiteStore) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM suggestions WHERE status IN "+openStatuses).Scan(&n)
	return n, err
}

// RealizedLossSince sums the absolute loss of stopped-out suggestions
// created at or after the cutoff. A position carried over from an earlier
// day that stops out later belongs to its creation day's book, not today's.
func (s *SQLiteStore) RealizedLossSince(ctx context.Context, since time.Time) (float64, error) {
	var loss float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ABS(pnl_amount)), 0) FROM suggestions
		 WHERE status='SL_HIT' AND created_at >= ?`, since.Unix()).Scan(&loss)
	return loss, err
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*types.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*types.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row scanner) (*types.Suggestion, error) {
	var (
		sg                             types.Suggestion
		createdAt, expiry              int64
		optType, status, confidence    string
		t1Hit, t2Hit, t3Hit, slHit     int
		t1At, t2At, t3At, slAt         sql.NullInt64
		conditions, reasoning          string
	)
	err := row.Scan(
		&sg.ID, &createdAt, &sg.Index, &optType, &sg.StrikePrice, &expiry,
		&sg.EntryPrice, &sg.Target1, &sg.Target2, &sg.Target3, &sg.StopLoss,
		&sg.RiskReward, &sg.CurrentPrice, &sg.HighSince, &sg.LowSince,
		&t1Hit, &t1At, &t2Hit, &t2At, &t3Hit, &t3At, &slHit, &slAt,
		&sg.PnlPercent, &sg.PnlAmount, &status, &confidence, &sg.ConfidenceScore,
		&conditions, &sg.ConditionsMet, &reasoning, &sg.FailureReason, &sg.LessonsLearned)
	if err != nil {
		return nil, err
	}
	sg.CreatedAt = time.Unix(createdAt, 0).In(types.IST)
	sg.ExpiryDate = time.Unix(expiry, 0).In(types.IST)
	sg.OptionType = types.OptionType(optType)
	sg.Status = types.Status(status)
	sg.Confidence = types.Confidence(confidence)
	sg.Target1Hit, sg.Target1HitAt = t1Hit != 0, timePtr(t1At)
	sg.Target2Hit, sg.Target2HitAt = t2Hit != 0, timePtr(t2At)
	sg.Target3Hit, sg.Target3HitAt = t3Hit != 0, timePtr(t3At)
	sg.StopLossHit, sg.StopLossAt = slHit != 0, timePtr(slAt)
	if err := json.Unmarshal([]byte(conditions), &sg.Conditions); err != nil {
		return nil, fmt.Errorf("decode conditions for %s: %w", sg.ID, err)
	}
	if err := json.Unmarshal([]byte(reasoning), &sg.Reasoning); err != nil {
		return nil, fmt.Errorf("decode reasoning for %s: %w", sg.ID, err)
	}
	return &sg, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).In(types.IST)
	return &t
}
