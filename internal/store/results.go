package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spreadscope/internal/model"
)

// UpsertBotScore writes one row per signal keyed by (account, signal type);
// a later analysis of the same account replaces the earlier values.
func (d *DB) UpsertBotScore(ctx context.Context, analysisID string, r model.BotDetectionResult) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := time.Now().UTC().UnixNano()
	for _, s := range r.Signals {
		_, err := tx.ExecContext(ctx, `INSERT INTO bot_scores(account_id, signal_type, analysis_id, value, weight, probability, classification, updated_at)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(account_id, signal_type) DO UPDATE SET analysis_id=excluded.analysis_id, value=excluded.value, weight=excluded.weight,
		  probability=excluded.probability, classification=excluded.classification, updated_at=excluded.updated_at`,
			r.AccountID, string(s.Type), analysisID, s.Value, s.Weight, r.BotProbability, string(r.Classification), now)
		if err != nil {
			return fmt.Errorf("bot score %s/%s: %w", r.AccountID, s.Type, err)
		}
	}
	return tx.Commit()
}

// BotSignals returns the stored per-signal scores for an account, ordered by signal type.
func (d *DB) BotSignals(ctx context.Context, accountID string) ([]model.BotSignal, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT signal_type, value, weight FROM bot_scores WHERE account_id=? ORDER BY signal_type`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BotSignal
	for rows.Next() {
		var s model.BotSignal
		var typ string
		if err := rows.Scan(&typ, &s.Value, &s.Weight); err != nil {
			return nil, err
		}
		s.Type = model.SignalType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SavePattern stores a coordination pattern, replacing any row with the same id.
func (d *DB) SavePattern(ctx context.Context, p model.CoordinationPattern) error {
	accounts, err := json.Marshal(p.Accounts)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO coordination_patterns(id, analysis_id, type, confidence, accounts, payload) VALUES(?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET analysis_id=excluded.analysis_id, type=excluded.type, confidence=excluded.confidence, accounts=excluded.accounts, payload=excluded.payload`,
		p.ID, p.AnalysisID, string(p.Type), p.Confidence, string(accounts), string(payload))
	return err
}

// Patterns returns an analysis' patterns, highest confidence first.
func (d *DB) Patterns(ctx context.Context, analysisID string) ([]model.CoordinationPattern, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT payload FROM coordination_patterns WHERE analysis_id=? ORDER BY confidence DESC, id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CoordinationPattern
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p model.CoordinationPattern
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveAnomaly stores an anomaly, replacing any row with the same id.
func (d *DB) SaveAnomaly(ctx context.Context, a model.Anomaly) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO anomalies(id, analysis_id, type, severity, ts, description, payload) VALUES(?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET analysis_id=excluded.analysis_id, type=excluded.type, severity=excluded.severity, ts=excluded.ts,
	  description=excluded.description, payload=excluded.payload`,
		a.ID, a.AnalysisID, string(a.Type), string(a.Severity), unixNano(a.Timestamp), a.Description, string(payload))
	return err
}

// Anomalies returns an analysis' anomalies in time order.
func (d *DB) Anomalies(ctx context.Context, analysisID string) ([]model.Anomaly, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT payload FROM anomalies WHERE analysis_id=? ORDER BY ts, id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Anomaly
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a model.Anomaly
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode anomaly: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
