package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// callRepo implements EventRepo on the remote_calls table.
type callRepo struct {
	db *sql.DB
}

func (r *callRepo) AppendRemoteCall(ctx context.Context, data RemoteCallData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO remote_calls (
			timestamp, service, provider, model, purpose, status_code,
			input_tokens, output_tokens, latency_ms, success, error_message,
			request_body, response_body
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().UnixMilli(),
		data.Service, data.Provider, data.Model, data.Purpose, data.StatusCode,
		data.InputTokens, data.OutputTokens, data.LatencyMs, boolToInt(data.Success),
		data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save remote call: %w", err)
	}
	return nil
}

const callColumns = `id, timestamp, service, provider, model, purpose, status_code,
	input_tokens, output_tokens, latency_ms, success, error_message,
	request_body, response_body`

func (r *callRepo) QueryRemoteCalls(ctx context.Context, opts QueryOpts) ([]RemoteCall, error) {
	var (
		where []string
		args  []any
	)
	if opts.Purpose != "" {
		where = append(where, "purpose = ?")
		args = append(args, opts.Purpose)
	}
	if opts.Service != "" {
		where = append(where, "service = ?")
		args = append(args, opts.Service)
	}
	if !opts.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, opts.From.UTC().UnixMilli())
	}
	if !opts.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, opts.To.UTC().UnixMilli())
	}

	query := "SELECT " + callColumns + " FROM remote_calls"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query remote calls: %w", err)
	}
	defer rows.Close()

	var out []RemoteCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *callRepo) GetRemoteCall(ctx context.Context, id int64) (*RemoteCall, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+callColumns+" FROM remote_calls WHERE id = ?", id)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *callRepo) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT purpose, COUNT(*), SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		       SUM(input_tokens), SUM(output_tokens), CAST(AVG(latency_ms) AS INTEGER)
		FROM remote_calls
		GROUP BY purpose
		ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan purpose usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *callRepo) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model, COUNT(*), SUM(input_tokens), SUM(output_tokens)
		FROM remote_calls
		WHERE service = ? AND model != ''
		GROUP BY model
		ORDER BY model`, ServiceChat)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(s rowScanner) (*RemoteCall, error) {
	var (
		c       RemoteCall
		tsMilli int64
		success int
	)
	err := s.Scan(
		&c.ID, &tsMilli, &c.Service, &c.Provider, &c.Model, &c.Purpose, &c.StatusCode,
		&c.InputTokens, &c.OutputTokens, &c.LatencyMs, &success, &c.ErrorMessage,
		&c.RequestBody, &c.ResponseBody,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan remote call: %w", err)
	}
	c.Timestamp = time.UnixMilli(tsMilli).UTC()
	c.Success = success != 0
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
