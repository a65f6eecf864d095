package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"timedquiz/internal/model"
)

const createResultsTable = `
	CREATE TABLE IF NOT EXISTS test_results (
		token        TEXT PRIMARY KEY,
		test_id      TEXT NOT NULL,
		status       TEXT NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL,
		total_time   INTEGER NOT NULL,
		results      JSONB NOT NULL
	)
`

// PostgresResultRepo stores finalized sessions in PostgreSQL.
type PostgresResultRepo struct {
	db *pgxpool.Pool
}

// NewPostgresResultRepo creates a new PostgresResultRepo with the provided database pool.
func NewPostgresResultRepo(db *pgxpool.Pool) *PostgresResultRepo {
	return &PostgresResultRepo{db: db}
}

// EnsureSchema creates the results table if it does not exist.
func (r *PostgresResultRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createResultsTable); err != nil {
		return fmt.Errorf("create test_results: %w", err)
	}
	return nil
}

// SaveResult inserts or replaces the record for its token.
func (r *PostgresResultRepo) SaveResult(ctx context.Context, rec *model.SessionRecord) error {
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO test_results (
			token, test_id, status, started_at, completed_at, total_time, results
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			results = EXCLUDED.results
	`
	_, err = r.db.Exec(
		ctx,
		query,
		rec.Token,
		rec.TestID,
		string(rec.Status),
		rec.StartTime,
		rec.CompletedAt,
		rec.TotalTime,
		results,
	)
	if err != nil {
		return fmt.Errorf("save test result: %w", err)
	}
	return nil
}

// GetResult returns the record for a token, or nil if there is none.
func (r *PostgresResultRepo) GetResult(ctx context.Context, token string) (*model.SessionRecord, error) {
	query := `
		SELECT token, test_id, status, started_at, completed_at, total_time, results
		FROM test_results
		WHERE token = $1
	`

	var (
		rec     model.SessionRecord
		status  string
		results []byte
	)
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rec.Token,
		&rec.TestID,
		&status,
		&rec.StartTime,
		&rec.CompletedAt,
		&rec.TotalTime,
		&results,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get test result: %w", err)
	}

	rec.Status = model.SessionStatus(status)
	if err := json.Unmarshal(results, &rec.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return &rec, nil
}

// GetByTestID returns every record of a test, most recently completed first.
func (r *PostgresResultRepo) GetByTestID(ctx context.Context, testID string) ([]*model.SessionRecord, error) {
	query := `
		SELECT token, test_id, status, started_at, completed_at, total_time, results
		FROM test_results
		WHERE test_id = $1
		ORDER BY completed_at DESC
	`

	rows, err := r.db.Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	defer rows.Close()

	records := []*model.SessionRecord{}
	for rows.Next() {
		var (
			rec     model.SessionRecord
			status  string
			results []byte
		)
		if err := rows.Scan(
			&rec.Token,
			&rec.TestID,
			&status,
			&rec.StartTime,
			&rec.CompletedAt,
			&rec.TotalTime,
			&results,
		); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		rec.Status = model.SessionStatus(status)
		if err := json.Unmarshal(results, &rec.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test results: %w", err)
	}
	return records, nil
}
