package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs; tests swap in a mock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PgStore struct{ DB DB }

const selectCols = `SELECT id, name, status, start_date, end_date, is_processing, is_completed, email_sent FROM promotions`

// DueToStart lists scheduled promotions whose window has opened and that no
// sweep has touched yet.
func (s *PgStore) DueToStart(ctx context.Context, now time.Time) ([]Promotion, error) {
	return s.list(ctx, selectCols+`
		WHERE status=$1 AND start_date <= $2
		  AND is_processing=false AND is_completed=false AND email_sent=false`,
		StatusScheduled, now)
}

// DueToEnd lists running promotions whose window has closed.
func (s *PgStore) DueToEnd(ctx context.Context, now time.Time) ([]Promotion, error) {
	return s.list(ctx, selectCols+`
		WHERE status=$1 AND end_date <= $2
		  AND is_processing=false AND email_sent=false`,
		StatusActiveScheduled, now)
}

func (s *PgStore) list(ctx context.Context, sql string, args ...any) ([]Promotion, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.StartDate, &p.EndDate,
			&p.IsProcessing, &p.IsCompleted, &p.EmailSent); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimStart flips the promotion into its active status and marks the row as
// being processed, in one conditional UPDATE. RowsAffected()==0 means another
// sweep got there first.
func (s *PgStore) ClaimStart(ctx context.Context, id string) (bool, error) {
	ct, err := s.DB.Exec(ctx,
		`UPDATE promotions SET is_processing=true, status=$2
		 WHERE id=$1 AND is_processing=false`,
		id, StatusActiveScheduled)
	if err != nil {
		return false, fmt.Errorf("claim start %s: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

// FinishStart releases the processing claim. Runs whatever the email outcome
// was, otherwise the row stalls forever.
func (s *PgStore) FinishStart(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE promotions SET is_processing=false WHERE id=$1`, id)
	return err
}

// ClaimEnd claims the row and marks email_sent before any side effect; a
// crash after this point can leave a promotion flagged as emailed but not
// completed, which the next operator audit catches.
func (s *PgStore) ClaimEnd(ctx context.Context, id string) (bool, error) {
	ct, err := s.DB.Exec(ctx,
		`UPDATE promotions SET is_processing=true, email_sent=true
		 WHERE id=$1 AND is_processing=false AND email_sent=false`,
		id)
	if err != nil {
		return false, fmt.Errorf("claim end %s: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

func (s *PgStore) CompleteEnd(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE promotions SET status=$2, is_completed=true, is_processing=false
		 WHERE id=$1`,
		id, StatusUnavailable)
	return err
}
