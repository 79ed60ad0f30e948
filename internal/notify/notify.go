package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the repo needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Notification struct {
	UserID string
	Title  string
	Body   string
}

// Repo writes in-app notifications and resolves recipients by role.
type Repo struct {
	DB        DB
	AdminRole string // defaults to "admin"
}

func (r *Repo) adminRole() string {
	if r.AdminRole != "" {
		return r.AdminRole
	}
	return "admin"
}

func (r *Repo) UserIDsByRole(ctx context.Context, role string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM users WHERE role=$1`, role)
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateMany inserts all notifications in one round trip.
func (r *Repo) CreateMany(ctx context.Context, ns []Notification) error {
	if len(ns) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, n := range ns {
		b.Queue(
			`INSERT INTO notifications(id, user_id, title, body, created_at)
			 VALUES ($1,$2,$3,$4,now())`,
			uuid.NewString(), n.UserID, n.Title, n.Body,
		)
	}
	return r.DB.SendBatch(ctx, b).Close()
}

// NotifyAdmins fans one message out to every admin user.
func (r *Repo) NotifyAdmins(ctx context.Context, title, body string) error {
	ids, err := r.UserIDsByRole(ctx, r.adminRole())
	if err != nil {
		return err
	}
	ns := make([]Notification, 0, len(ids))
	for _, id := range ids {
		ns = append(ns, Notification{UserID: id, Title: title, Body: body})
	}
	return r.CreateMany(ctx, ns)
}
