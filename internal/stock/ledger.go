package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-store-fulfillment.git/internal/orders"
	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the ledger needs; tests swap in a mock.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Ledger struct{ DB DB }

// Result reports how many counter rows each operation touched. Skipped rows
// are the ones where reserved_stock < qty; surfacing the count lets callers
// spot reservation drift without turning the skip into a failure.
type Result struct {
	Applied int
	Skipped int
}

type itemRow struct {
	productID string
	variantID string
	qty       int
}

// FinalizeReservation clears the reservation bookkeeping for a paid order.
// Stock itself was already decremented when the reservation was taken, so only
// reserved_stock moves here. All rows for the order commit as one transaction;
// a row whose guard fails is skipped, never driven negative.
func (l *Ledger) FinalizeReservation(ctx context.Context, orderID string) (Result, error) {
	return l.adjust(ctx, orderID, false)
}

// ReleaseReservation returns a cancelled order's held inventory to sellable
// stock: reserved_stock goes down, stock goes back up, same guard.
func (l *Ledger) ReleaseReservation(ctx context.Context, orderID string) (Result, error) {
	return l.adjust(ctx, orderID, true)
}

func (l *Ledger) adjust(ctx context.Context, orderID string, restock bool) (Result, error) {
	items, err := l.loadItems(ctx, orderID)
	if err != nil {
		return Result{}, err
	}

	// guard `reserved_stock >= qty` di dalam UPDATE: baris yang kalah cek
	// hanya tidak ter-update (RowsAffected 0), bukan error.
	variantSQL := `UPDATE product_variants SET reserved_stock = reserved_stock - $2
	               WHERE id=$1 AND reserved_stock >= $2`
	productSQL := `UPDATE products SET reserved_stock = reserved_stock - $2
	               WHERE id=$1 AND reserved_stock >= $2`
	if restock {
		variantSQL = `UPDATE product_variants SET reserved_stock = reserved_stock - $2, stock = stock + $2
		              WHERE id=$1 AND reserved_stock >= $2`
		productSQL = `UPDATE products SET reserved_stock = reserved_stock - $2, stock = stock + $2
		              WHERE id=$1 AND reserved_stock >= $2`
	}

	tx, err := l.DB.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback(ctx)

	var res Result
	for _, it := range items {
		if it.variantID != "" {
			ct, err := tx.Exec(ctx, variantSQL, it.variantID, it.qty)
			if err != nil {
				return Result{}, fmt.Errorf("adjust variant %s: %w", it.variantID, err)
			}
			if ct.RowsAffected() == 1 {
				res.Applied++
			} else {
				res.Skipped++
			}
		}
		ct, err := tx.Exec(ctx, productSQL, it.productID, it.qty)
		if err != nil {
			return Result{}, fmt.Errorf("adjust product %s: %w", it.productID, err)
		}
		if ct.RowsAffected() == 1 {
			res.Applied++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}
	return res, nil
}

// loadItems reads the order's line items up front; NotFound when the order
// row itself is missing.
func (l *Ledger) loadItems(ctx context.Context, orderID string) ([]itemRow, error) {
	var one int
	err := l.DB.QueryRow(ctx, `SELECT 1 FROM orders WHERE id=$1`, orderID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orders.ErrNotFound
		}
		return nil, err
	}

	rows, err := l.DB.Query(ctx,
		`SELECT product_id, COALESCE(variant_id, ''), qty
		 FROM order_items WHERE order_id=$1 AND qty > 0`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		var it itemRow
		if err := rows.Scan(&it.productID, &it.variantID, &it.qty); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
