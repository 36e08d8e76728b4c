package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository writes and reads the reservation ledger. Constructed over
// a DBTX so deposits can ride inside a caller's transaction: order
// confirmation deposits and the confirmation flag flip commit or roll
// back together.
type Repository interface {
	Deposit(ctx context.Context, r Reservation) (Reservation, error)
	ListByReference(ctx context.Context, refType string, refID int64) ([]Reservation, error)
	ReservedBalance(ctx context.Context, productID int64) (decimal.Decimal, error)
	Release(ctx context.Context, refType string, refID int64) (int, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) Deposit(ctx context.Context, res Reservation) (Reservation, error) {
	if res.TransactionCode == "" {
		res.TransactionCode = uuid.NewString()
	}
	if res.Warehouse == "" {
		res.Warehouse = WarehouseReserved
	}
	res.CreatedAt = time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory_reservations (transaction_code, product_id, warehouse, quantity, reference_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, res.TransactionCode, res.ProductID, res.Warehouse, res.Quantity,
		res.ReferenceType, res.ReferenceID, res.CreatedAt).Scan(&res.ID)
	if err != nil {
		return Reservation{}, err
	}
	return res, nil
}

func (r *repository) ListByReference(ctx context.Context, refType string, refID int64) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, transaction_code, product_id, warehouse, quantity, reference_type, reference_id, created_at, released_at
		FROM inventory_reservations
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY id
	`, refType, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Reservation
	for rows.Next() {
		var e Reservation
		if err := rows.Scan(&e.ID, &e.TransactionCode, &e.ProductID, &e.Warehouse, &e.Quantity,
			&e.ReferenceType, &e.ReferenceID, &e.CreatedAt, &e.ReleasedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) ReservedBalance(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_reservations
		WHERE product_id = $1 AND warehouse = $2 AND released_at IS NULL
	`, productID, WarehouseReserved).Scan(&balance)
	return balance, err
}

// Release stamps every active entry for the reference. Used as the
// explicit compensation when a confirmed order is cancelled.
func (r *repository) Release(ctx context.Context, refType string, refID int64) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE inventory_reservations SET released_at = NOW()
		WHERE reference_type = $1 AND reference_id = $2 AND released_at IS NULL
	`, refType, refID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
