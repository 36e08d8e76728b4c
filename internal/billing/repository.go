package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetBySourceOrder(ctx context.Context, orderID int64) (*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]Invoice, int, error)
	Insert(ctx context.Context, inv *Invoice) error
	AddPayment(ctx context.Context, id int64, amount decimal.Decimal) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return errors.New("billing: repository is already transaction-scoped")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const invoiceColumns = `id, number, revision, sales_order_id, customer_code, total, paid_amount, due_date, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "invoice %d not found", id)
	}
	return inv, err
}

func (r *repository) GetBySourceOrder(ctx context.Context, orderID int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE sales_order_id = $1`, orderID)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "no invoice for sales order %d", orderID)
	}
	return inv, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY number DESC, revision DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *inv)
	}
	return result, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, inv *Invoice) error {
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return r.db.QueryRow(ctx, `
		INSERT INTO invoices (number, revision, sales_order_id, customer_code, total, paid_amount, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, inv.Number, inv.Revision, inv.SalesOrderID, inv.CustomerCode,
		inv.Total, inv.PaidAmount, inv.DueDate, inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
}

func (r *repository) AddPayment(ctx context.Context, id int64, amount decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET paid_amount = paid_amount + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "invoice %d not found", id)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.Revision, &inv.SalesOrderID, &inv.CustomerCode,
		&inv.Total, &inv.PaidAmount, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
