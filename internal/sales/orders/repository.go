package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type ListFilters struct {
	Status       Status
	CustomerCode string
	Search       string
	Limit        int
	Offset       int
}

// Repository persists sales orders and, because conversion and
// confirmation span tables, carries the cross-table statements the
// orchestrator runs inside one transaction: the quotation status flip
// and the reservation ledger writes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	GetBySourceQuotation(ctx context.Context, quotationID int64) (*SalesOrder, error)
	List(ctx context.Context, filters ListFilters) ([]SalesOrder, int, error)
	Insert(ctx context.Context, o *SalesOrder) error
	MarkQuotationConverted(ctx context.Context, quotationID int64) error
	Confirm(ctx context.Context, orderID int64, confirmedBy string, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	DepositReservation(ctx context.Context, r inventory.Reservation) (inventory.Reservation, error)
	ReleaseReservations(ctx context.Context, orderID int64) (int, error)
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
		return errors.New("orders: repository is already transaction-scoped")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const orderColumns = `id, number, revision, status, is_confirmed, confirmed_at, confirmed_by,
	customer_code, tier_code, source_quotation_id,
	subtotal, shipping_fee, bank_charge, discount, others, total,
	notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "sales order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetBySourceQuotation(ctx context.Context, quotationID int64) (*SalesOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE source_quotation_id = $1`, quotationID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "no sales order for quotation %d", quotationID)
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]SalesOrder, int, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales_orders WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Status != "" {
		argCount++
		cond := ` AND status = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Status)
	}
	if filters.CustomerCode != "" {
		argCount++
		cond := ` AND customer_code = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.CustomerCode)
	}
	if filters.Search != "" {
		argCount++
		cond := ` AND number ILIKE $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY number DESC, revision DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	return result, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, o *SalesOrder) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (number, revision, status, is_confirmed, customer_code, tier_code,
			source_quotation_id, subtotal, shipping_fee, bank_charge, discount, others, total,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, o.Number, o.Revision, o.Status, o.IsConfirmed, o.CustomerCode, o.TierCode,
		o.SourceQuotationID, o.Subtotal, o.ShippingFee, o.BankCharge, o.Discount, o.Others, o.Total,
		o.Notes, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return err
	}
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := r.db.QueryRow(ctx, `
			INSERT INTO sales_order_items (order_id, product_id, product_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.LineTotal).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkQuotationConverted flips the source quotation only if it is
// still approved. A zero row count means the quotation was never
// approved or was already converted by a concurrent caller.
func (r *repository) MarkQuotationConverted(ctx context.Context, quotationID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = 'converted', updated_at = NOW()
		WHERE id = $1 AND status = 'approved'
	`, quotationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindInvalidState, "quotation %d is not approved", quotationID)
	}
	return nil
}

// Confirm flips the one-shot confirmation flag. Guarded so a raced
// second confirmation reports AlreadyConfirmed instead of silently
// re-stamping.
func (r *repository) Confirm(ctx context.Context, orderID int64, confirmedBy string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders
		SET is_confirmed = true, status = 'confirmed', confirmed_by = $1, confirmed_at = $2, updated_at = NOW()
		WHERE id = $3 AND NOT is_confirmed
	`, confirmedBy, at, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindAlreadyConfirmed, "sales order %d is already confirmed", orderID)
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindInvalidState, "sales order %d is not %s", id, from)
	}
	return nil
}

func (r *repository) DepositReservation(ctx context.Context, res inventory.Reservation) (inventory.Reservation, error) {
	return inventory.NewRepository(r.db).Deposit(ctx, res)
}

func (r *repository) ReleaseReservations(ctx context.Context, orderID int64) (int, error) {
	return inventory.NewRepository(r.db).Release(ctx, inventory.ReferenceTypeSalesOrder, orderID)
}

func (r *repository) items(ctx context.Context, orderID int64) ([]SalesOrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM sales_order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SalesOrderItem
	for rows.Next() {
		var item SalesOrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (*SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.ID, &o.Number, &o.Revision, &o.Status, &o.IsConfirmed, &o.ConfirmedAt, &o.ConfirmedBy,
		&o.CustomerCode, &o.TierCode, &o.SourceQuotationID,
		&o.Subtotal, &o.ShippingFee, &o.BankCharge, &o.Discount, &o.Others, &o.Total,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
