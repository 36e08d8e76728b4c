package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*JobOrder, error)
	GetBySourceOrder(ctx context.Context, orderID int64) (*JobOrder, error)
	List(ctx context.Context, limit, offset int) ([]JobOrder, int, error)
	Insert(ctx context.Context, j *JobOrder) error
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	GetItem(ctx context.Context, itemID int64) (*JobOrderItem, error)
	UpdateShipmentSlot(ctx context.Context, itemID int64, slot int, value decimal.Decimal) error
	UpdateInventorySnapshots(ctx context.Context, itemID int64, reserved, ready decimal.Decimal) error
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
		return errors.New("production: repository is already transaction-scoped")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const jobOrderColumns = `id, number, revision, status, source_sales_order_id, customer_code, created_at, updated_at`

const itemColumns = `id, job_order_id, product_id, product_name, quantity,
	shipment_1, shipment_2, shipment_3, shipment_4, shipment_5, shipment_6, shipment_7, shipment_8,
	reserved, ready`

func (r *repository) Get(ctx context.Context, id int64) (*JobOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobOrderColumns+` FROM job_orders WHERE id = $1`, id)
	j, err := scanJobOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "job order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if j.Items, err = r.items(ctx, j.ID); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *repository) GetBySourceOrder(ctx context.Context, orderID int64) (*JobOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobOrderColumns+` FROM job_orders WHERE source_sales_order_id = $1`, orderID)
	j, err := scanJobOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "no job order for sales order %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	if j.Items, err = r.items(ctx, j.ID); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]JobOrder, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM job_orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobOrderColumns + ` FROM job_orders ORDER BY number DESC, revision DESC`
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

	var result []JobOrder
	for rows.Next() {
		j, err := scanJobOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *j)
	}
	return result, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, j *JobOrder) error {
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now
	err := r.db.QueryRow(ctx, `
		INSERT INTO job_orders (number, revision, status, source_sales_order_id, customer_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, j.Number, j.Revision, j.Status, j.SourceSalesOrderID, j.CustomerCode, j.CreatedAt, j.UpdatedAt).Scan(&j.ID)
	if err != nil {
		return err
	}
	for i := range j.Items {
		item := &j.Items[i]
		item.JobOrderID = j.ID
		err := r.db.QueryRow(ctx, `
			INSERT INTO job_order_items (job_order_id, product_id, product_name, quantity,
				shipment_1, shipment_2, shipment_3, shipment_4, shipment_5, shipment_6, shipment_7, shipment_8,
				reserved, ready)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id
		`, item.JobOrderID, item.ProductID, item.ProductName, item.Quantity,
			item.Shipments[0], item.Shipments[1], item.Shipments[2], item.Shipments[3],
			item.Shipments[4], item.Shipments[5], item.Shipments[6], item.Shipments[7],
			item.Reserved, item.Ready).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE job_orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindInvalidState, "job order %d is not %s", id, from)
	}
	return nil
}

func (r *repository) GetItem(ctx context.Context, itemID int64) (*JobOrderItem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM job_order_items WHERE id = $1`, itemID)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateShipmentSlot persists one raw slot. slot must already be
// validated to [1,8]; the column name is built from it, never from
// user input directly.
func (r *repository) UpdateShipmentSlot(ctx context.Context, itemID int64, slot int, value decimal.Decimal) error {
	if slot < 1 || slot > ShipmentSlots {
		return shared.NewError(shared.KindValidation, "shipment slot %d out of range", slot)
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE job_order_items SET shipment_%d = $1 WHERE id = $2`, slot), value, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
	}
	return nil
}

func (r *repository) UpdateInventorySnapshots(ctx context.Context, itemID int64, reserved, ready decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE job_order_items SET reserved = $1, ready = $2 WHERE id = $3
	`, reserved, ready, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "job order item %d not found", itemID)
	}
	return nil
}

func (r *repository) items(ctx context.Context, jobOrderID int64) ([]JobOrderItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM job_order_items WHERE job_order_id = $1 ORDER BY id`, jobOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []JobOrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanJobOrder(row pgx.Row) (*JobOrder, error) {
	var j JobOrder
	err := row.Scan(&j.ID, &j.Number, &j.Revision, &j.Status, &j.SourceSalesOrderID, &j.CustomerCode, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func scanItem(row pgx.Row) (*JobOrderItem, error) {
	var item JobOrderItem
	err := row.Scan(&item.ID, &item.JobOrderID, &item.ProductID, &item.ProductName, &item.Quantity,
		&item.Shipments[0], &item.Shipments[1], &item.Shipments[2], &item.Shipments[3],
		&item.Shipments[4], &item.Shipments[5], &item.Shipments[6], &item.Shipments[7],
		&item.Reserved, &item.Ready)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
