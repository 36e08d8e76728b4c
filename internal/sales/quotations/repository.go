package quotations

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, filters ListFilters) ([]Quotation, int, error)
	Insert(ctx context.Context, q *Quotation) error
	UpdateContent(ctx context.Context, q *Quotation) error
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	ListExpirable(ctx context.Context, asOf time.Time) ([]int64, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository builds a Repository. WithTx is only available when
// constructed from a pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return errors.New("quotations: repository is already transaction-scoped")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

const quotationColumns = `id, number, revision, status, customer_code, tier_code,
	subtotal, shipping_fee, bank_charge, discount, others, total,
	valid_until, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "quotation %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if q.Items, err = r.items(ctx, q.ID); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Quotation, int, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM quotations WHERE 1=1`
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

	var result []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *q)
	}
	return result, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, q *Quotation) error {
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (number, revision, status, customer_code, tier_code,
			subtotal, shipping_fee, bank_charge, discount, others, total,
			valid_until, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, q.Number, q.Revision, q.Status, q.CustomerCode, q.TierCode,
		q.Subtotal, q.ShippingFee, q.BankCharge, q.Discount, q.Others, q.Total,
		q.ValidUntil, q.Notes, q.CreatedAt, q.UpdatedAt).Scan(&q.ID)
	if err != nil {
		return err
	}
	return r.insertItems(ctx, q)
}

// UpdateContent rewrites the header and item lines of a revision.
// Number and created_at never change here; the revision column carries
// the bump.
func (r *repository) UpdateContent(ctx context.Context, q *Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET revision = $1, customer_code = $2, tier_code = $3,
			subtotal = $4, shipping_fee = $5, bank_charge = $6, discount = $7, others = $8, total = $9,
			valid_until = $10, notes = $11, updated_at = NOW()
		WHERE id = $12
	`, q.Revision, q.CustomerCode, q.TierCode,
		q.Subtotal, q.ShippingFee, q.BankCharge, q.Discount, q.Others, q.Total,
		q.ValidUntil, q.Notes, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "quotation %d not found", q.ID)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, q.ID); err != nil {
		return err
	}
	return r.insertItems(ctx, q)
}

// UpdateStatus flips status only when the row still holds the expected
// prior status; a zero row count means the transition raced or was
// never legal for the stored state.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindInvalidState, "quotation %d is not %s", id, from)
	}
	return nil
}

func (r *repository) ListExpirable(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM quotations
		WHERE status = $1 AND valid_until IS NOT NULL AND valid_until < $2
	`, StatusPending, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) insertItems(ctx context.Context, q *Quotation) error {
	for i := range q.Items {
		item := &q.Items[i]
		item.QuotationID = q.ID
		err := r.db.QueryRow(ctx, `
			INSERT INTO quotation_items (quotation_id, product_id, product_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, item.QuotationID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.LineTotal).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) items(ctx context.Context, quotationID int64) ([]QuotationItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, product_id, product_name, quantity, unit_price, line_total
		FROM quotation_items WHERE quotation_id = $1 ORDER BY id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuotationItem
	for rows.Next() {
		var item QuotationItem
		if err := rows.Scan(&item.ID, &item.QuotationID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(&q.ID, &q.Number, &q.Revision, &q.Status, &q.CustomerCode, &q.TierCode,
		&q.Subtotal, &q.ShippingFee, &q.BankCharge, &q.Discount, &q.Others, &q.Total,
		&q.ValidUntil, &q.Notes, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
