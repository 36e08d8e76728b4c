package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type ListCustomersRequest struct {
	Search   string
	TierCode string
	IsActive *bool
	Limit    int
	Offset   int
}

type Repository interface {
	Get(ctx context.Context, id int64) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, customer Customer) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

const customerColumns = `id, code, name, email, phone, country, assigned_tier_code, is_active, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "customer %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE code = $1`, code)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "customer %q not found", code)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []any{}
	argCount := 0

	if req.Search != "" {
		argCount++
		cond := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+req.Search+"%")
	}
	if req.TierCode != "" {
		argCount++
		cond := ` AND assigned_tier_code = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, req.TierCode)
	}
	if req.IsActive != nil {
		argCount++
		cond := ` AND is_active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *req.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	if req.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *c)
	}
	return result, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, customer Customer) (int64, error) {
	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (code, name, email, phone, country, assigned_tier_code, is_active, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, customer.Code, customer.Name, customer.Email, customer.Phone, customer.Country,
		customer.AssignedTierCode, customer.IsActive, customer.Notes, now, now).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, country = $4, assigned_tier_code = $5, is_active = $6, notes = $7, updated_at = NOW()
		WHERE id = $8
	`, customer.Name, customer.Email, customer.Phone, customer.Country,
		customer.AssignedTierCode, customer.IsActive, customer.Notes, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "customer %d not found", id)
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Country,
		&c.AssignedTierCode, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
