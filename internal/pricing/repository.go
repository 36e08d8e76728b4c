package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TierRepository persists the price tier master.
type TierRepository interface {
	WithTx(ctx context.Context, fn func(context.Context, TierRepository) error) error
	List(ctx context.Context) ([]PriceTier, error)
	GetByCode(ctx context.Context, code string) (PriceTier, error)
	GetDefault(ctx context.Context) (PriceTier, error)
	Create(ctx context.Context, tier PriceTier) (int64, error)
	Update(ctx context.Context, id int64, tier PriceTier) error
	ClearDefault(ctx context.Context) error
	CountDefaults(ctx context.Context) (int, error)
}

type tierRepository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewTierRepository builds a TierRepository. WithTx is only available
// when constructed from a pool.
func NewTierRepository(pool *pgxpool.Pool) TierRepository {
	return &tierRepository{db: pool, pool: pool}
}

func (r *tierRepository) WithTx(ctx context.Context, fn func(context.Context, TierRepository) error) error {
	if r.pool == nil {
		return errors.New("pricing: tier repository is already transaction-scoped")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &tierRepository{db: tx})
	})
}

const tierColumns = `id, code, name, description, multiplier, is_default, display_order, created_at, updated_at`

func (r *tierRepository) List(ctx context.Context) ([]PriceTier, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tierColumns+` FROM price_tiers ORDER BY display_order, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []PriceTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *tierRepository) GetByCode(ctx context.Context, code string) (PriceTier, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tierColumns+` FROM price_tiers WHERE code = $1`, code)
	t, err := scanTier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PriceTier{}, shared.NewError(shared.KindNotFound, "price tier %q not found", code)
	}
	return t, err
}

func (r *tierRepository) GetDefault(ctx context.Context) (PriceTier, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tierColumns+` FROM price_tiers WHERE is_default LIMIT 1`)
	t, err := scanTier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return PriceTier{}, shared.NewError(shared.KindDataIntegrity, "no default price tier configured")
	}
	return t, err
}

func (r *tierRepository) Create(ctx context.Context, tier PriceTier) (int64, error) {
	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO price_tiers (code, name, description, multiplier, is_default, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, tier.Code, tier.Name, tier.Description, tier.Multiplier, tier.IsDefault, tier.DisplayOrder, now, now).Scan(&id)
	return id, err
}

func (r *tierRepository) Update(ctx context.Context, id int64, tier PriceTier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE price_tiers
		SET name = $1, description = $2, multiplier = $3, is_default = $4, display_order = $5, updated_at = NOW()
		WHERE id = $6
	`, tier.Name, tier.Description, tier.Multiplier, tier.IsDefault, tier.DisplayOrder, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewError(shared.KindNotFound, "price tier %d not found", id)
	}
	return nil
}

func (r *tierRepository) ClearDefault(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `UPDATE price_tiers SET is_default = false, updated_at = NOW() WHERE is_default`)
	return err
}

func (r *tierRepository) CountDefaults(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM price_tiers WHERE is_default`).Scan(&n)
	return n, err
}

func scanTier(row pgx.Row) (PriceTier, error) {
	var t PriceTier
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.Multiplier, &t.IsDefault, &t.DisplayOrder, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
