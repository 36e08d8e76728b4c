package numbering

import (
	"context"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository advances document sequences. NextSequence must be atomic
// with respect to concurrent callers: two creators in the same
// type+period must never observe the same value.
type Repository interface {
	NextSequence(ctx context.Context, docType DocumentType, period string) (int64, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository builds a Repository over a pool or transaction handle.
func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

// NextSequence increments the counter row for (doc_type, period) and
// returns the new value. The upsert serializes concurrent callers on
// the row lock, so sequences are gapless and duplicate-free without an
// in-memory cache.
func (r *repository) NextSequence(ctx context.Context, docType DocumentType, period string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(docType), period).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
