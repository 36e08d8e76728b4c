package numbering

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type memorySequenceRepo struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newMemorySequenceRepo() *memorySequenceRepo {
	return &memorySequenceRepo{seqs: make(map[string]int64)}
}

func (r *memorySequenceRepo) NextSequence(_ context.Context, docType DocumentType, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(docType) + ":" + period
	r.seqs[key]++
	return r.seqs[key], nil
}

func TestNextFormatsNumber(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	ctx := context.Background()
	date := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

	n, err := svc.Next(ctx, DocTypeQuotation, date)
	require.NoError(t, err)
	require.Equal(t, "2025.03.001", n.Number)
	require.Equal(t, 1, n.Revision)
	require.Equal(t, "R1", n.RevisionLabel())
	require.Equal(t, "2025.03.001", n.String())

	n, err = svc.Next(ctx, DocTypeQuotation, date)
	require.NoError(t, err)
	require.Equal(t, "2025.03.002", n.Number)
}

func TestSequencesScopedPerTypeAndMonth(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	ctx := context.Background()
	march := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	n1, err := svc.Next(ctx, DocTypeQuotation, march)
	require.NoError(t, err)
	n2, err := svc.Next(ctx, DocTypeInvoice, march)
	require.NoError(t, err)
	n3, err := svc.Next(ctx, DocTypeQuotation, april)
	require.NoError(t, err)

	require.Equal(t, "2025.03.001", n1.Number)
	require.Equal(t, "2025.03.001", n2.Number)
	require.Equal(t, "2025.04.001", n3.Number)
}

func TestNextRejectsUnknownDocType(t *testing.T) {
	svc := NewService(newMemorySequenceRepo())
	_, err := svc.Next(context.Background(), DocumentType("purchase_order"), time.Now())
	require.Error(t, err)
}

func TestConcurrentCreatorsGetUniqueGaplessSequences(t *testing.T) {
	const creators = 100
	svc := NewService(newMemorySequenceRepo())
	date := time.Date(2025, time.July, 7, 9, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	numbers := make([]string, 0, creators)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < creators; i++ {
		g.Go(func() error {
			n, err := svc.Next(ctx, DocTypeQuotation, date)
			if err != nil {
				return err
			}
			mu.Lock()
			numbers = append(numbers, n.Number)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, numbers, creators)

	seen := make(map[string]bool, creators)
	for _, n := range numbers {
		require.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}

	// Gapless: sorted sequence runs 001..100 with no holes.
	sort.Strings(numbers)
	require.Equal(t, "2025.07.001", numbers[0])
	require.Equal(t, "2025.07.100", numbers[creators-1])
}

func TestRevisionSuffixOnlyFromSecondRevision(t *testing.T) {
	n := DocumentNumber{Number: "2025.01.007", Revision: 1}
	require.Equal(t, "2025.01.007", n.String())

	r2 := n.Revised()
	require.Equal(t, 2, r2.Revision)
	require.Equal(t, "2025.01.007 R2", r2.String())
	require.Equal(t, "2025.01.007 R3", r2.Revised().String())
}
