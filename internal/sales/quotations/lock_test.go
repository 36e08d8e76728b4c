package quotations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func manilaClockAt(t *testing.T, value string) shared.FixedClock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return shared.FixedClock{T: ts}
}

func TestCanRevisePendingSameDay(t *testing.T) {
	clock := manilaClockAt(t, "2026-08-28 16:00")
	policy := NewLockPolicy(clock)

	q := &Quotation{Status: StatusPending, CreatedAt: clock.Now().Add(-3 * time.Hour)}
	d := policy.CanRevise(q)
	require.True(t, d.Allowed)
	require.Empty(t, d.Reason)
}

func TestCannotReviseApprovedOrConverted(t *testing.T) {
	clock := manilaClockAt(t, "2026-08-28 16:00")
	policy := NewLockPolicy(clock)

	for _, status := range []Status{StatusApproved, StatusConverted} {
		q := &Quotation{Status: status, CreatedAt: clock.Now()}
		d := policy.CanRevise(q)
		require.False(t, d.Allowed, "status %s", status)
		require.NotEmpty(t, d.Reason, "status %s", status)
	}
}

func TestCannotReviseAfterCreationDay(t *testing.T) {
	clock := manilaClockAt(t, "2026-08-28 09:00")
	policy := NewLockPolicy(clock)

	q := &Quotation{
		Number:    "2026.08.014",
		Revision:  1,
		Status:    StatusPending,
		CreatedAt: clock.Now().Add(-10 * time.Hour), // previous calendar day
	}
	d := policy.CanRevise(q)
	require.False(t, d.Allowed)
	require.Contains(t, d.Reason, "2026-08-27")
}

func TestCalendarDayComparedInReferenceTimezone(t *testing.T) {
	clock := manilaClockAt(t, "2026-08-28 01:00")
	policy := NewLockPolicy(clock)

	// 2026-08-27 17:00 UTC is 2026-08-28 01:00 in Manila, so a
	// quotation created at that instant is still same-day revisable.
	created := time.Date(2026, 8, 27, 17, 0, 0, 0, time.UTC)
	q := &Quotation{Status: StatusDraft, CreatedAt: created}
	require.True(t, policy.CanRevise(q).Allowed)

	// One hour earlier in UTC falls on 2026-08-27 in Manila.
	q.CreatedAt = created.Add(-2 * time.Hour)
	require.False(t, policy.CanRevise(q).Allowed)
}
