package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTotalReservedSkipsReleasedEntries(t *testing.T) {
	released := time.Now()
	entries := []Reservation{
		{Quantity: decimal.RequireFromString("10.5")},
		{Quantity: decimal.RequireFromString("4.5")},
		{Quantity: decimal.RequireFromString("99"), ReleasedAt: &released},
	}
	require.True(t, TotalReserved(entries).Equal(decimal.RequireFromString("15")))
	require.True(t, TotalReserved(nil).IsZero())
}
