package production

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func itemWithShipments(quantity string, slots map[int]string) JobOrderItem {
	item := JobOrderItem{Quantity: dec(quantity)}
	for slot, v := range slots {
		item.Shipments[slot-1] = dec(v)
	}
	return item
}

func TestReconcilePartialShipments(t *testing.T) {
	item := itemWithShipments("1", map[int]string{1: "0.2", 3: "0.1"})
	rec := Reconcile(item)

	require.True(t, rec.Shipped.Equal(dec("0.3")), "shipped %s", rec.Shipped)
	require.True(t, rec.OrderBalance.Equal(dec("0.7")), "balance %s", rec.OrderBalance)
	require.False(t, rec.OverShipped)
}

func TestReconcileAllSlotsEmptyAndFull(t *testing.T) {
	empty := Reconcile(itemWithShipments("12", nil))
	require.True(t, empty.Shipped.IsZero())
	require.True(t, empty.OrderBalance.Equal(dec("12")))

	full := itemWithShipments("8", map[int]string{
		1: "1", 2: "1", 3: "1", 4: "1", 5: "1", 6: "1", 7: "1", 8: "1",
	})
	rec := Reconcile(full)
	require.True(t, rec.Shipped.Equal(dec("8")))
	require.True(t, rec.OrderBalance.IsZero())
	require.False(t, rec.OverShipped)
}

func TestReconcileClampsOverShipment(t *testing.T) {
	item := itemWithShipments("5", map[int]string{1: "4", 2: "3"})
	rec := Reconcile(item)

	require.True(t, rec.Shipped.Equal(dec("7")))
	require.True(t, rec.OrderBalance.IsZero(), "balance clamps at zero, got %s", rec.OrderBalance)
	require.True(t, rec.OverShipped)
}

// shipped + orderBalance == quantity holds after clamping for any slot
// combination that does not over-ship.
func TestReconcileInvariant(t *testing.T) {
	cases := []struct {
		quantity string
		slots    map[int]string
	}{
		{"1", map[int]string{1: "0.2", 3: "0.1"}},
		{"100", map[int]string{1: "25", 4: "25", 8: "50"}},
		{"3.75", map[int]string{2: "1.25"}},
		{"10", nil},
	}
	for _, tc := range cases {
		item := itemWithShipments(tc.quantity, tc.slots)
		rec := Reconcile(item)
		sum := rec.Shipped.Add(rec.OrderBalance)
		require.True(t, sum.Equal(dec(tc.quantity)),
			"shipped %s + balance %s != quantity %s", rec.Shipped, rec.OrderBalance, tc.quantity)
	}
}

func TestReconcileToProduce(t *testing.T) {
	item := itemWithShipments("100", nil)
	item.Reserved = dec("30")
	item.Ready = dec("20")

	rec := Reconcile(item)
	require.True(t, rec.ToProduce.Equal(dec("50")))
}
