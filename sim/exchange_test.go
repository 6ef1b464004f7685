package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quoting-engine-go/order"
)

func nextReport(t *testing.T, x *Exchange) order.Report {
	t.Helper()
	select {
	case r := <-x.Reports():
		return r
	default:
		t.Fatal("no report pending")
		return order.Report{}
	}
}

func TestSendOrderAcknowledges(t *testing.T) {
	x := NewExchange(16, nil)

	e, err := x.SendOrder(order.SideBuy, 100.05, 5)
	require.NoError(t, err)
	require.Equal(t, order.StatusPendingNew, e.Status)
	require.NotEmpty(t, e.ClientOrderID)

	r := nextReport(t, x)
	require.Equal(t, e.ClientOrderID, r.ClientOrderID)
	require.Equal(t, order.StatusNew, r.Status)

	w, ok := x.Working(order.SideBuy)
	require.True(t, ok)
	require.Equal(t, e.ClientOrderID, w.ClientOrderID)
}

func TestSendOrderReplacesSameSide(t *testing.T) {
	x := NewExchange(16, nil)

	first, _ := x.SendOrder(order.SideBuy, 100.05, 5)
	nextReport(t, x) // NEW for first

	second, err := x.SendOrder(order.SideBuy, 100.10, 5)
	require.NoError(t, err)

	// Cancel-previous: the old order dies before the new one is acked.
	r := nextReport(t, x)
	require.Equal(t, first.ClientOrderID, r.ClientOrderID)
	require.Equal(t, order.StatusCancelled, r.Status)

	r = nextReport(t, x)
	require.Equal(t, second.ClientOrderID, r.ClientOrderID)
	require.Equal(t, order.StatusNew, r.Status)

	w, ok := x.Working(order.SideBuy)
	require.True(t, ok)
	require.Equal(t, second.ClientOrderID, w.ClientOrderID)
}

func TestFillPartialThenFull(t *testing.T) {
	x := NewExchange(16, nil)
	e, _ := x.SendOrder(order.SideSell, 100.15, 5)
	nextReport(t, x)

	require.NoError(t, x.Fill(e.ClientOrderID, 2))
	r := nextReport(t, x)
	require.Equal(t, order.StatusPartial, r.Status)
	require.Equal(t, int64(2), r.LastFillQty)

	require.NoError(t, x.Fill(e.ClientOrderID, 3))
	r = nextReport(t, x)
	require.Equal(t, order.StatusFilled, r.Status)
	require.Equal(t, int64(3), r.LastFillQty)

	_, ok := x.Working(order.SideSell)
	require.False(t, ok, "filled order still working")

	require.Error(t, x.Fill(e.ClientOrderID, 1), "fill against dead order")
}

func TestFillRejectsOversize(t *testing.T) {
	x := NewExchange(16, nil)
	e, _ := x.SendOrder(order.SideBuy, 100.05, 5)
	nextReport(t, x)

	require.Error(t, x.Fill(e.ClientOrderID, 6))
	require.Error(t, x.Fill(e.ClientOrderID, 0))
}

func TestCancelOrder(t *testing.T) {
	x := NewExchange(16, nil)
	e, _ := x.SendOrder(order.SideBuy, 100.05, 5)
	nextReport(t, x)

	require.NoError(t, x.CancelOrder(e.ClientOrderID))
	r := nextReport(t, x)
	require.Equal(t, order.StatusCancelled, r.Status)

	// Duplicate cancels are tolerated and emit nothing.
	require.NoError(t, x.CancelOrder(e.ClientOrderID))
	select {
	case r := <-x.Reports():
		t.Fatalf("unexpected report %+v", r)
	default:
	}
}

func TestRejectRemovesOrder(t *testing.T) {
	x := NewExchange(16, nil)
	e, _ := x.SendOrder(order.SideSell, 100.15, 5)
	nextReport(t, x)

	require.NoError(t, x.Reject(e.ClientOrderID))
	r := nextReport(t, x)
	require.Equal(t, order.StatusRejected, r.Status)
	_, ok := x.Working(order.SideSell)
	require.False(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	x := NewExchange(16, nil)
	require.NoError(t, x.Close())
	require.NoError(t, x.Close())
	_, open := <-x.Reports()
	require.False(t, open)
}
