package finance

import (
	"testing"
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
)

func deliveredOrder(t *testing.T, sellerRef string, deliveredAt time.Time, prices []int64, quantities []int) *order.Order {
	t.Helper()
	if len(prices) != len(quantities) {
		t.Fatal("prices and quantities must align")
	}
	requests := make([]order.ItemRequest, len(prices))
	for i := range prices {
		requests[i] = order.ItemRequest{
			SellerRef:   sellerRef,
			ProductRef:  "prod",
			ProductName: "Widget",
			Quantity:    quantities[i],
			UnitPrice:   *shared.NewMoney(prices[i], "USD"),
		}
	}
	o, err := order.NewOrder("buyer-1", "addr", requests)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	for _, item := range o.Items() {
		for _, s := range []order.ItemStatus{order.ItemStatusProcessing, order.ItemStatusReadyToShip, order.ItemStatusShipped} {
			if _, err := o.TransitionItem(sellerRef, item.ID(), s, deliveredAt); err != nil {
				t.Fatalf("transition to %s failed: %v", s, err)
			}
		}
		if _, err := o.TransitionItem(sellerRef, item.ID(), order.ItemStatusDelivered, deliveredAt); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
	}
	return o
}

func TestComputeEarningsBasic(t *testing.T) {
	settledAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	orders := []*order.Order{
		deliveredOrder(t, "seller-a", settledAt, []int64{100}, []int{2}),
	}

	report, err := ComputeEarnings("seller-a", orders, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}

	if report.GrossSales.Amount() != 200 {
		t.Errorf("gross = %d, want 200", report.GrossSales.Amount())
	}
	if report.Commission.Amount() != 20 {
		t.Errorf("commission = %d, want 20", report.Commission.Amount())
	}
	if report.NetEarnings.Amount() != 180 {
		t.Errorf("net = %d, want 180", report.NetEarnings.Amount())
	}
	if len(report.Breakdown) != 1 {
		t.Fatalf("breakdown has %d orders, want 1", len(report.Breakdown))
	}
	if len(report.Breakdown[0].Entries) != 1 {
		t.Errorf("breakdown entries = %d, want 1", len(report.Breakdown[0].Entries))
	}
}

func TestComputeEarningsIgnoresUnsettledAndForeignItems(t *testing.T) {
	settledAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	o, err := order.NewOrder("buyer-1", "addr", []order.ItemRequest{
		{SellerRef: "seller-a", ProductName: "Widget", Quantity: 1, UnitPrice: *shared.NewMoney(100, "USD")},
		{SellerRef: "seller-b", ProductName: "Gadget", Quantity: 1, UnitPrice: *shared.NewMoney(500, "USD")},
	})
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	// Only seller A's item is delivered; B's stays Pending.
	for _, item := range o.Items() {
		if item.SellerRef() != "seller-a" {
			continue
		}
		for _, s := range []order.ItemStatus{order.ItemStatusProcessing, order.ItemStatusReadyToShip, order.ItemStatusShipped, order.ItemStatusDelivered} {
			if _, err := o.TransitionItem("seller-a", item.ID(), s, settledAt); err != nil {
				t.Fatalf("transition failed: %v", err)
			}
		}
	}

	report, err := ComputeEarnings("seller-a", []*order.Order{o}, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}
	if report.GrossSales.Amount() != 100 {
		t.Errorf("gross = %d, want 100 (foreign and unsettled items must not count)", report.GrossSales.Amount())
	}
}

func TestComputeEarningsWindowFiltering(t *testing.T) {
	january := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	february := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	orders := []*order.Order{
		deliveredOrder(t, "seller-a", january, []int64{100}, []int{1}),
		deliveredOrder(t, "seller-a", february, []int64{300}, []int{1}),
	}

	window := Window{
		Start: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	report, err := ComputeEarnings("seller-a", orders, window, 1000, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}
	if report.GrossSales.Amount() != 300 {
		t.Errorf("gross = %d, want 300 (only the February settlement is in window)", report.GrossSales.Amount())
	}
}

func TestComputeEarningsBreakdownNewestFirst(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	orders := []*order.Order{
		deliveredOrder(t, "seller-a", older, []int64{100}, []int{1}),
		deliveredOrder(t, "seller-a", newer, []int64{200}, []int{1}),
	}

	report, err := ComputeEarnings("seller-a", orders, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}
	if len(report.Breakdown) != 2 {
		t.Fatalf("breakdown has %d orders, want 2", len(report.Breakdown))
	}
	if !report.Breakdown[0].SettledAt.After(report.Breakdown[1].SettledAt) {
		t.Error("breakdown is not sorted newest first")
	}
}

// The cumulative allocation keeps total commission within one minor unit
// of gross*rate no matter how the gross is split across items.
func TestCommissionRoundingDoesNotDrift(t *testing.T) {
	settledAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	// 33 items of 101 at 2.5% produces a fractional commission per item.
	prices := make([]int64, 33)
	quantities := make([]int, 33)
	for i := range prices {
		prices[i] = 101
		quantities[i] = 1
	}
	orders := []*order.Order{deliveredOrder(t, "seller-a", settledAt, prices, quantities)}

	report, err := ComputeEarnings("seller-a", orders, Window{}, 250, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}

	gross := report.GrossSales.Amount()
	if gross != 33*101 {
		t.Fatalf("gross = %d, want %d", gross, 33*101)
	}
	exact := roundHalfEven(gross*250, 10000)
	if diff := report.Commission.Amount() - exact; diff < -1 || diff > 1 {
		t.Errorf("total commission %d drifts from %d by %d", report.Commission.Amount(), exact, diff)
	}

	var sum int64
	for _, oe := range report.Breakdown {
		for _, entry := range oe.Entries {
			sum += entry.CommissionAmount.Amount()
			if entry.GrossAmount.Amount() != entry.CommissionAmount.Amount()+entry.NetAmount.Amount() {
				t.Error("entry gross != commission + net")
			}
		}
	}
	if sum != report.Commission.Amount() {
		t.Errorf("entry commissions sum to %d, report says %d", sum, report.Commission.Amount())
	}
	if report.GrossSales.Amount() != report.Commission.Amount()+report.NetEarnings.Amount() {
		t.Error("report gross != commission + net")
	}
}

func TestComputeEarningsIdempotent(t *testing.T) {
	settledAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	orders := []*order.Order{
		deliveredOrder(t, "seller-a", settledAt, []int64{101, 37, 999}, []int{3, 7, 1}),
	}

	first, err := ComputeEarnings("seller-a", orders, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := ComputeEarnings("seller-a", orders, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if !first.GrossSales.Equals(second.GrossSales) ||
		!first.Commission.Equals(second.Commission) ||
		!first.NetEarnings.Equals(second.NetEarnings) {
		t.Error("identical inputs produced different totals")
	}
	if len(first.Breakdown) != len(second.Breakdown) {
		t.Fatal("identical inputs produced different breakdowns")
	}
	for i := range first.Breakdown {
		if first.Breakdown[i].OrderID != second.Breakdown[i].OrderID {
			t.Error("breakdown ordering is not deterministic")
		}
	}
}

func TestComputeEarningsRejectsBadRate(t *testing.T) {
	for _, rate := range []int{-1, 10001} {
		if _, err := ComputeEarnings("seller-a", nil, Window{}, rate, "USD"); err != ErrInvalidCommissionRate {
			t.Errorf("rate %d: error = %v, want ErrInvalidCommissionRate", rate, err)
		}
	}
}

func TestComputeEarningsEmpty(t *testing.T) {
	report, err := ComputeEarnings("seller-a", nil, Window{}, 1000, "USD")
	if err != nil {
		t.Fatalf("ComputeEarnings failed: %v", err)
	}
	if report.GrossSales.Amount() != 0 || report.Commission.Amount() != 0 || report.NetEarnings.Amount() != 0 {
		t.Error("empty input must produce zero totals")
	}
	if report.GrossSales.Currency() != "USD" {
		t.Errorf("empty report currency = %q, want USD", report.GrossSales.Currency())
	}
	if len(report.Breakdown) != 0 {
		t.Error("empty input must produce an empty breakdown")
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := []struct {
		num, den, want int64
	}{
		{0, 10000, 0},
		{25000, 10000, 2},  // 2.5 rounds to even 2
		{35000, 10000, 4},  // 3.5 rounds to even 4
		{24999, 10000, 2},  // below half rounds down
		{25001, 10000, 3},  // above half rounds up
		{200000, 10000, 20}, // exact
	}
	for _, tt := range tests {
		if got := roundHalfEven(tt.num, tt.den); got != tt.want {
			t.Errorf("roundHalfEven(%d, %d) = %d, want %d", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestPendingPayments(t *testing.T) {
	o, err := order.NewOrder("buyer-1", "addr", []order.ItemRequest{
		{SellerRef: "seller-a", ProductName: "Widget", Quantity: 2, UnitPrice: *shared.NewMoney(100, "USD")},
		{SellerRef: "seller-b", ProductName: "Gadget", Quantity: 1, UnitPrice: *shared.NewMoney(50, "USD")},
	})
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}

	pending, err := PendingPayments("seller-a", []*order.Order{o}, 1000)
	if err != nil {
		t.Fatalf("PendingPayments failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending payments, want 1", len(pending))
	}
	if pending[0].NetAmount.Amount() != 180 {
		t.Errorf("pending net = %d, want 180", pending[0].NetAmount.Amount())
	}
	want := o.PlacedAt().Add(SettlementDelay)
	if !pending[0].ExpectedAt.Equal(want) {
		t.Errorf("expectedAt = %v, want %v", pending[0].ExpectedAt, want)
	}

	// Delivered and exited items drop out of the pending list.
	for _, item := range o.Items() {
		if item.SellerRef() != "seller-a" {
			continue
		}
		if _, err := o.TransitionItem("seller-a", item.ID(), order.ItemStatusCancelled, time.Now()); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
	}
	pending, err = PendingPayments("seller-a", []*order.Order{o}, 1000)
	if err != nil {
		t.Fatalf("PendingPayments failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending payments after cancellation, want 0", len(pending))
	}
}
