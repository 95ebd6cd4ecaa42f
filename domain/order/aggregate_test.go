package order

import (
	"errors"
	"testing"
	"time"

	"marketplace/domain/shared"
)

func mustNewOrder(t *testing.T, requests []ItemRequest) *Order {
	t.Helper()
	o, err := NewOrder("buyer-1", "1 Main St, Springfield", requests)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	return o
}

func twoSellerOrder(t *testing.T) *Order {
	t.Helper()
	return mustNewOrder(t, []ItemRequest{
		{SellerRef: "seller-a", ProductRef: "prod-1", ProductName: "Widget", Quantity: 2, UnitPrice: *shared.NewMoney(100, "USD")},
		{SellerRef: "seller-b", ProductRef: "prod-2", ProductName: "Gadget", Quantity: 1, UnitPrice: *shared.NewMoney(50, "USD")},
	})
}

func itemOfSeller(t *testing.T, o *Order, sellerRef string) LineItem {
	t.Helper()
	for _, item := range o.Items() {
		if item.SellerRef() == sellerRef {
			return item
		}
	}
	t.Fatalf("no item for seller %s", sellerRef)
	return LineItem{}
}

// advance walks an item along the happy path up to target.
func advance(t *testing.T, o *Order, sellerRef, itemID string, target ItemStatus) {
	t.Helper()
	path := []ItemStatus{ItemStatusProcessing, ItemStatusReadyToShip, ItemStatusShipped, ItemStatusDelivered}
	for _, s := range path {
		if _, err := o.TransitionItem(sellerRef, itemID, s, time.Now()); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
		if s == target {
			return
		}
	}
	t.Fatalf("target %s not on happy path", target)
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name     string
		buyerRef string
		requests []ItemRequest
		wantErr  error
	}{
		{
			name:     "empty items rejected",
			buyerRef: "buyer-1",
			requests: nil,
			wantErr:  ErrEmptyOrderItems,
		},
		{
			name:     "zero quantity rejected",
			buyerRef: "buyer-1",
			requests: []ItemRequest{{SellerRef: "s", Quantity: 0, UnitPrice: *shared.NewMoney(10, "USD")}},
			wantErr:  ErrInvalidQuantity,
		},
		{
			name:     "negative unit price rejected",
			buyerRef: "buyer-1",
			requests: []ItemRequest{{SellerRef: "s", Quantity: 1, UnitPrice: *shared.NewMoney(-10, "USD")}},
			wantErr:  ErrInvalidUnitPrice,
		},
		{
			name:     "missing buyer rejected",
			buyerRef: "",
			requests: []ItemRequest{{SellerRef: "s", Quantity: 1, UnitPrice: *shared.NewMoney(10, "USD")}},
			wantErr:  shared.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.buyerRef, "addr", tt.requests)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewOrder error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOrderInitialState(t *testing.T) {
	o := twoSellerOrder(t)

	if o.Status() != StatusPending {
		t.Errorf("status = %s, want %s", o.Status(), StatusPending)
	}
	if o.Version() != 0 {
		t.Errorf("version = %d, want 0", o.Version())
	}
	if !o.IsNew() {
		t.Error("expected IsNew true for a fresh order")
	}
	for _, item := range o.Items() {
		if item.Status() != ItemStatusPending {
			t.Errorf("item %s status = %s, want Pending", item.ID(), item.Status())
		}
		if item.DeliveredAt() != nil {
			t.Error("fresh item must not have a delivery timestamp")
		}
	}

	events := o.PullEvents()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].EventName() != OrderPlacedEventName {
		t.Errorf("event = %s, want %s", events[0].EventName(), OrderPlacedEventName)
	}
	if got := o.PullEvents(); len(got) != 0 {
		t.Errorf("second PullEvents returned %d events, want 0", len(got))
	}
}

// The order total is the sum of all sellers' projection totals, and
// status changes never move it.
func TestTotalConservation(t *testing.T) {
	o := twoSellerOrder(t)

	total, err := o.TotalAmount()
	if err != nil {
		t.Fatalf("TotalAmount failed: %v", err)
	}
	if total.Amount() != 250 {
		t.Errorf("order total = %d, want 250", total.Amount())
	}

	viewA := o.ProjectForSeller("seller-a")
	viewB := o.ProjectForSeller("seller-b")
	totalA, err := viewA.SellerTotal()
	if err != nil {
		t.Fatalf("seller A total: %v", err)
	}
	totalB, err := viewB.SellerTotal()
	if err != nil {
		t.Fatalf("seller B total: %v", err)
	}
	if totalA.Amount() != 200 || totalB.Amount() != 50 {
		t.Errorf("projection totals = %d/%d, want 200/50", totalA.Amount(), totalB.Amount())
	}
	if totalA.Amount()+totalB.Amount() != total.Amount() {
		t.Error("projection totals do not sum to the order total")
	}

	itemA := itemOfSeller(t, o, "seller-a")
	advance(t, o, "seller-a", itemA.ID(), ItemStatusDelivered)

	after, err := o.TotalAmount()
	if err != nil {
		t.Fatalf("TotalAmount after transitions: %v", err)
	}
	if after.Amount() != 250 {
		t.Errorf("order total changed to %d after status updates", after.Amount())
	}
}

// Every line item belongs to exactly one seller's projection.
func TestProjectionPartition(t *testing.T) {
	o := mustNewOrder(t, []ItemRequest{
		{SellerRef: "seller-a", Quantity: 1, UnitPrice: *shared.NewMoney(10, "USD")},
		{SellerRef: "seller-a", Quantity: 3, UnitPrice: *shared.NewMoney(20, "USD")},
		{SellerRef: "seller-b", Quantity: 2, UnitPrice: *shared.NewMoney(30, "USD")},
		{SellerRef: "seller-c", Quantity: 1, UnitPrice: *shared.NewMoney(40, "USD")},
	})

	seen := make(map[string]string)
	for _, sellerRef := range []string{"seller-a", "seller-b", "seller-c"} {
		view := o.ProjectForSeller(sellerRef)
		for _, item := range view.Items {
			if item.SellerRef() != sellerRef {
				t.Errorf("projection for %s leaked item of %s", sellerRef, item.SellerRef())
			}
			if owner, dup := seen[item.ID()]; dup {
				t.Errorf("item %s appears in projections for %s and %s", item.ID(), owner, sellerRef)
			}
			seen[item.ID()] = sellerRef
		}
	}
	if len(seen) != len(o.Items()) {
		t.Errorf("projections cover %d items, order has %d", len(seen), len(o.Items()))
	}
}

func TestProjectionEmptyForUninvolvedSeller(t *testing.T) {
	o := twoSellerOrder(t)

	view := o.ProjectForSeller("seller-z")
	if !view.IsEmpty() {
		t.Fatal("expected an empty projection")
	}
	total, err := view.SellerTotal()
	if err != nil {
		t.Fatalf("SellerTotal on empty view: %v", err)
	}
	if total.Amount() != 0 {
		t.Errorf("empty projection total = %d, want 0", total.Amount())
	}
	if view.OrderID != o.ID() {
		t.Error("empty projection must still identify the order")
	}
}

func TestTransitionItem(t *testing.T) {
	t.Run("legal forward step", func(t *testing.T) {
		o := twoSellerOrder(t)
		item := itemOfSeller(t, o, "seller-a")

		changed, err := o.TransitionItem("seller-a", item.ID(), ItemStatusProcessing, time.Now())
		if err != nil {
			t.Fatalf("transition failed: %v", err)
		}
		if !changed {
			t.Error("expected changed=true")
		}
		if got := itemOfSeller(t, o, "seller-a").Status(); got != ItemStatusProcessing {
			t.Errorf("item status = %s, want Processing", got)
		}
	})

	t.Run("skipping states is rejected", func(t *testing.T) {
		o := twoSellerOrder(t)
		item := itemOfSeller(t, o, "seller-a")

		_, err := o.TransitionItem("seller-a", item.ID(), ItemStatusShipped, time.Now())
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("error = %v, want ErrInvalidTransition", err)
		}
		if got := itemOfSeller(t, o, "seller-a").Status(); got != ItemStatusPending {
			t.Errorf("failed transition mutated state to %s", got)
		}
	})

	t.Run("another seller's item is rejected", func(t *testing.T) {
		o := twoSellerOrder(t)
		itemB := itemOfSeller(t, o, "seller-b")

		_, err := o.TransitionItem("seller-a", itemB.ID(), ItemStatusProcessing, time.Now())
		if !errors.Is(err, ErrNotItemOwner) {
			t.Errorf("error = %v, want ErrNotItemOwner", err)
		}
		if got := itemOfSeller(t, o, "seller-b").Status(); got != ItemStatusPending {
			t.Errorf("foreign transition mutated state to %s", got)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		o := twoSellerOrder(t)
		_, err := o.TransitionItem("seller-a", "no-such-item", ItemStatusProcessing, time.Now())
		if !errors.Is(err, ErrLineItemNotFound) {
			t.Errorf("error = %v, want ErrLineItemNotFound", err)
		}
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		o := twoSellerOrder(t)
		item := itemOfSeller(t, o, "seller-a")
		if _, err := o.TransitionItem("seller-a", item.ID(), ItemStatusProcessing, time.Now()); err != nil {
			t.Fatalf("first transition: %v", err)
		}
		o.PullEvents()

		changed, err := o.TransitionItem("seller-a", item.ID(), ItemStatusProcessing, time.Now())
		if err != nil {
			t.Fatalf("reapply errored: %v", err)
		}
		if changed {
			t.Error("reapplying the current status must report changed=false")
		}
		if events := o.PullEvents(); len(events) != 0 {
			t.Errorf("no-op reapply recorded %d events", len(events))
		}
	})

	t.Run("cancel from any active state", func(t *testing.T) {
		for _, from := range []ItemStatus{ItemStatusPending, ItemStatusProcessing, ItemStatusReadyToShip, ItemStatusShipped} {
			o := twoSellerOrder(t)
			item := itemOfSeller(t, o, "seller-a")
			if from != ItemStatusPending {
				advance(t, o, "seller-a", item.ID(), from)
			}
			if _, err := o.TransitionItem("seller-a", item.ID(), ItemStatusCancelled, time.Now()); err != nil {
				t.Errorf("cancel from %s failed: %v", from, err)
			}
		}
	})

	t.Run("terminal states admit nothing", func(t *testing.T) {
		o := twoSellerOrder(t)
		item := itemOfSeller(t, o, "seller-a")
		if _, err := o.TransitionItem("seller-a", item.ID(), ItemStatusCancelled, time.Now()); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		for _, target := range []ItemStatus{ItemStatusPending, ItemStatusProcessing, ItemStatusShipped, ItemStatusDelivered, ItemStatusReturned} {
			if _, err := o.TransitionItem("seller-a", item.ID(), target, time.Now()); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Cancelled -> %s: error = %v, want ErrInvalidTransition", target, err)
			}
		}
	})
}

func TestDeliveryStampsSettlementTime(t *testing.T) {
	o := twoSellerOrder(t)
	item := itemOfSeller(t, o, "seller-a")
	deliveredAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	advance(t, o, "seller-a", item.ID(), ItemStatusShipped)
	if _, err := o.TransitionItem("seller-a", item.ID(), ItemStatusDelivered, deliveredAt); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	got := itemOfSeller(t, o, "seller-a").DeliveredAt()
	if got == nil || !got.Equal(deliveredAt) {
		t.Errorf("deliveredAt = %v, want %v", got, deliveredAt)
	}
}

func TestPostDeliveryReturnClearsSettlement(t *testing.T) {
	o := twoSellerOrder(t)
	item := itemOfSeller(t, o, "seller-a")
	advance(t, o, "seller-a", item.ID(), ItemStatusDelivered)

	changed, err := o.TransitionItem("seller-a", item.ID(), ItemStatusReturned, time.Now())
	if err != nil {
		t.Fatalf("return after delivery failed: %v", err)
	}
	if !changed {
		t.Error("expected changed=true")
	}
	after := itemOfSeller(t, o, "seller-a")
	if after.Status() != ItemStatusReturned {
		t.Errorf("status = %s, want Returned", after.Status())
	}
	if after.DeliveredAt() != nil {
		t.Error("returned item must drop its settlement timestamp")
	}
}

func TestDerivedOrderStatus(t *testing.T) {
	t.Run("least advanced active item wins", func(t *testing.T) {
		o := twoSellerOrder(t)
		itemA := itemOfSeller(t, o, "seller-a")
		advance(t, o, "seller-a", itemA.ID(), ItemStatusShipped)

		// seller B's item is still Pending.
		if o.Status() != StatusPending {
			t.Errorf("status = %s, want Pending", o.Status())
		}
	})

	t.Run("all delivered is completed", func(t *testing.T) {
		o := twoSellerOrder(t)
		advance(t, o, "seller-a", itemOfSeller(t, o, "seller-a").ID(), ItemStatusDelivered)
		advance(t, o, "seller-b", itemOfSeller(t, o, "seller-b").ID(), ItemStatusDelivered)

		if o.Status() != StatusCompleted {
			t.Errorf("status = %s, want Completed", o.Status())
		}
	})

	t.Run("completion emits an event", func(t *testing.T) {
		o := twoSellerOrder(t)
		advance(t, o, "seller-a", itemOfSeller(t, o, "seller-a").ID(), ItemStatusDelivered)
		advance(t, o, "seller-b", itemOfSeller(t, o, "seller-b").ID(), ItemStatusDelivered)

		var completed bool
		for _, e := range o.PullEvents() {
			if e.EventName() == OrderCompletedEventName {
				completed = true
			}
		}
		if !completed {
			t.Error("expected an order completed event")
		}
	})

	t.Run("delivered plus cancelled is partially returned", func(t *testing.T) {
		o := twoSellerOrder(t)
		advance(t, o, "seller-a", itemOfSeller(t, o, "seller-a").ID(), ItemStatusDelivered)
		itemB := itemOfSeller(t, o, "seller-b")
		if _, err := o.TransitionItem("seller-b", itemB.ID(), ItemStatusCancelled, time.Now()); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		if o.Status() != StatusPartiallyReturned {
			t.Errorf("status = %s, want PartiallyReturned", o.Status())
		}
	})

	t.Run("exited item does not hold the order back", func(t *testing.T) {
		o := twoSellerOrder(t)
		itemA := itemOfSeller(t, o, "seller-a")
		if _, err := o.TransitionItem("seller-a", itemA.ID(), ItemStatusCancelled, time.Now()); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		advance(t, o, "seller-b", itemOfSeller(t, o, "seller-b").ID(), ItemStatusProcessing)

		if o.Status() != StatusProcessing {
			t.Errorf("status = %s, want Processing", o.Status())
		}
	})
}

func TestRebuildFromDTO(t *testing.T) {
	deliveredAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	placedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	o := RebuildFromDTO(ReconstructionDTO{
		ID:              "order-1",
		BuyerRef:        "buyer-1",
		ShippingAddress: "addr",
		Items: []LineItem{
			RebuildItemFromDTO(ItemReconstructionDTO{
				ID: "item-1", SellerRef: "seller-a", Quantity: 1,
				UnitPrice: *shared.NewMoney(100, "USD"),
				Status:    ItemStatusDelivered, DeliveredAt: &deliveredAt,
			}),
			RebuildItemFromDTO(ItemReconstructionDTO{
				ID: "item-2", SellerRef: "seller-b", Quantity: 2,
				UnitPrice: *shared.NewMoney(25, "USD"),
				Status:    ItemStatusShipped,
			}),
		},
		Version:  4,
		PlacedAt: placedAt,
	})

	if o.IsNew() {
		t.Error("rebuilt aggregate must not be new")
	}
	if o.Version() != 4 {
		t.Errorf("version = %d, want 4", o.Version())
	}
	// Order status is re-derived, not read from storage.
	if o.Status() != StatusShipped {
		t.Errorf("status = %s, want Shipped", o.Status())
	}
	if events := o.PullEvents(); len(events) != 0 {
		t.Errorf("rebuilt aggregate carries %d events", len(events))
	}
}
