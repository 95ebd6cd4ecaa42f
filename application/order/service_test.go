package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/memory"
	"marketplace/infrastructure/persistence/retry"
)

func newTestService(t *testing.T) (*ApplicationService, *memory.OrderRepository) {
	t.Helper()
	repo := memory.NewOrderRepository()
	uowFactory := memory.NewUnitOfWorkFactory(nil, retry.Config{
		Enabled:                       true,
		MaxAttempts:                   3,
		InitialDelay:                  time.Millisecond,
		MaxDelay:                      5 * time.Millisecond,
		BackoffFactor:                 2.0,
		RetryOnConcurrentModification: true,
	})
	return NewApplicationService(repo, uowFactory), repo
}

// seedTwoSellerOrder stores an order carrying items from seller-a
// (100 paise x 2) and seller-b (50 paise x 1).
func seedTwoSellerOrder(t *testing.T, repo *memory.OrderRepository) *order.Order {
	t.Helper()
	o, err := order.NewOrder("buyer-1", "42 Harbour Lane", []order.ItemRequest{
		{SellerRef: "seller-a", ProductRef: "prod-1", ProductName: "Clay Mug", Quantity: 2, UnitPrice: *shared.NewMoney(100, "INR")},
		{SellerRef: "seller-b", ProductRef: "prod-2", ProductName: "Tea Sampler", Quantity: 1, UnitPrice: *shared.NewMoney(50, "INR")},
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := repo.Save(context.Background(), o); err != nil {
		t.Fatalf("seed save: %v", err)
	}
	return o
}

func itemIDOf(t *testing.T, o *order.Order, sellerRef string) string {
	t.Helper()
	for _, item := range o.Items() {
		if item.SellerRef() == sellerRef {
			return item.ID()
		}
	}
	t.Fatalf("no item for seller %s", sellerRef)
	return ""
}

func intPtr(v int) *int { return &v }

func TestGetSellerOrderScopesToSeller(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)

	view, err := svc.GetSellerOrder(context.Background(), "seller-a", o.ID())
	if err != nil {
		t.Fatalf("GetSellerOrder: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 item for seller-a, got %d", len(view.Items))
	}
	if view.Items[0].ProductName != "Clay Mug" {
		t.Errorf("unexpected item %q", view.Items[0].ProductName)
	}
	if view.SellerTotal.Amount != 200 {
		t.Errorf("seller total = %d, want 200", view.SellerTotal.Amount)
	}
	if view.Items[0].Subtotal.Amount != 200 {
		t.Errorf("subtotal = %d, want 200", view.Items[0].Subtotal.Amount)
	}
}

func TestGetSellerOrderEmptyProjectionIsNotAnError(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)

	view, err := svc.GetSellerOrder(context.Background(), "seller-z", o.ID())
	if err != nil {
		t.Fatalf("GetSellerOrder: %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("expected empty projection, got %d items", len(view.Items))
	}
	if view.SellerTotal.Amount != 0 {
		t.Errorf("seller total = %d, want 0", view.SellerTotal.Amount)
	}
}

func TestGetSellerOrderUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetSellerOrder(context.Background(), "seller-a", "missing")
	if !errors.Is(err, order.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListSellerOrdersFilters(t *testing.T) {
	svc, repo := newTestService(t)
	seedTwoSellerOrder(t, repo)

	views, err := svc.ListSellerOrders(context.Background(), "seller-a", RangeToday, "")
	if err != nil {
		t.Fatalf("ListSellerOrders: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 order today, got %d", len(views))
	}

	views, err = svc.ListSellerOrders(context.Background(), "seller-a", RangeOverall, string(order.ItemStatusShipped))
	if err != nil {
		t.Fatalf("ListSellerOrders with status: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no shipped orders, got %d", len(views))
	}

	if _, err := svc.ListSellerOrders(context.Background(), "seller-a", "fortnight", ""); !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected validation error for bad range, got %v", err)
	}
	if _, err := svc.ListSellerOrders(context.Background(), "seller-a", RangeOverall, "Teleported"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestUpdateLineItemStatusHappyPath(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")

	resp, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(0),
	})
	if err != nil {
		t.Fatalf("UpdateLineItemStatus: %v", err)
	}
	if !resp.Changed {
		t.Error("expected Changed=true")
	}
	if resp.ItemStatus != string(order.ItemStatusProcessing) {
		t.Errorf("item status = %s", resp.ItemStatus)
	}
	if resp.Version != 1 {
		t.Errorf("version = %d, want 1", resp.Version)
	}

	stored, err := repo.FindByID(context.Background(), o.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Version() != 1 {
		t.Errorf("stored version = %d, want 1", stored.Version())
	}
}

func TestUpdateLineItemStatusStaleVersion(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")

	if _, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(0),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusReadyToShip),
		ExpectedVersion: intPtr(0),
	})
	if !errors.Is(err, order.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestUpdateLineItemStatusIdempotentReapply(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")

	if _, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(0),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A client retry after a timed-out but committed request carries the
	// old expected version. Reapplying the same target must still succeed
	// as a no-op.
	resp, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(0),
	})
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if resp.Changed {
		t.Error("reapply must report Changed=false")
	}
	if resp.Version != 1 {
		t.Errorf("version = %d, want 1 (unchanged)", resp.Version)
	}
}

func TestUpdateLineItemStatusForeignSeller(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")

	_, err := svc.UpdateLineItemStatus(context.Background(), "seller-b", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(0),
	})
	if !errors.Is(err, order.ErrNotItemOwner) {
		t.Fatalf("expected ErrNotItemOwner, got %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), o.ID())
	if stored.Version() != 0 {
		t.Errorf("rejected update must not bump version, got %d", stored.Version())
	}
}

func TestUpdateLineItemStatusInvalidTransition(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")

	_, err := svc.UpdateLineItemStatus(context.Background(), "seller-a", o.ID(), itemA, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusShipped),
		ExpectedVersion: intPtr(0),
	})
	if !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// Two sellers race to update their own items on the same order with the
// same observed version. Exactly one wins; the other sees a version
// conflict, re-reads, and succeeds with the fresh version.
func TestUpdateLineItemStatusConcurrentSellers(t *testing.T) {
	svc, repo := newTestService(t)
	o := seedTwoSellerOrder(t, repo)
	itemA := itemIDOf(t, o, "seller-a")
	itemB := itemIDOf(t, o, "seller-b")

	type attempt struct {
		sellerRef string
		itemID    string
		err       error
	}
	attempts := []*attempt{
		{sellerRef: "seller-a", itemID: itemA},
		{sellerRef: "seller-b", itemID: itemB},
	}

	var wg sync.WaitGroup
	for _, a := range attempts {
		wg.Add(1)
		go func(a *attempt) {
			defer wg.Done()
			_, a.err = svc.UpdateLineItemStatus(context.Background(), a.sellerRef, o.ID(), a.itemID, UpdateLineItemStatusRequest{
				NewStatus:       string(order.ItemStatusProcessing),
				ExpectedVersion: intPtr(0),
			})
		}(a)
	}
	wg.Wait()

	var winner, loser *attempt
	for _, a := range attempts {
		if a.err == nil {
			winner = a
		} else {
			loser = a
		}
	}
	if winner == nil {
		t.Fatalf("no attempt succeeded: %v, %v", attempts[0].err, attempts[1].err)
	}
	if loser == nil {
		t.Fatal("both attempts succeeded with the same expected version")
	}
	if !errors.Is(loser.err, order.ErrVersionMismatch) {
		t.Fatalf("loser error = %v, want ErrVersionMismatch", loser.err)
	}

	// The loser refetches and retries with the fresh version.
	fresh, err := svc.GetSellerOrder(context.Background(), loser.sellerRef, o.ID())
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if _, err := svc.UpdateLineItemStatus(context.Background(), loser.sellerRef, o.ID(), loser.itemID, UpdateLineItemStatusRequest{
		NewStatus:       string(order.ItemStatusProcessing),
		ExpectedVersion: intPtr(fresh.Version),
	}); err != nil {
		t.Fatalf("retry with fresh version: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), o.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	for _, item := range stored.Items() {
		if item.Status() != order.ItemStatusProcessing {
			t.Errorf("item %s status = %s, want Processing", item.ID(), item.Status())
		}
	}
	if stored.Status() != order.StatusProcessing {
		t.Errorf("order status = %s, want Processing", stored.Status())
	}
}
