package finance

import (
	"errors"
	"testing"
	"time"

	"marketplace/domain/shared"
)

func TestNewPayoutRequest(t *testing.T) {
	t.Run("valid request starts pending", func(t *testing.T) {
		p, err := NewPayoutRequest("seller-a", *shared.NewMoney(100, "USD"), "key-1")
		if err != nil {
			t.Fatalf("NewPayoutRequest failed: %v", err)
		}
		if p.Status() != PayoutStatusPending {
			t.Errorf("status = %s, want Pending", p.Status())
		}
		if !p.IsNew() {
			t.Error("expected IsNew true")
		}
		if p.IdempotencyKey() != "key-1" {
			t.Errorf("idempotency key = %q, want key-1", p.IdempotencyKey())
		}

		events := p.PullEvents()
		if len(events) != 1 || events[0].EventName() != PayoutRequestedEventName {
			t.Errorf("events = %v, want one payout requested event", events)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		_, err := NewPayoutRequest("seller-a", *shared.NewMoney(0, "USD"), "key-1")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := NewPayoutRequest("seller-a", *shared.NewMoney(-5, "USD"), "key-1")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("error = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("missing idempotency key rejected", func(t *testing.T) {
		_, err := NewPayoutRequest("seller-a", *shared.NewMoney(100, "USD"), "")
		if !errors.Is(err, ErrMissingIdempotencyKey) {
			t.Errorf("error = %v, want ErrMissingIdempotencyKey", err)
		}
	})
}

func TestPayoutTransitions(t *testing.T) {
	newPayout := func(t *testing.T) *PayoutRequest {
		t.Helper()
		p, err := NewPayoutRequest("seller-a", *shared.NewMoney(100, "USD"), "key-1")
		if err != nil {
			t.Fatalf("NewPayoutRequest failed: %v", err)
		}
		return p
	}

	t.Run("pending to processing to completed", func(t *testing.T) {
		p := newPayout(t)
		if err := p.Transition(PayoutStatusProcessing, time.Now()); err != nil {
			t.Fatalf("to Processing: %v", err)
		}
		if err := p.Transition(PayoutStatusCompleted, time.Now()); err != nil {
			t.Fatalf("to Completed: %v", err)
		}
		if p.Status() != PayoutStatusCompleted {
			t.Errorf("status = %s, want Completed", p.Status())
		}
	})

	t.Run("pending straight to completed rejected", func(t *testing.T) {
		p := newPayout(t)
		if err := p.Transition(PayoutStatusCompleted, time.Now()); !errors.Is(err, ErrInvalidPayoutTransition) {
			t.Errorf("error = %v, want ErrInvalidPayoutTransition", err)
		}
	})

	t.Run("rejection is allowed until completion", func(t *testing.T) {
		p := newPayout(t)
		if err := p.Transition(PayoutStatusProcessing, time.Now()); err != nil {
			t.Fatalf("to Processing: %v", err)
		}
		if err := p.Transition(PayoutStatusRejected, time.Now()); err != nil {
			t.Fatalf("to Rejected: %v", err)
		}
	})

	t.Run("terminal statuses admit nothing", func(t *testing.T) {
		p := newPayout(t)
		if err := p.Transition(PayoutStatusRejected, time.Now()); err != nil {
			t.Fatalf("to Rejected: %v", err)
		}
		if err := p.Transition(PayoutStatusPending, time.Now()); !errors.Is(err, ErrInvalidPayoutTransition) {
			t.Errorf("error = %v, want ErrInvalidPayoutTransition", err)
		}
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		p := newPayout(t)
		p.PullEvents()
		if err := p.Transition(PayoutStatusPending, time.Now()); err != nil {
			t.Fatalf("reapply errored: %v", err)
		}
		if events := p.PullEvents(); len(events) != 0 {
			t.Errorf("no-op reapply recorded %d events", len(events))
		}
	})
}

func TestCountsAgainstBalance(t *testing.T) {
	for status, want := range map[PayoutStatus]bool{
		PayoutStatusPending:    true,
		PayoutStatusProcessing: true,
		PayoutStatusCompleted:  true,
		PayoutStatusRejected:   false,
	} {
		if got := status.CountsAgainstBalance(); got != want {
			t.Errorf("%s.CountsAgainstBalance() = %v, want %v", status, got, want)
		}
	}
}

func TestRebuildPayoutFromDTO(t *testing.T) {
	requestedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := RebuildPayoutFromDTO(PayoutReconstructionDTO{
		ID:             "payout-1",
		SellerRef:      "seller-a",
		Amount:         *shared.NewMoney(100, "USD"),
		Status:         PayoutStatusProcessing,
		IdempotencyKey: "key-1",
		RequestedAt:    requestedAt,
		Version:        2,
	})

	if p.IsNew() {
		t.Error("rebuilt aggregate must not be new")
	}
	if p.Version() != 2 {
		t.Errorf("version = %d, want 2", p.Version())
	}
	if p.Status() != PayoutStatusProcessing {
		t.Errorf("status = %s, want Processing", p.Status())
	}
	if events := p.PullEvents(); len(events) != 0 {
		t.Errorf("rebuilt aggregate carries %d events", len(events))
	}
}
