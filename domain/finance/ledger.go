package finance

import (
	"sort"
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
)

// LedgerEntry is one delivered line item's contribution to a seller's
// earnings. Entries are derived on read, never persisted.
type LedgerEntry struct {
	SellerRef        string
	OrderID          string
	LineItemID       string
	ProductName      string
	Quantity         int
	GrossAmount      shared.Money
	CommissionAmount shared.Money
	NetAmount        shared.Money
	SettledAt        time.Time
}

// OrderEarnings groups a seller's ledger entries by order for the report
// breakdown.
type OrderEarnings struct {
	OrderID    string
	SettledAt  time.Time
	Gross      shared.Money
	Commission shared.Money
	Net        shared.Money
	Entries    []LedgerEntry
}

// EarningsReport is the result of ComputeEarnings. Breakdown is sorted
// newest settlement first.
type EarningsReport struct {
	SellerRef   string
	WindowStart time.Time
	WindowEnd   time.Time
	RateBps     int
	GrossSales  shared.Money
	Commission  shared.Money
	NetEarnings shared.Money
	Breakdown   []OrderEarnings
}

// Window bounds an earnings computation, half-open [Start, End). A zero
// bound is unbounded on that side.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// settledItem pairs a delivered line item with its order context.
type settledItem struct {
	orderID   string
	item      order.LineItem
	settledAt time.Time
}

// ComputeEarnings derives a seller's earnings over the given window from
// the supplied orders. Only line items with a delivery timestamp inside
// the window contribute. rateBps is the platform commission in basis
// points (1000 = 10%).
//
// The commission is allocated cumulatively: for each item, the running
// commission total is round-half-to-even of the running gross times the
// rate, and the item receives the difference. The total commission over
// any prefix therefore never drifts from gross*rate by more than one
// minor unit, no matter how many items contribute.
//
// This is a pure function of its inputs. Identical inputs produce
// identical reports, which the payout engine relies on when it recomputes
// the balance for every request.
func ComputeEarnings(sellerRef string, orders []*order.Order, window Window, rateBps int, currency string) (*EarningsReport, error) {
	if rateBps < 0 || rateBps > 10000 {
		return nil, ErrInvalidCommissionRate
	}

	settled := collectSettled(sellerRef, orders, window)

	// Deterministic allocation order: oldest settlement first, ties
	// broken by identity.
	sort.Slice(settled, func(i, j int) bool {
		if !settled[i].settledAt.Equal(settled[j].settledAt) {
			return settled[i].settledAt.Before(settled[j].settledAt)
		}
		if settled[i].orderID != settled[j].orderID {
			return settled[i].orderID < settled[j].orderID
		}
		return settled[i].item.ID() < settled[j].item.ID()
	})

	report := &EarningsReport{
		SellerRef:   sellerRef,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		RateBps:     rateBps,
		GrossSales:  *shared.NewMoney(0, currency),
		Commission:  *shared.NewMoney(0, currency),
		NetEarnings: *shared.NewMoney(0, currency),
	}

	byOrder := make(map[string]*OrderEarnings)
	var cumGross, cumCommission int64

	for _, s := range settled {
		gross, err := s.item.Subtotal()
		if err != nil {
			return nil, err
		}

		cumGross += gross.Amount()
		nextCumCommission := roundHalfEven(cumGross*int64(rateBps), 10000)
		commission := nextCumCommission - cumCommission
		cumCommission = nextCumCommission

		entry := LedgerEntry{
			SellerRef:        sellerRef,
			OrderID:          s.orderID,
			LineItemID:       s.item.ID(),
			ProductName:      s.item.ProductName(),
			Quantity:         s.item.Quantity(),
			GrossAmount:      *gross,
			CommissionAmount: *shared.NewMoney(commission, gross.Currency()),
			NetAmount:        *shared.NewMoney(gross.Amount()-commission, gross.Currency()),
			SettledAt:        s.settledAt,
		}

		oe, ok := byOrder[s.orderID]
		if !ok {
			oe = &OrderEarnings{
				OrderID:    s.orderID,
				SettledAt:  s.settledAt,
				Gross:      *shared.NewMoney(0, entry.GrossAmount.Currency()),
				Commission: *shared.NewMoney(0, entry.GrossAmount.Currency()),
				Net:        *shared.NewMoney(0, entry.GrossAmount.Currency()),
			}
			byOrder[s.orderID] = oe
		}
		if s.settledAt.After(oe.SettledAt) {
			oe.SettledAt = s.settledAt
		}
		oe.Gross = *shared.NewMoney(oe.Gross.Amount()+entry.GrossAmount.Amount(), entry.GrossAmount.Currency())
		oe.Commission = *shared.NewMoney(oe.Commission.Amount()+entry.CommissionAmount.Amount(), entry.GrossAmount.Currency())
		oe.Net = *shared.NewMoney(oe.Net.Amount()+entry.NetAmount.Amount(), entry.GrossAmount.Currency())
		oe.Entries = append(oe.Entries, entry)
	}

	if len(settled) > 0 {
		cur := settled[0].item.UnitPrice().Currency()
		report.GrossSales = *shared.NewMoney(cumGross, cur)
		report.Commission = *shared.NewMoney(cumCommission, cur)
		report.NetEarnings = *shared.NewMoney(cumGross-cumCommission, cur)
	}

	report.Breakdown = make([]OrderEarnings, 0, len(byOrder))
	for _, oe := range byOrder {
		report.Breakdown = append(report.Breakdown, *oe)
	}
	sort.Slice(report.Breakdown, func(i, j int) bool {
		if !report.Breakdown[i].SettledAt.Equal(report.Breakdown[j].SettledAt) {
			return report.Breakdown[i].SettledAt.After(report.Breakdown[j].SettledAt)
		}
		return report.Breakdown[i].OrderID > report.Breakdown[j].OrderID
	})

	return report, nil
}

func collectSettled(sellerRef string, orders []*order.Order, window Window) []settledItem {
	var settled []settledItem
	for _, o := range orders {
		for _, item := range o.Items() {
			if item.SellerRef() != sellerRef {
				continue
			}
			deliveredAt := item.DeliveredAt()
			if !item.Status().IsSettled() || deliveredAt == nil {
				continue
			}
			if !window.Contains(*deliveredAt) {
				continue
			}
			settled = append(settled, settledItem{
				orderID:   o.ID(),
				item:      item,
				settledAt: *deliveredAt,
			})
		}
	}
	return settled
}

// roundHalfEven divides num by den rounding half to even (banker's
// rounding). num is expected non-negative here; den positive.
func roundHalfEven(num, den int64) int64 {
	q := num / den
	r := num % den
	switch {
	case 2*r < den:
		return q
	case 2*r > den:
		return q + 1
	default:
		if q%2 == 0 {
			return q
		}
		return q + 1
	}
}

// PendingPayment is a not-yet-delivered line item's expected payout,
// shown to sellers as money in flight. ExpectedAt is placement plus the
// standard settlement delay.
type PendingPayment struct {
	OrderID     string
	LineItemID  string
	ProductName string
	Status      order.ItemStatus
	NetAmount   shared.Money
	ExpectedAt  time.Time
}

// SettlementDelay is how long after placement a payment is expected to
// settle, used only for the pending payments display.
const SettlementDelay = 7 * 24 * time.Hour

// PendingPayments lists the seller's in-flight items (active, neither
// delivered nor exited) with their expected net amounts, newest first.
func PendingPayments(sellerRef string, orders []*order.Order, rateBps int) ([]PendingPayment, error) {
	if rateBps < 0 || rateBps > 10000 {
		return nil, ErrInvalidCommissionRate
	}

	var pending []PendingPayment
	for _, o := range orders {
		for _, item := range o.Items() {
			if item.SellerRef() != sellerRef || item.Status().IsSettledOrTerminal() {
				continue
			}
			gross, err := item.Subtotal()
			if err != nil {
				return nil, err
			}
			commission := roundHalfEven(gross.Amount()*int64(rateBps), 10000)
			pending = append(pending, PendingPayment{
				OrderID:     o.ID(),
				LineItemID:  item.ID(),
				ProductName: item.ProductName(),
				Status:      item.Status(),
				NetAmount:   *shared.NewMoney(gross.Amount()-commission, gross.Currency()),
				ExpectedAt:  o.PlacedAt().Add(SettlementDelay),
			})
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ExpectedAt.After(pending[j].ExpectedAt)
	})
	return pending, nil
}
