/*
Package finance Application Layer - seller earnings and payouts.

Responsibilities:
1. Derive earnings reports and balances from delivered line items
2. Guard payout creation with a per-seller critical section so the
   balance check and the insert are atomic
3. Resolve idempotent payout replays to the original request
4. Maintain the seller settlement profile (bank details)

Earnings are never persisted; every report and balance is recomputed
from the order store. The payout log is the only financial state this
service writes.
*/
package finance

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace/domain/finance"
	"marketplace/domain/order"
	"marketplace/domain/seller"
	"marketplace/domain/shared"
)

// ApplicationService coordinates the financial read models and the
// payout workflow.
type ApplicationService struct {
	orderRepo   order.Repository
	payoutRepo  finance.PayoutRepository
	profileRepo seller.Repository
	uowFactory  shared.UnitOfWorkFactory

	rateBps  int
	currency string

	locks sellerLocks
}

// NewApplicationService Create finance application service
func NewApplicationService(
	orderRepo order.Repository,
	payoutRepo finance.PayoutRepository,
	profileRepo seller.Repository,
	uowFactory shared.UnitOfWorkFactory,
	rateBps int,
	currency string,
) *ApplicationService {
	return &ApplicationService{
		orderRepo:   orderRepo,
		payoutRepo:  payoutRepo,
		profileRepo: profileRepo,
		uowFactory:  uowFactory,
		rateBps:     rateBps,
		currency:    currency,
	}
}

// sellerLocks hands out one mutex per sellerRef so concurrent payout
// requests from the same seller serialize while different sellers never
// contend.
type sellerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sellerLocks) forSeller(sellerRef string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	if _, ok := l.locks[sellerRef]; !ok {
		l.locks[sellerRef] = &sync.Mutex{}
	}
	return l.locks[sellerRef]
}

// ============================================================================
// DTO Definitions
// ============================================================================

// MoneyResponse Money response DTO
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyResponse(m shared.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount(), Currency: m.Currency()}
}

// LedgerEntryResponse One delivered line item's earnings contribution.
type LedgerEntryResponse struct {
	OrderID     string        `json:"order_id"`
	LineItemID  string        `json:"line_item_id"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	Gross       MoneyResponse `json:"gross"`
	Commission  MoneyResponse `json:"commission"`
	Net         MoneyResponse `json:"net"`
	SettledAt   time.Time     `json:"settled_at"`
}

// OrderEarningsResponse Per-order earnings group in the breakdown.
type OrderEarningsResponse struct {
	OrderID    string                `json:"order_id"`
	SettledAt  time.Time             `json:"settled_at"`
	Gross      MoneyResponse         `json:"gross"`
	Commission MoneyResponse         `json:"commission"`
	Net        MoneyResponse         `json:"net"`
	Entries    []LedgerEntryResponse `json:"entries"`
}

// EarningsResponse Earnings report DTO.
type EarningsResponse struct {
	SellerRef   string                  `json:"seller_ref"`
	RateBps     int                     `json:"rate_bps"`
	GrossSales  MoneyResponse           `json:"gross_sales"`
	Commission  MoneyResponse           `json:"commission"`
	NetEarnings MoneyResponse           `json:"net_earnings"`
	Breakdown   []OrderEarningsResponse `json:"breakdown"`
}

// BalanceResponse Available balance DTO. The balance may be negative
// when post-delivery returns clawed back more than remains withdrawable.
type BalanceResponse struct {
	SellerRef        string        `json:"seller_ref"`
	AvailableBalance MoneyResponse `json:"available_balance"`
	LifetimeEarnings MoneyResponse `json:"lifetime_earnings"`
	ReservedOrPaid   MoneyResponse `json:"reserved_or_paid"`
}

// PendingPaymentResponse One in-flight line item's expected payout.
type PendingPaymentResponse struct {
	OrderID     string        `json:"order_id"`
	LineItemID  string        `json:"line_item_id"`
	ProductName string        `json:"product_name"`
	Status      string        `json:"status"`
	NetAmount   MoneyResponse `json:"net_amount"`
	ExpectedAt  time.Time     `json:"expected_at"`
}

// RequestPayoutRequest Payout creation DTO. Amount is in minor units of
// the platform currency. The idempotency key makes client retries safe.
type RequestPayoutRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// PayoutResponse Payout request DTO.
type PayoutResponse struct {
	ID          string        `json:"id"`
	SellerRef   string        `json:"seller_ref"`
	Amount      MoneyResponse `json:"amount"`
	Status      string        `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PayoutListResponse Payout history with the current available balance
// and the lifetime withdrawn total.
type PayoutListResponse struct {
	Payouts          []PayoutResponse `json:"payouts"`
	AvailableBalance MoneyResponse    `json:"available_balance"`
	TotalWithdrawn   MoneyResponse    `json:"total_withdrawn"`
}

// UpdatePayoutStatusRequest Settlement-side status advance DTO.
type UpdatePayoutStatusRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
}

// BankDetailsRequest Settlement profile DTO.
type BankDetailsRequest struct {
	AccountHolder string `json:"account_holder" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	IFSCCode      string `json:"ifsc_code" binding:"required"`
	BankName      string `json:"bank_name"`
}

// BankDetailsResponse Settlement profile DTO.
type BankDetailsResponse struct {
	SellerRef     string    `json:"seller_ref"`
	AccountHolder string    `json:"account_holder"`
	AccountNumber string    `json:"account_number"`
	IFSCCode      string    `json:"ifsc_code"`
	BankName      string    `json:"bank_name"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ============================================================================
// Earnings and balance
// ============================================================================

// Window range names, matching the order listing ranges.
const (
	RangeToday   = "today"
	RangeMonth   = "month"
	RangeYear    = "year"
	RangeOverall = "overall"
)

func buildWindow(rangeName string, now time.Time) (finance.Window, error) {
	var w finance.Window
	switch rangeName {
	case "", RangeOverall:
	case RangeToday:
		w.Start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case RangeMonth:
		w.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case RangeYear:
		w.Start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return w, shared.NewValidationError("earnings", "range", "range must be one of today, month, year, overall")
	}
	return w, nil
}

func resolveWindow(rangeName, windowStart, windowEnd string, now time.Time) (finance.Window, error) {
	if windowStart == "" && windowEnd == "" {
		return buildWindow(rangeName, now)
	}

	var w finance.Window
	if windowStart != "" {
		t, err := time.Parse(time.RFC3339, windowStart)
		if err != nil {
			return w, shared.NewValidationError("earnings", "window_start", "window_start must be RFC 3339")
		}
		w.Start = t
	}
	if windowEnd != "" {
		t, err := time.Parse(time.RFC3339, windowEnd)
		if err != nil {
			return w, shared.NewValidationError("earnings", "window_end", "window_end must be RFC 3339")
		}
		w.End = t
	}
	if !w.Start.IsZero() && !w.End.IsZero() && !w.Start.Before(w.End) {
		return w, shared.NewValidationError("earnings", "window_end", "window_end must be after window_start")
	}
	return w, nil
}

// GetEarnings derives the seller's earnings report for the window. The
// window filters by settlement (delivery) time, so all of the seller's
// orders are loaded regardless of placement date. Explicit RFC 3339
// windowStart/windowEnd bounds take precedence over the named range.
func (s *ApplicationService) GetEarnings(ctx context.Context, sellerRef, rangeName, windowStart, windowEnd string) (*EarningsResponse, error) {
	window, err := resolveWindow(rangeName, windowStart, windowEnd, time.Now())
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindBySeller(ctx, sellerRef, order.ListFilter{})
	if err != nil {
		return nil, err
	}

	report, err := finance.ComputeEarnings(sellerRef, orders, window, s.rateBps, s.currency)
	if err != nil {
		return nil, err
	}
	return convertReport(report), nil
}

// GetBalance derives the seller's available balance: lifetime net
// earnings minus every payout that still counts against the balance
// (Pending, Processing and Completed; only Rejected releases its amount).
func (s *ApplicationService) GetBalance(ctx context.Context, sellerRef string) (*BalanceResponse, error) {
	balance, earnings, reserved, err := s.availableBalance(ctx, sellerRef)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		SellerRef:        sellerRef,
		AvailableBalance: toMoneyResponse(*balance),
		LifetimeEarnings: toMoneyResponse(*earnings),
		ReservedOrPaid:   toMoneyResponse(*reserved),
	}, nil
}

func (s *ApplicationService) availableBalance(ctx context.Context, sellerRef string) (balance, earnings, reserved *shared.Money, err error) {
	orders, err := s.orderRepo.FindBySeller(ctx, sellerRef, order.ListFilter{})
	if err != nil {
		return nil, nil, nil, err
	}

	report, err := finance.ComputeEarnings(sellerRef, orders, finance.Window{}, s.rateBps, s.currency)
	if err != nil {
		return nil, nil, nil, err
	}

	payouts, err := s.payoutRepo.FindBySeller(ctx, sellerRef)
	if err != nil {
		return nil, nil, nil, err
	}

	reserved = shared.NewMoney(0, report.NetEarnings.Currency())
	for _, p := range payouts {
		if !p.Status().CountsAgainstBalance() {
			continue
		}
		reserved, err = reserved.Add(p.Amount())
		if err != nil {
			return nil, nil, nil, err
		}
	}

	net := report.NetEarnings
	balance, err = net.Subtract(*reserved)
	if err != nil {
		return nil, nil, nil, err
	}
	return balance, &net, reserved, nil
}

// GetPendingPayments lists the seller's in-flight items with expected
// net amounts, newest expected settlement first.
func (s *ApplicationService) GetPendingPayments(ctx context.Context, sellerRef string) ([]PendingPaymentResponse, error) {
	orders, err := s.orderRepo.FindBySeller(ctx, sellerRef, order.ListFilter{})
	if err != nil {
		return nil, err
	}

	pending, err := finance.PendingPayments(sellerRef, orders, s.rateBps)
	if err != nil {
		return nil, err
	}

	responses := make([]PendingPaymentResponse, len(pending))
	for i, p := range pending {
		responses[i] = PendingPaymentResponse{
			OrderID:     p.OrderID,
			LineItemID:  p.LineItemID,
			ProductName: p.ProductName,
			Status:      string(p.Status),
			NetAmount:   toMoneyResponse(p.NetAmount),
			ExpectedAt:  p.ExpectedAt,
		}
	}
	return responses, nil
}

// ============================================================================
// Payouts
// ============================================================================

// RequestPayout creates a payout request against the seller's available
// balance.
//
// The balance check and the insert run inside the seller's critical
// section, so two concurrent requests can never both pass a check that
// only one of them fits. A replayed idempotency key returns the original
// request unchanged, whatever its current status.
func (s *ApplicationService) RequestPayout(ctx context.Context, sellerRef string, req RequestPayoutRequest) (*PayoutResponse, error) {
	// Replay check before taking the lock; a known key never needs the
	// critical section.
	existing, err := s.payoutRepo.FindByIdempotencyKey(ctx, sellerRef, req.IdempotencyKey)
	if err == nil {
		return convertPayout(existing), nil
	}
	if !errors.Is(err, finance.ErrPayoutNotFound) {
		return nil, err
	}

	amount := shared.NewMoney(req.Amount, s.currency)
	if !amount.IsPositive() {
		return nil, finance.ErrInvalidAmount
	}

	lock := s.locks.forSeller(sellerRef)
	lock.Lock()
	defer lock.Unlock()

	balance, _, _, err := s.availableBalance(ctx, sellerRef)
	if err != nil {
		return nil, err
	}

	if amount.IsGreaterThan(*balance) {
		return nil, finance.NewInsufficientBalanceError(sellerRef, *amount, *balance)
	}

	payout, err := finance.NewPayoutRequest(sellerRef, *amount, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		if err := s.payoutRepo.Save(ctx, payout); err != nil {
			return err
		}
		uow.RegisterNew(payout)
		return nil
	})
	if errors.Is(err, finance.ErrDuplicatePayoutRequest) {
		// Lost a replay race; the unique index holds the original.
		original, findErr := s.payoutRepo.FindByIdempotencyKey(ctx, sellerRef, req.IdempotencyKey)
		if findErr != nil {
			return nil, findErr
		}
		return convertPayout(original), nil
	}
	if err != nil {
		return nil, err
	}

	return convertPayout(payout), nil
}

// ListPayouts returns the seller's payout history, newest first, with
// the current available balance and the lifetime total of completed
// withdrawals.
func (s *ApplicationService) ListPayouts(ctx context.Context, sellerRef string) (*PayoutListResponse, error) {
	payouts, err := s.payoutRepo.FindBySeller(ctx, sellerRef)
	if err != nil {
		return nil, err
	}

	withdrawn := shared.NewMoney(0, s.currency)
	responses := make([]PayoutResponse, len(payouts))
	for i, p := range payouts {
		responses[i] = *convertPayout(p)
		if p.Status() == finance.PayoutStatusCompleted {
			withdrawn, err = withdrawn.Add(p.Amount())
			if err != nil {
				return nil, err
			}
		}
	}

	balance, _, _, err := s.availableBalance(ctx, sellerRef)
	if err != nil {
		return nil, err
	}

	return &PayoutListResponse{
		Payouts:          responses,
		AvailableBalance: toMoneyResponse(*balance),
		TotalWithdrawn:   toMoneyResponse(*withdrawn),
	}, nil
}

// GetPayout returns one payout request, scoped to its owner.
func (s *ApplicationService) GetPayout(ctx context.Context, sellerRef, payoutID string) (*PayoutResponse, error) {
	payout, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.SellerRef() != sellerRef {
		return nil, finance.NewNotPayoutOwnerError(payoutID, sellerRef)
	}
	return convertPayout(payout), nil
}

// UpdatePayoutStatus advances a payout through its settlement states on
// behalf of the settlement process. Sellers never call this.
func (s *ApplicationService) UpdatePayoutStatus(ctx context.Context, payoutID string, req UpdatePayoutStatusRequest) (*PayoutResponse, error) {
	target := finance.PayoutStatus(req.NewStatus)
	if !finance.IsValidPayoutStatus(target) {
		return nil, shared.NewValidationError("payout_request", "new_status", "unknown payout status: "+req.NewStatus)
	}

	var resp *PayoutResponse
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		payout, err := s.payoutRepo.FindByID(ctx, payoutID)
		if err != nil {
			return err
		}
		if err := payout.Transition(target, time.Now()); err != nil {
			return err
		}
		if err := s.payoutRepo.Save(ctx, payout); err != nil {
			return err
		}
		uow.RegisterDirty(payout)
		resp = convertPayout(payout)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ============================================================================
// Settlement profile
// ============================================================================

// GetBankDetails returns the seller's remittance account.
func (s *ApplicationService) GetBankDetails(ctx context.Context, sellerRef string) (*BankDetailsResponse, error) {
	profile, err := s.profileRepo.FindBySellerRef(ctx, sellerRef)
	if err != nil {
		return nil, err
	}
	return convertProfile(profile), nil
}

// UpdateBankDetails creates or replaces the seller's remittance account.
func (s *ApplicationService) UpdateBankDetails(ctx context.Context, sellerRef string, req BankDetailsRequest) (*BankDetailsResponse, error) {
	details := seller.BankDetails{
		AccountHolder: req.AccountHolder,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
		BankName:      req.BankName,
	}

	var resp *BankDetailsResponse
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		profile, err := s.profileRepo.FindBySellerRef(ctx, sellerRef)
		switch {
		case errors.Is(err, seller.ErrProfileNotFound):
			profile, err = seller.NewProfile(sellerRef, details)
			if err != nil {
				return err
			}
			if err := s.profileRepo.Save(ctx, profile); err != nil {
				return err
			}
			uow.RegisterNew(profile)
		case err != nil:
			return err
		default:
			if err := profile.UpdateBankDetails(details, time.Now()); err != nil {
				return err
			}
			if err := s.profileRepo.Save(ctx, profile); err != nil {
				return err
			}
			uow.RegisterDirty(profile)
		}
		resp = convertProfile(profile)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ============================================================================
// Converters
// ============================================================================

func convertReport(report *finance.EarningsReport) *EarningsResponse {
	breakdown := make([]OrderEarningsResponse, len(report.Breakdown))
	for i, oe := range report.Breakdown {
		entries := make([]LedgerEntryResponse, len(oe.Entries))
		for j, e := range oe.Entries {
			entries[j] = LedgerEntryResponse{
				OrderID:     e.OrderID,
				LineItemID:  e.LineItemID,
				ProductName: e.ProductName,
				Quantity:    e.Quantity,
				Gross:       toMoneyResponse(e.GrossAmount),
				Commission:  toMoneyResponse(e.CommissionAmount),
				Net:         toMoneyResponse(e.NetAmount),
				SettledAt:   e.SettledAt,
			}
		}
		breakdown[i] = OrderEarningsResponse{
			OrderID:    oe.OrderID,
			SettledAt:  oe.SettledAt,
			Gross:      toMoneyResponse(oe.Gross),
			Commission: toMoneyResponse(oe.Commission),
			Net:        toMoneyResponse(oe.Net),
			Entries:    entries,
		}
	}

	return &EarningsResponse{
		SellerRef:   report.SellerRef,
		RateBps:     report.RateBps,
		GrossSales:  toMoneyResponse(report.GrossSales),
		Commission:  toMoneyResponse(report.Commission),
		NetEarnings: toMoneyResponse(report.NetEarnings),
		Breakdown:   breakdown,
	}
}

func convertPayout(p *finance.PayoutRequest) *PayoutResponse {
	return &PayoutResponse{
		ID:          p.ID(),
		SellerRef:   p.SellerRef(),
		Amount:      toMoneyResponse(p.Amount()),
		Status:      string(p.Status()),
		RequestedAt: p.RequestedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func convertProfile(p *seller.Profile) *BankDetailsResponse {
	details := p.BankDetails()
	return &BankDetailsResponse{
		SellerRef:     p.SellerRef(),
		AccountHolder: details.AccountHolder,
		AccountNumber: details.AccountNumber,
		IFSCCode:      details.IFSCCode,
		BankName:      details.BankName,
		UpdatedAt:     p.UpdatedAt(),
	}
}
