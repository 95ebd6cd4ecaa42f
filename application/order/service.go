/*
Package order Application Layer - seller-facing order workflows.

Responsibilities:
1. Receive requests from the API layer with an authenticated sellerRef
2. Resolve seller-scoped projections from full order aggregates
3. Drive line item status transitions through the aggregate root
4. Use the UoW to manage transactions and event collection (outbox)

The application service never publishes events itself; the UoW collects
them from registered aggregates and the outbox worker publishes them
after commit.
*/
package order

import (
	"context"
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
)

// ApplicationService coordinates seller-facing order processes.
type ApplicationService struct {
	orderRepo  order.Repository
	uowFactory shared.UnitOfWorkFactory
}

// NewApplicationService Create order application service
func NewApplicationService(orderRepo order.Repository, uowFactory shared.UnitOfWorkFactory) *ApplicationService {
	return &ApplicationService{
		orderRepo:  orderRepo,
		uowFactory: uowFactory,
	}
}

// ============================================================================
// DTO Definitions
// ============================================================================

// MoneyResponse Money response DTO
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// SellerItemResponse One line item in a seller's view of an order.
type SellerItemResponse struct {
	ID          string        `json:"id"`
	ProductRef  string        `json:"product_ref"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	UnitPrice   MoneyResponse `json:"unit_price"`
	Subtotal    MoneyResponse `json:"subtotal"`
	Status      string        `json:"status"`
	DeliveredAt *time.Time    `json:"delivered_at,omitempty"`
}

// SellerOrderResponse The seller-scoped order projection. It carries
// only the requesting seller's items and their total; an order with no
// items for the seller yields an empty Items list with a zero total.
type SellerOrderResponse struct {
	OrderID         string               `json:"order_id"`
	Status          string               `json:"status"`
	ShippingAddress string               `json:"shipping_address"`
	PlacedAt        time.Time            `json:"placed_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Version         int                  `json:"version"`
	SellerTotal     MoneyResponse        `json:"seller_total"`
	Items           []SellerItemResponse `json:"items"`
}

// UpdateLineItemStatusRequest Line item transition request DTO.
// ExpectedVersion is the order version the seller last observed; the
// update only applies if it still matches.
type UpdateLineItemStatusRequest struct {
	NewStatus       string `json:"new_status" binding:"required"`
	ExpectedVersion *int   `json:"expected_version" binding:"required"`
}

// UpdateLineItemStatusResponse Result of a transition request. Changed
// is false when the item already carried the target status.
type UpdateLineItemStatusResponse struct {
	OrderID     string `json:"order_id"`
	LineItemID  string `json:"line_item_id"`
	ItemStatus  string `json:"item_status"`
	OrderStatus string `json:"order_status"`
	Version     int    `json:"version"`
	Changed     bool   `json:"changed"`
}

// ============================================================================
// Application Service Methods
// ============================================================================

// GetSellerOrder resolves the seller's projection of one order. An order
// containing none of the seller's items returns an empty projection, not
// a not-found error.
func (s *ApplicationService) GetSellerOrder(ctx context.Context, sellerRef, orderID string) (*SellerOrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.convertProjection(o.ProjectForSeller(sellerRef))
}

// ListRange names the supported listing windows.
const (
	RangeToday   = "today"
	RangeMonth   = "month"
	RangeYear    = "year"
	RangeOverall = "overall"
)

// ListSellerOrders returns the seller's projections of all orders that
// contain their items, filtered by placement window and item status,
// newest first.
func (s *ApplicationService) ListSellerOrders(ctx context.Context, sellerRef, rangeName, status string) ([]*SellerOrderResponse, error) {
	filter, err := buildListFilter(rangeName, status, time.Now())
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.FindBySeller(ctx, sellerRef, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*SellerOrderResponse, len(orders))
	for i, o := range orders {
		responses[i], err = s.convertProjection(o.ProjectForSeller(sellerRef))
		if err != nil {
			return nil, err
		}
	}
	return responses, nil
}

func buildListFilter(rangeName, status string, now time.Time) (order.ListFilter, error) {
	var filter order.ListFilter

	switch rangeName {
	case "", RangeOverall:
	case RangeToday:
		filter.From = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case RangeMonth:
		filter.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case RangeYear:
		filter.From = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return filter, shared.NewValidationError("order", "range", "range must be one of today, month, year, overall")
	}

	if status != "" {
		if !order.IsValidItemStatus(order.ItemStatus(status)) {
			return filter, shared.NewValidationError("order", "status", "unknown item status: "+status)
		}
		filter.Status = order.ItemStatus(status)
	}

	return filter, nil
}

// UpdateLineItemStatus applies a fulfillment transition to one of the
// seller's line items under optimistic concurrency.
//
// Reapplying the status the item already carries is an idempotent no-op
// and succeeds even with a stale expected version, so a client retry
// after a timed-out but committed update does not fail. Any other
// request with a stale version is rejected; the seller must re-read
// their projection first. Write-time races (the conditional update
// losing to a concurrent transaction) re-run the whole closure within
// the UoW retry budget.
func (s *ApplicationService) UpdateLineItemStatus(ctx context.Context, sellerRef, orderID, itemID string, req UpdateLineItemStatusRequest) (*UpdateLineItemStatusResponse, error) {
	target := order.ItemStatus(req.NewStatus)
	if !order.IsValidItemStatus(target) {
		return nil, shared.NewValidationError("order", "new_status", "unknown item status: "+req.NewStatus)
	}
	if req.ExpectedVersion == nil {
		return nil, shared.NewValidationError("order", "expected_version", "expected version is required")
	}

	var resp *UpdateLineItemStatusResponse
	uow := s.uowFactory.New()

	err := uow.Execute(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		item, err := findSellerItem(o, sellerRef, itemID)
		if err != nil {
			return err
		}

		if item.Status() == target {
			resp = &UpdateLineItemStatusResponse{
				OrderID:     o.ID(),
				LineItemID:  itemID,
				ItemStatus:  string(item.Status()),
				OrderStatus: string(o.Status()),
				Version:     o.Version(),
				Changed:     false,
			}
			return nil
		}

		if o.Version() != *req.ExpectedVersion {
			return order.NewVersionMismatchError(orderID, *req.ExpectedVersion, o.Version())
		}

		if _, err := o.TransitionItem(sellerRef, itemID, target, time.Now()); err != nil {
			return err
		}

		if err := s.orderRepo.Save(ctx, o); err != nil {
			return err
		}
		uow.RegisterDirty(o)

		resp = &UpdateLineItemStatusResponse{
			OrderID:     o.ID(),
			LineItemID:  itemID,
			ItemStatus:  string(target),
			OrderStatus: string(o.Status()),
			Version:     o.Version(),
			Changed:     true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func findSellerItem(o *order.Order, sellerRef, itemID string) (*order.LineItem, error) {
	for _, item := range o.Items() {
		if item.ID() != itemID {
			continue
		}
		if item.SellerRef() != sellerRef {
			return nil, order.NewNotItemOwnerError(o.ID(), itemID, sellerRef)
		}
		found := item
		return &found, nil
	}
	return nil, order.NewLineItemNotFoundError(o.ID(), itemID)
}

func (s *ApplicationService) convertProjection(view order.SellerView) (*SellerOrderResponse, error) {
	total, err := view.SellerTotal()
	if err != nil {
		return nil, err
	}

	items := make([]SellerItemResponse, len(view.Items))
	for i, item := range view.Items {
		subtotal, err := item.Subtotal()
		if err != nil {
			return nil, err
		}
		items[i] = SellerItemResponse{
			ID:          item.ID(),
			ProductRef:  item.ProductRef(),
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice: MoneyResponse{
				Amount:   item.UnitPrice().Amount(),
				Currency: item.UnitPrice().Currency(),
			},
			Subtotal: MoneyResponse{
				Amount:   subtotal.Amount(),
				Currency: subtotal.Currency(),
			},
			Status:      string(item.Status()),
			DeliveredAt: item.DeliveredAt(),
		}
	}

	return &SellerOrderResponse{
		OrderID:         view.OrderID,
		Status:          string(view.Status),
		ShippingAddress: view.ShippingAddress,
		PlacedAt:        view.PlacedAt,
		UpdatedAt:       view.UpdatedAt,
		Version:         view.Version,
		SellerTotal: MoneyResponse{
			Amount:   total.Amount(),
			Currency: total.Currency(),
		},
		Items: items,
	}, nil
}
