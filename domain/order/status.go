package order

// ItemStatus is the fulfillment state of a single line item. Each seller
// advances only their own items; the order-level status is derived.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "Pending"
	ItemStatusProcessing  ItemStatus = "Processing"
	ItemStatusReadyToShip ItemStatus = "ReadyToShip"
	ItemStatusShipped     ItemStatus = "Shipped"
	ItemStatusDelivered   ItemStatus = "Delivered"
	ItemStatusCancelled   ItemStatus = "Cancelled"
	ItemStatusReturned    ItemStatus = "Returned"
)

// itemTransitions is the single source of truth for the line item state
// graph. Cancelled and Returned are reachable from every non-terminal
// state; Delivered admits only the return side-exit (post-delivery
// return, which claws the item back out of the settled set).
var itemTransitions = map[ItemStatus]map[ItemStatus]bool{
	ItemStatusPending: {
		ItemStatusProcessing: true,
		ItemStatusCancelled:  true,
		ItemStatusReturned:   true,
	},
	ItemStatusProcessing: {
		ItemStatusReadyToShip: true,
		ItemStatusCancelled:   true,
		ItemStatusReturned:    true,
	},
	ItemStatusReadyToShip: {
		ItemStatusShipped:   true,
		ItemStatusCancelled: true,
		ItemStatusReturned:  true,
	},
	ItemStatusShipped: {
		ItemStatusDelivered: true,
		ItemStatusCancelled: true,
		ItemStatusReturned:  true,
	},
	ItemStatusDelivered: {
		ItemStatusReturned: true,
	},
	ItemStatusCancelled: {},
	ItemStatusReturned:  {},
}

// activeRank orders the in-flight states so the order-level status can be
// derived as the least-advanced non-terminal item state.
var activeRank = map[ItemStatus]int{
	ItemStatusPending:     0,
	ItemStatusProcessing:  1,
	ItemStatusReadyToShip: 2,
	ItemStatusShipped:     3,
}

// CanTransition reports whether target is directly reachable from current.
func CanTransition(current, target ItemStatus) bool {
	return itemTransitions[current][target]
}

// IsValidItemStatus reports whether s names a known item status.
func IsValidItemStatus(s ItemStatus) bool {
	_, ok := itemTransitions[s]
	return ok
}

// IsTerminal reports whether the item can never change again.
func (s ItemStatus) IsTerminal() bool {
	return len(itemTransitions[s]) == 0
}

// IsSettledOrTerminal reports whether the item has finished moving for
// the purpose of order-level aggregation. Delivered counts even though a
// post-delivery return remains possible.
func (s ItemStatus) IsSettledOrTerminal() bool {
	return s == ItemStatusDelivered || s.IsTerminal()
}

// IsSettled reports whether the item's value is eligible for the ledger.
func (s ItemStatus) IsSettled() bool {
	return s == ItemStatusDelivered
}

// Status is the order-level aggregate label. It is derived from the line
// items on every mutation, never set independently.
type Status string

const (
	// In-flight orders surface the least-advanced non-terminal item state.
	StatusPending     Status = "Pending"
	StatusProcessing  Status = "Processing"
	StatusReadyToShip Status = "ReadyToShip"
	StatusShipped     Status = "Shipped"

	// StatusCompleted - every line item was delivered.
	StatusCompleted Status = "Completed"

	// StatusPartiallyReturned - all items finished, at least one was
	// cancelled or returned.
	StatusPartiallyReturned Status = "PartiallyReturned"
)

// deriveStatus computes the order-level status from item states.
func deriveStatus(items []LineItem) Status {
	allDelivered := true
	anyExited := false
	leastRank := -1
	var leastState ItemStatus

	for _, item := range items {
		s := item.status
		if s != ItemStatusDelivered {
			allDelivered = false
		}
		if s == ItemStatusCancelled || s == ItemStatusReturned {
			anyExited = true
			continue
		}
		if rank, active := activeRank[s]; active {
			if leastRank == -1 || rank < leastRank {
				leastRank = rank
				leastState = s
			}
		}
	}

	if leastRank >= 0 {
		return Status(leastState)
	}
	if allDelivered {
		return StatusCompleted
	}
	if anyExited {
		return StatusPartiallyReturned
	}
	return StatusCompleted
}
