package domain

import (
	"sort"
	"time"
)

// Product is a catalog entry as seen by the assistant.
type Product struct {
	ID              int
	Name            string
	Description     string
	CategoryID      int
	CategoryName    string
	SupplierName    string
	QuantityPerUnit string
	UnitPrice       float64
	UnitsInStock    int
	Discontinued    bool
}

// Cart is a customer's shopping cart.
type Cart struct {
	HeaderID int
	Lines    []CartLine
}

// IsEmpty reports whether the cart has no lines. A nil cart is empty.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// CartLine is one product row in a cart.
type CartLine struct {
	ID           int
	ProductID    int
	ProductName  string
	Quantity     int
	UnitPrice    float64
	Discontinued bool
	UnitsInStock int
}

// LineTotal is unit price times quantity.
func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// OrderStatus is the portal-side lifecycle state of an order.
type OrderStatus int

const (
	OrderSubmitted OrderStatus = iota + 1
	OrderPendingApproval
	OrderApproved
	OrderPicking
	OrderShipped
	OrderCancelled
	OrderRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderSubmitted:
		return "Submitted"
	case OrderPendingApproval:
		return "PendingApproval"
	case OrderApproved:
		return "Approved"
	case OrderPicking:
		return "Picking"
	case OrderShipped:
		return "Shipped"
	case OrderCancelled:
		return "Cancelled"
	case OrderRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// StatusChange is one entry of an order's status history.
type StatusChange struct {
	Status    OrderStatus
	ChangedAt time.Time
	Comment   string
}

// OrderDetail is one line of an order.
type OrderDetail struct {
	ProductID   int
	ProductName string
	UnitPrice   float64
	Quantity    int
	Discount    float64
}

// LineTotal applies the line discount.
func (d OrderDetail) LineTotal() float64 {
	return d.UnitPrice * float64(d.Quantity) * (1 - d.Discount)
}

// Order is a placed order with its lines and status history. Zero times mean
// the date is not set.
type Order struct {
	ID             int
	CustomerID     string
	OrderDate      time.Time
	RequiredDate   time.Time
	ShippedDate    time.Time
	ShipperName    string
	Freight        float64
	TrackingNumber string
	Details        []OrderDetail
	StatusHistory  []StatusChange
}

// CurrentStatus returns the most recent status change, or Submitted when the
// order has no history yet.
func (o Order) CurrentStatus() OrderStatus {
	if len(o.StatusHistory) == 0 {
		return OrderSubmitted
	}
	latest := o.StatusHistory[0]
	for _, h := range o.StatusHistory[1:] {
		if h.ChangedAt.After(latest.ChangedAt) {
			latest = h
		}
	}
	return latest.Status
}

// SubTotal is the sum of line totals.
func (o Order) SubTotal() float64 {
	var sum float64
	for _, d := range o.Details {
		sum += d.LineTotal()
	}
	return sum
}

// Total is the subtotal plus freight.
func (o Order) Total() float64 {
	return o.SubTotal() + o.Freight
}

// ItemCount is the number of order lines.
func (o Order) ItemCount() int {
	return len(o.Details)
}

// SortOrdersNewestFirst sorts by order date descending; undated orders go last.
func SortOrdersNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].OrderDate, orders[j].OrderDate
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})
}
