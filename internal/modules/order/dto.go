package order

import (
	"time"

	"souvenir/internal/domain"
)

// CreateOrderRequest is the JSON create body. client_id is only honored
// for staff; a client always creates for themselves. Photo uploads go
// through the multipart variant of the same endpoint.
type CreateOrderRequest struct {
	ClientID    int64    `json:"client_id"`
	Description string   `json:"description"`
	ProductType string   `json:"product_type"`
	Price       *float64 `json:"price"`
	Deadline    string   `json:"deadline"` // YYYY-MM-DD
}

// UpdateOrderRequest is a patch: absent fields stay untouched.
// assigned_to of 0 unassigns the order.
type UpdateOrderRequest struct {
	Status      *string  `json:"status"`
	Description *string  `json:"description"`
	ProductType *string  `json:"product_type"`
	Price       *float64 `json:"price"`
	Deadline    *string  `json:"deadline"` // YYYY-MM-DD
	AssignedTo  *int64   `json:"assigned_to"`
}

// OrderView decorates an order with its derived deadline state for the
// front end.
type OrderView struct {
	*domain.Order
	IsOverdue         bool `json:"is_overdue"`
	DaysUntilDeadline *int `json:"days_until_deadline,omitempty"`
}

func viewOf(o *domain.Order) OrderView {
	now := time.Now()
	return OrderView{
		Order:             o,
		IsOverdue:         o.IsOverdue(now),
		DaysUntilDeadline: o.DaysUntilDeadline(now),
	}
}

func viewsOf(orders []domain.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for i := range orders {
		out = append(out, viewOf(&orders[i]))
	}
	return out
}
