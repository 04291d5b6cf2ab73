package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusNew             OrderStatus = "new"
	StatusClarification   OrderStatus = "clarification"
	StatusInProgress      OrderStatus = "in_progress"
	StatusAwaitingPayment OrderStatus = "awaiting_payment"
	StatusCompleted       OrderStatus = "completed"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
)

// OrderStatuses lists every allowed status, in workshop-board order.
var OrderStatuses = []OrderStatus{
	StatusNew,
	StatusClarification,
	StatusInProgress,
	StatusAwaitingPayment,
	StatusCompleted,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal statuses never count as overdue, whatever the deadline says.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDelivered || s == StatusCancelled
}

// Photo is an image attached to an order by its client.
type Photo struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Path         string    `json:"-"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Alt          string    `json:"alt,omitempty"`
}

// Attachment is any non-photo file on an order (sketches, payment docs).
type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Path         string    `json:"-"`
	Kind         string    `json:"kind"` // document | other
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Order is a single client commission, tracked from submission to delivery.
// Photos and attachments are embedded (the order owns them exclusively);
// client and assigned master are referenced by id and populated on read.
type Order struct {
	ID           int64        `gorm:"column:id;primaryKey" json:"id"`
	OrderNumber  string       `gorm:"column:order_number;uniqueIndex" json:"order_number"`
	ClientID     int64        `gorm:"column:client_id;index" json:"client_id"`
	AssignedToID *int64       `gorm:"column:assigned_to_id;index" json:"assigned_to_id,omitempty"`
	Status       OrderStatus  `gorm:"column:status;index" json:"status"`
	Description  string       `gorm:"column:description" json:"description,omitempty"`
	ProductType  string       `gorm:"column:product_type" json:"product_type,omitempty"`
	Price        *float64     `gorm:"column:price" json:"price,omitempty"`
	PriceRange   string       `gorm:"column:price_range" json:"price_range,omitempty"`
	PriceMin     *float64     `gorm:"column:price_min" json:"price_min,omitempty"`
	PriceMax     *float64     `gorm:"column:price_max" json:"price_max,omitempty"`
	Deadline     *time.Time   `gorm:"column:deadline;index" json:"deadline,omitempty"`
	Photos       []Photo      `gorm:"column:photos;serializer:json" json:"photos"`
	Attachments  []Attachment `gorm:"column:attachments;serializer:json" json:"attachments,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updated_at"`

	Client     *UserSummary `gorm:"-" json:"client,omitempty"`
	AssignedTo *UserSummary `gorm:"-" json:"assigned_to,omitempty"`
}

func (Order) TableName() string { return "orders" }

// IsOverdue reports whether the deadline has passed on an order that is
// still in flight.
func (o *Order) IsOverdue(now time.Time) bool {
	if o.Deadline == nil || o.Status.Terminal() {
		return false
	}
	return now.After(*o.Deadline)
}

// DaysUntilDeadline returns the number of calendar days left (ceiling),
// negative when overdue, nil when no deadline is set.
func (o *Order) DaysUntilDeadline(now time.Time) *int {
	if o.Deadline == nil {
		return nil
	}
	days := int(math.Ceil(o.Deadline.Sub(now).Hours() / 24))
	return &days
}

func (o *Order) PhotoCount() int { return len(o.Photos) }

// orderNumberPrefix: "ЗК" = заказ, the workshop's historical numbering.
const orderNumberPrefix = "ЗК"

// FormatOrderNumber renders the human-readable order number ЗК-YYYY-NNN.
// The sequence is padded to three digits but never truncated, so the
// thousandth order of a year becomes ЗК-YYYY-1000.
func FormatOrderNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%03d", orderNumberPrefix, year, sequence)
}

// ParseOrderNumber recovers year and sequence from an order number, for
// report sorting. Inverse of FormatOrderNumber.
func ParseOrderNumber(s string) (year int, sequence int64, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != orderNumberPrefix {
		return 0, 0, fmt.Errorf("malformed order number %q", s)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year < 1000 || year > 9999 {
		return 0, 0, fmt.Errorf("malformed order number %q: bad year", s)
	}
	sequence, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || sequence < 1 {
		return 0, 0, fmt.Errorf("malformed order number %q: bad sequence", s)
	}
	return year, sequence, nil
}
