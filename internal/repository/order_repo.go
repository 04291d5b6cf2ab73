package repository

import (
	"context"
	"time"

	"souvenir/internal/domain"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderFilter narrows List. Nil pointer fields are "no restriction";
// ClientID/AssignedToID carry the role scope decided by the access policy.
type OrderFilter struct {
	ClientID     *int64
	AssignedToID *int64
	Status       *domain.OrderStatus
	Overdue      bool
	Limit        int
	Offset       int
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// Update persists the whole order row. Photo-list updates on a racing
// order are last-write-wins; the order record itself has no version lock.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Overdue {
		q = q.Where("deadline IS NOT NULL AND deadline < ?", time.Now()).
			Where("status NOT IN ?", []domain.OrderStatus{
				domain.StatusCompleted, domain.StatusDelivered, domain.StatusCancelled,
			})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOpen returns every non-terminal order, nearest deadline first,
// orders without a deadline last. Feeds the production plan report.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.OrderStatus{
			domain.StatusCompleted, domain.StatusDelivered, domain.StatusCancelled,
		}).
		Order("deadline IS NULL").
		Order("deadline ASC").
		Find(&orders).Error
	return orders, err
}

// WorkloadRow is one (master, status) bucket; AssignedToID nil means the
// unassigned backlog.
type WorkloadRow struct {
	AssignedToID *int64 `gorm:"column:assigned_to_id"`
	Status       string `gorm:"column:status"`
	Count        int64  `gorm:"column:count"`
}

func (r *OrderRepository) Workload(ctx context.Context) ([]WorkloadRow, error) {
	var rows []WorkloadRow
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("assigned_to_id, status, COUNT(*) AS count").
		Group("assigned_to_id").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// FinancialRow aggregates fixed prices per status; orders without a
// negotiated price count but contribute zero to the total.
type FinancialRow struct {
	Status string  `gorm:"column:status"`
	Count  int64   `gorm:"column:count"`
	Total  float64 `gorm:"column:total"`
}

func (r *OrderRepository) Financial(ctx context.Context, from, to *time.Time) ([]FinancialRow, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(price), 0) AS total").
		Group("status")
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	var rows []FinancialRow
	err := q.Scan(&rows).Error
	return rows, err
}
