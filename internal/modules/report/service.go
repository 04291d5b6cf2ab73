// Package report builds the management views over the order book: master
// workload, financial totals per status, and the production plan of open
// orders ordered by deadline.
package report

import (
	"context"
	"time"

	"souvenir/internal/domain"
	"souvenir/internal/repository"
)

type OrderReader interface {
	Workload(ctx context.Context) ([]repository.WorkloadRow, error)
	Financial(ctx context.Context, from, to *time.Time) ([]repository.FinancialRow, error)
	ListOpen(ctx context.Context) ([]domain.Order, error)
}

type UserReader interface {
	Summaries(ctx context.Context, ids []int64) (map[int64]*domain.UserSummary, error)
}

type Service struct {
	orders OrderReader
	users  UserReader
}

func NewService(orders OrderReader, users UserReader) *Service {
	return &Service{orders: orders, users: users}
}

// MasterWorkload is the per-master slice of the workload report.
type MasterWorkload struct {
	Master   *domain.UserSummary `json:"master"`
	ByStatus map[string]int64    `json:"by_status"`
	Total    int64               `json:"total"`
}

type WorkloadReport struct {
	Masters    []MasterWorkload `json:"masters"`
	Unassigned int64            `json:"unassigned"`
}

func (s *Service) Workload(ctx context.Context) (*WorkloadReport, error) {
	rows, err := s.orders.Workload(ctx)
	if err != nil {
		return nil, err
	}

	report := &WorkloadReport{}
	byMaster := make(map[int64]*MasterWorkload)
	order := make([]int64, 0)

	for _, row := range rows {
		if row.AssignedToID == nil {
			report.Unassigned += row.Count
			continue
		}
		id := *row.AssignedToID
		mw, ok := byMaster[id]
		if !ok {
			mw = &MasterWorkload{ByStatus: make(map[string]int64)}
			byMaster[id] = mw
			order = append(order, id)
		}
		mw.ByStatus[row.Status] += row.Count
		mw.Total += row.Count
	}

	if len(order) > 0 {
		summaries, err := s.users.Summaries(ctx, order)
		if err != nil {
			return nil, err
		}
		for _, id := range order {
			byMaster[id].Master = summaries[id]
		}
	}

	report.Masters = make([]MasterWorkload, 0, len(order))
	for _, id := range order {
		report.Masters = append(report.Masters, *byMaster[id])
	}
	return report, nil
}

// StatusTotal is one status line of the financial report. Total sums only
// orders with a negotiated price.
type StatusTotal struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type FinancialReport struct {
	ByStatus   []StatusTotal `json:"by_status"`
	OrderCount int64         `json:"order_count"`
	GrandTotal float64       `json:"grand_total"`
}

func (s *Service) Financial(ctx context.Context, from, to *time.Time) (*FinancialReport, error) {
	rows, err := s.orders.Financial(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &FinancialReport{ByStatus: make([]StatusTotal, 0, len(rows))}
	for _, row := range rows {
		report.ByStatus = append(report.ByStatus, StatusTotal{
			Status: row.Status,
			Count:  row.Count,
			Total:  row.Total,
		})
		report.OrderCount += row.Count
		report.GrandTotal += row.Total
	}
	return report, nil
}

// PlanItem is one open order in the production plan. Orders without a
// deadline sort last.
type PlanItem struct {
	OrderID           int64               `json:"order_id"`
	OrderNumber       string              `json:"order_number"`
	ProductType       string              `json:"product_type"`
	Status            domain.OrderStatus  `json:"status"`
	Deadline          *time.Time          `json:"deadline"`
	DaysUntilDeadline *int                `json:"days_until_deadline,omitempty"`
	IsOverdue         bool                `json:"is_overdue"`
	Master            *domain.UserSummary `json:"master"`
}

func (s *Service) ProductionPlan(ctx context.Context) ([]PlanItem, error) {
	orders, err := s.orders.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	idSet := make(map[int64]struct{})
	for i := range orders {
		if orders[i].AssignedToID != nil {
			idSet[*orders[i].AssignedToID] = struct{}{}
		}
	}
	summaries := map[int64]*domain.UserSummary{}
	if len(idSet) > 0 {
		ids := make([]int64, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		summaries, err = s.users.Summaries(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	items := make([]PlanItem, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		item := PlanItem{
			OrderID:           o.ID,
			OrderNumber:       o.OrderNumber,
			ProductType:       o.ProductType,
			Status:            o.Status,
			Deadline:          o.Deadline,
			DaysUntilDeadline: o.DaysUntilDeadline(now),
			IsOverdue:         o.IsOverdue(now),
		}
		if o.AssignedToID != nil {
			item.Master = summaries[*o.AssignedToID]
		}
		items = append(items, item)
	}
	return items, nil
}
