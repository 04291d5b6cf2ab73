package repository

import (
	"context"
	"testing"
	"time"

	"souvenir/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepo_CreateAndGet_RoundTrip(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	min, max := 66.0, 66.0
	o := &domain.Order{
		OrderNumber: "ЗК-2025-001",
		ClientID:    10,
		Status:      domain.StatusNew,
		Description: "карандашница из дуба",
		ProductType: "карандашница",
		PriceRange:  "66 BYN",
		PriceMin:    &min,
		PriceMax:    &max,
		Photos: []domain.Photo{
			{
				Filename:     "a1.png",
				OriginalName: "sketch.png",
				MimeType:     "image/png",
				Size:         1024,
				URL:          "/uploads/orders/photos/a1.png",
				UploadedAt:   time.Now().UTC(),
			},
		},
	}
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ЗК-2025-001", got.OrderNumber)
	assert.Equal(t, int64(10), got.ClientID)
	assert.Equal(t, "66 BYN", got.PriceRange)
	require.NotNil(t, got.PriceMin)
	assert.Equal(t, 66.0, *got.PriceMin)
	require.Len(t, got.Photos, 1)
	assert.Equal(t, "a1.png", got.Photos[0].Filename)
	assert.Equal(t, "image/png", got.Photos[0].MimeType)
}

func TestOrderRepo_DuplicateOrderNumber(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Order{OrderNumber: "ЗК-2025-001", ClientID: 1, Status: domain.StatusNew}))
	err := repo.Create(ctx, &domain.Order{OrderNumber: "ЗК-2025-001", ClientID: 2, Status: domain.StatusNew})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestOrderRepo_ListScoped(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	master := int64(20)
	seed := []*domain.Order{
		{OrderNumber: "ЗК-2025-001", ClientID: 10, Status: domain.StatusNew},
		{OrderNumber: "ЗК-2025-002", ClientID: 10, AssignedToID: &master, Status: domain.StatusInProgress},
		{OrderNumber: "ЗК-2025-003", ClientID: 11, Status: domain.StatusDelivered},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	clientID := int64(10)
	orders, total, err := repo.List(ctx, OrderFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.List(ctx, OrderFilter{AssignedToID: &master})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ЗК-2025-002", orders[0].OrderNumber)

	st := domain.StatusDelivered
	_, total, err = repo.List(ctx, OrderFilter{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOrderRepo_ListOverdue(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	seed := []*domain.Order{
		{OrderNumber: "ЗК-2025-001", ClientID: 1, Status: domain.StatusInProgress, Deadline: &past},
		{OrderNumber: "ЗК-2025-002", ClientID: 1, Status: domain.StatusNew, Deadline: &future},
		// Terminal orders are never overdue, whatever the deadline says.
		{OrderNumber: "ЗК-2025-003", ClientID: 1, Status: domain.StatusDelivered, Deadline: &past},
		{OrderNumber: "ЗК-2025-004", ClientID: 1, Status: domain.StatusNew},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	orders, total, err := repo.List(ctx, OrderFilter{Overdue: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ЗК-2025-001", orders[0].OrderNumber)
}

func TestOrderRepo_ListOpen_ExcludesTerminal(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(72 * time.Hour)
	seed := []*domain.Order{
		{OrderNumber: "ЗК-2025-001", ClientID: 1, Status: domain.StatusInProgress, Deadline: &later},
		{OrderNumber: "ЗК-2025-002", ClientID: 1, Status: domain.StatusNew, Deadline: &soon},
		{OrderNumber: "ЗК-2025-003", ClientID: 1, Status: domain.StatusDelivered, Deadline: &soon},
		{OrderNumber: "ЗК-2025-004", ClientID: 1, Status: domain.StatusClarification},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	open, err := repo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 3)
	// Nearest deadline first, no-deadline last.
	assert.Equal(t, "ЗК-2025-002", open[0].OrderNumber)
	assert.Equal(t, "ЗК-2025-001", open[1].OrderNumber)
	assert.Equal(t, "ЗК-2025-004", open[2].OrderNumber)
}

func TestOrderRepo_Workload(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	master := int64(20)
	seed := []*domain.Order{
		{OrderNumber: "ЗК-2025-001", ClientID: 1, AssignedToID: &master, Status: domain.StatusInProgress},
		{OrderNumber: "ЗК-2025-002", ClientID: 1, AssignedToID: &master, Status: domain.StatusInProgress},
		{OrderNumber: "ЗК-2025-003", ClientID: 1, Status: domain.StatusNew},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	rows, err := repo.Workload(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byKey := map[string]int64{}
	for _, row := range rows {
		key := "unassigned/" + row.Status
		if row.AssignedToID != nil {
			key = "20/" + row.Status
		}
		byKey[key] = row.Count
	}
	assert.Equal(t, int64(2), byKey["20/in_progress"])
	assert.Equal(t, int64(1), byKey["unassigned/new"])
}

func TestOrderRepo_Financial(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	p1, p2 := 120.0, 300.0
	seed := []*domain.Order{
		{OrderNumber: "ЗК-2025-001", ClientID: 1, Status: domain.StatusCompleted, Price: &p1},
		{OrderNumber: "ЗК-2025-002", ClientID: 1, Status: domain.StatusCompleted, Price: &p2},
		{OrderNumber: "ЗК-2025-003", ClientID: 1, Status: domain.StatusNew},
	}
	for _, o := range seed {
		require.NoError(t, repo.Create(ctx, o))
	}

	rows, err := repo.Financial(ctx, nil, nil)
	require.NoError(t, err)

	byStatus := map[string]FinancialRow{}
	for _, row := range rows {
		byStatus[row.Status] = row
	}
	assert.Equal(t, int64(2), byStatus["completed"].Count)
	assert.Equal(t, 420.0, byStatus["completed"].Total)
	assert.Equal(t, int64(1), byStatus["new"].Count)
	assert.Equal(t, 0.0, byStatus["new"].Total)
}
