package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"souvenir/internal/access"
	"souvenir/internal/domain"
	"souvenir/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock repositories

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	if o != nil && args.Error(0) == nil {
		o.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) Next(ctx context.Context, year int) (int64, error) {
	args := m.Called(ctx, year)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserReader) Summaries(ctx context.Context, ids []int64) (map[int64]*domain.UserSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*domain.UserSummary), args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Remove(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderStatusChanged(o *domain.Order, recipients []int64) {
	m.Called(o, recipients)
}

type fixture struct {
	orders   *MockOrderRepository
	counters *MockCounterRepository
	users    *MockUserReader
	files    *MockFileStore
	notifs   *MockNotifier
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		orders:   new(MockOrderRepository),
		counters: new(MockCounterRepository),
		users:    new(MockUserReader),
		files:    new(MockFileStore),
		notifs:   new(MockNotifier),
	}
	f.service = NewService(f.orders, f.counters, f.users, f.files, f.notifs)
	return f
}

func (f *fixture) expectSummaries() {
	f.users.On("Summaries", mock.Anything, mock.Anything).
		Return(map[int64]*domain.UserSummary{}, nil).Maybe()
}

var (
	clientActor  = access.Actor{ID: 10, Role: domain.RoleClient}
	masterActor  = access.Actor{ID: 20, Role: domain.RoleMaster}
	adminActor   = access.Actor{ID: 1, Role: domain.RoleAdmin}
	managerActor = access.Actor{ID: 2, Role: domain.RoleManager}
)

func clientUser(id int64) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleClient, FullName: "Клиент", Email: "client@mail.by"}
}

func TestCreate_DerivesPricingAndNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	year := time.Now().Year()

	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	f.counters.On("Next", mock.Anything, year).Return(int64(1), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	o, err := f.service.Create(ctx, clientActor, CreateOrderInput{
		ClientID:    10,
		Description: "карандашница из дуба",
		ProductType: "карандашница",
	})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("ЗК-%d-001", year), o.OrderNumber)
	assert.Equal(t, domain.StatusNew, o.Status)
	assert.Equal(t, "66 BYN", o.PriceRange)
	require.NotNil(t, o.PriceMin)
	require.NotNil(t, o.PriceMax)
	assert.Equal(t, 66.0, *o.PriceMin)
	assert.Equal(t, 66.0, *o.PriceMax)

	f.orders.AssertExpectations(t)
	f.counters.AssertExpectations(t)
}

func TestCreate_UnknownProductType_NoDerivedPricing(t *testing.T) {
	f := newFixture()
	year := time.Now().Year()

	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	f.counters.On("Next", mock.Anything, year).Return(int64(7), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	o, err := f.service.Create(context.Background(), clientActor, CreateOrderInput{
		ClientID:    10,
		ProductType: "шкатулка",
	})
	require.NoError(t, err)

	assert.Equal(t, "шкатулка", o.ProductType)
	assert.Empty(t, o.PriceRange)
	assert.Nil(t, o.PriceMin)
	assert.Nil(t, o.PriceMax)
	assert.Equal(t, fmt.Sprintf("ЗК-%d-007", year), o.OrderNumber)
}

func TestCreate_PhotoValidation(t *testing.T) {
	tests := []struct {
		name    string
		photo   PhotoUpload
		wantErr bool
	}{
		{"bmp rejected", PhotoUpload{OriginalName: "scan.bmp", MimeType: "image/bmp", Size: 1024}, true},
		{"oversized rejected", PhotoUpload{OriginalName: "big.png", MimeType: "image/png", Size: 6 * 1024 * 1024}, true},
		{"png accepted", PhotoUpload{OriginalName: "ok.png", MimeType: "image/png", Size: 1024}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.photo.Filename = "stored.bin"
			tt.photo.Path = "/tmp/stored.bin"

			if tt.wantErr {
				// Offending batches never reach the counter; files are cleaned.
				f.files.On("Remove", "/tmp/stored.bin").Return(nil)
			} else {
				f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
				f.counters.On("Next", mock.Anything, mock.Anything).Return(int64(1), nil)
				f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
				f.expectSummaries()
			}

			o, err := f.service.Create(context.Background(), clientActor, CreateOrderInput{
				ClientID: 10,
				Photos:   []PhotoUpload{tt.photo},
			})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				assert.Contains(t, err.Error(), tt.photo.OriginalName)
				f.counters.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
				f.files.AssertExpectations(t)
			} else {
				require.NoError(t, err)
				require.Len(t, o.Photos, 1)
				assert.Equal(t, "/uploads/orders/photos/stored.bin", o.Photos[0].URL)
			}
		})
	}
}

func TestCreate_AccessPolicy(t *testing.T) {
	f := newFixture()

	// Masters never open orders.
	_, err := f.service.Create(context.Background(), masterActor, CreateOrderInput{ClientID: 20})
	assert.ErrorIs(t, err, access.ErrDenied)

	// A client cannot create for another client.
	_, err = f.service.Create(context.Background(), clientActor, CreateOrderInput{ClientID: 11})
	assert.ErrorIs(t, err, access.ErrDenied)

	f.counters.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestCreate_StaffOnBehalfOfClient(t *testing.T) {
	f := newFixture()

	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	f.counters.On("Next", mock.Anything, mock.Anything).Return(int64(3), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	o, err := f.service.Create(context.Background(), managerActor, CreateOrderInput{ClientID: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), o.ClientID)
}

func TestCreate_NonClientTarget(t *testing.T) {
	f := newFixture()

	f.users.On("GetByID", mock.Anything, int64(20)).
		Return(&domain.User{ID: 20, Role: domain.RoleMaster}, nil)

	_, err := f.service.Create(context.Background(), adminActor, CreateOrderInput{ClientID: 20})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreate_SequenceConsumedOnFailedSave(t *testing.T) {
	f := newFixture()

	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	f.counters.On("Next", mock.Anything, mock.Anything).Return(int64(5), nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything).Return(errors.New("storage down"))
	f.files.On("Remove", "/tmp/p.png").Return(nil)

	_, err := f.service.Create(context.Background(), clientActor, CreateOrderInput{
		ClientID: 10,
		Photos:   []PhotoUpload{{Filename: "p.png", OriginalName: "p.png", MimeType: "image/png", Size: 10, Path: "/tmp/p.png"}},
	})
	require.Error(t, err)

	// The sequence was minted exactly once and stays consumed; the
	// stored photo file was cleaned up.
	f.counters.AssertExpectations(t)
	f.files.AssertExpectations(t)
}

func TestCreate_CounterFailureAbortsCreation(t *testing.T) {
	f := newFixture()

	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	f.counters.On("Next", mock.Anything, mock.Anything).Return(int64(0), errors.New("storage down"))

	_, err := f.service.Create(context.Background(), clientActor, CreateOrderInput{ClientID: 10})
	require.Error(t, err)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_DescriptionTooLong(t *testing.T) {
	f := newFixture()

	long := make([]rune, maxDescriptionLen+1)
	for i := range long {
		long[i] = 'я'
	}

	_, err := f.service.Create(context.Background(), clientActor, CreateOrderInput{
		ClientID:    10,
		Description: string(long),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGet_NotFoundVsDenied(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)
	_, err := f.service.Get(context.Background(), adminActor, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	// Existing but foreign order: denial, not not-found.
	f.orders.On("GetByID", mock.Anything, int64(5)).Return(&domain.Order{ID: 5, ClientID: 77}, nil)
	_, err = f.service.Get(context.Background(), clientActor, 5)
	assert.ErrorIs(t, err, access.ErrDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestList_ScopesByRole(t *testing.T) {
	f := newFixture()
	f.expectSummaries()

	f.orders.On("List", mock.Anything, mock.MatchedBy(func(filter repository.OrderFilter) bool {
		return filter.ClientID != nil && *filter.ClientID == clientActor.ID && filter.AssignedToID == nil
	})).Return([]domain.Order{}, int64(0), nil).Once()

	_, _, err := f.service.List(context.Background(), clientActor, nil, false, 10, 0)
	require.NoError(t, err)

	f.orders.On("List", mock.Anything, mock.MatchedBy(func(filter repository.OrderFilter) bool {
		return filter.AssignedToID != nil && *filter.AssignedToID == masterActor.ID && filter.ClientID == nil
	})).Return([]domain.Order{}, int64(0), nil).Once()

	_, _, err = f.service.List(context.Background(), masterActor, nil, false, 10, 0)
	require.NoError(t, err)

	f.orders.AssertExpectations(t)
}

func TestUpdate_MasterOnlyOwnAssignments(t *testing.T) {
	f := newFixture()
	other := int64(21)

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, AssignedToID: &other, Status: domain.StatusNew}, nil)

	status := domain.StatusInProgress
	_, err := f.service.Update(context.Background(), masterActor, 5, UpdateOrderInput{Status: &status})
	assert.ErrorIs(t, err, access.ErrDenied)
	assert.NotErrorIs(t, err, ErrNotFound)
	f.orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdate_AssignedMasterChangesStatus(t *testing.T) {
	f := newFixture()
	mid := masterActor.ID

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, AssignedToID: &mid, Status: domain.StatusNew}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifs.On("OrderStatusChanged", mock.Anything, []int64{10, mid}).Return()
	f.expectSummaries()

	status := domain.StatusInProgress
	o, err := f.service.Update(context.Background(), masterActor, 5, UpdateOrderInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, o.Status)
	f.notifs.AssertExpectations(t)
}

func TestUpdate_UnknownStatusRejected(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, Status: domain.StatusNew}, nil)

	bad := domain.OrderStatus("shipped")
	_, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

// The state machine is deliberately permissive: any enum value may follow
// any other, including delivered back to new.
func TestUpdate_PermissiveTransitions(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, Status: domain.StatusDelivered}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.notifs.On("OrderStatusChanged", mock.Anything, mock.Anything).Return()
	f.expectSummaries()

	status := domain.StatusNew
	o, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, o.Status)
}

func TestUpdate_ProductTypeRederivesPricing(t *testing.T) {
	f := newFixture()
	min, max := 66.0, 66.0

	f.orders.On("GetByID", mock.Anything, int64(5)).Return(&domain.Order{
		ID: 5, ClientID: 10, Status: domain.StatusNew,
		ProductType: "карандашница", PriceRange: "66 BYN", PriceMin: &min, PriceMax: &max,
	}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	pt := "настенные часы"
	o, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{ProductType: &pt})
	require.NoError(t, err)
	assert.Equal(t, "165-495 BYN", o.PriceRange)
	assert.Equal(t, 165.0, *o.PriceMin)
	assert.Equal(t, 495.0, *o.PriceMax)
}

func TestUpdate_AssignMaster(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, Status: domain.StatusNew}, nil)

	// Masters and clients cannot assign, even to themselves.
	target := masterActor.ID
	_, err := f.service.Update(context.Background(), masterActor, 5, UpdateOrderInput{AssignedToID: &target})
	assert.ErrorIs(t, err, access.ErrDenied)

	// Assigning a non-master is a validation error.
	f.users.On("GetByID", mock.Anything, int64(10)).Return(clientUser(10), nil)
	notMaster := int64(10)
	_, err = f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{AssignedToID: &notMaster})
	assert.ErrorIs(t, err, ErrValidation)

	// Assigning a missing user is a not-found.
	f.users.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)
	missing := int64(404)
	_, err = f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{AssignedToID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	// Happy path.
	f.users.On("GetByID", mock.Anything, int64(20)).
		Return(&domain.User{ID: 20, Role: domain.RoleMaster}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	o, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{AssignedToID: &target})
	require.NoError(t, err)
	require.NotNil(t, o.AssignedToID)
	assert.Equal(t, int64(20), *o.AssignedToID)
}

func TestUpdate_PatchLeavesOtherFieldsAlone(t *testing.T) {
	f := newFixture()
	price := 120.0

	f.orders.On("GetByID", mock.Anything, int64(5)).Return(&domain.Order{
		ID: 5, ClientID: 10, Status: domain.StatusClarification,
		Description: "гравировка по дереву", Price: &price,
	}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	desc := "гравировка по дереву, два экземпляра"
	o, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, desc, o.Description)
	assert.Equal(t, domain.StatusClarification, o.Status)
	require.NotNil(t, o.Price)
	assert.Equal(t, 120.0, *o.Price)
}

func TestUpdate_NegativePriceRejected(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, Status: domain.StatusNew}, nil)

	bad := -1.0
	_, err := f.service.Update(context.Background(), adminActor, 5, UpdateOrderInput{Price: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddPhotos_AppendsWithURL(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, int64(5)).Return(&domain.Order{
		ID: 5, ClientID: clientActor.ID, Status: domain.StatusNew,
		Photos: []domain.Photo{{Filename: "old.png"}},
	}, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.expectSummaries()

	o, err := f.service.AddPhotos(context.Background(), clientActor, 5, []PhotoUpload{
		{Filename: "new.png", OriginalName: "эскиз.png", MimeType: "image/png", Size: 1024, Path: "/tmp/new.png"},
	})
	require.NoError(t, err)
	require.Len(t, o.Photos, 2)
	assert.Equal(t, "old.png", o.Photos[0].Filename)
	assert.Equal(t, "/uploads/orders/photos/new.png", o.Photos[1].URL)
}

func TestAddPhotos_MasterDenied(t *testing.T) {
	f := newFixture()
	mid := masterActor.ID

	f.orders.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Order{ID: 5, ClientID: 10, AssignedToID: &mid}, nil)
	f.files.On("Remove", "/tmp/x.png").Return(nil)

	_, err := f.service.AddPhotos(context.Background(), masterActor, 5, []PhotoUpload{
		{Filename: "x.png", MimeType: "image/png", Size: 1, Path: "/tmp/x.png"},
	})
	assert.ErrorIs(t, err, access.ErrDenied)
	f.files.AssertExpectations(t)
}

func TestRemovePhoto_Idempotent(t *testing.T) {
	f := newFixture()

	stored := &domain.Order{
		ID: 5, ClientID: clientActor.ID, Status: domain.StatusNew,
		Photos: []domain.Photo{{Filename: "a.png", Path: "/tmp/a.png"}},
	}
	f.orders.On("GetByID", mock.Anything, int64(5)).Return(stored, nil)
	f.orders.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.files.On("Remove", "/tmp/a.png").Return(nil).Once()
	f.expectSummaries()

	o, err := f.service.RemovePhoto(context.Background(), clientActor, 5, "a.png")
	require.NoError(t, err)
	assert.Empty(t, o.Photos)

	// Second removal: no-op, no second Update, no error.
	o, err = f.service.RemovePhoto(context.Background(), clientActor, 5, "a.png")
	require.NoError(t, err)
	assert.Empty(t, o.Photos)

	f.orders.AssertExpectations(t)
	f.files.AssertExpectations(t)
}
