package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"souvenir/internal/access"
	"souvenir/internal/catalog"
	"souvenir/internal/domain"
	"souvenir/internal/repository"

	"gorm.io/gorm"
)

const maxDescriptionLen = 1000

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int64, error)
}

// CounterRepository mints year-scoped sequence numbers atomically.
type CounterRepository interface {
	Next(ctx context.Context, year int) (int64, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Summaries(ctx context.Context, ids []int64) (map[int64]*domain.UserSummary, error)
}

// FileStore deletes stored photo files; the compensating action when an
// order save fails after its files were already written.
type FileStore interface {
	Remove(path string) error
}

// StatusNotifier pushes status changes to interested users. Best-effort:
// a failed push never fails the mutation.
type StatusNotifier interface {
	OrderStatusChanged(o *domain.Order, recipients []int64)
}

// Service owns the order lifecycle: numbering, derived pricing, photo
// batches and role-gated mutation.
type Service struct {
	orders   OrderRepository
	counters CounterRepository
	users    UserReader
	files    FileStore
	notifs   StatusNotifier
}

func NewService(
	orders OrderRepository,
	counters CounterRepository,
	users UserReader,
	files FileStore,
	notifs StatusNotifier,
) *Service {
	return &Service{
		orders:   orders,
		counters: counters,
		users:    users,
		files:    files,
		notifs:   notifs,
	}
}

type CreateOrderInput struct {
	ClientID    int64
	Description string
	ProductType string
	Price       *float64
	Deadline    *time.Time
	Photos      []PhotoUpload
}

// Create validates the photo batch, derives pricing from the catalog,
// mints the order number and persists. A sequence minted for a creation
// that fails afterwards stays consumed; the resulting numbering gap is
// accepted. Already-stored photo files are removed on any failure.
func (s *Service) Create(ctx context.Context, actor access.Actor, in CreateOrderInput) (*domain.Order, error) {
	if err := access.CanCreateOrder(actor, in.ClientID); err != nil {
		return nil, err
	}

	if err := ValidatePhotos(in.Photos); err != nil {
		s.cleanupFiles(in.Photos)
		return nil, err
	}
	if err := s.validateFields(in.Description, in.Price); err != nil {
		s.cleanupFiles(in.Photos)
		return nil, err
	}

	client, err := s.users.GetByID(ctx, in.ClientID)
	if err != nil {
		s.cleanupFiles(in.Photos)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, in.ClientID)
		}
		return nil, err
	}
	if client.Role != domain.RoleClient {
		s.cleanupFiles(in.Photos)
		return nil, fmt.Errorf("%w: user %d is not a client", ErrValidation, in.ClientID)
	}

	o := &domain.Order{
		ClientID:    in.ClientID,
		Status:      domain.StatusNew,
		Description: in.Description,
		Price:       in.Price,
		Deadline:    in.Deadline,
		Photos:      buildPhotos(in.Photos, time.Now()),
	}
	applyProductType(o, in.ProductType)

	// Mint the number last, right before the save: a failed save still
	// consumes the sequence, so keep the window small.
	year := time.Now().Year()
	seq, err := s.counters.Next(ctx, year)
	if err != nil {
		s.cleanupFiles(in.Photos)
		return nil, err
	}
	o.OrderNumber = domain.FormatOrderNumber(year, seq)

	if err := s.orders.Create(ctx, o); err != nil {
		s.cleanupFiles(in.Photos)
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: order number %s already exists", ErrConflict, o.OrderNumber)
		}
		return nil, err
	}

	if err := s.populate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewOrder(actor, o); err != nil {
		return nil, err
	}
	if err := s.populate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns orders visible to the actor: clients see their own,
// masters their assignments, staff everything.
func (s *Service) List(ctx context.Context, actor access.Actor, status *domain.OrderStatus, overdue bool, limit, offset int) ([]domain.Order, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, *status)
	}

	scope := access.ScopeOrders(actor)
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		ClientID:     scope.ClientID,
		AssignedToID: scope.AssignedToID,
		Status:       status,
		Overdue:      overdue,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, 0, err
	}
	if err := s.populateAll(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateOrderInput is a patch: nil fields stay untouched. AssignedToID
// with a value of 0 unassigns the order.
type UpdateOrderInput struct {
	Status       *domain.OrderStatus
	Description  *string
	ProductType  *string
	Price        *float64
	Deadline     *time.Time
	AssignedToID *int64
}

// Update applies a field patch under the access policy. Changing
// productType re-derives the price range as an explicit step; any status
// value from the enumeration is allowed regardless of the current one
// (deliberately no transition graph).
func (s *Service) Update(ctx context.Context, actor access.Actor, id int64, in UpdateOrderInput) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Reassignment is a staff-only action even for the assigned master.
	if in.AssignedToID != nil {
		if err := access.CanAssignMaster(actor); err != nil {
			return nil, err
		}
	}
	if err := access.CanUpdateOrder(actor, o); err != nil {
		return nil, err
	}

	prevStatus := o.Status

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		o.Status = *in.Status
	}
	if in.Description != nil {
		if len([]rune(*in.Description)) > maxDescriptionLen {
			return nil, fmt.Errorf("%w: description cannot be more than %d characters", ErrValidation, maxDescriptionLen)
		}
		o.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		o.Price = in.Price
	}
	if in.Deadline != nil {
		o.Deadline = in.Deadline
	}
	if in.ProductType != nil && *in.ProductType != o.ProductType {
		applyProductType(o, *in.ProductType)
	}
	if in.AssignedToID != nil {
		if *in.AssignedToID <= 0 {
			o.AssignedToID = nil
		} else {
			master, err := s.users.GetByID(ctx, *in.AssignedToID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("%w: master %d", ErrNotFound, *in.AssignedToID)
				}
				return nil, err
			}
			if master.Role != domain.RoleMaster {
				return nil, fmt.Errorf("%w: user %d is not a master", ErrValidation, master.ID)
			}
			o.AssignedToID = in.AssignedToID
		}
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	if s.notifs != nil && o.Status != prevStatus {
		s.notifs.OrderStatusChanged(o, s.recipients(o))
	}

	if err := s.populate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AddPhotos validates and appends a photo batch to an existing order.
// Files already written are removed when validation or the save fails.
func (s *Service) AddPhotos(ctx context.Context, actor access.Actor, id int64, photos []PhotoUpload) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		s.cleanupFiles(photos)
		return nil, err
	}
	if err := access.CanManagePhotos(actor, o); err != nil {
		s.cleanupFiles(photos)
		return nil, err
	}
	if err := ValidatePhotos(photos); err != nil {
		s.cleanupFiles(photos)
		return nil, err
	}

	o.Photos = append(o.Photos, buildPhotos(photos, time.Now())...)

	if err := s.orders.Update(ctx, o); err != nil {
		s.cleanupFiles(photos)
		return nil, err
	}
	if err := s.populate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RemovePhoto drops the first photo with the given filename and deletes
// its file. Removing a filename that is not there is a no-op, so the
// operation is idempotent.
func (s *Service) RemovePhoto(ctx context.Context, actor access.Actor, id int64, filename string) (*domain.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManagePhotos(actor, o); err != nil {
		return nil, err
	}

	removed := false
	removedPath := ""
	for i, p := range o.Photos {
		if p.Filename == filename {
			removed = true
			removedPath = p.Path
			o.Photos = append(o.Photos[:i], o.Photos[i+1:]...)
			break
		}
	}

	// No match: succeed without touching storage, second removal of the
	// same filename is a no-op.
	if removed {
		if err := s.orders.Update(ctx, o); err != nil {
			return nil, err
		}
		if removedPath != "" && s.files != nil {
			_ = s.files.Remove(removedPath)
		}
	}

	if err := s.populate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) validateFields(description string, price *float64) error {
	if len([]rune(description)) > maxDescriptionLen {
		return fmt.Errorf("%w: description cannot be more than %d characters", ErrValidation, maxDescriptionLen)
	}
	if price != nil && *price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

// applyProductType sets the product type and re-derives the estimated
// price fields. An unknown type is allowed and simply carries no derived
// pricing.
func applyProductType(o *domain.Order, productType string) {
	o.ProductType = productType
	if info, ok := catalog.Lookup(productType); ok {
		min, max := info.Min, info.Max
		o.PriceRange = info.RangeLabel
		o.PriceMin = &min
		o.PriceMax = &max
	} else {
		o.PriceRange = ""
		o.PriceMin = nil
		o.PriceMax = nil
	}
}

func buildPhotos(uploads []PhotoUpload, now time.Time) []domain.Photo {
	photos := make([]domain.Photo, 0, len(uploads))
	for _, u := range uploads {
		photos = append(photos, domain.Photo{
			Filename:     u.Filename,
			OriginalName: u.OriginalName,
			MimeType:     u.MimeType,
			Size:         u.Size,
			Path:         u.Path,
			URL:          PhotoURLBase + u.Filename,
			UploadedAt:   now,
			Alt:          u.Alt,
		})
	}
	return photos
}

func (s *Service) cleanupFiles(photos []PhotoUpload) {
	if s.files == nil {
		return
	}
	for _, p := range photos {
		if p.Path != "" {
			_ = s.files.Remove(p.Path)
		}
	}
}

func (s *Service) recipients(o *domain.Order) []int64 {
	ids := []int64{o.ClientID}
	if o.AssignedToID != nil {
		ids = append(ids, *o.AssignedToID)
	}
	return ids
}

func (s *Service) populate(ctx context.Context, o *domain.Order) error {
	ids := []int64{o.ClientID}
	if o.AssignedToID != nil {
		ids = append(ids, *o.AssignedToID)
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	o.Client = summaries[o.ClientID]
	if o.AssignedToID != nil {
		o.AssignedTo = summaries[*o.AssignedToID]
	}
	return nil
}

func (s *Service) populateAll(ctx context.Context, orders []domain.Order) error {
	idSet := make(map[int64]struct{})
	for i := range orders {
		idSet[orders[i].ClientID] = struct{}{}
		if orders[i].AssignedToID != nil {
			idSet[*orders[i].AssignedToID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	summaries, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		orders[i].Client = summaries[orders[i].ClientID]
		if orders[i].AssignedToID != nil {
			orders[i].AssignedTo = summaries[*orders[i].AssignedToID]
		}
	}
	return nil
}
