package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"printflow/internal/domain"
)

// orderRecord заказ без позиций плюс позиции по стабильному id
type orderRecord struct {
	order      domain.Order
	products   map[string]domain.Product
	productIDs []string
}

func (r *orderRecord) snapshot() domain.Order {
	o := r.order.Clone()
	o.Products = make([]domain.Product, 0, len(r.productIDs))
	for _, id := range r.productIDs {
		o.Products = append(o.Products, r.products[id].Clone())
	}
	return o
}

// MemoryStore in-memory хранилище заказов
type MemoryStore struct {
	mu         sync.RWMutex
	ordersByID map[string]*orderRecord
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ordersByID: make(map[string]*orderRecord),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces
var _ OrderStore = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, o *domain.Order) error {
	if err := validateNew(o); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ordersByID[o.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidOrder, o.ID)
	}
	o.CreatedAt = m.now()
	o.UpdatedAt = o.CreatedAt
	o.Version = 1

	rec := &orderRecord{
		order:    o.Clone(),
		products: make(map[string]domain.Product, len(o.Products)),
	}
	rec.order.Products = nil
	for _, p := range o.Products {
		rec.products[p.ID] = p.Clone()
		rec.productIDs = append(rec.productIDs, p.ID)
	}
	m.ordersByID[o.ID] = rec
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	o := rec.snapshot()
	return &o, nil
}

func (m *MemoryStore) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, rec := range m.ordersByID {
		if !f.Matches(&rec.order) {
			continue
		}
		out = append(out, rec.snapshot())
	}
	sortOrders(out)
	return out, nil
}

func (m *MemoryStore) FindByApprovalID(ctx context.Context, approvalID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.ordersByID {
		for _, p := range rec.products {
			if p.ApprovalRequest != nil && p.ApprovalRequest.ID == approvalID {
				o := rec.snapshot()
				return &o, nil
			}
		}
	}
	return nil, ErrNotFound
}

// ApplyMutation проверяет всё до первой записи, поэтому ошибка не оставляет
// заказ частично изменённым
func (m *MemoryStore) ApplyMutation(ctx context.Context, id string, mu Mutation) (*domain.Order, error) {
	if err := mu.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if mu.ExpectedVersion != 0 && mu.ExpectedVersion != rec.order.Version {
		return nil, ErrVersionConflict
	}
	for _, p := range mu.Products {
		if _, ok := rec.products[p.ID]; !ok {
			return nil, fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
		}
	}

	for _, p := range mu.Products {
		rec.products[p.ID] = p.Clone()
	}
	if mu.Status != nil {
		rec.order.Status = *mu.Status
	}
	if mu.AssignedDept != nil {
		rec.order.AssignedDept = *mu.AssignedDept
	}
	if mu.PaymentStatus != nil {
		rec.order.PaymentStatus = *mu.PaymentStatus
	}
	rec.order.Timeline = append(rec.order.Timeline, mu.Append...)
	rec.order.Version++
	rec.order.UpdatedAt = m.now()

	o := rec.snapshot()
	return &o, nil
}

func sortOrders(out []domain.Order) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
