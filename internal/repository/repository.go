package repository

import (
	"context"
	"errors"
	"strings"

	"printflow/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict заказ изменён после чтения
	ErrVersionConflict = errors.New("version conflict")
	// ErrTimelineRequired мутация без записи в журнал не принимается
	ErrTimelineRequired = errors.New("mutation without timeline entry")
	ErrInvalidOrder     = errors.New("invalid order")
)

// OrderFilter параметры фильтрации списка заказов
type OrderFilter struct {
	Department     domain.Department
	Status         domain.OrderStatus
	CreatedBy      string
	ClientContains string
}

// Matches подходит ли заказ под фильтр. Пустые поля не ограничивают
func (f OrderFilter) Matches(o *domain.Order) bool {
	if f.Department != "" && o.AssignedDept != f.Department {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.CreatedBy != "" && o.CreatedBy != f.CreatedBy {
		return false
	}
	return containsIgnoreCase(o.ClientName, f.ClientContains)
}

// Mutation изменение заказа вместе с записями журнала. Применяется целиком или никак
type Mutation struct {
	// ExpectedVersion версия, на которой основано изменение; 0 значит без проверки
	ExpectedVersion int64
	Status          *domain.OrderStatus
	AssignedDept    *domain.Department
	PaymentStatus   *domain.PaymentStatus
	// Products заменяют позиции с теми же id, остальные не трогаются
	Products []domain.Product
	Append   []domain.TimelineEvent
}

func (m Mutation) validate() error {
	if len(m.Append) == 0 {
		return ErrTimelineRequired
	}
	return nil
}

// OrderStore интерфейс хранилища заказов
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
	FindByApprovalID(ctx context.Context, approvalID string) (*domain.Order, error)
	ApplyMutation(ctx context.Context, id string, m Mutation) (*domain.Order, error)
}

func validateNew(o *domain.Order) error {
	if o.ID == "" || len(o.Timeline) == 0 {
		return ErrInvalidOrder
	}
	seen := make(map[string]struct{}, len(o.Products))
	for _, p := range o.Products {
		if p.ID == "" {
			return ErrInvalidOrder
		}
		if _, dup := seen[p.ID]; dup {
			return ErrInvalidOrder
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
