package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"printflow/internal/domain"
	"printflow/internal/events"
	"printflow/internal/repository"
	"printflow/internal/workflow"
)

// OrderService реализует логику заказов: создание, переходы статуса, оплата, подписка
type OrderService struct {
	*Core
}

func NewOrderService(core *Core) *OrderService {
	return &OrderService{Core: core}
}

type ProductInput struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	ClientName string          `json:"client_name"`
	Amount     decimal.Decimal `json:"amount"`
	AssignedTo string          `json:"assigned_to"`
	Remarks    string          `json:"remarks"`
	Products   []ProductInput  `json:"products"`
}

// CreateOrder заводит заказ в Order_Received за отделом продаж. Сумма считается
// по позициям, если не передана
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if !actor.Arbiter() {
		return nil, workflow.ErrTransitionNotPermitted
	}
	if strings.TrimSpace(in.ClientName) == "" || len(in.Products) == 0 || in.Amount.IsNegative() {
		return nil, ErrInvalidInput
	}
	for _, p := range in.Products {
		if strings.TrimSpace(p.Name) == "" || p.Quantity <= 0 || p.UnitPrice.IsNegative() {
			return nil, ErrInvalidInput
		}
	}

	now := s.now()
	o := domain.Order{
		ID:            uuid.NewString(),
		OrderNumber:   orderNumber(now.Format("20060102")),
		ClientName:    strings.TrimSpace(in.ClientName),
		Amount:        in.Amount,
		Status:        domain.StatusOrderReceived,
		AssignedDept:  domain.DeptSales,
		AssignedTo:    in.AssignedTo,
		PaymentStatus: domain.PaymentPending,
		Remarks:       in.Remarks,
		CreatedBy:     actor.ID,
		Products:      make([]domain.Product, 0, len(in.Products)),
	}
	for _, p := range in.Products {
		o.Products = append(o.Products, domain.Product{
			ID:               uuid.NewString(),
			Name:             strings.TrimSpace(p.Name),
			Quantity:         p.Quantity,
			UnitPrice:        p.UnitPrice,
			DesignStatus:     domain.SubPending,
			PrepressStatus:   domain.SubPending,
			ProductionStatus: domain.SubPending,
		})
	}
	if o.Amount.IsZero() {
		o.Amount = o.Total()
	}
	o.Timeline = []domain.TimelineEvent{workflow.CreatedEvent(actor, "Order created", now)}

	if err := s.store.Create(ctx, &o); err != nil {
		return nil, storeError(err)
	}
	s.bus.Publish(o)
	s.log.Info().Str("order_id", o.ID).Str("order_number", o.OrderNumber).Str("actor", actor.ID).Msg("order created")
	s.emit(ctx, &o, &change{
		routingKey: events.OrderCreated,
		event:      events.WorkflowEvent{ActorID: actor.ID, Value: o.Amount.String()},
	})
	return &o, nil
}

// GetOrder возвращает заказ по id. Чужой заказ отдел не видит, как и в ListOrders
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	o, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	f := viewFilter(actor, repository.OrderFilter{})
	if !f.Matches(o) {
		return nil, workflow.ErrOrderNotFound
	}
	return o, nil
}

// ListOrders список заказов, видимых актору
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, f repository.OrderFilter) ([]domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	return s.store.List(ctx, viewFilter(actor, f))
}

// NextStatuses статусы, в которые актор может перевести заказ
func (s *OrderService) NextStatuses(ctx context.Context, actor domain.Actor, id string) ([]domain.OrderStatus, error) {
	o, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return workflow.NextStatusesFor(actor, o), nil
}

// TransitionOrder переводит заказ в target и передаёт его отделу нового статуса
func (s *OrderService) TransitionOrder(ctx context.Context, actor domain.Actor, id string, target domain.OrderStatus, note string) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %q", workflow.ErrInvalidStatusValue, target)
	}
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, id, func(o *domain.Order) (*change, error) {
		if !workflow.CanTransition(actor, o, target) {
			return nil, workflow.ErrTransitionNotPermitted
		}
		dept := workflow.DepartmentForStatus(target)
		status := target
		return &change{
			op: "transition",
			mutation: repository.Mutation{
				Status:       &status,
				AssignedDept: &dept,
				Append:       []domain.TimelineEvent{workflow.StatusEvent(target, actor, note, s.now())},
			},
			routingKey: events.OrderStatusChanged,
			event:      events.WorkflowEvent{ActorID: actor.ID, Value: string(target)},
		}, nil
	})
}

// UpdatePaymentStatus отмечает оплату. Только sales и admin
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, actor domain.Actor, id string, status domain.PaymentStatus, note string) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: payment %q", workflow.ErrInvalidStatusValue, status)
	}
	if !actor.Arbiter() {
		return nil, workflow.ErrTransitionNotPermitted
	}
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, id, func(o *domain.Order) (*change, error) {
		ps := status
		return &change{
			op: "payment",
			mutation: repository.Mutation{
				PaymentStatus: &ps,
				Append:        []domain.TimelineEvent{workflow.PaymentEvent(status, actor, note, s.now())},
			},
			routingKey: events.PaymentUpdated,
			event:      events.WorkflowEvent{ActorID: actor.ID, Value: string(status)},
		}, nil
	})
}

// SubscribeOrders отдаёт текущий список заказов под фильтром, а затем свежий
// список после каждого подходящего изменения. Канал закрывается с отменой ctx
func (s *OrderService) SubscribeOrders(ctx context.Context, actor domain.Actor, f repository.OrderFilter) (<-chan []domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	f = viewFilter(actor, f)
	sub := s.bus.Subscribe()
	initial, err := s.store.List(ctx, f)
	if err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan []domain.Order)
	go func() {
		defer close(out)
		defer sub.Close()

		// очередь списков: медленный читатель получает каждое состояние по порядку
		view := newOrderView(f, initial)
		queue := [][]domain.Order{view.snapshot()}
		for {
			var (
				send chan []domain.Order
				next []domain.Order
			)
			if len(queue) > 0 {
				send, next = out, queue[0]
			}
			select {
			case <-ctx.Done():
				return
			case send <- next:
				queue = queue[1:]
			case o, ok := <-sub.C():
				if !ok {
					return
				}
				if view.apply(o) {
					queue = append(queue, view.snapshot())
				}
			}
		}
	}()
	return out, nil
}

// orderView последнее известное состояние подписки
type orderView struct {
	filter repository.OrderFilter
	orders map[string]domain.Order
}

func newOrderView(f repository.OrderFilter, initial []domain.Order) *orderView {
	v := &orderView{filter: f, orders: make(map[string]domain.Order, len(initial))}
	for _, o := range initial {
		v.orders[o.ID] = o
	}
	return v
}

// apply учитывает снимок; false, если видимый список не изменился
func (v *orderView) apply(o domain.Order) bool {
	cur, known := v.orders[o.ID]
	if known && cur.Version >= o.Version {
		return false
	}
	if !v.filter.Matches(&o) {
		if !known {
			return false
		}
		delete(v.orders, o.ID)
		return true
	}
	v.orders[o.ID] = o
	return true
}

func (v *orderView) snapshot() []domain.Order {
	out := make([]domain.Order, 0, len(v.orders))
	for _, o := range v.orders {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// viewFilter отделы видят только заказы, назначенные им
func viewFilter(actor domain.Actor, f repository.OrderFilter) repository.OrderFilter {
	switch actor.Role {
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
		f.Department = actor.Department
	}
	return f
}

func orderNumber(day string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PO-%s-%s", day, suffix)
}
