package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printflow/internal/domain"
	"printflow/internal/events"
	"printflow/internal/repository"
	"printflow/internal/workflow"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrApprovalNotFound = errors.New("approval not found")
	ErrIdentityRequired = errors.New("actor identity required")
)

const (
	defaultMaxRetries    = 5
	defaultRetryBackoff  = 5 * time.Millisecond
	defaultPublishWindow = 5 * time.Second
)

// Core общие зависимости сервисов. Блокировки по заказу живут здесь, поэтому
// все сервисы процесса должны строиться от одного Core
type Core struct {
	store repository.OrderStore
	bus   *events.Broadcaster
	pub   events.Publisher
	log   zerolog.Logger
	locks *keyedMutex
	now   func() time.Time

	maxRetries int
	backoff    time.Duration
}

func NewCore(store repository.OrderStore, bus *events.Broadcaster, pub events.Publisher, log zerolog.Logger) *Core {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Core{
		store:      store,
		bus:        bus,
		pub:        pub,
		log:        log,
		locks:      newKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
	}
}

// change то, что надо записать, и событие для внешних подписчиков
type change struct {
	op         string
	mutation   repository.Mutation
	routingKey string
	event      events.WorkflowEvent
}

// planFunc строит изменение по свежему снимку заказа. Вызывается заново после
// конфликта версий
type planFunc func(o *domain.Order) (*change, error)

// mutate читает заказ, применяет план и рассылает снимок. Снимок уходит в
// Broadcaster до снятия блокировки, так что подписчики видят изменения одного
// заказа в порядке записи
func (c *Core) mutate(ctx context.Context, orderID string, plan planFunc) (*domain.Order, error) {
	updated, ch, err := c.commit(ctx, orderID, plan)
	if err != nil {
		return nil, err
	}
	c.log.Info().
		Str("op", ch.op).
		Str("order_id", updated.ID).
		Str("status", string(updated.Status)).
		Str("assigned_dept", string(updated.AssignedDept)).
		Int64("version", updated.Version).
		Msg("order updated")
	c.emit(ctx, updated, ch)
	return updated, nil
}

func (c *Core) commit(ctx context.Context, orderID string, plan planFunc) (*domain.Order, *change, error) {
	unlock := c.locks.Lock(orderID)
	defer unlock()

	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		o, err := c.store.GetByID(ctx, orderID)
		if err != nil {
			return nil, nil, storeError(err)
		}
		ch, err := plan(o)
		if err != nil {
			return nil, nil, err
		}
		if err := checkAssignment(o, ch.mutation); err != nil {
			return nil, nil, err
		}
		ch.mutation.ExpectedVersion = o.Version

		updated, err := c.store.ApplyMutation(ctx, orderID, ch.mutation)
		if errors.Is(err, repository.ErrVersionConflict) {
			if attempt >= c.maxRetries {
				c.log.Warn().Str("order_id", orderID).Int("attempts", attempt+1).Msg("giving up after version conflicts")
				return nil, nil, workflow.ErrConcurrentModification
			}
			if err := sleep(ctx, backoff+jitter(backoff)); err != nil {
				return nil, nil, err
			}
			backoff *= 2
			continue
		}
		if err != nil {
			return nil, nil, storeError(err)
		}

		c.bus.Publish(*updated)
		return updated, ch, nil
	}
}

// emit внешняя публикация не откатывает уже записанное изменение
func (c *Core) emit(ctx context.Context, o *domain.Order, ch *change) {
	if ch.routingKey == "" {
		return
	}
	ev := ch.event
	ev.OrderID = o.ID
	ev.OrderNumber = o.OrderNumber
	ev.Status = string(o.Status)
	ev.AssignedDept = string(o.AssignedDept)
	ev.Version = o.Version
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = c.now()
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishWindow)
	defer cancel()
	if err := c.pub.Publish(pctx, ch.routingKey, ev); err != nil {
		c.log.Warn().Err(err).
			Str("routing_key", ch.routingKey).
			Str("order_id", o.ID).
			Msg("failed to publish workflow event (non-fatal)")
	}
}

func (c *Core) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	o, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return o, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return workflow.ErrOrderNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return workflow.ErrConcurrentModification
	case errors.Is(err, repository.ErrInvalidOrder):
		return ErrInvalidInput
	}
	return err
}

// checkAssignment отдел заказа после записи должен совпадать с фазой его статуса
func checkAssignment(o *domain.Order, m repository.Mutation) error {
	status, dept := o.Status, o.AssignedDept
	if m.Status != nil {
		status = *m.Status
	}
	if m.AssignedDept != nil {
		dept = *m.AssignedDept
	}
	if (m.Status != nil || m.AssignedDept != nil) && !workflow.AssignmentConsistent(status, dept) {
		return fmt.Errorf("%w: %s cannot be held by %s", workflow.ErrTransitionNotPermitted, status, dept)
	}
	return nil
}

func resolutionChange(op string, res *workflow.Resolution) *change {
	return &change{
		op: op,
		mutation: repository.Mutation{
			Status:       res.Status,
			AssignedDept: res.Reassignment,
			Products:     []domain.Product{res.Product},
			Append:       res.Timeline,
		},
	}
}

// requireIdentity отделу без department нечего показывать и нечего разрешать
func requireIdentity(actor domain.Actor) error {
	if actor.ID == "" || !actor.Role.Valid() {
		return ErrIdentityRequired
	}
	switch actor.Role {
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
		if !actor.Department.Valid() {
			return ErrIdentityRequired
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d / 4)))
}

// keyedMutex мьютекс на ключ; записи удаляются, когда их никто не держит
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
