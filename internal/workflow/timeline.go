package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"printflow/internal/domain"
)

const (
	EventDepartmentReassigned = "Department_Reassigned"
	eventProductPrefix        = "Product"
	eventPaymentPrefix        = "Payment"
	eventStagePrefix          = "Production_Stage"
)

func newEvent(status, note string, now time.Time) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:        uuid.NewString(),
		Status:    status,
		Timestamp: now.UTC(),
		Note:      note,
	}
}

// ProductEventStatus синтетический статус вида Product_design_approved
func ProductEventStatus(dept domain.Department, s domain.SubStatus) string {
	return fmt.Sprintf("%s_%s_%s", eventProductPrefix, dept, s)
}

// StatusEvent запись о смене статуса заказа
func StatusEvent(target domain.OrderStatus, actor domain.Actor, note string, now time.Time) domain.TimelineEvent {
	ev := newEvent(string(target), note, now)
	ev.AssignedBy = actor.Name
	return ev
}

// CreatedEvent первая запись журнала нового заказа
func CreatedEvent(actor domain.Actor, note string, now time.Time) domain.TimelineEvent {
	ev := newEvent(string(domain.StatusOrderReceived), note, now)
	ev.RequestedBy = actor.Name
	return ev
}

// PaymentEvent запись о смене статуса оплаты
func PaymentEvent(status domain.PaymentStatus, actor domain.Actor, note string, now time.Time) domain.TimelineEvent {
	ev := newEvent(fmt.Sprintf("%s_%s", eventPaymentPrefix, status), note, now)
	ev.AssignedBy = actor.Name
	return ev
}

func reassignEvent(from, to domain.Department, actor domain.Actor, now time.Time) domain.TimelineEvent {
	ev := newEvent(EventDepartmentReassigned, fmt.Sprintf("%s → %s", from, to), now)
	ev.AssignedBy = actor.Name
	return ev
}

func stageEvent(product string, stage domain.ProductionStage, done bool, actor domain.Actor, now time.Time) domain.TimelineEvent {
	state := "done"
	if !done {
		state = "reopened"
	}
	ev := newEvent(fmt.Sprintf("%s_%s", eventStagePrefix, stage), fmt.Sprintf("%s: %s %s", product, stage, state), now)
	ev.AssignedBy = actor.Name
	return ev
}

func withNote(base, note string) string {
	if note == "" {
		return base
	}
	return base + ": " + note
}
