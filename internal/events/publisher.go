package events

import (
	"context"
	"time"
)

// Routing keys событий workflow
const (
	OrderCreated          = "order.created"
	OrderStatusChanged    = "order.status_changed"
	ProductStatusChanged  = "product.status_changed"
	ApprovalResolved      = "approval.resolved"
	PaymentUpdated        = "payment.updated"
	ProductionStageUpdate = "production.stage_updated"
)

// Publisher внешний приёмник событий (брокер сообщений)
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// WorkflowEvent полезная нагрузка событий
type WorkflowEvent struct {
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	Status       string    `json:"status"`
	AssignedDept string    `json:"assigned_dept"`
	ProductID    string    `json:"product_id,omitempty"`
	ApprovalID   string    `json:"approval_id,omitempty"`
	Value        string    `json:"value,omitempty"`
	ActorID      string    `json:"actor_id"`
	Version      int64     `json:"version"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Message конверт, который уходит в брокер
type Message struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
}

// NopPublisher отбрасывает события
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

var _ Publisher = NopPublisher{}
