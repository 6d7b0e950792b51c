package service

import (
	"context"

	"printflow/internal/domain"
	"printflow/internal/events"
	"printflow/internal/workflow"
)

// ProductService инкапсулирует работу отделов над позициями заказа
type ProductService struct {
	*Core
}

func NewProductService(core *Core) *ProductService {
	return &ProductService{Core: core}
}

// UpdateProductStatus меняет подстатус позиции со всеми последствиями
// маршрутизации: запрос согласования, передача отделу, записи журнала
func (s *ProductService) UpdateProductStatus(ctx context.Context, actor domain.Actor, orderID, productID string, field domain.StatusField, status domain.SubStatus, note string) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if orderID == "" || productID == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, orderID, func(o *domain.Order) (*change, error) {
		res, err := workflow.ResolveProductStatusChange(o, productID, field, status, actor, note, s.now())
		if err != nil {
			return nil, err
		}
		ch := resolutionChange("product_status", res)
		ch.routingKey = events.ProductStatusChanged
		ch.event = events.WorkflowEvent{ProductID: productID, ActorID: actor.ID, Value: string(field) + "=" + string(status)}
		if res.Product.ApprovalRequest != nil {
			ch.event.ApprovalID = res.Product.ApprovalRequest.ID
		}
		return ch, nil
	})
}

// SetProductionStage отмечает или снимает производственную отметку
func (s *ProductService) SetProductionStage(ctx context.Context, actor domain.Actor, orderID, productID string, stage domain.ProductionStage, done bool) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if orderID == "" || productID == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, orderID, func(o *domain.Order) (*change, error) {
		res, err := workflow.ResolveProductionStage(o, productID, stage, done, actor, s.now())
		if err != nil {
			return nil, err
		}
		state := "done"
		if !done {
			state = "reopened"
		}
		ch := resolutionChange("production_stage", res)
		ch.routingKey = events.ProductionStageUpdate
		ch.event = events.WorkflowEvent{ProductID: productID, ActorID: actor.ID, Value: string(stage) + "=" + state}
		return ch, nil
	})
}
