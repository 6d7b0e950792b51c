package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"printflow/internal/domain"
	"printflow/internal/events"
	"printflow/internal/repository"
	"printflow/internal/workflow"
)

// ApprovalService очередь согласований
type ApprovalService struct {
	*Core
}

func NewApprovalService(core *Core) *ApprovalService {
	return &ApprovalService{Core: core}
}

// ApprovalItem ожидающий запрос вместе с заказом и позицией
type ApprovalItem struct {
	ApprovalID  string            `json:"approval_id"`
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	ClientName  string            `json:"client_name"`
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	Department  domain.Department `json:"department"`
	RequestedBy domain.Requester  `json:"requested_by"`
	RequestedAt time.Time         `json:"requested_at"`
	Note        string            `json:"note,omitempty"`
}

// ListPendingApprovals запросы, которые актор вправе видеть, от старых к новым
func (s *ApprovalService) ListPendingApprovals(ctx context.Context, actor domain.Actor) ([]ApprovalItem, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	orders, err := s.store.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, err
	}

	items := make([]ApprovalItem, 0)
	for i := range orders {
		o := &orders[i]
		for _, p := range o.Products {
			req := p.ApprovalRequest
			if !req.Pending() || !canSeeApproval(actor, o, req) {
				continue
			}
			items = append(items, ApprovalItem{
				ApprovalID:  req.ID,
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				ClientName:  o.ClientName,
				ProductID:   p.ID,
				ProductName: p.Name,
				Department:  req.Department,
				RequestedBy: req.RequestedBy,
				RequestedAt: req.RequestedAt,
				Note:        req.Note,
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RequestedAt.Before(items[j].RequestedAt)
	})
	return items, nil
}

// ResolveApproval approved передаёт заказ следующему отделу, needsRevision
// возвращает его автору запроса; для needsRevision нужна заметка
func (s *ApprovalService) ResolveApproval(ctx context.Context, actor domain.Actor, approvalID string, outcome domain.SubStatus, note string) (*domain.Order, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if approvalID == "" {
		return nil, ErrInvalidInput
	}
	found, err := s.store.FindByApprovalID(ctx, approvalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrApprovalNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, found.ID, func(o *domain.Order) (*change, error) {
		productID, ok := productWithApproval(o, approvalID)
		if !ok {
			return nil, ErrApprovalNotFound
		}
		res, err := workflow.ResolveApproval(o, productID, outcome, actor, note, s.now())
		if err != nil {
			return nil, err
		}
		ch := resolutionChange("approval", res)
		ch.routingKey = events.ApprovalResolved
		ch.event = events.WorkflowEvent{ProductID: productID, ApprovalID: approvalID, ActorID: actor.ID, Value: string(outcome)}
		return ch, nil
	})
}

func productWithApproval(o *domain.Order, approvalID string) (string, bool) {
	for _, p := range o.Products {
		if p.ApprovalRequest != nil && p.ApprovalRequest.ID == approvalID {
			return p.ID, true
		}
	}
	return "", false
}

// canSeeApproval sales/admin, автор заказа, исполнитель и следующий отдел
func canSeeApproval(actor domain.Actor, o *domain.Order, req *domain.ApprovalRequest) bool {
	if actor.Arbiter() {
		return true
	}
	if actor.ID == o.CreatedBy || (o.AssignedTo != "" && actor.ID == o.AssignedTo) {
		return true
	}
	switch actor.Role {
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
		next := workflow.NextDepartment(req.Department)
		return next != domain.DeptSales && actor.Department == next
	}
	return false
}
