package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"printflow/internal/domain"
)

// successors линейная цепочка отделов sales → design → prepress → production → sales
var successors = map[domain.Department]domain.Department{
	domain.DeptSales:      domain.DeptDesign,
	domain.DeptDesign:     domain.DeptPrepress,
	domain.DeptPrepress:   domain.DeptProduction,
	domain.DeptProduction: domain.DeptSales,
}

// NextDepartment отдел, которому уходит заказ после согласования работы отдела d
func NextDepartment(d domain.Department) domain.Department {
	return successors[d]
}

// handoffStatus статус заказа после согласования работы отдела
var handoffStatus = map[domain.Department]domain.OrderStatus{
	domain.DeptDesign:     domain.StatusDesignApproved,
	domain.DeptPrepress:   domain.StatusPrepressApproved,
	domain.DeptProduction: domain.StatusProductionComplete,
}

// revisionStatus статус заказа, вернувшегося в отдел на доработку
var revisionStatus = map[domain.Department]domain.OrderStatus{
	domain.DeptDesign:     domain.StatusDesignNeedsRevision,
	domain.DeptPrepress:   domain.StatusPrepressNeedsRevision,
	domain.DeptProduction: domain.StatusProductionInProgress,
}

// Resolution итог изменения подстатуса позиции. Хранилище применяет его целиком.
// Reassignment и Status выставляются вместе: отдел всегда совпадает с фазой статуса
type Resolution struct {
	Product      domain.Product
	Reassignment *domain.Department
	Status       *domain.OrderStatus
	Timeline     []domain.TimelineEvent
}

// ResolveProductStatusChange проверяет и вычисляет последствия смены подстатуса
// позиции: запрос согласования, переназначение отдела, записи журнала.
// order не изменяется
func ResolveProductStatusChange(order *domain.Order, productID string, field domain.StatusField, newStatus domain.SubStatus, actor domain.Actor, note string, now time.Time) (*Resolution, error) {
	dept, ok := field.Department()
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidStatusValue, field)
	}
	if !newStatus.ValidFor(field) {
		return nil, fmt.Errorf("%w: %q is not a %s value", ErrInvalidStatusValue, newStatus, field)
	}
	p, ok := order.Product(productID)
	if !ok {
		return nil, ErrProductNotFound
	}
	if err := authorizeSubStatus(order, dept, newStatus, actor); err != nil {
		return nil, err
	}
	if newStatus == domain.SubNeedsRevision && strings.TrimSpace(note) == "" {
		return nil, ErrFeedbackRequired
	}
	// запрос позиции один: пока он открыт, другие поля не трогаем
	if req := p.ApprovalRequest; req.Pending() && req.Department != dept {
		return nil, fmt.Errorf("%w: approval pending on %s", ErrTransitionNotPermitted, req.Department)
	}
	return apply(order, p.Clone(), field, dept, newStatus, actor, note, now)
}

// CanResolveApproval может ли актор принять решение по запросу.
// Автор запроса своё согласование не закрывает (кроме admin)
func CanResolveApproval(actor domain.Actor, req *domain.ApprovalRequest) bool {
	if !req.Pending() {
		return false
	}
	if actor.ID != "" && actor.ID == req.RequestedBy.ID && actor.Role != domain.RoleAdmin {
		return false
	}
	if actor.Arbiter() {
		return true
	}
	switch actor.Role {
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
		next := NextDepartment(req.Department)
		return next != domain.DeptSales && actor.Department == next
	}
	return false
}

// ResolveApproval закрывает ожидающий запрос позиции: approved продвигает заказ
// к следующему отделу, needsRevision возвращает его в отдел-автор
func ResolveApproval(order *domain.Order, productID string, outcome domain.SubStatus, actor domain.Actor, note string, now time.Time) (*Resolution, error) {
	if outcome != domain.SubApproved && outcome != domain.SubNeedsRevision {
		return nil, fmt.Errorf("%w: outcome %q", ErrInvalidStatusValue, outcome)
	}
	if outcome == domain.SubNeedsRevision && strings.TrimSpace(note) == "" {
		return nil, ErrFeedbackRequired
	}
	p, ok := order.Product(productID)
	if !ok {
		return nil, ErrProductNotFound
	}
	req := p.ApprovalRequest
	if !req.Pending() {
		return nil, fmt.Errorf("%w: no pending approval on product %s", ErrTransitionNotPermitted, productID)
	}
	if !CanResolveApproval(actor, req) {
		return nil, ErrTransitionNotPermitted
	}
	field, ok := domain.FieldFor(req.Department)
	if !ok {
		return nil, fmt.Errorf("%w: department %q", ErrInvalidStatusValue, req.Department)
	}
	return apply(order, p.Clone(), field, req.Department, outcome, actor, note, now)
}

// ResolveProductionStage отмечает или снимает производственную отметку позиции
func ResolveProductionStage(order *domain.Order, productID string, stage domain.ProductionStage, done bool, actor domain.Actor, now time.Time) (*Resolution, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: stage %q", ErrInvalidStatusValue, stage)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrTransitionNotPermitted, order.Status)
	}
	p, ok := order.Product(productID)
	if !ok {
		return nil, ErrProductNotFound
	}
	if !actor.Arbiter() {
		if actor.Role != domain.RoleProduction || actor.Department != domain.DeptProduction || order.AssignedDept != domain.DeptProduction {
			return nil, ErrTransitionNotPermitted
		}
	}
	if p.PrepressStatus != domain.SubApproved {
		return nil, fmt.Errorf("%w: prepress not approved", ErrTransitionNotPermitted)
	}
	updated := p.Clone()
	if updated.ProductionStages == nil {
		updated.ProductionStages = make(map[domain.ProductionStage]bool)
	}
	updated.ProductionStages[stage] = done
	return &Resolution{
		Product:  updated,
		Timeline: []domain.TimelineEvent{stageEvent(updated.Name, stage, done, actor, now)},
	}, nil
}

// authorizeSubStatus отдел меняет только своё поле, только пока заказ у него
// и никогда не согласует сам себя
func authorizeSubStatus(order *domain.Order, dept domain.Department, s domain.SubStatus, actor domain.Actor) error {
	if actor.Arbiter() {
		return nil
	}
	switch actor.Role {
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
	default:
		return ErrTransitionNotPermitted
	}
	if actor.Department != dept || order.AssignedDept != dept {
		return ErrTransitionNotPermitted
	}
	if s == domain.SubApproved || s == domain.SubNeedsRevision {
		return ErrTransitionNotPermitted
	}
	return nil
}

func checkGates(p *domain.Product, field domain.StatusField, s domain.SubStatus) error {
	switch field {
	case domain.FieldPrepress:
		if s == domain.SubApproved && p.DesignStatus != domain.SubApproved {
			return fmt.Errorf("%w: design not approved", ErrTransitionNotPermitted)
		}
	case domain.FieldProduction:
		if s != domain.SubPending && p.PrepressStatus != domain.SubApproved {
			return fmt.Errorf("%w: prepress not approved", ErrTransitionNotPermitted)
		}
	}
	return nil
}

func apply(order *domain.Order, p domain.Product, field domain.StatusField, dept domain.Department, s domain.SubStatus, actor domain.Actor, note string, now time.Time) (*Resolution, error) {
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrTransitionNotPermitted, order.Status)
	}
	if err := checkGates(&p, field, s); err != nil {
		return nil, err
	}
	res := &Resolution{}
	status := ProductEventStatus(dept, s)

	switch s {
	case domain.SubPendingApproval:
		if p.ApprovalRequest.Pending() {
			return nil, fmt.Errorf("%w: approval already pending", ErrTransitionNotPermitted)
		}
		p.ApprovalRequest = &domain.ApprovalRequest{
			ID:          uuid.NewString(),
			RequestedBy: domain.Requester{ID: actor.ID, Name: actor.Name, Role: actor.Role},
			Department:  dept,
			RequestedAt: now.UTC(),
			Status:      domain.ApprovalPending,
			Note:        note,
		}
		p.SetStatus(field, s)
		ev := newEvent(status, withNote(p.Name+": sent for approval", note), now)
		ev.RequestedBy = actor.Name
		res.Timeline = append(res.Timeline, ev)

	case domain.SubApproved:
		closeRequest(&p, dept, domain.ApprovalApproved, actor, note, now)
		p.SetStatus(field, s)
		ev := newEvent(status, withNote(p.Name+": approved", note), now)
		ev.AssignedBy = actor.Name
		res.Timeline = append(res.Timeline, ev)
		// заказ уже дальше этой фазы (другая позиция ушла вперёд): назад не двигаем
		if target := handoffStatus[dept]; ahead(target, order.Status) {
			next := NextDepartment(dept)
			res.Reassignment = &next
			res.Status = &target
			res.Timeline = append(res.Timeline, reassignEvent(order.AssignedDept, next, actor, now))
		}

	case domain.SubNeedsRevision:
		closeRequest(&p, dept, domain.ApprovalRejected, actor, note, now)
		p.SetStatus(field, s)
		back, target := dept, revisionStatus[dept]
		res.Reassignment = &back
		res.Status = &target
		ev := newEvent(status, withNote(p.Name+": revision requested", note), now)
		ev.AssignedBy = actor.Name
		res.Timeline = append(res.Timeline, ev)

	default:
		closeRequest(&p, dept, domain.ApprovalWithdrawn, actor, "", now)
		p.SetStatus(field, s)
		ev := newEvent(status, withNote(p.Name, note), now)
		ev.AssignedBy = actor.Name
		res.Timeline = append(res.Timeline, ev)
	}

	res.Product = p
	return res, nil
}

// ahead стоит ли статус a позже b в жизненном цикле
func ahead(a, b domain.OrderStatus) bool {
	return rank(a) > rank(b)
}

func rank(s domain.OrderStatus) int {
	for i, v := range domain.OrderStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

// closeRequest закрывает открытый запрос позиции, если он принадлежит отделу dept
func closeRequest(p *domain.Product, dept domain.Department, status domain.ApprovalStatus, actor domain.Actor, note string, now time.Time) {
	if !p.ApprovalRequest.Pending() || p.ApprovalRequest.Department != dept {
		return
	}
	t := now.UTC()
	p.ApprovalRequest.Status = status
	p.ApprovalRequest.ResolvedBy = actor.ID
	p.ApprovalRequest.ResolvedAt = &t
	p.ApprovalRequest.ResolutionNote = note
}
