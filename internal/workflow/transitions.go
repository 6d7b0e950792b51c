package workflow

import (
	"printflow/internal/domain"
)

// transitions полная таблица переходов статуса заказа. Её видят admin и sales
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusOrderReceived:           {domain.StatusOrderConfirmed, domain.StatusCancelled},
	domain.StatusOrderConfirmed:          {domain.StatusDesignInProgress, domain.StatusCancelled},
	domain.StatusDesignInProgress:        {domain.StatusDesignPendingApproval, domain.StatusCancelled},
	domain.StatusDesignPendingApproval:   {domain.StatusDesignApproved, domain.StatusDesignNeedsRevision, domain.StatusCancelled},
	domain.StatusDesignNeedsRevision:     {domain.StatusDesignInProgress, domain.StatusCancelled},
	domain.StatusDesignApproved:          {domain.StatusPrepressInProgress, domain.StatusCancelled},
	domain.StatusPrepressInProgress:      {domain.StatusPrepressPendingApproval, domain.StatusCancelled},
	domain.StatusPrepressPendingApproval: {domain.StatusPrepressApproved, domain.StatusPrepressNeedsRevision, domain.StatusCancelled},
	domain.StatusPrepressNeedsRevision:   {domain.StatusPrepressInProgress, domain.StatusCancelled},
	domain.StatusPrepressApproved:        {domain.StatusProductionInProgress, domain.StatusCancelled},
	domain.StatusProductionInProgress:    {domain.StatusProductionComplete, domain.StatusCancelled},
	domain.StatusProductionComplete:      {domain.StatusReadyToDispatch, domain.StatusCancelled},
	domain.StatusReadyToDispatch:         {domain.StatusDispatched, domain.StatusCancelled},
	domain.StatusDispatched:              {domain.StatusCompleted},
	domain.StatusCompleted:               {},
	domain.StatusCancelled:               {},
}

// departmentMoves шаги вперёд, которые отдел делает сам. Подмножество transitions;
// согласование и отмена остаются за sales/admin
var departmentMoves = map[domain.Department]map[domain.OrderStatus][]domain.OrderStatus{
	domain.DeptDesign: {
		domain.StatusOrderConfirmed:      {domain.StatusDesignInProgress},
		domain.StatusDesignInProgress:    {domain.StatusDesignPendingApproval},
		domain.StatusDesignNeedsRevision: {domain.StatusDesignInProgress},
	},
	domain.DeptPrepress: {
		domain.StatusDesignApproved:        {domain.StatusPrepressInProgress},
		domain.StatusPrepressInProgress:    {domain.StatusPrepressPendingApproval},
		domain.StatusPrepressNeedsRevision: {domain.StatusPrepressInProgress},
	},
	domain.DeptProduction: {
		domain.StatusPrepressApproved:     {domain.StatusProductionInProgress},
		domain.StatusProductionInProgress: {domain.StatusProductionComplete},
	},
}

// departmentOfStatus отдел, которому уходит заказ после перехода в статус
var departmentOfStatus = map[domain.OrderStatus]domain.Department{
	domain.StatusOrderReceived:           domain.DeptSales,
	domain.StatusOrderConfirmed:          domain.DeptDesign,
	domain.StatusDesignInProgress:        domain.DeptDesign,
	domain.StatusDesignPendingApproval:   domain.DeptDesign,
	domain.StatusDesignNeedsRevision:     domain.DeptDesign,
	domain.StatusDesignApproved:          domain.DeptPrepress,
	domain.StatusPrepressInProgress:      domain.DeptPrepress,
	domain.StatusPrepressPendingApproval: domain.DeptPrepress,
	domain.StatusPrepressNeedsRevision:   domain.DeptPrepress,
	domain.StatusPrepressApproved:        domain.DeptProduction,
	domain.StatusProductionInProgress:    domain.DeptProduction,
	domain.StatusProductionComplete:      domain.DeptSales,
	domain.StatusReadyToDispatch:         domain.DeptSales,
	domain.StatusDispatched:              domain.DeptSales,
	domain.StatusCompleted:               domain.DeptSales,
	domain.StatusCancelled:               domain.DeptSales,
}

// phaseOfStatus отдел фазы, к которой относится статус (по префиксу)
var phaseOfStatus = map[domain.OrderStatus]domain.Department{
	domain.StatusDesignInProgress:        domain.DeptDesign,
	domain.StatusDesignPendingApproval:   domain.DeptDesign,
	domain.StatusDesignNeedsRevision:     domain.DeptDesign,
	domain.StatusDesignApproved:          domain.DeptDesign,
	domain.StatusPrepressInProgress:      domain.DeptPrepress,
	domain.StatusPrepressPendingApproval: domain.DeptPrepress,
	domain.StatusPrepressNeedsRevision:   domain.DeptPrepress,
	domain.StatusPrepressApproved:        domain.DeptPrepress,
	domain.StatusProductionInProgress:    domain.DeptProduction,
	domain.StatusProductionComplete:      domain.DeptProduction,
}

// AllowedTransitions полный список следующих статусов без учёта роли
func AllowedTransitions(status domain.OrderStatus) []domain.OrderStatus {
	return append([]domain.OrderStatus{}, transitions[status]...)
}

// NextStatuses вычисляет допустимые следующие статусы для актора.
// Никогда не возвращает ошибку: пустой список значит "действий нет"
func NextStatuses(status domain.OrderStatus, role domain.Role, actorDept, assignedDept domain.Department) []domain.OrderStatus {
	switch role {
	case domain.RoleAdmin, domain.RoleSales:
		return AllowedTransitions(status)
	case domain.RoleDesign, domain.RolePrepress, domain.RoleProduction:
		if actorDept == "" || actorDept != assignedDept {
			return []domain.OrderStatus{}
		}
		return append([]domain.OrderStatus{}, departmentMoves[actorDept][status]...)
	default:
		return []domain.OrderStatus{}
	}
}

// NextStatusesFor то же самое для конкретного заказа
func NextStatusesFor(actor domain.Actor, order *domain.Order) []domain.OrderStatus {
	return NextStatuses(order.Status, actor.Role, actor.Department, order.AssignedDept)
}

// CanTransition разрешён ли актору переход заказа в target
func CanTransition(actor domain.Actor, order *domain.Order, target domain.OrderStatus) bool {
	for _, s := range NextStatusesFor(actor, order) {
		if s == target {
			return true
		}
	}
	return false
}

// DepartmentForStatus отдел, который отвечает за заказ в данном статусе
func DepartmentForStatus(status domain.OrderStatus) domain.Department {
	if d, ok := departmentOfStatus[status]; ok {
		return d
	}
	return domain.DeptSales
}

// AssignmentConsistent проверяет, что assignedDept соответствует фазе статуса:
// отдел фазы, отдел-получатель после перехода или возврат в sales
func AssignmentConsistent(status domain.OrderStatus, dept domain.Department) bool {
	if !status.Valid() || !dept.Valid() {
		return false
	}
	if dept == domain.DeptSales || dept == DepartmentForStatus(status) {
		return true
	}
	phase, ok := phaseOfStatus[status]
	return ok && phase == dept
}
