package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printflow/internal/domain"
)

var (
	now        = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	salesRep   = domain.Actor{ID: "s1", Name: "Sam", Role: domain.RoleSales, Department: domain.DeptSales}
	admin      = domain.Actor{ID: "a1", Name: "Ada", Role: domain.RoleAdmin}
	designer   = domain.Actor{ID: "d1", Name: "Dee", Role: domain.RoleDesign, Department: domain.DeptDesign}
	prepPerson = domain.Actor{ID: "p1", Name: "Pat", Role: domain.RolePrepress, Department: domain.DeptPrepress}
	printer    = domain.Actor{ID: "r1", Name: "Rio", Role: domain.RoleProduction, Department: domain.DeptProduction}
)

func newOrder(dept domain.Department, p domain.Product) *domain.Order {
	if p.ID == "" {
		p.ID = "p-1"
	}
	if p.Name == "" {
		p.Name = "Business cards"
	}
	p.Quantity = 500
	p.UnitPrice = decimal.RequireFromString("0.12")
	return &domain.Order{
		ID:           "o-1",
		Status:       domain.StatusDesignInProgress,
		AssignedDept: dept,
		Products:     []domain.Product{p},
	}
}

func pendingRequest(by domain.Actor, dept domain.Department) *domain.ApprovalRequest {
	return &domain.ApprovalRequest{
		ID:          "ar-1",
		RequestedBy: domain.Requester{ID: by.ID, Name: by.Name, Role: by.Role},
		Department:  dept,
		RequestedAt: now.Add(-time.Hour),
		Status:      domain.ApprovalPending,
	}
}

func TestResolve_SendForApproval(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubInProgress})

	res, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubPendingApproval, designer, "proof v2", now)
	require.NoError(t, err)

	assert.Nil(t, res.Reassignment)
	assert.Equal(t, domain.SubPendingApproval, res.Product.DesignStatus)
	require.NotNil(t, res.Product.ApprovalRequest)
	assert.Equal(t, domain.ApprovalPending, res.Product.ApprovalRequest.Status)
	assert.Equal(t, "d1", res.Product.ApprovalRequest.RequestedBy.ID)
	assert.Equal(t, domain.DeptDesign, res.Product.ApprovalRequest.Department)
	assert.Equal(t, "proof v2", res.Product.ApprovalRequest.Note)
	require.Len(t, res.Timeline, 1)
	assert.Equal(t, "Product_design_pendingApproval", res.Timeline[0].Status)
	assert.Equal(t, "Dee", res.Timeline[0].RequestedBy)

	// исходный заказ не тронут
	assert.Equal(t, domain.SubInProgress, order.Products[0].DesignStatus)
	assert.Nil(t, order.Products[0].ApprovalRequest)
}

func TestResolve_SendForApprovalTwice(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubPendingApproval, ApprovalRequest: pendingRequest(designer, domain.DeptDesign)})
	_, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubPendingApproval, designer, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)
}

func TestResolveApproval_DesignApproved(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubPendingApproval, ApprovalRequest: pendingRequest(designer, domain.DeptDesign)})

	res, err := ResolveApproval(order, "p-1", domain.SubApproved, salesRep, "", now)
	require.NoError(t, err)

	assert.Equal(t, domain.SubApproved, res.Product.DesignStatus)
	require.NotNil(t, res.Reassignment)
	assert.Equal(t, domain.DeptPrepress, *res.Reassignment)
	require.NotNil(t, res.Status)
	assert.Equal(t, domain.StatusDesignApproved, *res.Status)
	require.Len(t, res.Timeline, 2)
	assert.Equal(t, "Product_design_approved", res.Timeline[0].Status)
	assert.Equal(t, EventDepartmentReassigned, res.Timeline[1].Status)
	assert.False(t, res.Product.ApprovalRequest.Pending())
	assert.Equal(t, domain.ApprovalApproved, res.Product.ApprovalRequest.Status)
	assert.Equal(t, "s1", res.Product.ApprovalRequest.ResolvedBy)
}

func TestResolveApproval_RevisionReturnsToOrigin(t *testing.T) {
	for _, dept := range []domain.Department{domain.DeptDesign, domain.DeptPrepress, domain.DeptProduction} {
		field, _ := domain.FieldFor(dept)
		p := domain.Product{DesignStatus: domain.SubApproved, PrepressStatus: domain.SubApproved}
		p.SetStatus(field, domain.SubPendingApproval)
		p.ApprovalRequest = pendingRequest(designer, dept)
		order := newOrder(domain.DeptSales, p)

		res, err := ResolveApproval(order, "p-1", domain.SubNeedsRevision, admin, "colours off", now)
		require.NoError(t, err, dept)
		require.NotNil(t, res.Reassignment)
		assert.Equal(t, dept, *res.Reassignment)
		assert.Equal(t, domain.SubNeedsRevision, res.Product.Status(field))
		assert.Equal(t, domain.ApprovalRejected, res.Product.ApprovalRequest.Status)
		require.Len(t, res.Timeline, 1)
		assert.Contains(t, res.Timeline[0].Note, "colours off")
	}
}

func TestResolveApproval_FeedbackRequired(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubPendingApproval, ApprovalRequest: pendingRequest(designer, domain.DeptDesign)})
	for _, note := range []string{"", "   "} {
		_, err := ResolveApproval(order, "p-1", domain.SubNeedsRevision, salesRep, note, now)
		assert.ErrorIs(t, err, ErrFeedbackRequired)
	}
	_, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubNeedsRevision, salesRep, "", now)
	assert.ErrorIs(t, err, ErrFeedbackRequired)
}

func TestResolveApproval_Entitlement(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubPendingApproval, ApprovalRequest: pendingRequest(designer, domain.DeptDesign)})

	_, err := ResolveApproval(order, "p-1", domain.SubApproved, designer, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted, "requester cannot approve own work")

	_, err = ResolveApproval(order, "p-1", domain.SubApproved, printer, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)

	res, err := ResolveApproval(order, "p-1", domain.SubApproved, prepPerson, "", now)
	require.NoError(t, err, "next department may accept the hand-off")
	assert.Equal(t, domain.DeptPrepress, *res.Reassignment)
}

func TestResolveApproval_NoPendingRequest(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubInProgress})
	_, err := ResolveApproval(order, "p-1", domain.SubApproved, salesRep, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)

	_, err = ResolveApproval(order, "p-1", domain.SubInProgress, salesRep, "", now)
	assert.ErrorIs(t, err, ErrInvalidStatusValue)

	_, err = ResolveApproval(order, "missing", domain.SubApproved, salesRep, "", now)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestResolve_ProductionCompletionRoutesToSales(t *testing.T) {
	order := newOrder(domain.DeptProduction, domain.Product{
		DesignStatus:     domain.SubApproved,
		PrepressStatus:   domain.SubApproved,
		ProductionStatus: domain.SubReadyToDispatch,
	})
	res, err := ResolveProductStatusChange(order, "p-1", domain.FieldProduction, domain.SubApproved, admin, "", now)
	require.NoError(t, err)
	require.NotNil(t, res.Reassignment)
	assert.Equal(t, domain.DeptSales, *res.Reassignment)
	assert.Len(t, res.Timeline, 2)
}

func TestResolve_MonotonicChain(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{})
	chain := []domain.Department{domain.DeptDesign, domain.DeptPrepress, domain.DeptProduction}
	for i, dept := range chain {
		field, _ := domain.FieldFor(dept)
		res, err := ResolveProductStatusChange(order, "p-1", field, domain.SubApproved, salesRep, "", now)
		require.NoError(t, err, dept)
		require.NotNil(t, res.Reassignment)
		assert.Equal(t, NextDepartment(dept), *res.Reassignment)
		if i+1 < len(chain) {
			assert.Equal(t, chain[i+1], *res.Reassignment)
		}
		require.NotNil(t, res.Status)
		assert.True(t, AssignmentConsistent(*res.Status, *res.Reassignment), dept)
		order.Products[0] = res.Product
		order.AssignedDept = *res.Reassignment
		order.Status = *res.Status
	}
	assert.Equal(t, domain.DeptSales, order.AssignedDept)
	assert.Equal(t, domain.StatusProductionComplete, order.Status)
}

func TestResolve_Validation(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{})

	_, err := ResolveProductStatusChange(order, "nope", domain.FieldDesign, domain.SubInProgress, designer, "", now)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubInProcess, designer, "", now)
	assert.ErrorIs(t, err, ErrInvalidStatusValue, "inProcess belongs to prepress/production")

	_, err = ResolveProductStatusChange(order, "p-1", "paintStatus", domain.SubPending, designer, "", now)
	assert.ErrorIs(t, err, ErrInvalidStatusValue)

	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubReadyToDispatch, designer, "", now)
	assert.ErrorIs(t, err, ErrInvalidStatusValue)
}

func TestResolve_DepartmentAuthorization(t *testing.T) {
	order := newOrder(domain.DeptPrepress, domain.Product{DesignStatus: domain.SubApproved})

	_, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubInProgress, designer, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted, "order is with prepress")

	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubInProgress, prepPerson, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted, "prepress cannot edit design field")

	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldPrepress, domain.SubApproved, prepPerson, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted, "no self approval")

	manager := domain.Actor{ID: "m1", Role: domain.RoleManager}
	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldPrepress, domain.SubInProcess, manager, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)

	res, err := ResolveProductStatusChange(order, "p-1", domain.FieldPrepress, domain.SubInProcess, prepPerson, "", now)
	require.NoError(t, err)
	assert.Nil(t, res.Reassignment)
	assert.Len(t, res.Timeline, 1)
}

func TestResolve_Gates(t *testing.T) {
	order := newOrder(domain.DeptPrepress, domain.Product{DesignStatus: domain.SubPendingApproval})
	_, err := ResolveProductStatusChange(order, "p-1", domain.FieldPrepress, domain.SubApproved, salesRep, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)

	order = newOrder(domain.DeptProduction, domain.Product{DesignStatus: domain.SubApproved, PrepressStatus: domain.SubInProcess})
	_, err = ResolveProductStatusChange(order, "p-1", domain.FieldProduction, domain.SubInProcess, printer, "", now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)

	_, err = ResolveProductionStage(order, "p-1", domain.StagePrinting, true, printer, now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)
}

func TestResolve_WithdrawPendingRequest(t *testing.T) {
	order := newOrder(domain.DeptDesign, domain.Product{DesignStatus: domain.SubPendingApproval, ApprovalRequest: pendingRequest(designer, domain.DeptDesign)})
	res, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubInProgress, designer, "one more tweak", now)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalWithdrawn, res.Product.ApprovalRequest.Status)
	assert.Equal(t, domain.SubInProgress, res.Product.DesignStatus)
}

func TestResolveProductionStage(t *testing.T) {
	order := newOrder(domain.DeptProduction, domain.Product{DesignStatus: domain.SubApproved, PrepressStatus: domain.SubApproved})

	res, err := ResolveProductionStage(order, "p-1", domain.StageFoiling, true, printer, now)
	require.NoError(t, err)
	assert.True(t, res.Product.ProductionStages[domain.StageFoiling])
	require.Len(t, res.Timeline, 1)
	assert.Equal(t, "Production_Stage_foiling", res.Timeline[0].Status)
	assert.Nil(t, order.Products[0].ProductionStages)

	_, err = ResolveProductionStage(order, "p-1", "embossing", true, printer, now)
	assert.ErrorIs(t, err, ErrInvalidStatusValue)

	_, err = ResolveProductionStage(order, "p-1", domain.StagePrinting, true, designer, now)
	assert.ErrorIs(t, err, ErrTransitionNotPermitted)
}

func TestResolve_OtherFieldWhileApprovalPending(t *testing.T) {
	pendingPrepress := func() *domain.Order {
		return newOrder(domain.DeptPrepress, domain.Product{
			DesignStatus:    domain.SubApproved,
			PrepressStatus:  domain.SubPendingApproval,
			ApprovalRequest: pendingRequest(prepPerson, domain.DeptPrepress),
		})
	}

	tests := []struct {
		name   string
		status domain.SubStatus
	}{
		{"design reopened", domain.SubInProgress},
		{"design approved again", domain.SubApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := pendingPrepress()
			_, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, tt.status, admin, "", now)
			assert.ErrorIs(t, err, ErrTransitionNotPermitted)
			assert.Equal(t, domain.ApprovalPending, order.Products[0].ApprovalRequest.Status)
		})
	}

	// своё поле по-прежнему закрывает запрос
	res, err := ResolveProductStatusChange(pendingPrepress(), "p-1", domain.FieldPrepress, domain.SubApproved, admin, "", now)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, res.Product.ApprovalRequest.Status)
	assert.Equal(t, domain.DeptProduction, *res.Reassignment)
}

func TestResolve_ReassignmentMovesStatus(t *testing.T) {
	tests := []struct {
		dept    domain.Department
		outcome domain.SubStatus
		status  domain.OrderStatus
		to      domain.Department
	}{
		{domain.DeptDesign, domain.SubApproved, domain.StatusDesignApproved, domain.DeptPrepress},
		{domain.DeptPrepress, domain.SubApproved, domain.StatusPrepressApproved, domain.DeptProduction},
		{domain.DeptProduction, domain.SubApproved, domain.StatusProductionComplete, domain.DeptSales},
		{domain.DeptDesign, domain.SubNeedsRevision, domain.StatusDesignNeedsRevision, domain.DeptDesign},
		{domain.DeptPrepress, domain.SubNeedsRevision, domain.StatusPrepressNeedsRevision, domain.DeptPrepress},
		{domain.DeptProduction, domain.SubNeedsRevision, domain.StatusProductionInProgress, domain.DeptProduction},
	}
	for _, tt := range tests {
		t.Run(string(tt.dept)+"/"+string(tt.outcome), func(t *testing.T) {
			field, _ := domain.FieldFor(tt.dept)
			p := domain.Product{DesignStatus: domain.SubApproved, PrepressStatus: domain.SubApproved}
			p.SetStatus(field, domain.SubPendingApproval)
			p.ApprovalRequest = pendingRequest(designer, tt.dept)
			order := newOrder(tt.dept, p)

			res, err := ResolveApproval(order, "p-1", tt.outcome, admin, "see notes", now)
			require.NoError(t, err)
			require.NotNil(t, res.Status)
			require.NotNil(t, res.Reassignment)
			assert.Equal(t, tt.status, *res.Status)
			assert.Equal(t, tt.to, *res.Reassignment)
			assert.True(t, AssignmentConsistent(*res.Status, *res.Reassignment))
		})
	}
}

func TestResolve_ApprovalBehindOrderKeepsAssignment(t *testing.T) {
	order := newOrder(domain.DeptProduction, domain.Product{DesignStatus: domain.SubInProgress})
	order.Status = domain.StatusPrepressApproved

	res, err := ResolveProductStatusChange(order, "p-1", domain.FieldDesign, domain.SubApproved, admin, "", now)
	require.NoError(t, err)
	assert.Equal(t, domain.SubApproved, res.Product.DesignStatus)
	assert.Nil(t, res.Reassignment)
	assert.Nil(t, res.Status)
	require.Len(t, res.Timeline, 1)
	assert.Equal(t, "Product_design_approved", res.Timeline[0].Status)
}

func TestResolve_TerminalOrder(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.StatusCompleted, domain.StatusCancelled} {
		order := newOrder(domain.DeptSales, domain.Product{DesignStatus: domain.SubApproved, PrepressStatus: domain.SubApproved})
		order.Status = status

		_, err := ResolveProductStatusChange(order, "p-1", domain.FieldProduction, domain.SubInProcess, admin, "", now)
		assert.ErrorIs(t, err, ErrTransitionNotPermitted, status)
		_, err = ResolveProductionStage(order, "p-1", domain.StagePrinting, true, admin, now)
		assert.ErrorIs(t, err, ErrTransitionNotPermitted, status)
	}
}
