package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printflow/internal/domain"
	"printflow/internal/workflow"
)

func TestUpdateProductStatus_SendForApproval(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID

	o, err := env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubInProgress, o.Products[0].DesignStatus)
	assert.Len(t, o.Timeline, 4)

	o, err = env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubPendingApproval, "proof v1")
	require.NoError(t, err)
	p := o.Products[0]
	assert.Equal(t, domain.SubPendingApproval, p.DesignStatus)
	require.NotNil(t, p.ApprovalRequest)
	assert.Equal(t, domain.ApprovalPending, p.ApprovalRequest.Status)
	assert.Equal(t, domain.DeptDesign, p.ApprovalRequest.Department)
	assert.Equal(t, "u-design", p.ApprovalRequest.RequestedBy.ID)
	assert.Equal(t, domain.DeptDesign, o.AssignedDept)
	require.Len(t, o.Timeline, 5)
	assert.Equal(t, "Product_design_pendingApproval", o.Timeline[4].Status)

	_, err = env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubPendingApproval, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)
}

func TestUpdateProductStatus_DirectApprovalAdvances(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID
	before := len(o.Timeline)

	o, err := env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldDesign, domain.SubApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubApproved, o.Products[0].DesignStatus)
	assert.Equal(t, domain.DeptPrepress, o.AssignedDept)
	assert.Equal(t, domain.StatusDesignApproved, o.Status)
	require.Len(t, o.Timeline, before+2)
	assert.Equal(t, "Product_design_approved", o.Timeline[before].Status)
	assert.Equal(t, workflow.EventDepartmentReassigned, o.Timeline[before+1].Status)

	// новый отдел может продолжать заказ с уровня статуса
	next, err := env.orders.NextStatuses(ctx, prepress, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderStatus{domain.StatusPrepressInProgress}, next)
}

func TestUpdateProductStatus_RevisionNeedsNote(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID

	o, err := env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubPendingApproval, "")
	require.NoError(t, err)
	before := len(o.Timeline)

	_, err = env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldDesign, domain.SubNeedsRevision, "  ")
	assert.ErrorIs(t, err, workflow.ErrFeedbackRequired)
	unchanged, _ := env.orders.GetOrder(ctx, salesRep, o.ID)
	assert.Len(t, unchanged.Timeline, before)

	o, err = env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldDesign, domain.SubNeedsRevision, "logo too small")
	require.NoError(t, err)
	p := o.Products[0]
	assert.Equal(t, domain.SubNeedsRevision, p.DesignStatus)
	assert.Equal(t, domain.ApprovalRejected, p.ApprovalRequest.Status)
	assert.Equal(t, "logo too small", p.ApprovalRequest.ResolutionNote)
	assert.Equal(t, domain.DeptDesign, o.AssignedDept)
	assert.Equal(t, domain.StatusDesignNeedsRevision, o.Status)
	require.Len(t, o.Timeline, before+1)
	assert.Contains(t, o.Timeline[before].Note, "logo too small")
}

func TestUpdateProductStatus_Withdraw(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID

	_, err := env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubPendingApproval, "")
	require.NoError(t, err)
	o, err = env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubInProgress, "one more tweak")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalWithdrawn, o.Products[0].ApprovalRequest.Status)

	items, err := env.approvals.ListPendingApprovals(ctx, salesRep)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateProductStatus_Authorization(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	received := env.createOrder(t)
	pid := received.Products[0].ID

	_, err := env.products.UpdateProductStatus(ctx, designer, received.ID, pid, domain.FieldDesign, domain.SubInProgress, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted, "order is not assigned to design")

	o := env.toDesign(t)
	pid = o.Products[0].ID
	tests := []struct {
		name   string
		actor  domain.Actor
		field  domain.StatusField
		status domain.SubStatus
		err    error
	}{
		{"other department", prepress, domain.FieldPrepress, domain.SubInProcess, workflow.ErrTransitionNotPermitted},
		{"foreign field", designer, domain.FieldPrepress, domain.SubInProcess, workflow.ErrTransitionNotPermitted},
		{"self approval", designer, domain.FieldDesign, domain.SubApproved, workflow.ErrTransitionNotPermitted},
		{"self rejection", designer, domain.FieldDesign, domain.SubNeedsRevision, workflow.ErrTransitionNotPermitted},
		{"manager", manager, domain.FieldDesign, domain.SubInProgress, workflow.ErrTransitionNotPermitted},
		{"wrong enum", designer, domain.FieldDesign, domain.SubComplete, workflow.ErrInvalidStatusValue},
		{"unknown field", salesRep, "fooStatus", domain.SubPending, workflow.ErrInvalidStatusValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.products.UpdateProductStatus(ctx, tt.actor, o.ID, pid, tt.field, tt.status, "note")
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err = env.products.UpdateProductStatus(ctx, designer, o.ID, "ghost", domain.FieldDesign, domain.SubInProgress, "")
	assert.ErrorIs(t, err, workflow.ErrProductNotFound)

	_, err = env.products.UpdateProductStatus(ctx, designer, "missing", pid, domain.FieldDesign, domain.SubInProgress, "")
	assert.ErrorIs(t, err, workflow.ErrOrderNotFound)
}

func TestUpdateProductStatus_Gates(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.createOrder(t)
	pid := o.Products[0].ID

	_, err := env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldPrepress, domain.SubApproved, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)

	_, err = env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldProduction, domain.SubInProcess, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)

	_, err = env.products.SetProductionStage(ctx, salesRep, o.ID, pid, domain.StagePrinting, true)
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)

	after, _ := env.orders.GetOrder(ctx, salesRep, o.ID)
	assert.Len(t, after.Timeline, 1)
}

func TestProductChain_ThroughProduction(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID

	o, err := env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldDesign, domain.SubApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DeptPrepress, o.AssignedDept)

	o, err = env.products.UpdateProductStatus(ctx, prepress, o.ID, pid, domain.FieldPrepress, domain.SubInProcess, "")
	require.NoError(t, err)
	o, err = env.products.UpdateProductStatus(ctx, admin, o.ID, pid, domain.FieldPrepress, domain.SubApproved, "plates ok")
	require.NoError(t, err)
	assert.Equal(t, domain.DeptProduction, o.AssignedDept)
	assert.Equal(t, domain.StatusPrepressApproved, o.Status)

	o, err = env.products.UpdateProductStatus(ctx, printer, o.ID, pid, domain.FieldProduction, domain.SubInProcess, "")
	require.NoError(t, err)

	o, err = env.products.SetProductionStage(ctx, printer, o.ID, pid, domain.StagePrinting, true)
	require.NoError(t, err)
	assert.True(t, o.Products[0].ProductionStages[domain.StagePrinting])
	assert.Equal(t, "Production_Stage_printing", o.Timeline[len(o.Timeline)-1].Status)

	_, err = env.products.SetProductionStage(ctx, printer, o.ID, pid, "embossing", true)
	assert.ErrorIs(t, err, workflow.ErrInvalidStatusValue)
	_, err = env.products.SetProductionStage(ctx, designer, o.ID, pid, domain.StageCutting, true)
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)

	o, err = env.products.UpdateProductStatus(ctx, printer, o.ID, pid, domain.FieldProduction, domain.SubPendingApproval, "run finished")
	require.NoError(t, err)
	approvalID := o.Products[0].ApprovalRequest.ID
	before := len(o.Timeline)

	o, err = env.approvals.ResolveApproval(ctx, salesRep, approvalID, domain.SubApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubApproved, o.Products[0].ProductionStatus)
	assert.Equal(t, domain.DeptSales, o.AssignedDept)
	assert.Equal(t, domain.StatusProductionComplete, o.Status)
	require.Len(t, o.Timeline, before+2)
	assert.Equal(t, "Product_production_approved", o.Timeline[before].Status)
	assert.Equal(t, workflow.EventDepartmentReassigned, o.Timeline[before+1].Status)
	assert.True(t, workflow.AssignmentConsistent(o.Status, o.AssignedDept))

	for i := 1; i < len(o.Timeline); i++ {
		assert.False(t, o.Timeline[i].Timestamp.Before(o.Timeline[i-1].Timestamp))
	}
}

func TestUpdateProductStatus_OtherFieldWhileApprovalPending(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID

	_, err := env.products.UpdateProductStatus(ctx, salesRep, o.ID, pid, domain.FieldDesign, domain.SubApproved, "")
	require.NoError(t, err)
	o, err = env.products.UpdateProductStatus(ctx, prepress, o.ID, pid, domain.FieldPrepress, domain.SubPendingApproval, "plates ready")
	require.NoError(t, err)
	before := len(o.Timeline)

	_, err = env.products.UpdateProductStatus(ctx, admin, o.ID, pid, domain.FieldDesign, domain.SubInProgress, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)
	_, err = env.products.UpdateProductStatus(ctx, admin, o.ID, pid, domain.FieldDesign, domain.SubApproved, "")
	assert.ErrorIs(t, err, workflow.ErrTransitionNotPermitted)

	after, err := env.orders.GetOrder(ctx, salesRep, o.ID)
	require.NoError(t, err)
	assert.Len(t, after.Timeline, before)
	assert.Equal(t, domain.ApprovalPending, after.Products[0].ApprovalRequest.Status)

	items, err := env.approvals.ListPendingApprovals(ctx, admin)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.DeptPrepress, items[0].Department)
}

func TestUpdateProductStatus_LaterApprovalDoesNotMoveBack(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t, "Business cards", "Flyers")
	cards, flyers := o.Products[0].ID, o.Products[1].ID

	_, err := env.products.UpdateProductStatus(ctx, admin, o.ID, cards, domain.FieldDesign, domain.SubApproved, "")
	require.NoError(t, err)
	o, err = env.products.UpdateProductStatus(ctx, admin, o.ID, cards, domain.FieldPrepress, domain.SubApproved, "")
	require.NoError(t, err)
	require.Equal(t, domain.DeptProduction, o.AssignedDept)
	before := len(o.Timeline)

	o, err = env.products.UpdateProductStatus(ctx, admin, o.ID, flyers, domain.FieldDesign, domain.SubApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubApproved, o.Products[1].DesignStatus)
	assert.Equal(t, domain.DeptProduction, o.AssignedDept)
	assert.Equal(t, domain.StatusPrepressApproved, o.Status)
	require.Len(t, o.Timeline, before+1)
	assert.Equal(t, "Product_design_approved", o.Timeline[before].Status)
}

func TestTimeline_EarlierEntriesUnchanged(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	o := env.toDesign(t)
	pid := o.Products[0].ID
	first := append([]domain.TimelineEvent(nil), o.Timeline...)

	var err error
	o, err = env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubPendingApproval, "proof v1")
	require.NoError(t, err)
	o, err = env.approvals.ResolveApproval(ctx, salesRep, o.Products[0].ApprovalRequest.ID, domain.SubNeedsRevision, "bigger logo")
	require.NoError(t, err)
	o, err = env.orders.UpdatePaymentStatus(ctx, salesRep, o.ID, domain.PaymentPartial, "deposit")
	require.NoError(t, err)
	o, err = env.products.UpdateProductStatus(ctx, designer, o.ID, pid, domain.FieldDesign, domain.SubInProgress, "")
	require.NoError(t, err)

	require.Greater(t, len(o.Timeline), len(first))
	assert.Equal(t, first, o.Timeline[:len(first)])
}
