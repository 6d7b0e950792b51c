package domain

// Role роль пользователя
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSales      Role = "sales"
	RoleDesign     Role = "design"
	RolePrepress   Role = "prepress"
	RoleProduction Role = "production"
	RoleManager    Role = "manager"
)

var roles = []Role{RoleAdmin, RoleSales, RoleDesign, RolePrepress, RoleProduction, RoleManager}

func (r Role) Valid() bool {
	for _, v := range roles {
		if v == r {
			return true
		}
	}
	return false
}

// Department отдел, отвечающий за заказ
type Department string

const (
	DeptSales      Department = "sales"
	DeptDesign     Department = "design"
	DeptPrepress   Department = "prepress"
	DeptProduction Department = "production"
)

var departments = []Department{DeptSales, DeptDesign, DeptPrepress, DeptProduction}

func (d Department) Valid() bool {
	for _, v := range departments {
		if v == d {
			return true
		}
	}
	return false
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	StatusOrderReceived           OrderStatus = "Order_Received"
	StatusOrderConfirmed          OrderStatus = "Order_Confirmed"
	StatusDesignInProgress        OrderStatus = "Design_InProgress"
	StatusDesignPendingApproval   OrderStatus = "Design_PendingApproval"
	StatusDesignNeedsRevision     OrderStatus = "Design_NeedsRevision"
	StatusDesignApproved          OrderStatus = "Design_Approved"
	StatusPrepressInProgress      OrderStatus = "Prepress_InProgress"
	StatusPrepressPendingApproval OrderStatus = "Prepress_PendingApproval"
	StatusPrepressNeedsRevision   OrderStatus = "Prepress_NeedsRevision"
	StatusPrepressApproved        OrderStatus = "Prepress_Approved"
	StatusProductionInProgress    OrderStatus = "Production_InProgress"
	StatusProductionComplete      OrderStatus = "Production_Complete"
	StatusReadyToDispatch         OrderStatus = "ReadyToDispatch"
	StatusDispatched              OrderStatus = "Dispatched"
	StatusCompleted               OrderStatus = "Completed"
	StatusCancelled               OrderStatus = "Cancelled"
)

// OrderStatuses все статусы в порядке жизненного цикла
var OrderStatuses = []OrderStatus{
	StatusOrderReceived,
	StatusOrderConfirmed,
	StatusDesignInProgress,
	StatusDesignPendingApproval,
	StatusDesignNeedsRevision,
	StatusDesignApproved,
	StatusPrepressInProgress,
	StatusPrepressPendingApproval,
	StatusPrepressNeedsRevision,
	StatusPrepressApproved,
	StatusProductionInProgress,
	StatusProductionComplete,
	StatusReadyToDispatch,
	StatusDispatched,
	StatusCompleted,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal из статуса нет переходов
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus статус оплаты
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// StatusField поле подстатуса позиции
type StatusField string

const (
	FieldDesign     StatusField = "designStatus"
	FieldPrepress   StatusField = "prepressStatus"
	FieldProduction StatusField = "productionStatus"
)

// Department отдел, которому принадлежит поле
func (f StatusField) Department() (Department, bool) {
	switch f {
	case FieldDesign:
		return DeptDesign, true
	case FieldPrepress:
		return DeptPrepress, true
	case FieldProduction:
		return DeptProduction, true
	}
	return "", false
}

// FieldFor поле подстатуса, которым владеет отдел
func FieldFor(d Department) (StatusField, bool) {
	switch d {
	case DeptDesign:
		return FieldDesign, true
	case DeptPrepress:
		return FieldPrepress, true
	case DeptProduction:
		return FieldProduction, true
	}
	return "", false
}

// SubStatus подстатус позиции в отделе
type SubStatus string

const (
	SubPending         SubStatus = "pending"
	SubInProgress      SubStatus = "inProgress"
	SubInProcess       SubStatus = "inProcess"
	SubPendingApproval SubStatus = "pendingApproval"
	SubApproved        SubStatus = "approved"
	SubNeedsRevision   SubStatus = "needsRevision"
	SubComplete        SubStatus = "complete"
	SubReadyToDispatch SubStatus = "readyToDispatch"
)

var subStatuses = map[StatusField][]SubStatus{
	FieldDesign:     {SubPending, SubInProgress, SubPendingApproval, SubApproved, SubNeedsRevision},
	FieldPrepress:   {SubPending, SubInProcess, SubPendingApproval, SubApproved, SubNeedsRevision},
	FieldProduction: {SubPending, SubInProcess, SubPendingApproval, SubApproved, SubNeedsRevision, SubComplete, SubReadyToDispatch},
}

// ValidFor входит ли значение в перечисление поля
func (s SubStatus) ValidFor(f StatusField) bool {
	for _, v := range subStatuses[f] {
		if v == s {
			return true
		}
	}
	return false
}

// ProductionStage именованная отметка производства
type ProductionStage string

const (
	StagePrinting   ProductionStage = "printing"
	StageCutting    ProductionStage = "cutting"
	StageFoiling    ProductionStage = "foiling"
	StageLamination ProductionStage = "lamination"
	StageBinding    ProductionStage = "binding"
	StagePackaging  ProductionStage = "packaging"
)

var ProductionStages = []ProductionStage{StagePrinting, StageCutting, StageFoiling, StageLamination, StageBinding, StagePackaging}

func (s ProductionStage) Valid() bool {
	for _, v := range ProductionStages {
		if v == s {
			return true
		}
	}
	return false
}
