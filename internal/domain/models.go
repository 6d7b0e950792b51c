package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actor тот, кто выполняет действие. Приходит от внешнего провайдера идентичности
type Actor struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
}

// Arbiter admin и sales разбирают все согласования отделов
func (a Actor) Arbiter() bool {
	return a.Role == RoleAdmin || a.Role == RoleSales
}

// ApprovalStatus состояние запроса на согласование
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalWithdrawn ApprovalStatus = "withdrawn"
)

// Requester автор запроса на согласование
type Requester struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// ApprovalRequest запрос отдела на согласование работы по одной позиции
type ApprovalRequest struct {
	ID             string         `json:"id"`
	RequestedBy    Requester      `json:"requested_by"`
	Department     Department     `json:"department"`
	RequestedAt    time.Time      `json:"requested_at"`
	Status         ApprovalStatus `json:"status"`
	Note           string         `json:"note,omitempty"`
	ResolvedBy     string         `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolutionNote string         `json:"resolution_note,omitempty"`
}

// Pending запрос ещё ждёт решения
func (r *ApprovalRequest) Pending() bool {
	return r != nil && r.Status == ApprovalPending
}

// Product позиция заказа
type Product struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Quantity         int64                    `json:"quantity"`
	UnitPrice        decimal.Decimal          `json:"unit_price"`
	DesignStatus     SubStatus                `json:"design_status"`
	PrepressStatus   SubStatus                `json:"prepress_status"`
	ProductionStatus SubStatus                `json:"production_status"`
	ProductionStages map[ProductionStage]bool `json:"production_stages,omitempty"`
	ApprovalRequest  *ApprovalRequest         `json:"approval_request,omitempty"`
}

// Status значение подстатуса по полю
func (p *Product) Status(f StatusField) SubStatus {
	switch f {
	case FieldDesign:
		return p.DesignStatus
	case FieldPrepress:
		return p.PrepressStatus
	case FieldProduction:
		return p.ProductionStatus
	}
	return ""
}

// SetStatus выставляет подстатус по полю
func (p *Product) SetStatus(f StatusField, s SubStatus) {
	switch f {
	case FieldDesign:
		p.DesignStatus = s
	case FieldPrepress:
		p.PrepressStatus = s
	case FieldProduction:
		p.ProductionStatus = s
	}
}

// Clone глубокая копия, чтобы снимки из хранилища не делили map и указатели
func (p Product) Clone() Product {
	cp := p
	if p.ProductionStages != nil {
		cp.ProductionStages = make(map[ProductionStage]bool, len(p.ProductionStages))
		for k, v := range p.ProductionStages {
			cp.ProductionStages[k] = v
		}
	}
	if p.ApprovalRequest != nil {
		ar := *p.ApprovalRequest
		if ar.ResolvedAt != nil {
			t := *ar.ResolvedAt
			ar.ResolvedAt = &t
		}
		cp.ApprovalRequest = &ar
	}
	return cp
}

// TimelineEvent неизменяемая запись журнала заказа
type TimelineEvent struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Note        string    `json:"note,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	AssignedBy  string    `json:"assigned_by,omitempty"`
}

// Order сущность заказа
type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	ClientName    string          `json:"client_name"`
	Amount        decimal.Decimal `json:"amount"`
	Status        OrderStatus     `json:"status"`
	AssignedDept  Department      `json:"assigned_dept"`
	AssignedTo    string          `json:"assigned_to,omitempty"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Products      []Product       `json:"products"`
	Timeline      []TimelineEvent `json:"timeline"`
	Remarks       string          `json:"remarks,omitempty"`
	CreatedBy     string          `json:"created_by"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Product ищет позицию по стабильному id
func (o *Order) Product(id string) (*Product, bool) {
	for i := range o.Products {
		if o.Products[i].ID == id {
			return &o.Products[i], true
		}
	}
	return nil, false
}

// Clone глубокая копия заказа
func (o Order) Clone() Order {
	cp := o
	cp.Products = make([]Product, len(o.Products))
	for i, p := range o.Products {
		cp.Products[i] = p.Clone()
	}
	cp.Timeline = append([]TimelineEvent(nil), o.Timeline...)
	return cp
}

// Total сумма по позициям
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.UnitPrice.Mul(decimal.NewFromInt(p.Quantity)))
	}
	return total
}
