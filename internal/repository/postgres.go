package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"printflow/internal/database"
	"printflow/internal/domain"
)

// PostgresStore хранилище заказов в PostgreSQL. Позиции и журнал лежат
// в отдельных таблицах, версия заказа проверяется под SELECT ... FOR UPDATE
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ OrderStore = (*PostgresStore)(nil)

// queryer общее у *sql.DB и *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) Create(ctx context.Context, o *domain.Order) error {
	if err := validateNew(o); err != nil {
		return err
	}
	now := s.now()

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, order_number, client_name, amount, status, assigned_dept,
			                     assigned_to, payment_status, remarks, created_by, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $11)`,
			o.ID, o.OrderNumber, o.ClientName, o.Amount, o.Status, o.AssignedDept,
			o.AssignedTo, o.PaymentStatus, o.Remarks, o.CreatedBy, now)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, p := range o.Products {
			if err := insertProduct(ctx, tx, o.ID, i, p); err != nil {
				return err
			}
		}
		return insertEvents(ctx, tx, o.ID, o.Timeline)
	})
	if err != nil {
		if database.ClassifyError(err) == database.ErrorClassUniqueViolation {
			return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}
		return err
	}

	o.Version = 1
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.load(ctx, s.db, id)
}

func (s *PostgresStore) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Department != "" {
		add("assigned_dept = $%d", f.Department)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.CreatedBy != "" {
		add("created_by = $%d", f.CreatedBy)
	}
	if f.ClientContains != "" {
		add("client_name ILIKE $%d", "%"+escapeLike(f.ClientContains)+"%")
	}

	query := "SELECT id FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.load(ctx, s.db, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *PostgresStore) FindByApprovalID(ctx context.Context, approvalID string) (*domain.Order, error) {
	var orderID string
	err := s.db.QueryRowContext(ctx,
		`SELECT order_id FROM order_products WHERE approval_request ->> 'id' = $1 LIMIT 1`,
		approvalID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find approval: %w", err)
	}
	return s.load(ctx, s.db, orderID)
}

func (s *PostgresStore) ApplyMutation(ctx context.Context, id string, m Mutation) (*domain.Order, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	var updated *domain.Order
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var version int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if m.ExpectedVersion != 0 && m.ExpectedVersion != version {
			return ErrVersionConflict
		}

		for _, p := range m.Products {
			if err := updateProduct(ctx, tx, id, p); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = COALESCE($2::text, status),
			     assigned_dept = COALESCE($3::text, assigned_dept),
			     payment_status = COALESCE($4::text, payment_status),
			     version = version + 1,
			     updated_at = $5
			 WHERE id = $1`,
			id, optional(m.Status), optional(m.AssignedDept), optional(m.PaymentStatus), s.now())
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if err := insertEvents(ctx, tx, id, m.Append); err != nil {
			return err
		}

		updated, err = s.load(ctx, tx, id)
		return err
	})
	if err != nil {
		if database.IsRetryable(err) {
			return nil, fmt.Errorf("%w: %v", ErrVersionConflict, err)
		}
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) load(ctx context.Context, q queryer, id string) (*domain.Order, error) {
	o := &domain.Order{}
	err := q.QueryRowContext(ctx,
		`SELECT id, order_number, client_name, amount, status, assigned_dept, assigned_to,
		        payment_status, remarks, created_by, version, created_at, updated_at
		 FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.OrderNumber, &o.ClientName, &o.Amount, &o.Status, &o.AssignedDept, &o.AssignedTo,
		&o.PaymentStatus, &o.Remarks, &o.CreatedBy, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	if o.Products, err = loadProducts(ctx, q, id); err != nil {
		return nil, err
	}
	if o.Timeline, err = loadTimeline(ctx, q, id); err != nil {
		return nil, err
	}
	return o, nil
}

func loadProducts(ctx context.Context, q queryer, orderID string) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, quantity, unit_price, design_status, prepress_status, production_status,
		        production_stages, approval_request
		 FROM order_products WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var (
			p        domain.Product
			stages   []byte
			approval []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.UnitPrice, &p.DesignStatus,
			&p.PrepressStatus, &p.ProductionStatus, &stages, &approval); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if len(stages) > 0 {
			if err := json.Unmarshal(stages, &p.ProductionStages); err != nil {
				return nil, fmt.Errorf("decode stages of %s: %w", p.ID, err)
			}
			if len(p.ProductionStages) == 0 {
				p.ProductionStages = nil
			}
		}
		if len(approval) > 0 {
			p.ApprovalRequest = &domain.ApprovalRequest{}
			if err := json.Unmarshal(approval, p.ApprovalRequest); err != nil {
				return nil, fmt.Errorf("decode approval of %s: %w", p.ID, err)
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func loadTimeline(ctx context.Context, q queryer, orderID string) ([]domain.TimelineEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, status, note, requested_by, assigned_by, created_at
		 FROM order_timeline WHERE order_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var e domain.TimelineEvent
		if err := rows.Scan(&e.ID, &e.Status, &e.Note, &e.RequestedBy, &e.AssignedBy, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

func insertProduct(ctx context.Context, tx *sql.Tx, orderID string, position int, p domain.Product) error {
	stages, approval, err := encodeProductJSON(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_products (order_id, id, position, name, quantity, unit_price, design_status,
		                             prepress_status, production_status, production_stages, approval_request)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		orderID, p.ID, position, p.Name, p.Quantity, p.UnitPrice, p.DesignStatus,
		p.PrepressStatus, p.ProductionStatus, stages, approval)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func updateProduct(ctx context.Context, tx *sql.Tx, orderID string, p domain.Product) error {
	stages, approval, err := encodeProductJSON(p)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE order_products
		 SET name = $3, quantity = $4, unit_price = $5, design_status = $6, prepress_status = $7,
		     production_status = $8, production_stages = $9, approval_request = $10
		 WHERE order_id = $1 AND id = $2`,
		orderID, p.ID, p.Name, p.Quantity, p.UnitPrice, p.DesignStatus, p.PrepressStatus,
		p.ProductionStatus, stages, approval)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, orderID string, events []domain.TimelineEvent) error {
	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_timeline (id, order_id, status, note, requested_by, assigned_by, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, orderID, e.Status, e.Note, e.RequestedBy, e.AssignedBy, e.Timestamp)
		if err != nil {
			return fmt.Errorf("insert timeline event: %w", err)
		}
	}
	return nil
}

// encodeProductJSON этапы всегда объект, запрос согласования NULL, если его нет.
// JSON уходит строкой: []byte lib/pq кодирует как bytea
func encodeProductJSON(p domain.Product) (string, any, error) {
	stages := "{}"
	if len(p.ProductionStages) > 0 {
		b, err := json.Marshal(p.ProductionStages)
		if err != nil {
			return "", nil, fmt.Errorf("encode stages: %w", err)
		}
		stages = string(b)
	}
	var approval any
	if p.ApprovalRequest != nil {
		b, err := json.Marshal(p.ApprovalRequest)
		if err != nil {
			return "", nil, fmt.Errorf("encode approval: %w", err)
		}
		approval = string(b)
	}
	return stages, approval, nil
}

func optional[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
