package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `
	id, customer_id, contract_id::text, created_by::text, order_number, order_date, total_amount,
	rebate_percentage, rebate_amount, customer_status, COALESCE(customer_comment, ''),
	customer_confirmed_date, is_locked, locked_date, manually_unlocked, created_at, updated_at`

// orderSortColumns columnas permitidas en ORDER BY; nunca se interpola texto del cliente.
var orderSortColumns = map[string]string{
	"order_date":   "order_date",
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"order_number": "order_number",
}

// OrderRepo implementación de OrderRepository (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la cabecera del pedido.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, contract_id, created_by, order_number, order_date, total_amount,
			rebate_percentage, rebate_amount, customer_status, customer_comment, customer_confirmed_date,
			is_locked, locked_date, manually_unlocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.CustomerID, derefOrNil(o.ContractID), derefOrNil(o.CreatedBy), o.OrderNumber, o.OrderDate,
		o.TotalAmount, o.RebatePercentage, o.RebateAmount, o.CustomerStatus, nullIfEmpty(o.CustomerComment),
		o.CustomerConfirmedDate, o.IsLocked, o.LockedDate, o.ManuallyUnlocked, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order_number %s", domain.ErrDuplicate, o.OrderNumber)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// CreateItem persiste una línea del pedido.
func (r *OrderRepo) CreateItem(ctx context.Context, it *entity.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, it.ID, it.OrderID, it.ProductName, it.Quantity, it.UnitPrice, it.TotalPrice)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// DeleteItems borra todas las líneas del pedido (reemplazo completo en Update).
func (r *OrderRepo) DeleteItems(ctx context.Context, orderID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

// GetByID obtiene un pedido por ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetItems líneas de un pedido.
func (r *OrderRepo) GetItems(ctx context.Context, orderID string) ([]*entity.OrderItem, error) {
	byOrder, err := r.ItemsByOrderIDs(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

// ItemsByOrderIDs líneas de varios pedidos en una sola consulta.
func (r *OrderRepo) ItemsByOrderIDs(ctx context.Context, ids []string) (map[string][]*entity.OrderItem, error) {
	out := make(map[string][]*entity.OrderItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id::text, product_name, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, product_name, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], &it)
	}
	return out, rows.Err()
}

// List pedidos filtrados y ordenados con el total. StaffID aplica "creados por él o en disputa".
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.StaffID != "" {
		args = append(args, f.StaffID)
		conds = append(conds, fmt.Sprintf("(created_by = $%d OR customer_status = 'disputed')", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("customer_status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	col, ok := orderSortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, col, dir, dir, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, total, rows.Err()
}

// Update reescribe la cabecera del pedido.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders
		SET contract_id = $2, order_date = $3, total_amount = $4, rebate_percentage = $5, rebate_amount = $6,
		    customer_status = $7, customer_comment = $8, customer_confirmed_date = $9,
		    is_locked = $10, locked_date = $11, manually_unlocked = $12, updated_at = $13
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		o.ID, derefOrNil(o.ContractID), o.OrderDate, o.TotalAmount, o.RebatePercentage, o.RebateAmount,
		o.CustomerStatus, nullIfEmpty(o.CustomerComment), o.CustomerConfirmedDate,
		o.IsLocked, o.LockedDate, o.ManuallyUnlocked, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el pedido; las líneas caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// CountByCustomer cantidad de pedidos del cliente.
func (r *OrderRepo) CountByCustomer(ctx context.Context, customerID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// LockExpired UPDATE condicional: solo toca pedidos pendientes, no bloqueados, no desbloqueados
// manualmente y con order_date anterior al corte.
func (r *OrderRepo) LockExpired(ctx context.Context, cutoff, now time.Time, orderID string) (int64, error) {
	query := `
		UPDATE orders
		SET is_locked = TRUE, locked_date = $2, updated_at = $2
		WHERE is_locked = FALSE
		  AND manually_unlocked = FALSE
		  AND customer_status = 'pending'
		  AND order_date < $1`
	args := []any{cutoff, now}
	if orderID != "" {
		query += ` AND id = $3`
		args = append(args, orderID)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("auto-lock orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.ContractID, &o.CreatedBy, &o.OrderNumber, &o.OrderDate, &o.TotalAmount,
		&o.RebatePercentage, &o.RebateAmount, &o.CustomerStatus, &o.CustomerComment,
		&o.CustomerConfirmedDate, &o.IsLocked, &o.LockedDate, &o.ManuallyUnlocked, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
