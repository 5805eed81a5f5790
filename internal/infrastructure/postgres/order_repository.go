package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo adaptador PostgreSQL de órdenes (tabla orders + order_items).
// Toma el pool directamente: Save escribe orden e ítems en una transacción local.
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepository construye el adaptador.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// FindByID carga la orden con sus líneas; domain.ErrNotFound si no existe.
func (r *OrderRepo) FindByID(ctx context.Context, tenantID, orderID string) (*entity.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, status, created_at, updated_at
		FROM orders WHERE tenant_id = $1 AND id = $2`
	var o entity.Order
	err := r.pool.QueryRow(ctx, query, tenantID, orderID).Scan(
		&o.ID, &o.TenantID, &o.CustomerID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	itemsQuery := `
		SELECT product_id, location_id, quantity
		FROM order_items WHERE tenant_id = $1 AND order_id = $2
		ORDER BY product_id`
	rows, err := r.pool.Query(ctx, itemsQuery, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.LocationID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// Save inserta o actualiza la orden y reescribe sus líneas en una transacción.
func (r *OrderRepo) Save(ctx context.Context, order *entity.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO orders (id, tenant_id, customer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := tx.Exec(ctx, query,
		order.ID, order.TenantID, order.CustomerID, order.Status, order.CreatedAt, order.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM order_items WHERE tenant_id = $1 AND order_id = $2`,
		order.TenantID, order.ID,
	); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	for _, it := range order.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (tenant_id, order_id, product_id, location_id, quantity)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.TenantID, order.ID, it.ProductID, it.LocationID, it.Quantity,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
