package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo adaptador PostgreSQL de envíos (shipments + shipment_items).
type ShipmentRepo struct {
	pool *pgxpool.Pool
}

// NewShipmentRepository construye el adaptador.
func NewShipmentRepository(pool *pgxpool.Pool) *ShipmentRepo {
	return &ShipmentRepo{pool: pool}
}

// Save inserta el envío con sus líneas en una transacción.
func (r *ShipmentRepo) Save(ctx context.Context, shipment *entity.Shipment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO shipments (id, tenant_id, order_id, shipped_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		shipment.ID, shipment.TenantID, shipment.OrderID, shipment.ShippedAt, shipment.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	for _, it := range shipment.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO shipment_items (tenant_id, shipment_id, product_id, location_id, quantity)
			 VALUES ($1, $2, $3, $4, $5)`,
			shipment.TenantID, shipment.ID, it.ProductID, it.LocationID, it.Quantity,
		); err != nil {
			return fmt.Errorf("insert shipment item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByOrder devuelve los envíos de una orden con sus líneas, más antiguos primero.
func (r *ShipmentRepo) ListByOrder(ctx context.Context, tenantID, orderID string) ([]*entity.Shipment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, order_id, shipped_at, created_at
		 FROM shipments WHERE tenant_id = $1 AND order_id = $2
		 ORDER BY created_at, id`,
		tenantID, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var out []*entity.Shipment
	for rows.Next() {
		var sh entity.Shipment
		if err := rows.Scan(&sh.ID, &sh.TenantID, &sh.OrderID, &sh.ShippedAt, &sh.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		out = append(out, &sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sh := range out {
		itemRows, err := r.pool.Query(ctx,
			`SELECT product_id, location_id, quantity
			 FROM shipment_items WHERE tenant_id = $1 AND shipment_id = $2
			 ORDER BY product_id`,
			tenantID, sh.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("list shipment items: %w", err)
		}
		for itemRows.Next() {
			var it entity.ShipmentItem
			if err := itemRows.Scan(&it.ProductID, &it.LocationID, &it.Quantity); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("scan shipment item: %w", err)
			}
			sh.Items = append(sh.Items, it)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
