package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo adaptador PostgreSQL del registro de movimientos.
// Tabla solo-altas: aquí no hay UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta un movimiento.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements
			(id, tenant_id, product_id, location_id, batch_id, type, quantity, unit_cost, reference_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.ProductID, m.LocationID, m.BatchID,
		m.Type, m.Quantity, m.UnitCost, m.ReferenceID, m.Reason, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListByReference movimientos de una referencia en orden de creación
// (la reconstrucción del saldo de reservas depende de este orden).
func (r *StockMovementRepo) ListByReference(ctx context.Context, tenantID, referenceID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, tenant_id, product_id, location_id, batch_id, type, quantity, unit_cost, reference_id, reason, created_at
		FROM stock_movements
		WHERE tenant_id = $1 AND reference_id = $2
		ORDER BY created_at, id`
	return r.list(ctx, query, tenantID, referenceID)
}

// ListByProduct movimientos de un producto, recientes primero, paginados.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, tenant_id, product_id, location_id, batch_id, type, quantity, unit_cost, reference_id, reason, created_at
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	return r.list(ctx, query, tenantID, productID, limit, offset)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.ProductID, &m.LocationID, &m.BatchID,
			&m.Type, &m.Quantity, &m.UnitCost, &m.ReferenceID, &m.Reason, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
