package repository

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// StockMovementRepository puerto de persistencia del registro de movimientos.
// Solo altas: los movimientos son hechos inmutables y jamás se actualizan.
type StockMovementRepository interface {
	// Append agrega un movimiento al registro de auditoría.
	Append(ctx context.Context, movement *entity.StockMovement) error

	// ListByReference devuelve los movimientos ligados a una referencia
	// (orden, OC, orden de trabajo), en orden de creación.
	ListByReference(ctx context.Context, tenantID, referenceID string) ([]*entity.StockMovement, error)

	// ListByProduct devuelve movimientos de un producto, paginados.
	ListByProduct(ctx context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
