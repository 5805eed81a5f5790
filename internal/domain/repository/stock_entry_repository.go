package repository

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// StockEntryRepository puerto de persistencia para entradas de stock.
// El almacén subyacente solo garantiza escrituras atómicas por entidad: no hay
// transacciones entre entradas. La coherencia multi-entrada la construye el
// Coordinator encima de Save condicionado por versión.
type StockEntryRepository interface {
	// Find devuelve la entrada (tenant, producto, ubicación, lote) o nil si no existe.
	// batchID vacío equivale al lote centinela entity.BatchDefault.
	Find(ctx context.Context, tenantID, productID, locationID, batchID string) (*entity.StockEntry, error)

	// FindByProduct devuelve todas las entradas de un producto (índice secundario).
	FindByProduct(ctx context.Context, tenantID, productID string) ([]*entity.StockEntry, error)

	// Save persiste la entrada condicionada a la versión leída previamente.
	// expectedVersion == 0 significa inserción (la entrada no debía existir).
	// Devuelve domain.ErrVersionConflict si otro escritor ganó la carrera.
	Save(ctx context.Context, entry *entity.StockEntry, expectedVersion int64) error
}
