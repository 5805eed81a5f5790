package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

var _ repository.StockEntryRepository = (*StockEntryRepo)(nil)

// StockEntryRepo adaptador PostgreSQL para entradas de stock con escritura
// condicionada por versión (concurrencia optimista). No usa SELECT FOR UPDATE:
// la coherencia multi-entrada la arma el Coordinator por encima.
type StockEntryRepo struct {
	q Querier
}

// NewStockEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockEntryRepository(q Querier) *StockEntryRepo {
	return &StockEntryRepo{q: q}
}

const stockEntryColumns = `id, tenant_id, product_id, location_id, batch_id,
		quantity, reserved_quantity, unit_cost, version, updated_at`

// Find devuelve la entrada o nil si no existe.
func (r *StockEntryRepo) Find(ctx context.Context, tenantID, productID, locationID, batchID string) (*entity.StockEntry, error) {
	if batchID == "" {
		batchID = entity.BatchDefault
	}
	query := `
		SELECT ` + stockEntryColumns + `
		FROM stock_entries
		WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3 AND batch_id = $4`
	var e entity.StockEntry
	err := r.q.QueryRow(ctx, query, tenantID, productID, locationID, batchID).Scan(
		&e.ID, &e.TenantID, &e.ProductID, &e.LocationID, &e.BatchID,
		&e.Quantity, &e.ReservedQuantity, &e.UnitCost, &e.Version, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock entry: %w", err)
	}
	return &e, nil
}

// FindByProduct devuelve todas las entradas de un producto (índice secundario
// tenant_id + product_id).
func (r *StockEntryRepo) FindByProduct(ctx context.Context, tenantID, productID string) ([]*entity.StockEntry, error) {
	query := `
		SELECT ` + stockEntryColumns + `
		FROM stock_entries
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY location_id, batch_id`
	rows, err := r.q.Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("find stock entries by product: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockEntry
	for rows.Next() {
		var e entity.StockEntry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ProductID, &e.LocationID, &e.BatchID,
			&e.Quantity, &e.ReservedQuantity, &e.UnitCost, &e.Version, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Save persiste condicionado a la versión leída. expectedVersion == 0 inserta;
// un conflicto (fila ya existente, o versión distinta en el UPDATE) se traduce
// a domain.ErrVersionConflict para que el caller reintente con estado fresco.
func (r *StockEntryRepo) Save(ctx context.Context, entry *entity.StockEntry, expectedVersion int64) error {
	if expectedVersion == 0 {
		query := `
			INSERT INTO stock_entries (` + stockEntryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := r.q.Exec(ctx, query,
			entry.ID, entry.TenantID, entry.ProductID, entry.LocationID, entry.BatchID,
			entry.Quantity, entry.ReservedQuantity, entry.UnitCost, entry.Version, entry.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrVersionConflict
			}
			return fmt.Errorf("insert stock entry: %w", err)
		}
		return nil
	}

	query := `
		UPDATE stock_entries
		SET quantity = $1, reserved_quantity = $2, unit_cost = $3, version = $4, updated_at = $5
		WHERE tenant_id = $6 AND product_id = $7 AND location_id = $8 AND batch_id = $9
		  AND version = $10`
	tag, err := r.q.Exec(ctx, query,
		entry.Quantity, entry.ReservedQuantity, entry.UnitCost, entry.Version, entry.UpdatedAt,
		entry.TenantID, entry.ProductID, entry.LocationID, entry.BatchID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update stock entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
