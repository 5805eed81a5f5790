// Package stock casos de uso operativos sobre el ledger: recepciones, ajustes,
// traslados y consultas de disponibilidad y movimientos. Operaciones de una o
// dos entradas; las canastas multi-línea viven en el paquete allocation.
package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/ledger"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

// UseCase operaciones directas de stock.
type UseCase struct {
	entries    repository.StockEntryRepository
	movements  repository.StockMovementRepository
	log        *logger.Logger
	maxRetries int
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	entries repository.StockEntryRepository,
	movements repository.StockMovementRepository,
	log *logger.Logger,
	maxRetries int,
) *UseCase {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &UseCase{entries: entries, movements: movements, log: log, maxRetries: maxRetries}
}

// ReceiveInput entrada para una recepción de stock.
type ReceiveInput struct {
	ProductID   string
	LocationID  string
	BatchID     string
	Quantity    int64
	UnitCost    decimal.Decimal
	ReferenceID string
	Reason      string
}

// ReceiveStock da de alta unidades en una ubicación (find-or-create de la
// entrada) recalculando el costo promedio, y registra un movimiento INBOUND.
func (uc *UseCase) ReceiveStock(ctx context.Context, tenantID string, in ReceiveInput) (*entity.StockEntry, error) {
	if tenantID == "" || in.ProductID == "" || in.LocationID == "" || in.Quantity <= 0 {
		return nil, domain.ErrValidation
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.ErrValidation
	}
	entry, err := uc.mutateEntry(ctx, tenantID, in.ProductID, in.LocationID, in.BatchID, true,
		func(e entity.StockEntry) (entity.StockEntry, error) {
			return ledger.Receive(e, in.Quantity, in.UnitCost, time.Now()), nil
		})
	if err != nil {
		return nil, err
	}
	uc.appendMovement(ctx, &entity.StockMovement{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ProductID:   entry.ProductID,
		LocationID:  entry.LocationID,
		BatchID:     entry.BatchID,
		Type:        entity.MovementTypeINBOUND,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		ReferenceID: in.ReferenceID,
		Reason:      in.Reason,
		CreatedAt:   time.Now(),
	})
	return entry, nil
}

// AdjustInput entrada para un ajuste por conteo físico.
type AdjustInput struct {
	ProductID   string
	LocationID  string
	BatchID     string
	NewQuantity int64
	Reason      string
}

// AdjustStock fija la cantidad en el valor contado y registra un movimiento
// ADJUSTMENT con el delta con signo. Un ajuste por debajo de la reserva
// vigente falla con ErrInvariantViolation.
func (uc *UseCase) AdjustStock(ctx context.Context, tenantID string, in AdjustInput) (*entity.StockEntry, error) {
	if tenantID == "" || in.ProductID == "" || in.LocationID == "" || in.NewQuantity < 0 {
		return nil, domain.ErrValidation
	}
	var delta int64
	entry, err := uc.mutateEntry(ctx, tenantID, in.ProductID, in.LocationID, in.BatchID, false,
		func(e entity.StockEntry) (entity.StockEntry, error) {
			next, err := ledger.Adjust(e, in.NewQuantity, time.Now())
			delta = next.Quantity - e.Quantity
			return next, err
		})
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		uc.appendMovement(ctx, &entity.StockMovement{
			ID:         uuid.New().String(),
			TenantID:   tenantID,
			ProductID:  entry.ProductID,
			LocationID: entry.LocationID,
			BatchID:    entry.BatchID,
			Type:       entity.MovementTypeADJUSTMENT,
			Quantity:   delta,
			UnitCost:   entry.UnitCost,
			Reason:     in.Reason,
			CreatedAt:  time.Now(),
		})
	}
	return entry, nil
}

// TransferInput entrada para un traslado entre ubicaciones.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	BatchID        string
	Quantity       int64
	ReferenceID    string
	Reason         string
}

// TransferStock retira del disponible en origen y recibe en destino al costo
// del origen, registrando dos movimientos TRANSFER (negativo en origen,
// positivo en destino) con la misma referencia. El stock reservado en origen
// es intocable: un disponible menor a la cantidad falla con
// ErrInsufficientStock antes de persistir nada.
func (uc *UseCase) TransferStock(ctx context.Context, tenantID string, in TransferInput) error {
	if tenantID == "" || in.ProductID == "" || in.FromLocationID == "" || in.ToLocationID == "" || in.Quantity <= 0 {
		return domain.ErrValidation
	}
	if in.FromLocationID == in.ToLocationID {
		return domain.ErrValidation
	}
	referenceID := in.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}

	origin, err := uc.mutateEntry(ctx, tenantID, in.ProductID, in.FromLocationID, in.BatchID, false,
		func(e entity.StockEntry) (entity.StockEntry, error) {
			return ledger.Withdraw(e, in.Quantity, time.Now())
		})
	if err != nil {
		return err
	}
	uc.appendMovement(ctx, &entity.StockMovement{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ProductID:   origin.ProductID,
		LocationID:  origin.LocationID,
		BatchID:     origin.BatchID,
		Type:        entity.MovementTypeTRANSFER,
		Quantity:    -in.Quantity,
		UnitCost:    origin.UnitCost,
		ReferenceID: referenceID,
		Reason:      in.Reason,
		CreatedAt:   time.Now(),
	})

	dest, err := uc.mutateEntry(ctx, tenantID, in.ProductID, in.ToLocationID, in.BatchID, true,
		func(e entity.StockEntry) (entity.StockEntry, error) {
			return ledger.Receive(e, in.Quantity, origin.UnitCost, time.Now()), nil
		})
	if err != nil {
		// retiro en origen ya persistido sin alta en destino
		return errors.Join(domain.ErrReconciliationRequired, err)
	}
	uc.appendMovement(ctx, &entity.StockMovement{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ProductID:   dest.ProductID,
		LocationID:  dest.LocationID,
		BatchID:     dest.BatchID,
		Type:        entity.MovementTypeTRANSFER,
		Quantity:    in.Quantity,
		UnitCost:    origin.UnitCost,
		ReferenceID: referenceID,
		Reason:      in.Reason,
		CreatedAt:   time.Now(),
	})
	return nil
}

// CheckAvailability suma el disponible de un producto sobre todas sus entradas.
func (uc *UseCase) CheckAvailability(ctx context.Context, tenantID, productID string) (int64, error) {
	if tenantID == "" || productID == "" {
		return 0, domain.ErrValidation
	}
	entries, err := uc.entries.FindByProduct(ctx, tenantID, productID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Available()
	}
	return total, nil
}

// ListMovements movimientos de un producto, paginados (limit por defecto 50).
func (uc *UseCase) ListMovements(ctx context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	if tenantID == "" || productID == "" {
		return nil, domain.ErrValidation
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movements.ListByProduct(ctx, tenantID, productID, limit, offset)
}

// mutateEntry ciclo leer-aplicar-guardar con reintento acotado ante conflicto
// de versión (mismo esquema que el Coordinator de allocation).
func (uc *UseCase) mutateEntry(
	ctx context.Context,
	tenantID, productID, locationID, batchID string,
	createIfMissing bool,
	fn func(entity.StockEntry) (entity.StockEntry, error),
) (*entity.StockEntry, error) {
	if batchID == "" {
		batchID = entity.BatchDefault
	}
	var lastErr error
	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		cur, err := uc.entries.Find(ctx, tenantID, productID, locationID, batchID)
		if err != nil {
			return nil, err
		}
		var e entity.StockEntry
		if cur == nil {
			if !createIfMissing {
				return nil, fmt.Errorf("entrada %s/%s/%s: %w", productID, locationID, batchID, domain.ErrNotFound)
			}
			e = entity.StockEntry{
				ID:         uuid.New().String(),
				TenantID:   tenantID,
				ProductID:  productID,
				LocationID: locationID,
				BatchID:    batchID,
			}
		} else {
			e = *cur
		}
		expected := e.Version

		next, err := fn(e)
		if err != nil {
			return nil, err
		}
		if next.Version == expected {
			return &next, nil
		}
		if err := uc.entries.Save(ctx, &next, expected); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return &next, nil
	}
	return nil, fmt.Errorf("entrada %s/%s/%s tras %d reintentos: %w", productID, locationID, batchID, uc.maxRetries, lastErr)
}

// appendMovement escritura con reintento acotado; la falla se loguea, nunca
// revierte la mutación de la entrada.
func (uc *UseCase) appendMovement(ctx context.Context, m *entity.StockMovement) {
	var err error
	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		if err = uc.movements.Append(ctx, m); err == nil {
			return
		}
	}
	uc.log.Error().Err(err).
		Str("movement_id", m.ID).
		Str("type", m.Type).
		Msg("no se pudo registrar el movimiento de stock")
}
