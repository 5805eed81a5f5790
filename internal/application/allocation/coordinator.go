// Package allocation implementa el Coordinator de reservas: convierte una
// canasta de intents en un resultado todo-o-nada sobre un almacén que solo
// ofrece escrituras atómicas por entrada. No hay two-phase commit disponible:
// la coherencia multi-entrada se construye con escrituras optimistas
// secuenciales y un camino explícito de compensación ante falla parcial.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/ledger"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

// Policy decide qué hacer ante un faltante dentro de una canasta.
type Policy string

const (
	// PolicyStrict faltante en cualquier línea = falla total; lo ya apartado se compensa.
	PolicyStrict Policy = "strict"
	// PolicyBestEffort se aparta lo que haya y los faltantes se reportan por línea.
	PolicyBestEffort Policy = "best_effort"
)

// Intent intención de afectar stock: (producto, ubicación, cantidad) y lote opcional.
// Objeto de valor transitorio, no se persiste.
type Intent struct {
	ProductID  string
	LocationID string
	BatchID    string
	Quantity   int64
}

func (i Intent) batchOrDefault() string {
	if i.BatchID == "" {
		return entity.BatchDefault
	}
	return i.BatchID
}

// AllocationLine resultado por línea de una reserva.
type AllocationLine struct {
	ProductID  string
	LocationID string
	BatchID    string
	Requested  int64
	Taken      int64
}

// ReservationReport resultado de ReserveBasket. Bajo política estricta
// Shortages siempre queda vacío (un faltante aborta y compensa).
type ReservationReport struct {
	Allocated []AllocationLine
	Shortages []AllocationLine
}

// Coordinator orquesta reservas, liberaciones y consumos multi-entrada.
// Colaboradores inyectados en construcción; nada se resuelve en tiempo de llamada.
type Coordinator struct {
	entries    repository.StockEntryRepository
	movements  repository.StockMovementRepository
	log        *logger.Logger
	maxRetries int
}

// NewCoordinator construye el coordinador. maxRetries acota los reintentos por
// conflicto de versión y por falla de escritura de movimientos.
func NewCoordinator(
	entries repository.StockEntryRepository,
	movements repository.StockMovementRepository,
	log *logger.Logger,
	maxRetries int,
) *Coordinator {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Coordinator{
		entries:    entries,
		movements:  movements,
		log:        log,
		maxRetries: maxRetries,
	}
}

// ReserveBasket aparta stock para cada intent de la canasta. Cada mutación
// persistida queda emparejada con exactamente un movimiento ALLOCATION.
// Con política estricta, un taken menor al solicitado libera todo lo ya
// apartado en esta llamada antes de devolver ErrInsufficientStock: una
// reserva parcial jamás queda colgando tras una falla.
func (c *Coordinator) ReserveBasket(ctx context.Context, tenantID string, intents []Intent, referenceID string, policy Policy) (*ReservationReport, error) {
	if err := validateBasket(tenantID, intents, referenceID); err != nil {
		return nil, err
	}
	report := &ReservationReport{}
	var taken []AllocationLine

	for _, it := range intents {
		batch := it.batchOrDefault()
		var got int64
		entry, err := c.mutateEntry(ctx, tenantID, it.ProductID, it.LocationID, batch, true,
			func(e entity.StockEntry) (entity.StockEntry, error) {
				next, n := ledger.Allocate(e, it.Quantity, time.Now())
				got = n
				return next, nil
			})
		if err != nil {
			if rbErr := c.rollback(ctx, tenantID, referenceID, taken); rbErr != nil {
				return nil, errors.Join(rbErr, err)
			}
			return nil, err
		}

		line := AllocationLine{
			ProductID:  it.ProductID,
			LocationID: it.LocationID,
			BatchID:    batch,
			Requested:  it.Quantity,
			Taken:      got,
		}
		if got > 0 {
			taken = append(taken, line)
			report.Allocated = append(report.Allocated, line)
			c.appendMovement(ctx, newMovement(tenantID, entry, entity.MovementTypeALLOCATION, got, referenceID, "reserva de stock"))
		}
		if got < it.Quantity {
			if policy == PolicyStrict {
				if rbErr := c.rollback(ctx, tenantID, referenceID, taken); rbErr != nil {
					return nil, errors.Join(rbErr, domain.ErrInsufficientStock)
				}
				return nil, fmt.Errorf("producto %s en %s: %w", it.ProductID, it.LocationID, domain.ErrInsufficientStock)
			}
			report.Shortages = append(report.Shortages, line)
		}
	}
	return report, nil
}

// ReleaseBasket libera las reservas vivas de una referencia. El saldo pendiente
// se reconstruye desde los movimientos: altas ALLOCATION positivas, menos
// liberaciones ALLOCATION negativas, menos lo ya consumido bajo la misma
// referencia (OUTBOUND y PRODUCTION_CONSUME, registrados en negativo). Un
// consumo extingue la reserva que respaldaba, así que no cuenta como pendiente:
// liberar tras un envío parcial solo devuelve el resto, jamás reservas de otras
// referencias sobre la misma entrada. La operación es idempotente: una segunda
// llamada ve saldo cero y no libera nada.
func (c *Coordinator) ReleaseBasket(ctx context.Context, tenantID, referenceID string) error {
	if tenantID == "" || referenceID == "" {
		return domain.ErrValidation
	}
	movs, err := c.movements.ListByReference(ctx, tenantID, referenceID)
	if err != nil {
		return err
	}

	type entryKey struct{ product, location, batch string }
	outstanding := map[entryKey]int64{}
	var keys []entryKey
	for _, m := range movs {
		switch m.Type {
		case entity.MovementTypeALLOCATION,
			entity.MovementTypeOUTBOUND,
			entity.MovementTypePRODUCTIONConsume:
		default:
			continue
		}
		k := entryKey{m.ProductID, m.LocationID, m.BatchID}
		if _, seen := outstanding[k]; !seen {
			keys = append(keys, k)
		}
		outstanding[k] += m.Quantity
	}

	progressed := false
	for _, k := range keys {
		pending := outstanding[k]
		if pending <= 0 {
			continue
		}
		var released int64
		entry, err := c.mutateEntry(ctx, tenantID, k.product, k.location, k.batch, false,
			func(e entity.StockEntry) (entity.StockEntry, error) {
				next, n := ledger.Release(e, pending, time.Now())
				released = n
				return next, nil
			})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if progressed {
				return errors.Join(domain.ErrReconciliationRequired, err)
			}
			return err
		}
		if released > 0 {
			progressed = true
			c.appendMovement(ctx, newMovement(tenantID, entry, entity.MovementTypeALLOCATION, -released, referenceID, "liberación de reserva"))
		}
	}
	return nil
}

// CommitBasket consume lo reservado de cada línea (confirmación de envío) y
// registra movimientos OUTBOUND. Un Consume que falla a mitad de canasta deja
// las líneas previas ya consumidas: se devuelve el error unido a
// ErrReconciliationRequired porque un consumo no es compensable limpiamente.
func (c *Coordinator) CommitBasket(ctx context.Context, tenantID, referenceID string, items []Intent) error {
	if err := validateBasket(tenantID, items, referenceID); err != nil {
		return err
	}
	progressed := false
	for _, it := range items {
		amount := it.Quantity
		entry, err := c.mutateEntry(ctx, tenantID, it.ProductID, it.LocationID, it.batchOrDefault(), false,
			func(e entity.StockEntry) (entity.StockEntry, error) {
				return ledger.Consume(e, amount, time.Now())
			})
		if err != nil {
			if progressed {
				return errors.Join(domain.ErrReconciliationRequired, err)
			}
			return err
		}
		progressed = true
		c.appendMovement(ctx, newMovement(tenantID, entry, entity.MovementTypeOUTBOUND, -amount, referenceID, "salida por envío"))
	}
	return nil
}

// rollback libera lo apartado en la canasta en curso (compensación).
// Si la liberación misma agota reintentos, el estado parcial persistido se
// señala con ErrReconciliationRequired en lugar de ocultarse.
func (c *Coordinator) rollback(ctx context.Context, tenantID, referenceID string, taken []AllocationLine) error {
	for _, line := range taken {
		amount := line.Taken
		var released int64
		entry, err := c.mutateEntry(ctx, tenantID, line.ProductID, line.LocationID, line.BatchID, false,
			func(e entity.StockEntry) (entity.StockEntry, error) {
				next, n := ledger.Release(e, amount, time.Now())
				released = n
				return next, nil
			})
		if err != nil {
			c.log.Error().Err(err).
				Str("tenant_id", tenantID).
				Str("product_id", line.ProductID).
				Str("reference_id", referenceID).
				Msg("compensación de reserva incompleta")
			return fmt.Errorf("compensar producto %s: %w", line.ProductID, domain.ErrReconciliationRequired)
		}
		if released > 0 {
			c.appendMovement(ctx, newMovement(tenantID, entry, entity.MovementTypeALLOCATION, -released, referenceID, "compensación de reserva"))
		}
	}
	return nil
}

// mutateEntry ciclo leer-aplicar-guardar con reintento acotado ante conflicto
// de versión. fn es pura (operación del ledger), así que reintentarla contra
// estado fresco es seguro. createIfMissing gobierna el find-or-create.
// Si fn no cambió la versión no hay nada que persistir.
func (c *Coordinator) mutateEntry(
	ctx context.Context,
	tenantID, productID, locationID, batchID string,
	createIfMissing bool,
	fn func(entity.StockEntry) (entity.StockEntry, error),
) (*entity.StockEntry, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		cur, err := c.entries.Find(ctx, tenantID, productID, locationID, batchID)
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
		if err := c.entries.Save(ctx, &next, expected); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return &next, nil
	}
	return nil, fmt.Errorf("entrada %s/%s/%s tras %d reintentos: %w", productID, locationID, batchID, c.maxRetries, lastErr)
}

// appendMovement escribe el movimiento con reintento acotado. El registro es
// auditoría: su falla no revierte la mutación ya persistida, pero tampoco
// puede desaparecer en silencio, por eso se deja rastro en el log.
func (c *Coordinator) appendMovement(ctx context.Context, m *entity.StockMovement) {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err = c.movements.Append(ctx, m); err == nil {
			return
		}
	}
	c.log.Error().Err(err).
		Str("movement_id", m.ID).
		Str("type", m.Type).
		Str("reference_id", m.ReferenceID).
		Msg("no se pudo registrar el movimiento de stock")
}

func newMovement(tenantID string, e *entity.StockEntry, movType string, quantity int64, referenceID, reason string) *entity.StockMovement {
	return &entity.StockMovement{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		ProductID:   e.ProductID,
		LocationID:  e.LocationID,
		BatchID:     e.BatchID,
		Type:        movType,
		Quantity:    quantity,
		UnitCost:    e.UnitCost,
		ReferenceID: referenceID,
		Reason:      reason,
		CreatedAt:   time.Now(),
	}
}

func validateBasket(tenantID string, intents []Intent, referenceID string) error {
	if tenantID == "" || referenceID == "" || len(intents) == 0 {
		return domain.ErrValidation
	}
	for _, it := range intents {
		if it.ProductID == "" || it.LocationID == "" || it.Quantity <= 0 {
			return domain.ErrValidation
		}
	}
	return nil
}
