package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/ledger"
)

// ProductionOutput producto terminado a dar de alta al completar una orden de trabajo.
type ProductionOutput struct {
	ProductID  string
	LocationID string
	Quantity   int64
}

// ProductionReport resultado de una transacción de producción.
type ProductionReport struct {
	Consumed []AllocationLine
	Produced *entity.StockEntry
}

// ExecuteProduction consume los componentes (ya escalados por la cantidad de la
// orden de trabajo) y da de alta exactamente un producto terminado, como una
// unidad lógica. El orden importa: primero se reserva y consume — bajo política
// estricta un faltante aborta y compensa antes de tocar nada definitivo — y
// solo con todos los consumos hechos se aplica el alta. Receive es aditivo y
// libre de fallas de negocio, así que tras consumir, la producción solo puede
// fallar por I/O de persistencia (reintentada y, en el peor caso, señalada
// como ErrReconciliationRequired).
//
// El lote del producto terminado se sintetiza desde el código de la orden de
// trabajo, y su costo unitario es el costo total de componentes consumidos
// dividido por la cantidad producida.
func (c *Coordinator) ExecuteProduction(ctx context.Context, tenantID string, produce ProductionOutput, consume []Intent, referenceID string, policy Policy) (*ProductionReport, error) {
	if produce.ProductID == "" || produce.LocationID == "" || produce.Quantity <= 0 {
		return nil, domain.ErrValidation
	}
	if err := validateBasket(tenantID, consume, referenceID); err != nil {
		return nil, err
	}

	// 1. Reservar componentes. Estricta: falla rápido y ReserveBasket compensa.
	report, err := c.ReserveBasket(ctx, tenantID, consume, referenceID, policy)
	if err != nil {
		return nil, err
	}

	// 2. Consumir lo reservado. Con la reserva en pie, Consume no puede fallar
	// por invariante; un error aquí es de persistencia.
	totalCost := decimal.Zero
	var consumed []AllocationLine
	progressed := false
	for _, line := range report.Allocated {
		amount := line.Taken
		if amount <= 0 {
			continue
		}
		entry, err := c.mutateEntry(ctx, tenantID, line.ProductID, line.LocationID, line.BatchID, false,
			func(e entity.StockEntry) (entity.StockEntry, error) {
				return ledger.Consume(e, amount, time.Now())
			})
		if err != nil {
			if progressed {
				return nil, errors.Join(domain.ErrReconciliationRequired, err)
			}
			// nada consumido todavía: liberar todo lo reservado
			if rbErr := c.rollback(ctx, tenantID, referenceID, report.Allocated); rbErr != nil {
				return nil, errors.Join(rbErr, err)
			}
			return nil, err
		}
		progressed = true
		totalCost = totalCost.Add(entry.UnitCost.Mul(decimal.NewFromInt(amount)))
		consumed = append(consumed, line)
		c.appendMovement(ctx, newMovement(tenantID, entry, entity.MovementTypePRODUCTIONConsume, -amount, referenceID, "consumo de componentes"))
	}

	// 3. Alta del producto terminado con lote sintetizado desde la orden de trabajo.
	batch := "LOTE-" + referenceID
	unitCost := decimal.Zero
	if totalCost.IsPositive() {
		unitCost = totalCost.Div(decimal.NewFromInt(produce.Quantity))
	}
	produced, err := c.mutateEntry(ctx, tenantID, produce.ProductID, produce.LocationID, batch, true,
		func(e entity.StockEntry) (entity.StockEntry, error) {
			return ledger.Receive(e, produce.Quantity, unitCost, time.Now()), nil
		})
	if err != nil {
		// componentes consumidos sin alta del terminado: inconsistencia fatal,
		// los movimientos PRODUCTION_CONSUME son la base para reconciliar
		return nil, errors.Join(domain.ErrReconciliationRequired, err)
	}
	c.appendMovement(ctx, newMovement(tenantID, produced, entity.MovementTypePRODUCTIONOutput, produce.Quantity, referenceID, "producción terminada"))

	return &ProductionReport{Consumed: consumed, Produced: produced}, nil
}
