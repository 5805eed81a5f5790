// Package ledger contiene las operaciones puras sobre una entrada de stock.
//
// Todas las funciones reciben la entrada por valor y devuelven una copia
// modificada: nada aquí hace I/O ni genera identificadores. El invariante
// 0 <= ReservedQuantity <= Quantity se preserva en todo resultado alcanzable.
// Cada mutación efectiva incrementa Version y estampa UpdatedAt; una operación
// que no cambia ningún campo (p. ej. Allocate sobre una entrada sin disponible)
// devuelve la entrada intacta, sin bump de versión.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/inventory"
)

// Allocate aparta hasta amount unidades: toma min(disponible, amount).
// Nunca falla y nunca sobre-reserva; el Coordinator decide si un taken
// parcial es aceptable para la canasta completa.
func Allocate(e entity.StockEntry, amount int64, now time.Time) (entity.StockEntry, int64) {
	if amount <= 0 {
		return e, 0
	}
	taken := min(e.Available(), amount)
	if taken <= 0 {
		return e, 0
	}
	e.ReservedQuantity += taken
	touch(&e, now)
	return e, taken
}

// Release libera hasta amount unidades reservadas: min(reservado, amount).
// Nunca deja la reserva negativa.
func Release(e entity.StockEntry, amount int64, now time.Time) (entity.StockEntry, int64) {
	if amount <= 0 {
		return e, 0
	}
	released := min(e.ReservedQuantity, amount)
	if released <= 0 {
		return e, 0
	}
	e.ReservedQuantity -= released
	touch(&e, now)
	return e, released
}

// Consume convierte una reserva en salida definitiva: resta amount de la
// cantidad y de la reserva. Es la única operación del ledger que puede fallar:
// asume una reserva previa, y un faltante indica error del caller o una
// actualización perdida. Ante error la entrada se devuelve sin modificar.
func Consume(e entity.StockEntry, amount int64, now time.Time) (entity.StockEntry, error) {
	if amount <= 0 {
		return e, domain.ErrValidation
	}
	if e.Quantity-amount < 0 || e.ReservedQuantity-amount < 0 {
		return e, domain.ErrInvariantViolation
	}
	e.Quantity -= amount
	e.ReservedQuantity -= amount
	touch(&e, now)
	return e, nil
}

// Receive incrementa la cantidad (sin tocar la reserva) y recalcula el costo
// promedio ponderado con el costo unitario de la entrada. Operación aditiva y
// libre de fallas de negocio: la producción confía en esto para que el alta
// del producto terminado no pueda fallar tras consumir componentes.
func Receive(e entity.StockEntry, amount int64, unitCost decimal.Decimal, now time.Time) entity.StockEntry {
	if amount <= 0 {
		return e
	}
	e.UnitCost = inventory.CostoPromedio(
		decimal.NewFromInt(e.Quantity), e.UnitCost,
		decimal.NewFromInt(amount), unitCost,
	)
	e.Quantity += amount
	touch(&e, now)
	return e
}

// Adjust fija la cantidad en un valor absoluto (conteo físico). Falla si el
// nuevo valor es negativo o quedaría por debajo de la reserva vigente.
func Adjust(e entity.StockEntry, newQuantity int64, now time.Time) (entity.StockEntry, error) {
	if newQuantity < 0 || newQuantity < e.ReservedQuantity {
		return e, domain.ErrInvariantViolation
	}
	if newQuantity == e.Quantity {
		return e, nil
	}
	e.Quantity = newQuantity
	touch(&e, now)
	return e, nil
}

// Withdraw retira amount unidades no reservadas (traslados entre ubicaciones).
// A diferencia de Consume no exige reserva previa, pero solo puede tomar del
// disponible: el stock apartado para órdenes en vuelo es intocable.
func Withdraw(e entity.StockEntry, amount int64, now time.Time) (entity.StockEntry, error) {
	if amount <= 0 {
		return e, domain.ErrValidation
	}
	if e.Available() < amount {
		return e, domain.ErrInsufficientStock
	}
	e.Quantity -= amount
	touch(&e, now)
	return e, nil
}

func touch(e *entity.StockEntry, now time.Time) {
	e.Version++
	e.UpdatedAt = now
}
