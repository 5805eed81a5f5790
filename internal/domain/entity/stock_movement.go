package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeINBOUND           = "INBOUND"            // recepción (compras, devoluciones)
	MovementTypeOUTBOUND          = "OUTBOUND"           // salida por envío confirmado
	MovementTypeADJUSTMENT        = "ADJUSTMENT"         // ajuste manual de cantidad
	MovementTypeTRANSFER          = "TRANSFER"           // traslado entre ubicaciones
	MovementTypeALLOCATION        = "ALLOCATION"         // reserva (+) o liberación (-) de stock
	MovementTypePRODUCTIONConsume = "PRODUCTION_CONSUME" // consumo de componentes en producción
	MovementTypePRODUCTIONOutput  = "PRODUCTION_OUTPUT"  // alta de producto terminado
)

// StockMovement hecho inmutable: un delta de cantidad sobre una entrada de stock.
// Se crea exactamente uno por mutación del ledger; nunca se actualiza ni se borra.
type StockMovement struct {
	ID          string
	TenantID    string
	ProductID   string
	LocationID  string
	BatchID     string
	Type        string
	Quantity    int64 // delta con signo: positivo entra/reserva, negativo sale/libera
	UnitCost    decimal.Decimal
	ReferenceID string // orden, orden de compra u orden de trabajo que originó el movimiento
	Reason      string
	CreatedAt   time.Time
}
