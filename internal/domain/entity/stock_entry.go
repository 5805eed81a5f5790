package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchDefault lote centinela para stock sin lote asignado.
const BatchDefault = "default"

// StockEntry representa la cantidad física de un producto en una ubicación (y lote).
// Identidad: (TenantID, ProductID, LocationID, BatchID). Nunca se borra: las entradas
// en cero quedan como ancla del historial de movimientos.
type StockEntry struct {
	ID               string
	TenantID         string
	ProductID        string
	LocationID       string
	BatchID          string
	Quantity         int64 // unidades físicas presentes, siempre >= 0
	ReservedQuantity int64 // unidades apartadas sin retirar, siempre >= 0 y <= Quantity
	UnitCost         decimal.Decimal
	Version          int64 // token de concurrencia optimista, monotónico
	UpdatedAt        time.Time
}

// Available unidades disponibles para reservar (Quantity - ReservedQuantity).
func (e StockEntry) Available() int64 {
	return e.Quantity - e.ReservedQuantity
}

// Key identidad lógica de la entrada dentro del tenant.
func (e StockEntry) Key() string {
	return e.ProductID + "/" + e.LocationID + "/" + e.BatchID
}
