package entity

import "time"

// OrderItem línea de una orden de venta.
type OrderItem struct {
	ProductID  string
	LocationID string // ubicación desde la que se reservó/despacha
	Quantity   int64
}

// Order orden de venta. El motor solo gobierna su campo Status y los efectos
// de stock asociados a cada transición; el resto del ciclo de vida (precios,
// clientes, pagos) pertenece a otros módulos.
type Order struct {
	ID         string
	TenantID   string
	CustomerID string
	Status     string
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
