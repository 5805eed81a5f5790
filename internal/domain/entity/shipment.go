package entity

import "time"

// ShipmentItem línea efectivamente despachada.
type ShipmentItem struct {
	ProductID  string
	LocationID string
	Quantity   int64
}

// Shipment envío parcial o total de una orden. Una orden puede tener varios
// envíos; la suma de sus líneas contra las líneas de la orden decide si la
// orden queda SHIPPED o PARTIALLY_SHIPPED.
type Shipment struct {
	ID        string
	TenantID  string
	OrderID   string
	Items     []ShipmentItem
	ShippedAt time.Time
	CreatedAt time.Time
}
