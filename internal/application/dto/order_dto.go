package dto

import (
	"time"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// TransitionOrderRequest body para POST /api/orders/:id/status.
type TransitionOrderRequest struct {
	Status string `json:"status"`
}

// ShipmentItemDTO línea despachada.
type ShipmentItemDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// CreateShipmentRequest body para POST /api/orders/:id/shipments.
type CreateShipmentRequest struct {
	Items []ShipmentItemDTO `json:"items"`
}

// ToShipmentItems convierte a entidades.
func (r CreateShipmentRequest) ToShipmentItems() []entity.ShipmentItem {
	out := make([]entity.ShipmentItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, entity.ShipmentItem{
			ProductID:  it.ProductID,
			LocationID: it.LocationID,
			Quantity:   it.Quantity,
		})
	}
	return out
}

// OrderItemDTO línea de orden.
type OrderItemDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// OrderResponse proyección de una orden.
type OrderResponse struct {
	ID         string         `json:"id"`
	CustomerID string         `json:"customer_id,omitempty"`
	Status     string         `json:"status"`
	Items      []OrderItemDTO `json:"items"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// FromOrder mapea la entidad.
func FromOrder(o *entity.Order) OrderResponse {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{ProductID: it.ProductID, LocationID: it.LocationID, Quantity: it.Quantity})
	}
	return OrderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Items:      items,
		UpdatedAt:  o.UpdatedAt,
	}
}

// ShipmentResponse proyección de un envío.
type ShipmentResponse struct {
	ID        string            `json:"id"`
	OrderID   string            `json:"order_id"`
	Items     []ShipmentItemDTO `json:"items"`
	ShippedAt time.Time         `json:"shipped_at"`
}

// FromShipment mapea la entidad.
func FromShipment(sh *entity.Shipment) ShipmentResponse {
	items := make([]ShipmentItemDTO, 0, len(sh.Items))
	for _, it := range sh.Items {
		items = append(items, ShipmentItemDTO{ProductID: it.ProductID, LocationID: it.LocationID, Quantity: it.Quantity})
	}
	return ShipmentResponse{
		ID:        sh.ID,
		OrderID:   sh.OrderID,
		Items:     items,
		ShippedAt: sh.ShippedAt,
	}
}
