package repository

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// ShipmentRepository puerto de persistencia de envíos.
type ShipmentRepository interface {
	Save(ctx context.Context, shipment *entity.Shipment) error
	// ListByOrder devuelve todos los envíos de una orden (para agregar cantidades).
	ListByOrder(ctx context.Context, tenantID, orderID string) ([]*entity.Shipment, error)
}
