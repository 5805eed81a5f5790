package repository

import (
	"context"

	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// OrderRepository puerto de persistencia de órdenes (solo lo que el motor necesita:
// cargar por id y guardar el cambio de estado).
type OrderRepository interface {
	FindByID(ctx context.Context, tenantID, orderID string) (*entity.Order, error)
	Save(ctx context.Context, order *entity.Order) error
}
