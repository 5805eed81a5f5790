// Package fulfillment gobierna las transiciones de estado de órdenes y sus
// efectos de stock, y registra envíos con la agregación parcial/total.
package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/order"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

// UseCase casos de uso de cumplimiento de órdenes.
type UseCase struct {
	orders    repository.OrderRepository
	shipments repository.ShipmentRepository
	coord     *allocation.Coordinator
	log       *logger.Logger
}

// NewUseCase construye el caso de uso con sus colaboradores.
func NewUseCase(
	orders repository.OrderRepository,
	shipments repository.ShipmentRepository,
	coord *allocation.Coordinator,
	log *logger.Logger,
) *UseCase {
	return &UseCase{orders: orders, shipments: shipments, coord: coord, log: log}
}

// TransitionOrderStatus aplica una transición de estado validada por la tabla.
// La auto-transición es un no-op exitoso sin efecto de stock. Entrar a
// SHIPPED/PARTIALLY_SHIPPED consume lo reservado pendiente; entrar a CANCELLED
// libera las reservas. Cancelar una orden SHIPPED o DELIVERED devuelve
// ErrInvalidTransition sin tocar stock: el efecto jamás se omite en silencio.
func (uc *UseCase) TransitionOrderStatus(ctx context.Context, tenantID, orderID, target string) (*entity.Order, error) {
	if tenantID == "" || orderID == "" || !order.IsValidStatus(target) {
		return nil, domain.ErrValidation
	}
	o, err := uc.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == target {
		return o, nil
	}
	if !order.CanTransition(o.Status, target) {
		return nil, fmt.Errorf("orden %s: %s -> %s: %w", orderID, o.Status, target, domain.ErrInvalidTransition)
	}

	switch order.EffectFor(o.Status, target) {
	case order.EffectCommit:
		items, err := uc.remainingToShip(ctx, o)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			if err := uc.coord.CommitBasket(ctx, tenantID, o.ID, items); err != nil {
				return nil, err
			}
		}
	case order.EffectRelease:
		if err := uc.coord.ReleaseBasket(ctx, tenantID, o.ID); err != nil {
			return nil, err
		}
	}

	prev := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	if err := uc.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Str("from", prev).
		Str("to", target).
		Msg("orden transicionada")
	return o, nil
}

// RegisterShipment consume del stock lo enviado, persiste el envío y recalcula
// el estado de la orden sumando lo despachado por producto sobre todos los
// envíos (incluido el recién creado): si cada línea alcanzó lo ordenado la
// orden pasa a SHIPPED, si no a PARTIALLY_SHIPPED. La recomputación nunca
// degrada una orden DELIVERED o CANCELLED.
func (uc *UseCase) RegisterShipment(ctx context.Context, tenantID, orderID string, items []entity.ShipmentItem) (*entity.Shipment, error) {
	if tenantID == "" || orderID == "" || len(items) == 0 {
		return nil, domain.ErrValidation
	}
	for _, it := range items {
		if it.ProductID == "" || it.LocationID == "" || it.Quantity <= 0 {
			return nil, domain.ErrValidation
		}
	}
	o, err := uc.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPaid && o.Status != order.StatusPartiallyShipped {
		return nil, fmt.Errorf("orden %s en %s: %w", orderID, o.Status, domain.ErrInvalidTransition)
	}
	for _, it := range items {
		if !orderCarries(o, it.ProductID) {
			return nil, fmt.Errorf("producto %s no pertenece a la orden: %w", it.ProductID, domain.ErrValidation)
		}
	}

	// primero el stock, después el registro del envío: un Consume fallido no
	// puede dejar un envío fantasma que infle la agregación de despachado
	intents := make([]allocation.Intent, 0, len(items))
	for _, it := range items {
		intents = append(intents, allocation.Intent{
			ProductID:  it.ProductID,
			LocationID: it.LocationID,
			Quantity:   it.Quantity,
		})
	}
	if err := uc.coord.CommitBasket(ctx, tenantID, orderID, intents); err != nil {
		return nil, err
	}

	now := time.Now()
	sh := &entity.Shipment{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		OrderID:   orderID,
		Items:     append([]entity.ShipmentItem(nil), items...),
		ShippedAt: now,
		CreatedAt: now,
	}
	if err := uc.shipments.Save(ctx, sh); err != nil {
		return nil, err
	}

	shipped, err := uc.shippedPerProduct(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	target := order.StatusShipped
	for _, it := range o.Items {
		if shipped[it.ProductID] < it.Quantity {
			target = order.StatusPartiallyShipped
			break
		}
	}
	if o.Status != target && o.Status != order.StatusDelivered && o.Status != order.StatusCancelled {
		o.Status = target
		o.UpdatedAt = now
		if err := uc.orders.Save(ctx, o); err != nil {
			return nil, err
		}
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("order_id", orderID).
		Str("shipment_id", sh.ID).
		Str("status", o.Status).
		Msg("envío registrado")
	return sh, nil
}

// shippedPerProduct suma la cantidad despachada por producto sobre todos los envíos de la orden.
func (uc *UseCase) shippedPerProduct(ctx context.Context, tenantID, orderID string) (map[string]int64, error) {
	all, err := uc.shipments.ListByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, sh := range all {
		for _, it := range sh.Items {
			totals[it.ProductID] += it.Quantity
		}
	}
	return totals, nil
}

// remainingToShip líneas de la orden aún no cubiertas por envíos, como intents
// de consumo (para la transición directa a SHIPPED/PARTIALLY_SHIPPED).
func (uc *UseCase) remainingToShip(ctx context.Context, o *entity.Order) ([]allocation.Intent, error) {
	shipped, err := uc.shippedPerProduct(ctx, o.TenantID, o.ID)
	if err != nil {
		return nil, err
	}
	var items []allocation.Intent
	for _, it := range o.Items {
		if rem := it.Quantity - shipped[it.ProductID]; rem > 0 {
			items = append(items, allocation.Intent{
				ProductID:  it.ProductID,
				LocationID: it.LocationID,
				Quantity:   rem,
			})
		}
	}
	return items, nil
}

func orderCarries(o *entity.Order, productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
