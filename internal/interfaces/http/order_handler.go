package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/application/fulfillment"
)

// OrderHandler expone transiciones de estado y envíos de órdenes.
type OrderHandler struct {
	fulfillment *fulfillment.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *fulfillment.UseCase) *OrderHandler {
	return &OrderHandler{fulfillment: uc}
}

// Transition aplica una transición de estado a la orden.
// @Summary Transicionar el estado de una orden
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param id path string true "Orden"
// @Param request body dto.TransitionOrderRequest true "Estado destino"
// @Success 200 {object} dto.OrderResponse
// @Router /api/orders/{id}/status [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	o, err := h.fulfillment.TransitionOrderStatus(c.Context(), GetTenantID(c), c.Params("id"), req.Status)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromOrder(o))
}

// CreateShipment registra un envío parcial o total de una orden.
// @Summary Registrar un envío
// @Tags orders
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param id path string true "Orden"
// @Param request body dto.CreateShipmentRequest true "Líneas despachadas"
// @Success 201 {object} dto.ShipmentResponse
// @Router /api/orders/{id}/shipments [post]
func (h *OrderHandler) CreateShipment(c *fiber.Ctx) error {
	var req dto.CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	sh, err := h.fulfillment.RegisterShipment(c.Context(), GetTenantID(c), c.Params("id"), req.ToShipmentItems())
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromShipment(sh))
}
