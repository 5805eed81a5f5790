package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/application/dto"
	"github.com/jhoicas/Inventario-core/internal/application/stock"
)

// StockHandler expone las operaciones de stock y las canastas del coordinador.
type StockHandler struct {
	stock *stock.UseCase
	coord *allocation.Coordinator
}

// NewStockHandler construye el handler.
func NewStockHandler(stockUC *stock.UseCase, coord *allocation.Coordinator) *StockHandler {
	return &StockHandler{stock: stockUC, coord: coord}
}

// Receive da de alta unidades en una ubicación.
// @Summary Recibir stock
// @Tags stock
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.ReceiveStockRequest true "Recepción"
// @Success 200 {object} dto.StockEntryResponse
// @Router /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var req dto.ReceiveStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	entry, err := h.stock.ReceiveStock(c.Context(), GetTenantID(c), stock.ReceiveInput{
		ProductID:   req.ProductID,
		LocationID:  req.LocationID,
		BatchID:     req.BatchID,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		ReferenceID: req.ReferenceID,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromStockEntry(entry))
}

// Adjust fija la cantidad de una entrada en el valor contado.
// @Summary Ajustar stock por conteo físico
// @Tags stock
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.AdjustStockRequest true "Ajuste"
// @Success 200 {object} dto.StockEntryResponse
// @Router /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var req dto.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	entry, err := h.stock.AdjustStock(c.Context(), GetTenantID(c), stock.AdjustInput{
		ProductID:   req.ProductID,
		LocationID:  req.LocationID,
		BatchID:     req.BatchID,
		NewQuantity: req.NewQuantity,
		Reason:      req.Reason,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromStockEntry(entry))
}

// Transfer mueve disponible entre ubicaciones.
// @Summary Trasladar stock entre ubicaciones
// @Tags stock
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.TransferStockRequest true "Traslado"
// @Success 204
// @Router /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var req dto.TransferStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	if err := h.stock.TransferStock(c.Context(), GetTenantID(c), stock.TransferInput{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		BatchID:        req.BatchID,
		Quantity:       req.Quantity,
		ReferenceID:    req.ReferenceID,
		Reason:         req.Reason,
	}); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reserve aparta stock para una canasta de intents.
// @Summary Reservar una canasta
// @Tags allocation
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.ReserveBasketRequest true "Canasta"
// @Success 200 {object} dto.ReservationReportResponse
// @Router /api/stock/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	var req dto.ReserveBasketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	report, err := h.coord.ReserveBasket(c.Context(), GetTenantID(c), dto.ToIntents(req.Intents), req.ReferenceID, parsePolicy(req.Policy))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromReservationReport(report))
}

// Release libera todo lo reservado bajo una referencia. Idempotente.
// @Summary Liberar una canasta reservada
// @Tags allocation
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.ReleaseBasketRequest true "Referencia"
// @Success 204
// @Router /api/stock/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	var req dto.ReleaseBasketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	if err := h.coord.ReleaseBasket(c.Context(), GetTenantID(c), req.ReferenceID); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Commit consume definitivamente stock reservado.
// @Summary Consumir una canasta reservada
// @Tags allocation
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.CommitBasketRequest true "Canasta"
// @Success 204
// @Router /api/stock/commit [post]
func (h *StockHandler) Commit(c *fiber.Ctx) error {
	var req dto.CommitBasketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	if err := h.coord.CommitBasket(c.Context(), GetTenantID(c), req.ReferenceID, dto.ToIntents(req.Items)); err != nil {
		return writeDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteProduction consume componentes y da de alta el producto terminado.
// @Summary Completar una orden de producción
// @Tags production
// @Accept json
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param request body dto.ExecuteProductionRequest true "Orden de trabajo"
// @Success 200 {object} dto.StockEntryResponse
// @Router /api/production/complete [post]
func (h *StockHandler) CompleteProduction(c *fiber.Ctx) error {
	var req dto.ExecuteProductionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION_ERROR", Message: "cuerpo inválido: " + err.Error(),
		})
	}
	report, err := h.coord.ExecuteProduction(c.Context(), GetTenantID(c),
		allocation.ProductionOutput{
			ProductID:  req.Produce.ProductID,
			LocationID: req.Produce.LocationID,
			Quantity:   req.Produce.Quantity,
		},
		dto.ToIntents(req.Consume), req.ReferenceID, parsePolicy(req.Policy))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromStockEntry(report.Produced))
}

// Availability suma el disponible de un producto sobre todas sus entradas.
// @Summary Disponibilidad de un producto
// @Tags stock
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param productId path string true "Producto"
// @Success 200 {object} map[string]interface{}
// @Router /api/stock/availability/{productId} [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	productID := c.Params("productId")
	total, err := h.stock.CheckAvailability(c.Context(), GetTenantID(c), productID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id": productID,
		"available":  total,
	})
}

// Movements lista el historial de movimientos de un producto, paginado.
// @Summary Movimientos de un producto
// @Tags stock
// @Produce json
// @Param X-Company-ID header string true "Tenant"
// @Param product_id query string true "Producto"
// @Param limit query int false "Límite (default 50)"
// @Param offset query int false "Desplazamiento"
// @Success 200 {array} dto.MovementResponse
// @Router /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	movements, err := h.stock.ListMovements(
		c.Context(),
		GetTenantID(c),
		c.Query("product_id"),
		c.QueryInt("limit"),
		c.QueryInt("offset"),
	)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FromMovements(movements))
}

func parsePolicy(s string) allocation.Policy {
	if s == string(allocation.PolicyBestEffort) {
		return allocation.PolicyBestEffort
	}
	return allocation.PolicyStrict
}
