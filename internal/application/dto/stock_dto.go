package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
)

// ErrorResponse cuerpo de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReceiveStockRequest body para POST /api/stock/receive.
type ReceiveStockRequest struct {
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjust (cantidad absoluta contada).
type AdjustStockRequest struct {
	ProductID   string `json:"product_id"`
	LocationID  string `json:"location_id"`
	BatchID     string `json:"batch_id,omitempty"`
	NewQuantity int64  `json:"new_quantity"`
	Reason      string `json:"reason,omitempty"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	BatchID        string `json:"batch_id,omitempty"`
	Quantity       int64  `json:"quantity"`
	ReferenceID    string `json:"reference_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// IntentDTO línea de una canasta (reserva o consumo).
type IntentDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	BatchID    string `json:"batch_id,omitempty"`
	Quantity   int64  `json:"quantity"`
}

// ToIntent convierte al objeto de valor del coordinador.
func (d IntentDTO) ToIntent() allocation.Intent {
	return allocation.Intent{
		ProductID:  d.ProductID,
		LocationID: d.LocationID,
		BatchID:    d.BatchID,
		Quantity:   d.Quantity,
	}
}

// ToIntents convierte una lista de líneas.
func ToIntents(in []IntentDTO) []allocation.Intent {
	out := make([]allocation.Intent, 0, len(in))
	for _, d := range in {
		out = append(out, d.ToIntent())
	}
	return out
}

// ReserveBasketRequest body para POST /api/stock/reserve.
type ReserveBasketRequest struct {
	ReferenceID string      `json:"reference_id"`
	Policy      string      `json:"policy,omitempty"` // strict (default) | best_effort
	Intents     []IntentDTO `json:"intents"`
}

// ReleaseBasketRequest body para POST /api/stock/release.
type ReleaseBasketRequest struct {
	ReferenceID string `json:"reference_id"`
}

// CommitBasketRequest body para POST /api/stock/commit.
type CommitBasketRequest struct {
	ReferenceID string      `json:"reference_id"`
	Items       []IntentDTO `json:"items"`
}

// ProductionOutputDTO producto terminado de una orden de trabajo.
type ProductionOutputDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// ExecuteProductionRequest body para POST /api/production/complete.
type ExecuteProductionRequest struct {
	ReferenceID string              `json:"reference_id"`
	Policy      string              `json:"policy,omitempty"`
	Produce     ProductionOutputDTO `json:"produce"`
	Consume     []IntentDTO         `json:"consume"`
}

// AllocationLineDTO resultado por línea de una reserva.
type AllocationLineDTO struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	BatchID    string `json:"batch_id"`
	Requested  int64  `json:"requested"`
	Taken      int64  `json:"taken"`
}

// ReservationReportResponse respuesta de una reserva de canasta.
type ReservationReportResponse struct {
	Allocated []AllocationLineDTO `json:"allocated"`
	Shortages []AllocationLineDTO `json:"shortages,omitempty"`
}

// FromReservationReport mapea el reporte del coordinador.
func FromReservationReport(r *allocation.ReservationReport) ReservationReportResponse {
	return ReservationReportResponse{
		Allocated: fromLines(r.Allocated),
		Shortages: fromLines(r.Shortages),
	}
}

func fromLines(lines []allocation.AllocationLine) []AllocationLineDTO {
	out := make([]AllocationLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, AllocationLineDTO{
			ProductID:  l.ProductID,
			LocationID: l.LocationID,
			BatchID:    l.BatchID,
			Requested:  l.Requested,
			Taken:      l.Taken,
		})
	}
	return out
}

// StockEntryResponse proyección de una entrada de stock.
type StockEntryResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	LocationID       string          `json:"location_id"`
	BatchID          string          `json:"batch_id"`
	Quantity         int64           `json:"quantity"`
	ReservedQuantity int64           `json:"reserved_quantity"`
	Available        int64           `json:"available"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// FromStockEntry mapea la entidad.
func FromStockEntry(e *entity.StockEntry) StockEntryResponse {
	return StockEntryResponse{
		ID:               e.ID,
		ProductID:        e.ProductID,
		LocationID:       e.LocationID,
		BatchID:          e.BatchID,
		Quantity:         e.Quantity,
		ReservedQuantity: e.ReservedQuantity,
		Available:        e.Available(),
		UnitCost:         e.UnitCost,
		UpdatedAt:        e.UpdatedAt,
	}
}

// MovementResponse proyección de un movimiento.
type MovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	BatchID     string          `json:"batch_id"`
	Type        string          `json:"type"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FromMovements mapea la lista de movimientos.
func FromMovements(in []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(in))
	for _, m := range in {
		out = append(out, MovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			LocationID:  m.LocationID,
			BatchID:     m.BatchID,
			Type:        m.Type,
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			ReferenceID: m.ReferenceID,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
