package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/ledger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Operaciones puras del ledger: reciben la entrada por valor y devuelven una
// copia. El invariante 0 <= ReservedQuantity <= Quantity debe preservarse en
// todo resultado alcanzable, y Version solo sube cuando algo cambió de verdad.
// ──────────────────────────────────────────────────────────────────────────────

func buildEntry(quantity, reserved int64, cost int64) entity.StockEntry {
	return entity.StockEntry{
		ID:               "e-1",
		TenantID:         "acme",
		ProductID:        "SKU-1",
		LocationID:       "bodega-1",
		BatchID:          entity.BatchDefault,
		Quantity:         quantity,
		ReservedQuantity: reserved,
		UnitCost:         decimal.NewFromInt(cost),
		Version:          7,
	}
}

// ── Allocate ──────────────────────────────────────────────────────────────────

func TestAllocate_TomaElMinimoEntreDisponibleYSolicitado(t *testing.T) {
	e := buildEntry(10, 4, 100) // disponible: 6

	next, taken := ledger.Allocate(e, 10, time.Now())

	assert.Equal(t, int64(6), taken, "debe apartar solo el disponible")
	assert.Equal(t, int64(10), next.ReservedQuantity)
	assert.Equal(t, int64(10), next.Quantity, "la cantidad física no cambia al reservar")
	assert.Equal(t, int64(0), next.Available())
	assert.Equal(t, e.Version+1, next.Version, "una mutación efectiva sube la versión")
}

func TestAllocate_SinDisponibleDevuelveLaEntradaIntacta(t *testing.T) {
	e := buildEntry(5, 5, 100)

	next, taken := ledger.Allocate(e, 3, time.Now())

	assert.Equal(t, int64(0), taken)
	assert.Equal(t, e, next, "sin unidades tomadas no hay mutación ni bump de versión")
}

func TestAllocate_CantidadNoPositivaEsNoOp(t *testing.T) {
	e := buildEntry(10, 0, 100)

	next, taken := ledger.Allocate(e, 0, time.Now())

	assert.Equal(t, int64(0), taken)
	assert.Equal(t, e.Version, next.Version)
}

// ── Release ───────────────────────────────────────────────────────────────────

func TestRelease_NuncaDejaLaReservaNegativa(t *testing.T) {
	e := buildEntry(10, 3, 100)

	next, released := ledger.Release(e, 5, time.Now())

	assert.Equal(t, int64(3), released, "libera como máximo lo reservado")
	assert.Equal(t, int64(0), next.ReservedQuantity)
	assert.Equal(t, int64(10), next.Quantity)
}

func TestRelease_SinReservaEsNoOp(t *testing.T) {
	e := buildEntry(10, 0, 100)

	next, released := ledger.Release(e, 4, time.Now())

	assert.Equal(t, int64(0), released)
	assert.Equal(t, e, next)
}

// ── Consume ───────────────────────────────────────────────────────────────────

func TestConsume_DescuentaCantidadYReserva(t *testing.T) {
	e := buildEntry(5, 3, 100)

	next, err := ledger.Consume(e, 3, time.Now())

	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Quantity)
	assert.Equal(t, int64(0), next.ReservedQuantity)
}

func TestConsume_SinReservaSuficienteFalla(t *testing.T) {
	e := buildEntry(5, 2, 100)

	next, err := ledger.Consume(e, 3, time.Now())

	assert.ErrorIs(t, err, domain.ErrInvariantViolation,
		"consumir más de lo reservado indica una actualización perdida")
	assert.Equal(t, e, next, "ante error la entrada se devuelve sin modificar")
}

func TestConsume_CantidadNoPositivaFalla(t *testing.T) {
	e := buildEntry(5, 5, 100)

	_, err := ledger.Consume(e, 0, time.Now())

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ── Receive ───────────────────────────────────────────────────────────────────

func TestReceive_RecalculaElCostoPromedioPonderado(t *testing.T) {
	e := buildEntry(10, 0, 100)

	next := ledger.Receive(e, 10, decimal.NewFromInt(200), time.Now())

	assert.Equal(t, int64(20), next.Quantity)
	assert.True(t, next.UnitCost.Equal(decimal.NewFromInt(150)),
		"(10*100 + 10*200) / 20 = 150, obtuvo %s", next.UnitCost)
}

func TestReceive_SobreEntradaVaciaAdoptaElCostoDeLaEntrada(t *testing.T) {
	e := buildEntry(0, 0, 0)

	next := ledger.Receive(e, 5, decimal.NewFromInt(80), time.Now())

	assert.Equal(t, int64(5), next.Quantity)
	assert.True(t, next.UnitCost.Equal(decimal.NewFromInt(80)))
}

func TestReceive_NoTocaLaReserva(t *testing.T) {
	e := buildEntry(10, 4, 100)

	next := ledger.Receive(e, 5, decimal.NewFromInt(100), time.Now())

	assert.Equal(t, int64(4), next.ReservedQuantity)
	assert.Equal(t, int64(11), next.Available())
}

// ── Adjust ────────────────────────────────────────────────────────────────────

func TestAdjust_PorDebajoDeLaReservaFalla(t *testing.T) {
	e := buildEntry(10, 6, 100)

	next, err := ledger.Adjust(e, 5, time.Now())

	assert.ErrorIs(t, err, domain.ErrInvariantViolation,
		"un conteo físico no puede dejar la cantidad por debajo de lo ya reservado")
	assert.Equal(t, e, next)
}

func TestAdjust_AlMismoValorNoSubeLaVersion(t *testing.T) {
	e := buildEntry(10, 0, 100)

	next, err := ledger.Adjust(e, 10, time.Now())

	require.NoError(t, err)
	assert.Equal(t, e.Version, next.Version, "sin cambio real no hay bump de versión")
}

func TestAdjust_NegativoFalla(t *testing.T) {
	e := buildEntry(10, 0, 100)

	_, err := ledger.Adjust(e, -1, time.Now())

	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}

// ── Withdraw ──────────────────────────────────────────────────────────────────

func TestWithdraw_ElStockReservadoEsIntocable(t *testing.T) {
	e := buildEntry(10, 6, 100) // disponible: 4

	next, err := ledger.Withdraw(e, 5, time.Now())

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, e, next)
}

func TestWithdraw_DescuentaDelDisponible(t *testing.T) {
	e := buildEntry(10, 6, 100)

	next, err := ledger.Withdraw(e, 4, time.Now())

	require.NoError(t, err)
	assert.Equal(t, int64(6), next.Quantity)
	assert.Equal(t, int64(6), next.ReservedQuantity)
	assert.Equal(t, int64(0), next.Available())
}
