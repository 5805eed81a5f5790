package allocation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-core/internal/application/allocation"
	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
	"github.com/jhoicas/Inventario-core/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-core/pkg/logger"
)

const testTenant = "acme"

// ──────────────────────────────────────────────────────────────────────────────
// helpers
// ──────────────────────────────────────────────────────────────────────────────

func newCoordinator(store *memory.Store) *allocation.Coordinator {
	return allocation.NewCoordinator(store.StockEntries(), store.Movements(), logger.Nop(), 3)
}

func seedEntry(t *testing.T, store *memory.Store, productID, locationID string, quantity, cost int64) {
	t.Helper()
	e := &entity.StockEntry{
		ID:         productID + "-" + locationID,
		TenantID:   testTenant,
		ProductID:  productID,
		LocationID: locationID,
		BatchID:    entity.BatchDefault,
		Quantity:   quantity,
		UnitCost:   decimal.NewFromInt(cost),
		Version:    1,
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, store.StockEntries().Save(context.Background(), e, 0))
}

func getEntry(t *testing.T, store *memory.Store, productID, locationID string) *entity.StockEntry {
	t.Helper()
	e, err := store.StockEntries().Find(context.Background(), testTenant, productID, locationID, entity.BatchDefault)
	require.NoError(t, err)
	require.NotNil(t, e, "la entrada %s/%s debe existir", productID, locationID)
	return e
}

func movementsByType(t *testing.T, store *memory.Store, referenceID, movType string) []*entity.StockMovement {
	t.Helper()
	all, err := store.Movements().ListByReference(context.Background(), testTenant, referenceID)
	require.NoError(t, err)
	var out []*entity.StockMovement
	for _, m := range all {
		if m.Type == movType {
			out = append(out, m)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// ReserveBasket
// ──────────────────────────────────────────────────────────────────────────────

func TestReserveBasket_EstrictaReservaTodaLaCanasta(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	seedEntry(t, store, "SKU-B", "bodega-1", 20, 50)
	coord := newCoordinator(store)

	report, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
		{ProductID: "SKU-B", LocationID: "bodega-1", Quantity: 8},
	}, "orden-1", allocation.PolicyStrict)

	require.NoError(t, err)
	assert.Len(t, report.Allocated, 2)
	assert.Empty(t, report.Shortages, "bajo política estricta nunca hay faltantes reportados")

	assert.Equal(t, int64(4), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
	assert.Equal(t, int64(8), getEntry(t, store, "SKU-B", "bodega-1").ReservedQuantity)

	// cada mutación persistida queda emparejada con un movimiento ALLOCATION
	movs := movementsByType(t, store, "orden-1", entity.MovementTypeALLOCATION)
	assert.Len(t, movs, 2)
}

func TestReserveBasket_EstrictaConFaltanteCompensaTodoLoApartado(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	seedEntry(t, store, "SKU-B", "bodega-1", 3, 50) // solo 3 de los 8 pedidos
	coord := newCoordinator(store)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
		{ProductID: "SKU-B", LocationID: "bodega-1", Quantity: 8},
	}, "orden-2", allocation.PolicyStrict)

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// lo apartado de SKU-A (y el parcial de SKU-B) debe quedar liberado
	assert.Equal(t, int64(0), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity,
		"una reserva parcial jamás queda colgando tras una falla")
	assert.Equal(t, int64(0), getEntry(t, store, "SKU-B", "bodega-1").ReservedQuantity)

	// el rastro ALLOCATION queda balanceado: altas y liberaciones suman cero
	var net int64
	for _, m := range movementsByType(t, store, "orden-2", entity.MovementTypeALLOCATION) {
		net += m.Quantity
	}
	assert.Equal(t, int64(0), net)
}

func TestReserveBasket_MejorEsfuerzoReportaFaltantesPorLinea(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	seedEntry(t, store, "SKU-B", "bodega-1", 3, 50)
	coord := newCoordinator(store)

	report, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
		{ProductID: "SKU-B", LocationID: "bodega-1", Quantity: 8},
	}, "orden-3", allocation.PolicyBestEffort)

	require.NoError(t, err)
	require.Len(t, report.Shortages, 1)
	assert.Equal(t, "SKU-B", report.Shortages[0].ProductID)
	assert.Equal(t, int64(8), report.Shortages[0].Requested)
	assert.Equal(t, int64(3), report.Shortages[0].Taken)

	// el parcial se queda apartado: el caller decide qué hacer con él
	assert.Equal(t, int64(4), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
	assert.Equal(t, int64(3), getEntry(t, store, "SKU-B", "bodega-1").ReservedQuantity)
}

func TestReserveBasket_ProductoInexistenteCreaEntradaEnCeroYFaltante(t *testing.T) {
	store := memory.NewStore()
	coord := newCoordinator(store)

	report, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-X", LocationID: "bodega-1", Quantity: 5},
	}, "orden-4", allocation.PolicyBestEffort)

	require.NoError(t, err)
	require.Len(t, report.Shortages, 1)
	assert.Equal(t, int64(0), report.Shortages[0].Taken)
	assert.Empty(t, report.Allocated)
}

func TestReserveBasket_CanastaInvalida(t *testing.T) {
	store := memory.NewStore()
	coord := newCoordinator(store)

	_, err := coord.ReserveBasket(context.Background(), testTenant, nil, "orden-5", allocation.PolicyStrict)
	assert.ErrorIs(t, err, domain.ErrValidation, "canasta vacía")

	_, err = coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 0},
	}, "orden-5", allocation.PolicyStrict)
	assert.ErrorIs(t, err, domain.ErrValidation, "cantidad no positiva")

	_, err = coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 1},
	}, "", allocation.PolicyStrict)
	assert.ErrorIs(t, err, domain.ErrValidation, "sin referencia")
}

// ──────────────────────────────────────────────────────────────────────────────
// ReleaseBasket
// ──────────────────────────────────────────────────────────────────────────────

func TestReleaseBasket_LiberaLoReservadoBajoLaReferencia(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	coord := newCoordinator(store)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-6", allocation.PolicyStrict)
	require.NoError(t, err)

	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-6"))

	e := getEntry(t, store, "SKU-A", "bodega-1")
	assert.Equal(t, int64(0), e.ReservedQuantity)
	assert.Equal(t, int64(10), e.Quantity, "liberar no toca la cantidad física")
}

func TestReleaseBasket_EsIdempotente(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	coord := newCoordinator(store)

	// otra referencia mantiene su propia reserva viva sobre la misma entrada
	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 3},
	}, "orden-7", allocation.PolicyStrict)
	require.NoError(t, err)
	_, err = coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 2},
	}, "orden-8", allocation.PolicyStrict)
	require.NoError(t, err)

	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-7"))
	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-7"))
	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-7"))

	// la doble liberación no puede comerse la reserva de orden-8
	assert.Equal(t, int64(2), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity,
		"liberar dos veces la misma referencia no libera de más")
}

func TestReleaseBasket_TrasConsumoParcialLiberaSoloElResto(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 20, 100)
	coord := newCoordinator(store)

	// orden-15 reserva 10 y consume 4: su reserva viva queda en 6
	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 10},
	}, "orden-15", allocation.PolicyStrict)
	require.NoError(t, err)
	require.NoError(t, coord.CommitBasket(context.Background(), testTenant, "orden-15", []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}))

	// orden-16 reserva 5 sobre la misma entrada (reservado total: 6 + 5 = 11)
	_, err = coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 5},
	}, "orden-16", allocation.PolicyStrict)
	require.NoError(t, err)
	require.Equal(t, int64(11), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)

	// liberar orden-15 devuelve sus 6 vivas, no las 10 originales
	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-15"))

	e := getEntry(t, store, "SKU-A", "bodega-1")
	assert.Equal(t, int64(5), e.ReservedQuantity,
		"lo ya consumido no cuenta como pendiente: la reserva de orden-16 debe sobrevivir")
	assert.Equal(t, int64(16), e.Quantity, "solo el consumo de 4 tocó la cantidad física")

	// y sigue siendo idempotente después del consumo parcial
	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-15"))
	assert.Equal(t, int64(5), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
}

func TestReleaseBasket_ReferenciaTotalmenteConsumidaEsNoOp(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 20, 100)
	coord := newCoordinator(store)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 10},
	}, "orden-17", allocation.PolicyStrict)
	require.NoError(t, err)
	require.NoError(t, coord.CommitBasket(context.Background(), testTenant, "orden-17", []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 10},
	}))

	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "orden-17"))

	e := getEntry(t, store, "SKU-A", "bodega-1")
	assert.Equal(t, int64(0), e.ReservedQuantity)
	assert.Equal(t, int64(10), e.Quantity, "liberar una referencia ya consumida no devuelve nada")
}

func TestReleaseBasket_ReferenciaDesconocidaEsNoOp(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	coord := newCoordinator(store)

	require.NoError(t, coord.ReleaseBasket(context.Background(), testTenant, "jamas-reservada"))
	assert.Equal(t, int64(0), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// CommitBasket
// ──────────────────────────────────────────────────────────────────────────────

func TestCommitBasket_ConsumeLoReservado(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	coord := newCoordinator(store)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-9", allocation.PolicyStrict)
	require.NoError(t, err)

	require.NoError(t, coord.CommitBasket(context.Background(), testTenant, "orden-9", []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}))

	e := getEntry(t, store, "SKU-A", "bodega-1")
	assert.Equal(t, int64(6), e.Quantity)
	assert.Equal(t, int64(0), e.ReservedQuantity)

	movs := movementsByType(t, store, "orden-9", entity.MovementTypeOUTBOUND)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(-4), movs[0].Quantity, "la salida se registra con signo negativo")
}

func TestCommitBasket_SinReservaPreviaFalla(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	coord := newCoordinator(store)

	err := coord.CommitBasket(context.Background(), testTenant, "orden-10", []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	})

	assert.ErrorIs(t, err, domain.ErrInvariantViolation,
		"consumir sin reserva previa indica error del caller")
	assert.Equal(t, int64(10), getEntry(t, store, "SKU-A", "bodega-1").Quantity)
}

func TestCommitBasket_FallaAMitadDeCanastaSenalaReconciliacion(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	seedEntry(t, store, "SKU-B", "bodega-1", 10, 50)
	coord := newCoordinator(store)

	// solo SKU-A queda reservado; SKU-B va a fallar el Consume
	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-11", allocation.PolicyStrict)
	require.NoError(t, err)

	err = coord.CommitBasket(context.Background(), testTenant, "orden-11", []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
		{ProductID: "SKU-B", LocationID: "bodega-1", Quantity: 4},
	})

	assert.ErrorIs(t, err, domain.ErrReconciliationRequired,
		"un consumo parcial no es compensable limpiamente y debe señalarse")
	assert.Equal(t, int64(6), getEntry(t, store, "SKU-A", "bodega-1").Quantity,
		"lo ya consumido queda consumido")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y reintentos
// ──────────────────────────────────────────────────────────────────────────────

func TestReserveBasket_NuncaSobreReservaBajoConcurrencia(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	// reintentos generosos: aquí el conflicto de versión es el caso esperado
	coord := allocation.NewCoordinator(store.StockEntries(), store.Movements(), logger.Nop(), 50)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
				{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 1},
			}, "ref-"+string(rune('a'+n)), allocation.PolicyStrict)
			if err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, granted, "con 10 unidades solo 10 reservas pueden triunfar")
	e := getEntry(t, store, "SKU-A", "bodega-1")
	assert.Equal(t, int64(10), e.ReservedQuantity)
	assert.Equal(t, int64(0), e.Available())
}

// conflictingEntries decorador que fuerza ErrVersionConflict en los primeros
// N guardados, simulando escritores concurrentes sobre el almacén real.
type conflictingEntries struct {
	repository.StockEntryRepository
	mu       sync.Mutex
	failures int
}

func (r *conflictingEntries) Save(ctx context.Context, e *entity.StockEntry, expectedVersion int64) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return domain.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.StockEntryRepository.Save(ctx, e, expectedVersion)
}

func TestReserveBasket_ReintentaAnteConflictoDeVersion(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	entries := &conflictingEntries{StockEntryRepository: store.StockEntries(), failures: 2}
	coord := allocation.NewCoordinator(entries, store.Movements(), logger.Nop(), 3)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-12", allocation.PolicyStrict)

	require.NoError(t, err, "dos conflictos caben dentro del presupuesto de reintentos")
	assert.Equal(t, int64(4), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
}

func TestReserveBasket_AgotaReintentosYPropagaElConflicto(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	entries := &conflictingEntries{StockEntryRepository: store.StockEntries(), failures: 100}
	coord := allocation.NewCoordinator(entries, store.Movements(), logger.Nop(), 3)

	_, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-13", allocation.PolicyStrict)

	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

// failingMovements registro de movimientos siempre caído.
type failingMovements struct {
	repository.StockMovementRepository
}

func (r *failingMovements) Append(context.Context, *entity.StockMovement) error {
	return errors.New("registro de movimientos no disponible")
}

func TestReserveBasket_FallaDelRegistroNoRevierteLaReserva(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, "SKU-A", "bodega-1", 10, 100)
	movements := &failingMovements{StockMovementRepository: store.Movements()}
	coord := allocation.NewCoordinator(store.StockEntries(), movements, logger.Nop(), 3)

	report, err := coord.ReserveBasket(context.Background(), testTenant, []allocation.Intent{
		{ProductID: "SKU-A", LocationID: "bodega-1", Quantity: 4},
	}, "orden-14", allocation.PolicyStrict)

	require.NoError(t, err, "el registro es auditoría: su falla no invalida la reserva")
	assert.Len(t, report.Allocated, 1)
	assert.Equal(t, int64(4), getEntry(t, store, "SKU-A", "bodega-1").ReservedQuantity)
}
