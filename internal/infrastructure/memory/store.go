// Package memory implementa los puertos de persistencia sobre mapas en memoria,
// con la misma semántica que el almacén real: claves compuestas por tenant,
// escritura atómica por entidad y chequeo de versión en Save. Lo usan los tests
// del motor y cmd/api cuando no hay base de datos configurada (modo desarrollo).
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Inventario-core/internal/domain"
	"github.com/jhoicas/Inventario-core/internal/domain/entity"
	"github.com/jhoicas/Inventario-core/internal/domain/repository"
)

// Store estado compartido del almacén en memoria. Cada puerto se obtiene con
// StockEntries(), Movements(), Orders() y Shipments(); todos serializan el
// acceso con el mismo mutex, igual que el colaborador KV serializa por clave.
type Store struct {
	mu        sync.Mutex
	entries   map[string]entity.StockEntry
	movements map[string][]entity.StockMovement // por tenant, append-only
	orders    map[string]entity.Order
	shipments map[string][]entity.Shipment // por tenant+orden
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		entries:   make(map[string]entity.StockEntry),
		movements: make(map[string][]entity.StockMovement),
		orders:    make(map[string]entity.Order),
		shipments: make(map[string][]entity.Shipment),
	}
}

// StockEntries puerto de entradas de stock.
func (s *Store) StockEntries() repository.StockEntryRepository { return &stockEntries{s} }

// Movements puerto del registro de movimientos.
func (s *Store) Movements() repository.StockMovementRepository { return &stockMovements{s} }

// Orders puerto de órdenes.
func (s *Store) Orders() repository.OrderRepository { return &orders{s} }

// Shipments puerto de envíos.
func (s *Store) Shipments() repository.ShipmentRepository { return &shipments{s} }

func entryKey(tenantID, productID, locationID, batchID string) string {
	if batchID == "" {
		batchID = entity.BatchDefault
	}
	return fmt.Sprintf("%s/%s/%s/%s", tenantID, productID, locationID, batchID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas de stock
// ──────────────────────────────────────────────────────────────────────────────

type stockEntries struct{ s *Store }

var _ repository.StockEntryRepository = (*stockEntries)(nil)

func (r *stockEntries) Find(_ context.Context, tenantID, productID, locationID, batchID string) (*entity.StockEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[entryKey(tenantID, productID, locationID, batchID)]
	if !ok {
		return nil, nil
	}
	cp := e
	return &cp, nil
}

func (r *stockEntries) FindByProduct(_ context.Context, tenantID, productID string) ([]*entity.StockEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prefix := tenantID + "/" + productID + "/"
	var keys []string
	for k := range r.s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]*entity.StockEntry, 0, len(keys))
	for _, k := range keys {
		cp := r.s.entries[k]
		out = append(out, &cp)
	}
	return out, nil
}

// Save compare-and-set bajo el mutex: la versión almacenada debe coincidir con
// expectedVersion; expectedVersion == 0 exige inserción.
func (r *stockEntries) Save(_ context.Context, entry *entity.StockEntry, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := entryKey(entry.TenantID, entry.ProductID, entry.LocationID, entry.BatchID)
	cur, exists := r.s.entries[key]
	if expectedVersion == 0 {
		if exists {
			return domain.ErrVersionConflict
		}
	} else if !exists || cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.s.entries[key] = *entry
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

type stockMovements struct{ s *Store }

var _ repository.StockMovementRepository = (*stockMovements)(nil)

func (r *stockMovements) Append(_ context.Context, movement *entity.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements[movement.TenantID] = append(r.s.movements[movement.TenantID], *movement)
	return nil
}

func (r *stockMovements) ListByReference(_ context.Context, tenantID, referenceID string) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements[tenantID] {
		if m.ReferenceID == referenceID {
			cp := m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stockMovements) ListByProduct(_ context.Context, tenantID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*entity.StockMovement
	for _, m := range r.s.movements[tenantID] {
		if m.ProductID == productID {
			cp := m
			all = append(all, &cp)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes y envíos
// ──────────────────────────────────────────────────────────────────────────────

type orders struct{ s *Store }

var _ repository.OrderRepository = (*orders)(nil)

func orderKey(tenantID, orderID string) string { return tenantID + "/" + orderID }

func (r *orders) FindByID(_ context.Context, tenantID, orderID string) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderKey(tenantID, orderID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := o
	cp.Items = append([]entity.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *orders) Save(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *order
	cp.Items = append([]entity.OrderItem(nil), order.Items...)
	r.s.orders[orderKey(order.TenantID, order.ID)] = cp
	return nil
}

type shipments struct{ s *Store }

var _ repository.ShipmentRepository = (*shipments)(nil)

func (r *shipments) Save(_ context.Context, shipment *entity.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *shipment
	cp.Items = append([]entity.ShipmentItem(nil), shipment.Items...)
	key := orderKey(shipment.TenantID, shipment.OrderID)
	r.s.shipments[key] = append(r.s.shipments[key], cp)
	return nil
}

func (r *shipments) ListByOrder(_ context.Context, tenantID, orderID string) ([]*entity.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Shipment
	for _, sh := range r.s.shipments[orderKey(tenantID, orderID)] {
		cp := sh
		cp.Items = append([]entity.ShipmentItem(nil), sh.Items...)
		out = append(out, &cp)
	}
	return out, nil
}
