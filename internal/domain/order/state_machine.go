// Package order define la máquina de estados de cumplimiento de órdenes.
// Es lógica pura: valida transiciones y clasifica el efecto de stock asociado;
// ejecutar ese efecto es responsabilidad del caso de uso de fulfillment.
package order

// Estados de una orden de venta.
const (
	StatusCreated          = "CREATED"
	StatusPaid             = "PAID"
	StatusPartiallyShipped = "PARTIALLY_SHIPPED"
	StatusShipped          = "SHIPPED"
	StatusDelivered        = "DELIVERED"
	StatusCancelled        = "CANCELLED"
)

// StockEffect efecto de stock que dispara una transición.
type StockEffect int

const (
	// EffectNone la transición no toca stock.
	EffectNone StockEffect = iota
	// EffectCommit entrar a SHIPPED/PARTIALLY_SHIPPED consume lo reservado.
	EffectCommit
	// EffectRelease entrar a CANCELLED libera las reservas pendientes.
	EffectRelease
)

// transitions tabla de transiciones legales; ausencia de entrada = ilegal.
// DELIVERED y CANCELLED son terminales.
var transitions = map[string]map[string]bool{
	StatusCreated: {
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusPaid: {
		StatusShipped:          true,
		StatusPartiallyShipped: true,
		StatusCancelled:        true,
	},
	StatusPartiallyShipped: {
		StatusShipped:   true,
		StatusCancelled: true,
		StatusDelivered: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// IsValidStatus indica si s es un estado conocido.
func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(s string) bool {
	return len(transitions[s]) == 0 && IsValidStatus(s)
}

// CanTransition indica si from -> to está permitido por la tabla.
// La auto-transición (from == to) siempre es un no-op exitoso y se trata
// aparte en el caso de uso; aquí se reporta como no permitida.
func CanTransition(from, to string) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// EffectFor clasifica el efecto de stock de una transición ya validada.
// Cancelar una orden SHIPPED o DELIVERED es ilegal por tabla, así que el
// release solo aplica desde estados con reservas aún vivas.
func EffectFor(from, to string) StockEffect {
	switch to {
	case StatusShipped, StatusPartiallyShipped:
		return EffectCommit
	case StatusCancelled:
		return EffectRelease
	default:
		return EffectNone
	}
}
