package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El motor nunca usa panics para resultados de negocio: todo se propaga como
// error tipado y se clasifica con errors.Is.
var (
	// ErrValidation entrada malformada (intent sin producto, cantidad <= 0, etc.).
	ErrValidation = errors.New("entrada inválida")

	// ErrNotFound entrada de stock, orden o envío inexistente.
	ErrNotFound = errors.New("recurso no encontrado")

	// ErrInsufficientStock faltante bajo política estricta; la canasta ya fue compensada.
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrInvariantViolation un consumo dejaría cantidad o reserva negativa.
	// Indica un bug del caller o una actualización perdida, nunca un flujo esperado.
	ErrInvariantViolation = errors.New("violación de invariante de stock")

	// ErrVersionConflict colisión de concurrencia optimista; reintentable con estado fresco.
	ErrVersionConflict = errors.New("conflicto de versión")

	// ErrInvalidTransition cambio de estado de orden no permitido por la tabla de transiciones.
	ErrInvalidTransition = errors.New("transición de estado inválida")

	// ErrReconciliationRequired la compensación agotó sus reintentos y quedó estado
	// parcial persistido; requiere reconciliación manual sobre los movimientos.
	ErrReconciliationRequired = errors.New("se requiere reconciliación manual")
)
