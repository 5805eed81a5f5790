package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-core/internal/application/dto"
)

const tenantLocal = "tenant_id"

// TenantMiddleware exige el header X-Company-ID y lo deja en locals.
// La autenticación real (JWT, sesiones) vive en el gateway de la plataforma;
// este motor solo necesita saber a qué tenant pertenece la petición.
func TenantMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := c.Get("X-Company-ID")
		if tenantID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "falta el header X-Company-ID",
			})
		}
		c.Locals(tenantLocal, tenantID)
		return c.Next()
	}
}

// GetTenantID devuelve el tenant de la petición (vacío si no pasó por el middleware).
func GetTenantID(c *fiber.Ctx) string {
	if v, ok := c.Locals(tenantLocal).(string); ok {
		return v
	}
	return ""
}
