package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/servitec-pro/internal/application/lifecycle"
	"github.com/tu-usuario/servitec-pro/internal/application/stock"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RequestUC *lifecycle.RequestUseCase
	StockUC   *stock.LedgerUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Toda la superficie es protegida: los
// tokens los emite el servicio de autenticación externo con el mismo secret.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	requestHandler := NewRequestHandler(deps.RequestUC)
	stockHandler := NewStockHandler(deps.StockUC)

	// Solicitudes de servicio (ciclo de vida)
	requests := api.Group("/requests")
	requests.Post("/", requestHandler.Submit)
	requests.Get("/", requestHandler.List)
	requests.Get("/:id", requestHandler.GetByID)
	requests.Get("/:id/history", requestHandler.History)

	// Aprobaciones: la etapa pendiente (ventas o servicio) la resuelve el caso
	// de uso; aquí solo se filtra quién puede firmar algo.
	requests.Post("/:id/approve", RequireRole(entity.RoleAdmin, entity.RoleCoordinador, entity.RoleVendedor), requestHandler.Approve)
	requests.Post("/:id/reject", RequireRole(entity.RoleAdmin, entity.RoleCoordinador, entity.RoleVendedor), requestHandler.Reject)

	// Asignación y cierre (nivel de servicio)
	requests.Post("/:id/assign", RequireRole(entity.RoleAdmin, entity.RoleCoordinador), requestHandler.Assign)
	requests.Post("/:id/reassign", RequireRole(entity.RoleAdmin, entity.RoleCoordinador), requestHandler.Reassign)
	requests.Post("/:id/complete", RequireRole(entity.RoleAdmin, entity.RoleCoordinador), requestHandler.Complete)

	// Sesiones de trabajo (técnico asignado; el caso de uso verifica identidad)
	requests.Post("/:id/work/start", RequireRole(entity.RoleTecnico), requestHandler.StartWork)
	requests.Post("/:id/work/stop", RequireRole(entity.RoleTecnico), requestHandler.StopWork)

	// Consumo de stock ligado a la solicitud
	requests.Post("/:id/stock/consume", RequireRole(entity.RoleAdmin, entity.RoleTecnico), stockHandler.Consume)

	// Libro de stock
	stockGroup := api.Group("/stock")
	stockGroup.Post("/transfers", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), stockHandler.Transfer)
	stockGroup.Get("/balances", stockHandler.Balances)
	stockGroup.Get("/movements", stockHandler.Movements)

	// Directorio de técnicos (solo lectura)
	api.Get("/technicians", requestHandler.ListTechnicians)
}
