package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/servitec-pro/internal/application/dto"
	"github.com/tu-usuario/servitec-pro/internal/application/stock"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	uc *stock.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.LedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

func stockCaller(c *fiber.Ctx) stock.Caller {
	return stock.Caller{
		UserID:       GetUserID(c),
		Role:         GetRole(c),
		TechnicianID: GetTechnicianID(c),
	}
}

// Consume godoc
// @Summary      Consumir stock contra una solicitud (lote todo-o-nada)
// @Description  Descuenta todas las líneas del origen indicado o rechaza el lote
// completo con el detalle de las líneas sin saldo.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la solicitud"
// @Param        body  body  dto.ConsumeStockRequest  true  "items"
// @Success      201   {array}   dto.StockMovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con lines"
// @Router       /api/requests/{id}/stock/consume [post]
func (h *StockHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	lines := make([]stock.ConsumeLine, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, stock.ConsumeLine{
			ItemID:   item.ItemID,
			ItemKind: item.ItemKind,
			Quantity: item.Quantity,
			Source:   item.Source,
		})
	}
	movements, err := h.uc.Consume(c.Context(), stockCaller(c), c.Params("id"), lines)
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.StockMovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromMovement(m))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"total": len(out), "movements": out})
}

// Transfer godoc
// @Summary      Trasladar stock entre bodega e inventarios de campo
// @Description  Resta en origen y suma en destino en la misma transacción; el
// total del sistema se conserva.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "item, cantidad, from, to"
// @Success      201   {object}  dto.StockMovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	movement, err := h.uc.Transfer(c.Context(), stockCaller(c), stock.TransferInput{
		ItemID:   in.ItemID,
		ItemKind: in.ItemKind,
		Quantity: in.Quantity,
		From:     in.From,
		To:       in.To,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// Balances godoc
// @Summary      Saldos de una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location  query  string  true  "WAREHOUSE o ID de técnico"
// @Success      200  {array}   dto.StockBalanceDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/balances [get]
func (h *StockHandler) Balances(c *fiber.Ctx) error {
	balances, err := h.uc.Balances(c.Context(), c.Query("location"))
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.StockBalanceDTO, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.FromBalance(b))
	}
	return c.JSON(fiber.Map{"total": len(out), "balances": out})
}

// Movements godoc
// @Summary      Libro de movimientos (auditoría de stock)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id     query  string  false  "Filtrar por ítem"
// @Param        location    query  string  false  "Filtrar por origen o destino"
// @Param        request_id  query  string  false  "Filtrar por solicitud"
// @Success      200  {array}  dto.StockMovementDTO
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	movements, err := h.uc.Movements(c.Context(), repository.MovementFilter{
		ItemID:    c.Query("item_id"),
		Location:  c.Query("location"),
		RequestID: c.Query("request_id"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.StockMovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}
