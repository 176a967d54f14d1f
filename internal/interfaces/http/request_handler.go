package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/servitec-pro/internal/application/dto"
	"github.com/tu-usuario/servitec-pro/internal/application/lifecycle"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// RequestHandler maneja las peticiones HTTP del ciclo de vida de solicitudes (protegido).
type RequestHandler struct {
	uc *lifecycle.RequestUseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *lifecycle.RequestUseCase) *RequestHandler {
	return &RequestHandler{uc: uc}
}

// caller arma la identidad del actor desde los locals del middleware de auth.
func caller(c *fiber.Ctx) lifecycle.Caller {
	return lifecycle.Caller{
		UserID:       GetUserID(c),
		Role:         GetRole(c),
		TechnicianID: GetTechnicianID(c),
	}
}

// Submit godoc
// @Summary      Crear solicitud de servicio
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitRequest  true  "type, customer_id, region_id, description"
// @Success      201   {object}  dto.ServiceRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	req, err := h.uc.Submit(c.Context(), caller(c), lifecycle.SubmitInput{
		Type:        in.Type,
		CustomerID:  in.CustomerID,
		RegionID:    in.RegionID,
		Description: in.Description,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromRequest(req))
}

// List godoc
// @Summary      Listar solicitudes
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status         query  string  false  "Filtrar por estado"
// @Param        region_id      query  string  false  "Filtrar por región"
// @Param        technician_id  query  string  false  "Filtrar por técnico"
// @Success      200  {array}  dto.ServiceRequestResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.List(c.Context(), repository.RequestFilter{
		Status:       c.Query("status"),
		RegionID:     c.Query("region_id"),
		TechnicianID: c.Query("technician_id"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.ServiceRequestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.FromRequest(r))
	}
	return c.JSON(fiber.Map{"total": len(out), "requests": out})
}

// GetByID godoc
// @Summary      Detalle de una solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.ServiceRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	req, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// History godoc
// @Summary      Historial de auditoría de una solicitud
// @Description  Aprobaciones, asignaciones y sesiones de trabajo, append-only.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/history [get]
func (h *RequestHandler) History(c *fiber.Ctx) error {
	hist, err := h.uc.GetHistory(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromHistory(hist))
}

// Approve godoc
// @Summary      Aprobar la etapa pendiente de una solicitud
// @Description  Solicitudes creadas por ventas exigen firma de ventas y luego de
// servicio; las demás, una sola firma de servicio.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "ID de la solicitud"
// @Param        body  body  dto.ApprovalRequest  false  "comments"
// @Success      200   {object}  dto.ServiceRequestResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApprovalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	req, err := h.uc.Approve(c.Context(), caller(c), c.Params("id"), in.Comments)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// Reject godoc
// @Summary      Rechazar una solicitud (terminal, comentario obligatorio)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.ApprovalRequest  true  "comments (obligatorio)"
// @Success      200   {object}  dto.ServiceRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *fiber.Ctx) error {
	var in dto.ApprovalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	req, err := h.uc.Reject(c.Context(), caller(c), c.Params("id"), in.Comments)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// Assign godoc
// @Summary      Asignar técnico (manual o automático)
// @Description  Auto elige el técnico activo de la región con menos solicitudes abiertas.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la solicitud"
// @Param        body  body  dto.AssignRequest  true  "technician_id o auto"
// @Success      200   {object}  dto.ServiceRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/assign [post]
func (h *RequestHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	req, err := h.uc.Assign(c.Context(), caller(c), c.Params("id"), in.TechnicianID, in.Auto)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// Reassign godoc
// @Summary      Reasignar técnico
// @Description  Cierra administrativamente la sesión abierta del técnico saliente
// si existe, y registra el evento con el técnico anterior.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.ReassignRequest  true  "technician_id, reason, note (obligatoria con OTHER)"
// @Success      200   {object}  dto.ServiceRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/reassign [post]
func (h *RequestHandler) Reassign(c *fiber.Ctx) error {
	var in dto.ReassignRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := dto.Validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	reason := entity.ReassignReason{Code: in.Reason, Note: in.Note}
	req, err := h.uc.Reassign(c.Context(), caller(c), c.Params("id"), in.TechnicianID, reason, in.AllowSame)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// StartWork godoc
// @Summary      Iniciar sesión de trabajo (solo el técnico asignado)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      201  {object}  dto.WorkSessionDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/work/start [post]
func (h *RequestHandler) StartWork(c *fiber.Ctx) error {
	session, err := h.uc.StartWork(c.Context(), caller(c), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromSession(session))
}

// StopWork godoc
// @Summary      Cerrar sesión de trabajo y calcular duración
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "ID de la solicitud"
// @Param        body  body  dto.StopWorkRequest  false  "notes"
// @Success      200   {object}  dto.WorkSessionDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/work/stop [post]
func (h *RequestHandler) StopWork(c *fiber.Ctx) error {
	var in dto.StopWorkRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	session, err := h.uc.StopWork(c.Context(), caller(c), c.Params("id"), in.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromSession(session))
}

// Complete godoc
// @Summary      Acta de cierre: confirmar trabajo terminado
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true   "ID de la solicitud"
// @Param        body  body  dto.ApprovalRequest  false  "comments"
// @Success      200   {object}  dto.ServiceRequestResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/complete [post]
func (h *RequestHandler) Complete(c *fiber.Ctx) error {
	var in dto.ApprovalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	req, err := h.uc.Acknowledge(c.Context(), caller(c), c.Params("id"), in.Comments)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// ListTechnicians godoc
// @Summary      Directorio de técnicos (solo lectura)
// @Tags         technicians
// @Security     Bearer
// @Produce      json
// @Param        region_id  query  string  false  "Filtrar por región"
// @Param        status     query  string  false  "Filtrar por estado (ACTIVE, INACTIVE)"
// @Success      200  {array}  dto.TechnicianDTO
// @Router       /api/technicians [get]
func (h *RequestHandler) ListTechnicians(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListTechnicians(c.Context(), c.Query("region_id"), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.TechnicianDTO, 0, len(list))
	for _, t := range list {
		out = append(out, dto.FromTechnician(t))
	}
	return c.JSON(fiber.Map{"total": len(out), "technicians": out})
}
