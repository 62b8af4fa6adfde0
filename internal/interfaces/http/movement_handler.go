package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/internal/application/inventory"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// MovementService lo que el handler necesita del caso de uso de movimientos.
type MovementService interface {
	CreateMovement(ctx context.Context, actor inventory.Actor, in dto.CreateMovementRequest) (*dto.MovementCreatedResponse, error)
	ListMovements(ctx context.Context, q dto.MovementListQuery) (*dto.MovementListResponse, error)
	GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error)
}

// MovementHandler maneja las peticiones HTTP del libro de movimientos (protegido).
type MovementHandler struct {
	svc MovementService
	log *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(svc MovementService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Registrar movimiento de stock
// @Description  Añade el movimiento al libro y actualiza el stock del par (producto, tienda) en una sola transacción.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateMovementRequest  true  "product_id, store_id, type (entry|exit), quantity > 0, reason"
// @Success      201   {object}  dto.MovementCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := decodeStrict(c.Body(), &in); err != nil {
		return writeError(c, h.log, err)
	}
	actor := inventory.Actor{ID: GetUserID(c), Role: GetRole(c)}
	res, err := h.svc.CreateMovement(c.Context(), actor, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// List godoc
// @Summary      Listar movimientos
// @Description  Más recientes primero. Filtros opcionales por tienda y producto.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  string  false  "Filtrar por tienda"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        limit       query  int     false  "1-100 (default 20)"
// @Param        offset      query  int     false  ">= 0"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	q := dto.MovementListQuery{
		StoreID:   c.Query("store_id"),
		ProductID: c.Query("product_id"),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	res, err := h.svc.ListMovements(c.Context(), q)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// GetByID godoc
// @Summary      Obtener movimiento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.svc.GetMovement(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}
