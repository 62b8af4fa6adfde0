package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// StockService consultas y ajustes manuales de stock.
type StockService interface {
	GetStock(ctx context.Context, productID, storeID string) (*dto.StockResponse, error)
	ListStocks(ctx context.Context, storeID string) ([]dto.StockResponse, error)
	UpsertStock(ctx context.Context, in dto.UpsertStockRequest) (*dto.StockResponse, error)
	SetStockQuantity(ctx context.Context, id string, in dto.SetStockRequest) (*dto.StockResponse, error)
	DeleteStock(ctx context.Context, id string) error
}

// AlertService alertas de stock bajo.
type AlertService interface {
	ListAlerts(ctx context.Context, storeID string) ([]dto.StockAlertDTO, error)
}

// ReportService reporte imprimible.
type ReportService interface {
	GenerateReport(ctx context.Context, storeID string) ([]byte, error)
}

// StockHandler maneja las peticiones HTTP de stock (protegido).
type StockHandler struct {
	stocks  StockService
	alerts  AlertService
	reports ReportService
	log     *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(stocks StockService, alerts AlertService, reports ReportService, log *logger.Logger) *StockHandler {
	return &StockHandler{stocks: stocks, alerts: alerts, reports: reports, log: log}
}

// List godoc
// @Summary      Listar stock
// @Description  Filas de stock de una tienda (o de todas), más recientes primero.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "Tienda. Vacío = todas."
// @Success      200  {array}   dto.StockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	list, err := h.stocks.ListStocks(c.Context(), c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(list)
}

// Lookup godoc
// @Summary      Consultar stock de un par
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "Producto"
// @Param        store_id    query  string  true  "Tienda"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stocks/lookup [get]
func (h *StockHandler) Lookup(c *fiber.Ctx) error {
	res, err := h.stocks.GetStock(c.Context(), c.Query("product_id"), c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// Upsert godoc
// @Summary      Fijar stock de un par
// @Description  Ajuste manual: sobrescribe la cantidad (crea la fila si no existe). No genera movimiento.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.UpsertStockRequest  true  "product_id, store_id, quantity >= 0"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stocks [post]
func (h *StockHandler) Upsert(c *fiber.Ctx) error {
	var in dto.UpsertStockRequest
	if err := decodeStrict(c.Body(), &in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.stocks.UpsertStock(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// Update godoc
// @Summary      Fijar stock por id
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID de la fila de stock"
// @Param        body  body      dto.SetStockRequest  true  "quantity >= 0"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if err := decodeStrict(c.Body(), &in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.stocks.SetStockQuantity(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// Delete godoc
// @Summary      Eliminar fila de stock
// @Description  Solo admin. El libro de movimientos no se modifica.
// @Tags         stocks
// @Security     Bearer
// @Param        id   path  string  true  "ID de la fila de stock"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.stocks.DeleteStock(c.Context(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Alerts godoc
// @Summary      Alertas de stock bajo
// @Description  Productos en o bajo su umbral, con valor del stock y reposición sugerida, por urgencia.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "Tienda. Vacío = todas."
// @Success      200  {array}   dto.StockAlertDTO
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stocks/alerts [get]
func (h *StockHandler) Alerts(c *fiber.Ctx) error {
	list, err := h.alerts.ListAlerts(c.Context(), c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(list)
}

// Report godoc
// @Summary      Reporte PDF de stock
// @Tags         stocks
// @Security     Bearer
// @Produce      application/pdf
// @Param        store_id  query  string  false  "Tienda. Vacío = todas."
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stocks/report.pdf [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	out, err := h.reports.GenerateReport(c.Context(), c.Query("store_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="stock.pdf"`)
	return c.Send(out)
}
