package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// StockReport datos del reporte imprimible de stock.
type StockReport struct {
	Title       string
	StoreName   string // vacío = todas las tiendas
	GeneratedAt time.Time
	Lines       []StockReportLine
	TotalUnits  int64
	TotalValue  decimal.Decimal
	LowCount    int
}

// StockReportLine una fila de stock con datos del producto.
type StockReportLine struct {
	ProductName string
	Reference   string
	StoreID     string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Value       decimal.Decimal
	LowStock    bool
	UpdatedAt   time.Time
}

// ReportUseCase arma y genera el reporte de stock.
type ReportUseCase struct {
	stocks    repository.StockRepository
	products  repository.ProductReader
	stores    repository.StoreReader
	generator StockReportGenerator
	log       *logger.Logger
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso de reporte.
func NewReportUseCase(
	stocks repository.StockRepository,
	products repository.ProductReader,
	stores repository.StoreReader,
	generator StockReportGenerator,
	opts Options,
) *ReportUseCase {
	opts = opts.withDefaults()
	return &ReportUseCase{
		stocks:    stocks,
		products:  products,
		stores:    stores,
		generator: generator,
		log:       opts.Logger.Named("report"),
		now:       opts.Clock,
	}
}

// BuildReport reúne stock y catálogo. Un producto ausente del catálogo aparece con su id.
func (uc *ReportUseCase) BuildReport(ctx context.Context, storeID string) (*StockReport, error) {
	storeID = strings.TrimSpace(storeID)
	report := &StockReport{Title: "Reporte de stock", GeneratedAt: uc.now(), TotalValue: decimal.Zero}

	if storeID != "" {
		store, err := uc.stores.GetByID(ctx, storeID)
		if err != nil {
			return nil, classify("consultar tienda", err)
		}
		if store == nil {
			return nil, domain.ErrNotFound
		}
		report.StoreName = store.Name
	}

	stocks, err := uc.stocks.ListByStore(ctx, storeID)
	if err != nil {
		return nil, classify("listar stock", err)
	}

	ids := make([]string, 0, len(stocks))
	seen := make(map[string]struct{}, len(stocks))
	for _, s := range stocks {
		if _, ok := seen[s.ProductID]; ok {
			continue
		}
		seen[s.ProductID] = struct{}{}
		ids = append(ids, s.ProductID)
	}
	products, err := uc.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, classify("listar productos", err)
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, s := range stocks {
		line := StockReportLine{
			ProductName: s.ProductID,
			StoreID:     s.StoreID,
			Quantity:    s.Quantity,
			UnitPrice:   decimal.Zero,
			Value:       decimal.Zero,
			UpdatedAt:   s.UpdatedAt,
		}
		if p, ok := byID[s.ProductID]; ok {
			line.ProductName = p.Name
			line.Reference = p.Reference
			line.UnitPrice = p.UnitPrice
			line.Value = p.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
			line.LowStock = p.IsLowStock(s.Quantity)
		}
		if line.LowStock {
			report.LowCount++
		}
		report.TotalUnits += s.Quantity
		report.TotalValue = report.TotalValue.Add(line.Value)
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}

// GenerateReport construye el reporte y lo renderiza (PDF).
func (uc *ReportUseCase) GenerateReport(ctx context.Context, storeID string) ([]byte, error) {
	report, err := uc.BuildReport(ctx, storeID)
	if err != nil {
		return nil, err
	}
	out, err := uc.generator.GenerateStockReport(ctx, report)
	if err != nil {
		uc.log.Error().Err(err).Str("store_id", storeID).Msg("error generando reporte")
		return nil, err
	}
	return out, nil
}
