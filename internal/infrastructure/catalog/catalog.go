// Package catalog decodifica el XML de catálogo (tiendas y productos) que exporta
// el ERP de tiendas. Acepta UTF-8 o ISO-8859-1.
package catalog

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
)

// Catalog tiendas y productos listos para persistir.
type Catalog struct {
	Stores   []*entity.Store
	Products []*entity.Product
}

type catalogo struct {
	Tiendas   []tienda   `xml:"tiendas>tienda"`
	Productos []producto `xml:"productos>producto"`
}

type tienda struct {
	ID        string  `xml:"id,attr"`
	Nombre    string  `xml:"nombre,attr"`
	Direccion string  `xml:"direccion,attr"`
	Latitud   float64 `xml:"lat,attr"`
	Longitud  float64 `xml:"lng,attr"`
}

type producto struct {
	ID         string `xml:"id,attr"`
	Nombre     string `xml:"nombre,attr"`
	Referencia string `xml:"referencia,attr"`
	Categoria  string `xml:"categoria,attr"`
	Precio     string `xml:"precio,attr"`
	Umbral     int64  `xml:"umbral,attr"`
}

// Load abre y decodifica el archivo en path.
func Load(path string, now time.Time) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return Decode(f, now)
}

// Decode lee el XML. Las entradas sin id o nombre (o productos sin referencia) se omiten;
// un precio o umbral inválido es error.
func Decode(r io.Reader, now time.Time) (*Catalog, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	out := &Catalog{}
	for _, t := range c.Tiendas {
		st := t.entity(now)
		if st.ID == "" || st.Name == "" {
			continue
		}
		out.Stores = append(out.Stores, st)
	}
	for _, p := range c.Productos {
		prod, err := p.entity(now)
		if err != nil {
			return nil, fmt.Errorf("producto %s: %w", p.ID, err)
		}
		if prod.ID == "" || prod.Name == "" || prod.Reference == "" {
			continue
		}
		out.Products = append(out.Products, prod)
	}
	return out, nil
}

func (t tienda) entity(now time.Time) *entity.Store {
	return &entity.Store{
		ID:        strings.TrimSpace(t.ID),
		Name:      strings.TrimSpace(t.Nombre),
		Address:   strings.TrimSpace(t.Direccion),
		Latitude:  t.Latitud,
		Longitude: t.Longitud,
		CreatedAt: now,
	}
}

func (p producto) entity(now time.Time) (*entity.Product, error) {
	price := decimal.Zero
	if raw := strings.TrimSpace(p.Precio); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("precio %q: %w", raw, err)
		}
		price = d
	}
	if p.Umbral < 0 {
		return nil, fmt.Errorf("umbral negativo: %d", p.Umbral)
	}
	return &entity.Product{
		ID:             strings.TrimSpace(p.ID),
		Name:           strings.TrimSpace(p.Nombre),
		Reference:      strings.TrimSpace(p.Referencia),
		Category:       strings.TrimSpace(p.Categoria),
		UnitPrice:      price,
		AlertThreshold: p.Umbral,
		CreatedAt:      now,
	}, nil
}
