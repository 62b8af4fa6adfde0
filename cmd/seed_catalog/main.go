// seed_catalog carga tiendas y productos desde un XML de catálogo en PostgreSQL.
// El XML puede venir en UTF-8 o ISO-8859-1 (exportaciones del ERP de tiendas).
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual. Los ids ya existentes se omiten.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/multitienda-api/internal/infrastructure/catalog"
	"github.com/jhoicas/multitienda-api/internal/infrastructure/postgres"
	"github.com/jhoicas/multitienda-api/pkg/config"
)

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	cat, err := catalog.Load(xmlPath, time.Now().UTC())
	if err != nil {
		fail("Leer catálogo", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("Cargar configuración", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fail("Conectar a PostgreSQL", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		fail("Migrar esquema", err)
	}

	stores := postgres.NewStoreRepository(pool)
	products := postgres.NewProductRepository(pool)

	var nStores, nProducts int
	for _, st := range cat.Stores {
		existing, err := stores.GetByID(ctx, st.ID)
		if err != nil {
			fail("Consultar tienda "+st.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := stores.Create(ctx, st); err != nil {
			fail("Crear tienda "+st.ID, err)
		}
		nStores++
	}
	for _, prod := range cat.Products {
		existing, err := products.GetByID(ctx, prod.ID)
		if err != nil {
			fail("Consultar producto "+prod.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := products.Create(ctx, prod); err != nil {
			fail("Crear producto "+prod.ID, err)
		}
		nProducts++
	}

	fmt.Printf("Tiendas nuevas: %d de %d\n", nStores, len(cat.Stores))
	fmt.Printf("Productos nuevos: %d de %d\n", nProducts, len(cat.Products))
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
