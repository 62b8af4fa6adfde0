// devtoken firma un JWT de prueba para llamar a la API en local.
//
// Uso: go run ./cmd/devtoken -user u1 -role admin
// El secreto se toma de JWT_SECRET (misma configuración que la API).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/multitienda-api/pkg/config"
	"github.com/jhoicas/multitienda-api/pkg/jwt"
)

func main() {
	userID := flag.String("user", "dev-user", "user_id del token")
	role := flag.String("role", jwt.RoleEmployee, "rol: admin | employe")
	minutes := flag.Int("exp", 0, "minutos de validez (0 = JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if *role != jwt.RoleAdmin && *role != jwt.RoleEmployee {
		fmt.Fprintf(os.Stderr, "Rol desconocido: %q\n", *role)
		os.Exit(2)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Firmar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Bearer " + tok)
}
