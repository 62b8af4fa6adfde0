package inventory

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Reportar los campos con su nombre JSON (product_id, no ProductID).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct corre las etiquetas validate y traduce a *domain.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		fields := make(map[string]string, len(ves))
		for _, fe := range ves {
			fields[fe.Field()] = fe.Tag()
		}
		return &domain.ValidationError{Fields: fields}
	}
	return domain.NewValidationError("body", "invalid")
}

// canonicalMovementType normaliza el tipo recibido. El dashboard heredado envía
// "entrée"/"sortie"; se aceptan como alias de entry/exit.
func canonicalMovementType(raw string) string {
	s := norm.NFC.String(cases.Fold().String(strings.TrimSpace(raw)))
	switch s {
	case "entrée", "entree":
		return string(entity.MovementEntry)
	case "sortie":
		return string(entity.MovementExit)
	}
	return s
}
