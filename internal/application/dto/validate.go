package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator instancia compartida con las validaciones de decimales registradas.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("dgt0", decimalPositive)
		_ = validate.RegisterValidation("dgte0", decimalNonNegative)
		_ = validate.RegisterValidation("dlte100", decimalAtMostHundred)

		// Nombres de campo según el tag json
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate valida el comando y convierte el primer fallo en *domain.ValidationError.
func Validate(cmd any) error {
	err := Validator().Struct(cmd)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.ValidationError{Field: fieldPath(fe), Reason: reason(fe)}
	}
	return &domain.ValidationError{Reason: err.Error()}
}

// fieldPath ruta sin el nombre del struct raíz: "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "requerido"
	case "dgt0":
		return "debe ser mayor que cero"
	case "dgte0":
		return "no puede ser negativo"
	case "dlte100":
		return "no puede ser mayor que 100"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "email":
		return "correo inválido"
	}
	return fmt.Sprintf("no cumple %s", fe.Tag())
}

func decimalPositive(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}

func decimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative()
}

var hundred = decimal.NewFromInt(100)

func decimalAtMostHundred(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.LessThanOrEqual(hundred)
}
