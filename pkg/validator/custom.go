package validator

import (
	"safeher/internal/domain"

	"github.com/go-playground/validator/v10"
)

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("source", validateSource)
	validate.RegisterValidation("status", validateStatus)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

func validateSource(fl validator.FieldLevel) bool {
	return domain.Source(fl.Field().String()).Valid()
}

func validateStatus(fl validator.FieldLevel) bool {
	return domain.Status(fl.Field().String()).Valid()
}
