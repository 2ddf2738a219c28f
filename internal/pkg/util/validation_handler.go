package util

import (
	"Purng/internal/service"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateDTO 按 validate 标签校验，返回首个失败字段
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			return &service.ValidationError{
				Message: fmt.Sprintf("Field [%s] failed validation rule [%s]", firstError.Field(), firstError.Tag()),
			}
		}
		return service.ErrParamInvalid
	}
	return nil
}
