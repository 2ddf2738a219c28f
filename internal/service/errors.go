package service

import (
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid             = errors.New("Invalid parameters")
	ErrNotAuthenticated         = errors.New("Not authenticated")
	ErrValidationFailed         = errors.New("Validation failed")
	ErrInvalidRecoveryDate      = errors.New("Invalid recovery date")
	ErrInvalidDate              = errors.New("Invalid date")
	ErrAggregationInconsistency = errors.New("Aggregation inconsistency")
	ErrBusy                     = errors.New("Another submission for this day is in progress, please retry")
	UnauthorizedError           = errors.New("Permission denied")
	UnExpectedError             = errors.New("Something went wrong, please try again later")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:             BadRequest,
	ErrNotAuthenticated:         Unauthorized,
	ErrValidationFailed:         BadRequest,
	ErrInvalidRecoveryDate:      BadRequest,
	ErrInvalidDate:              BadRequest,
	ErrAggregationInconsistency: InternalServerError,
	ErrBusy:                     BadRequest,
	UnauthorizedError:           Unauthorized,
	UnExpectedError:             InternalServerError,
}

// ValidationError 携带允许范围的校验错误，errors.Is 可匹配 ErrValidationFailed
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func newValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// CodeOf 返回错误对应的业务码
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}

// pluralize 输出 "N pushup" 或 "N pushups"
func pluralize(n int) string {
	if n == 1 {
		return "1 pushup"
	}
	return fmt.Sprintf("%d pushups", n)
}
