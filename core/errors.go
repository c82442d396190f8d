package core

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// ErrInvalidParameter is the cause of every rejected query or request parameter.
var ErrInvalidParameter = errors.New("invalid parameter")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NewInvalidParameterError turns validator errors into an ErrInvalidParameter ValidationError,
// translating each field message.
func NewInvalidParameterError(err error, translator ut.Translator) error {
	var fields []FieldError
	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		fields = make([]FieldError, 0, len(vErrs))
		for _, vErr := range vErrs {
			msg := vErr.Error()
			if translator != nil {
				msg = vErr.Translate(translator)
			}
			fields = append(fields, FieldError{Field: vErr.Field(), Error: msg})
		}
	} else if fErr, ok := errors.Cause(err).(*ValidationError); ok {
		fields = fErr.Fields
	}
	return &ValidationError{Err: ErrInvalidParameter, Fields: fields}
}

func IsInvalidParameter(err error) bool {
	vErr, ok := errors.Cause(err).(*ValidationError)
	return ok && vErr.Err == ErrInvalidParameter
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
