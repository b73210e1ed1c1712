package httperr

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error is a user-facing failure with a fixed response shape: scalar errors
// render as {"message": ...}, per-field errors render as {field: message}.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	for field, message := range e.Fields {
		return field + ": " + message
	}

	return http.StatusText(e.Status)
}

func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func NotFound() *Error {
	return &Error{Status: http.StatusNotFound, Message: "The requested resource not found"}
}

func Unprocessable(field, message string) *Error {
	return &Error{
		Status: http.StatusUnprocessableEntity,
		Fields: map[string]string{field: message},
	}
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func PayloadTooLarge(message string) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Message: message}
}

func UnsupportedMedia(message string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Message: message}
}

func Internal() *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong. Please contact the administrator",
	}
}

// Render writes err to the response. *Error values keep their status and
// shape. Anything unexpected is logged server-side and reported as a
// generic 500 without detail.
func Render(ctx *gin.Context, err error) {
	var apiErr *Error

	if errors.As(err, &apiErr) {
		if len(apiErr.Fields) > 0 {
			ctx.JSON(apiErr.Status, apiErr.Fields)
			return
		}

		ctx.JSON(apiErr.Status, gin.H{"message": apiErr.Message})
		return
	}

	slog.Error("unhandled error", "error", err, "path", ctx.FullPath())
	ctx.JSON(http.StatusInternalServerError, gin.H{"message": Internal().Message})
}

// RenderBinding translates a request-binding failure: validator errors
// become a 422 field map, anything else (malformed JSON, wrong types) a 400.
func RenderBinding(ctx *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors

	if errors.As(err, &fieldErrs) {
		ctx.JSON(http.StatusUnprocessableEntity, FieldMap(fieldErrs))
		return
	}

	ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
}

// FieldMap flattens validator errors into {field: message} keyed by the
// json field name.
func FieldMap(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))

	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}

	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	default:
		return "Invalid value"
	}
}
