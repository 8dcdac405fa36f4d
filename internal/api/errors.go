package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/graphapi/internal/logging"
)

// APIError represents a structured API error with HTTP status code.
type APIError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	FieldError map[string]string      `json:"field_errors,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`

	// Parameter names the query parameter that caused the error.
	Parameter string `json:"-"`
}

// ErrorSource points at the part of the request that caused an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorObject is a single JSON:API error object.
type ErrorObject struct {
	Status string                 `json:"status"`
	Title  string                 `json:"title"`
	Detail string                 `json:"detail,omitempty"`
	Source *ErrorSource           `json:"source,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// ErrorDocument is the top-level document of an error response.
type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Objects renders e as JSON:API error objects. A validation error yields one
// object per field, ordered by field name.
func (e *APIError) Objects() []ErrorObject {
	status := strconv.Itoa(e.Code)
	if len(e.FieldError) == 0 {
		obj := ErrorObject{Status: status, Title: e.Message, Detail: e.Details, Meta: e.Context}
		if e.Parameter != "" {
			obj.Source = &ErrorSource{Parameter: e.Parameter}
		}
		return []ErrorObject{obj}
	}

	fields := make([]string, 0, len(e.FieldError))
	for f := range e.FieldError {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	objs := make([]ErrorObject, 0, len(fields))
	for _, f := range fields {
		objs = append(objs, ErrorObject{
			Status: status,
			Title:  e.Message,
			Detail: e.FieldError[f],
			Source: &ErrorSource{Pointer: pointer(f)},
		})
	}
	return objs
}

// pointer turns a field path such as "ports[0].hostPort" into the JSON
// pointer "/ports/0/hostPort".
func pointer(field string) string {
	r := strings.NewReplacer("~", "~0", "/", "~1", "[", "/", "]", "", ".", "/")
	return "/" + r.Replace(field)
}

// NewAPIError creates a new API error.
func NewAPIError(code int, message string, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func BadRequestError(message, details string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, details)
}

// ParameterError reports an invalid query parameter.
func ParameterError(parameter, details string) *APIError {
	return &APIError{
		Code:      http.StatusBadRequest,
		Message:   "Invalid query parameter",
		Details:   details,
		Parameter: parameter,
	}
}

func NotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Context: map[string]interface{}{"id": id},
	}
}

func ValidationError(message string, fieldErrors map[string]string) *APIError {
	return &APIError{
		Code:       http.StatusUnprocessableEntity,
		Message:    message,
		FieldError: fieldErrors,
	}
}

func InternalError(message, details string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message, details)
}

func ConflictError(message, details string) *APIError {
	return NewAPIError(http.StatusConflict, message, details)
}

// HTTPErrorHandler renders every error as a JSON:API error document.
func HTTPErrorHandler(err error, c echo.Context) {
	// Don't send response if already sent
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		apiErr = &APIError{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			Details:    apiErr.Details,
			FieldError: apiErr.FieldError,
			Context:    apiErr.Context,
			Parameter:  apiErr.Parameter,
		}
	case errors.As(err, &he):
		apiErr = &APIError{
			Code:    he.Code,
			Message: getHTTPMessage(he.Code),
			Details: fmt.Sprintf("%v", he.Message),
		}
	default:
		apiErr = &APIError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			Details: err.Error(),
		}
	}

	if apiErr.Code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request failed",
			"status", apiErr.Code, "error", err)
		// Don't expose internal errors in production
		if !c.Echo().Debug {
			apiErr.Details = "An internal error occurred. Please try again later."
		}
	}

	body, mErr := json.Marshal(ErrorDocument{Errors: apiErr.Objects()})
	if mErr != nil {
		c.Logger().Error(mErr)
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Code)
		return
	}
	if err := c.Blob(apiErr.Code, MIMEJSONAPI, body); err != nil {
		c.Logger().Error(err)
	}
}

// getHTTPMessage returns a user-friendly message for HTTP status codes.
func getHTTPMessage(code int) string {
	messages := map[int]string{
		http.StatusBadRequest:           "Bad request",
		http.StatusUnauthorized:         "Unauthorized",
		http.StatusForbidden:            "Forbidden",
		http.StatusNotFound:             "Resource not found",
		http.StatusMethodNotAllowed:     "Method not allowed",
		http.StatusNotAcceptable:        "Not acceptable",
		http.StatusConflict:             "Conflict",
		http.StatusUnsupportedMediaType: "Unsupported media type",
		http.StatusUnprocessableEntity:  "Unprocessable entity",
		http.StatusTooManyRequests:      "Too many requests",
		http.StatusInternalServerError:  "Internal server error",
		http.StatusBadGateway:           "Bad gateway",
		http.StatusServiceUnavailable:   "Service unavailable",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return http.StatusText(code)
}
