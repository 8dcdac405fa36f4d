package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"evalgo.org/graphapi/internal/logging"
)

// MIMEJSONAPI is the JSON:API media type.
const MIMEJSONAPI = "application/vnd.api+json"

// request body media types accepted on writes
var bodyTypes = map[string]bool{
	MIMEJSONAPI:              true,
	echo.MIMEApplicationJSON: true,
	"application/ld+json":    true,
}

// ValidateContentType middleware ensures that requests with a body have a JSON
// Content-Type. The JSON:API media type must not carry parameters.
func ValidateContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		method := c.Request().Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
			return next(c)
		}

		// Allow empty body for some requests
		if c.Request().ContentLength == 0 {
			return next(c)
		}

		contentType := c.Request().Header.Get(echo.HeaderContentType)
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil || !bodyTypes[mediaType] {
			return NewAPIError(http.StatusUnsupportedMediaType,
				"Invalid Content-Type",
				"Content-Type must be one of 'application/vnd.api+json', 'application/ld+json' or 'application/json'. Got: "+contentType,
			)
		}
		if mediaType == MIMEJSONAPI && len(params) > 0 {
			return NewAPIError(http.StatusUnsupportedMediaType,
				"Invalid Content-Type",
				"The JSON:API media type must not have parameters. Got: "+contentType,
			)
		}

		return next(c)
	}
}

// ValidateAcceptHeader middleware ensures that clients can accept JSON:API
// responses.
func ValidateAcceptHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accept := c.Request().Header.Get(echo.HeaderAccept)

		// If no Accept header, assume */*
		if accept == "" || acceptable(accept) {
			return next(c)
		}

		return NewAPIError(http.StatusNotAcceptable,
			"Invalid Accept header",
			"API only returns JSON:API documents. Accept header must include 'application/vnd.api+json', 'application/json' or '*/*'. Got: "+accept,
		)
	}
}

func acceptable(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "*/*", "application/*", echo.MIMEApplicationJSON:
			return true
		case MIMEJSONAPI:
			delete(params, "q")
			if len(params) == 0 {
				return true
			}
		}
	}
	return false
}

// ValidateIDFormat middleware validates that resource IDs follow expected patterns
func ValidateIDFormat(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		// If no ID param, skip validation
		if id == "" {
			return next(c)
		}

		if strings.ContainsAny(id, " \t\n") {
			return BadRequestError(
				"Invalid ID format",
				"ID cannot contain whitespace",
			)
		}

		if len(id) > 256 {
			return BadRequestError(
				"Invalid ID format",
				"ID must not exceed 256 characters",
			)
		}

		return next(c)
	}
}

// ValidateQueryParams middleware rejects malformed document query parameters.
func ValidateQueryParams(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := documentOptions(c, documentDefaults{}); err != nil {
			return err
		}
		return next(c)
	}
}

// SecurityHeaders middleware adds security headers to responses
func SecurityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("X-Content-Type-Options", "nosniff")
		c.Response().Header().Set("X-Frame-Options", "DENY")
		c.Response().Header().Set("X-XSS-Protection", "1; mode=block")
		c.Response().Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return next(c)
	}
}

// RequestLogger logs each request through the server logger and stores a
// request scoped logger in the request context.
func (s *Server) RequestLogger() echo.MiddlewareFunc {
	logged := middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := logging.FromContext(c.Request().Context())
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := logged(next)
		return func(c echo.Context) error {
			logger := s.logger
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				logger = logger.With("request_id", id)
			}
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), logger)))
			return h(c)
		}
	}
}
