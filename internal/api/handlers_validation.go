package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// validateResource handles POST /api/v1/validate/:type. It runs the same
// checks as a create without storing anything.
func (s *Server) validateResource(c echo.Context) error {
	kind := kinds[c.Param("type")]

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodySize))
	if err != nil {
		return BadRequestError("Failed to read request body", err.Error())
	}

	_, _, result := kind.decode(s.validator, body)
	if !result.Valid {
		return ValidationError("Validation failed", fieldErrors(result))
	}
	return c.JSON(http.StatusOK, result)
}
