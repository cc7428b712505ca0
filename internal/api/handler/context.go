package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/postly/postly-api/internal/api/middleware"
	"github.com/postly/postly-api/internal/core/domain"
)

// actor returns the principal the Auth middleware resolved, or nil.
func actor(c echo.Context) *domain.Principal {
	return middleware.PrincipalFrom(c)
}

// pathID parses a positive int64 path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// bind decodes the request body into req and runs the registered validator.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
