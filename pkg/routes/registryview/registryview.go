// Package registryview exposes the loaded export registry for inspection
package registryview

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/registry"
)

// Register registers registry inspection routes
func Register(g *echo.Group) {
	g.GET("/registry", GetRegistry)
	g.GET("/registry/entities/:name", GetEntity)
}

// GetRegistry returns the full registry document
func GetRegistry(c echo.Context) error {
	ctx := c.Request().Context()

	_, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "registry not available")
	}

	return c.JSON(http.StatusOK, reg.Document())
}

// GetEntity returns one entity declaration
func GetEntity(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	_, reg, err := ectoinject.GetContext[*registry.Registry](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "registry not available")
	}

	spec := reg.Entity(name)
	if spec == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "entity not found")
	}

	return c.JSON(http.StatusOK, spec)
}
