// Package export exposes the export pipeline over HTTP
package export

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/rowsource"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/exporter"
	"github.com/Ramsey-B/fern/pkg/models"
)

// ExportRequest carries row batches keyed by entity name. When Sources is
// empty the configured row source directory is used instead.
type ExportRequest struct {
	Sources map[string][]models.Row `json:"sources"`
}

// Register registers export routes
func Register(g *echo.Group) {
	g.POST("/export", RunExport)
	g.POST("/export/validate", ValidateExport)
}

// RunExport executes a full export run and returns the frozen manifest
func RunExport(c echo.Context) error {
	ctx := c.Request().Context()

	sources, err := bindSources(c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*exporter.Exporter](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "exporter not available")
	}

	manifest, err := svc.Run(ctx, sources)
	stampRunID(c, manifest)
	if err != nil {
		if manifest != nil && manifest.State == models.RunStateAborted {
			// The aborted manifest is the useful payload; the fault is a
			// configuration problem in the caller's input
			return c.JSON(http.StatusUnprocessableEntity, manifest)
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, manifest)
}

// ValidateExport runs the pipeline in dry-run mode: full validation and ID
// assignment, no artifacts, no manifest file, no events
func ValidateExport(c echo.Context) error {
	ctx := c.Request().Context()

	sources, err := bindSources(c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*exporter.Exporter](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "exporter not available")
	}

	manifest, err := svc.DryRun(ctx, sources)
	stampRunID(c, manifest)
	if err != nil {
		if manifest != nil && manifest.State == models.RunStateAborted {
			return c.JSON(http.StatusUnprocessableEntity, manifest)
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, manifest)
}

// stampRunID attaches the run ID to the request context so the request log
// line can be correlated with the run
func stampRunID(c echo.Context, manifest *models.ExportManifest) {
	if manifest == nil || manifest.RunID == "" {
		return
	}
	ctx := context.SetRunID(c.Request().Context(), manifest.RunID)
	c.SetRequest(c.Request().WithContext(ctx))
}

func bindSources(c echo.Context) (map[string][]models.Row, error) {
	ctx := c.Request().Context()

	var req ExportRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if len(req.Sources) > 0 {
		return req.Sources, nil
	}

	ctx, loader, err := ectoinject.GetContext[*rowsource.Loader](ctx)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "row source loader not available")
	}
	sources, err := loader.Load(ctx)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return sources, nil
}
