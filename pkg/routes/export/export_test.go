package export

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestStampRunID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/export", nil), httptest.NewRecorder())

	t.Run("attaches the run ID to the request context", func(t *testing.T) {
		stampRunID(c, &models.ExportManifest{RunID: "run-42"})
		assert.Equal(t, "run-42", context.GetRunID(c.Request().Context()))
	})

	t.Run("ignores missing manifests", func(t *testing.T) {
		stampRunID(c, nil)
		stampRunID(c, &models.ExportManifest{})
		assert.Equal(t, "run-42", context.GetRunID(c.Request().Context()))
	})
}
