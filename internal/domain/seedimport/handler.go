package seedimport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dosecare/dosecare/internal/platform/auth"
)

type Handler struct {
	importer *Importer
}

func NewHandler(importer *Importer) *Handler {
	return &Handler{importer: importer}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/import-seed-data", h.ImportSeedData, auth.RequireRole("admin"))
}

type importResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Results *Results `json:"results"`
}

type importFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ImportSeedData runs the batch reconciler. Per-record failures land
// in results.errors with a 200; only a malformed body fails the whole
// request.
func (h *Handler) ImportSeedData(c echo.Context) error {
	var batch Batch
	if err := c.Bind(&batch); err != nil {
		return c.JSON(http.StatusInternalServerError, importFailure{Success: false, Error: err.Error()})
	}

	results := h.importer.Import(c.Request().Context(), &batch)

	return c.JSON(http.StatusOK, importResponse{
		Success: true,
		Message: "Seed data imported successfully",
		Results: results,
	})
}
