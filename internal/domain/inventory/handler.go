package inventory

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dosecare/dosecare/internal/platform/auth"
	"github.com/dosecare/dosecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "clinic_staff"))
	g.GET("/inventory/lots", h.ListLots)
	g.GET("/inventory/lots/expiring", h.ListExpiring)
	g.GET("/inventory/lots/:id", h.GetLot)
	g.POST("/inventory/lots", h.CreateLot)
	g.DELETE("/inventory/lots/:id", h.DeleteLot)
	g.GET("/inventory/lots/:id/txns", h.ListTxns)
	g.POST("/inventory/lots/:id/txns", h.RecordMovement)
}

func (h *Handler) CreateLot(c echo.Context) error {
	var lot Lot
	if err := c.Bind(&lot); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLot(c.Request().Context(), &lot); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, lot)
}

func (h *Handler) GetLot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	lot, err := h.svc.GetLot(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lot not found")
	}
	return c.JSON(http.StatusOK, lot)
}

func (h *Handler) ListLots(c echo.Context) error {
	pg := pagination.FromContext(c)
	ownerType := OwnerType(c.QueryParam("owner_type"))
	if ownerType != OwnerClinic && ownerType != OwnerPatient {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_type must be clinic or patient")
	}
	ownerID, err := uuid.Parse(c.QueryParam("owner_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id")
	}
	items, total, err := h.svc.ListLotsByOwner(c.Request().Context(), ownerType, ownerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListExpiring(c echo.Context) error {
	pg := pagination.FromContext(c)
	within := 30 * 24 * time.Hour
	if raw := c.QueryParam("within"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid within duration")
		}
		within = d
	}
	items, total, err := h.svc.ListExpiring(c.Request().Context(), within, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteLot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteLot(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTxns(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListTxns(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type movementRequest struct {
	Delta        int        `json:"delta"`
	Reason       TxnReason  `json:"reason"`
	DoseIntakeID *uuid.UUID `json:"dose_intake_id,omitempty"`
}

func (h *Handler) RecordMovement(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req movementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	txn, err := h.svc.RecordMovement(c.Request().Context(), id, req.Delta, req.Reason, req.DoseIntakeID)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, txn)
}
