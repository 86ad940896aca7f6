package dosing

import (
	"errors"
	"fmt"
	"net/http"

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

// RegisterActionRoute mounts the public notification action endpoint.
// The single-use token is the credential, so no auth middleware here.
func (h *Handler) RegisterActionRoute(e *echo.Echo) {
	e.POST("/intake-action/:action", h.ProcessAction)
	e.OPTIONS("/intake-action/:action", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "clinic_staff"))
	g.POST("/schedules", h.CreateSchedule)
	g.GET("/schedules/:id", h.GetSchedule)
	g.PUT("/schedules/:id", h.UpdateSchedule)
	g.DELETE("/schedules/:id", h.DeleteSchedule)
	g.GET("/patients/:id/schedules", h.ListSchedules)
	g.POST("/dose-plans", h.CreateDosePlan)
	g.GET("/dose-plans/:id", h.GetDosePlan)
	g.GET("/schedules/:id/dose-plans", h.ListDosePlans)
	g.GET("/dose-plans/:id/intakes", h.ListIntakes)
	g.POST("/dose-plans/:id/tokens", h.CreateActionToken)
}

type actionRequest struct {
	ActionToken   string `json:"actionToken"`
	DosePlanID    string `json:"dosePlanId"`
	SnoozeMinutes int    `json:"snoozeMinutes"`
}

type actionResponse struct {
	Success    bool      `json:"success"`
	Action     string    `json:"action"`
	DosePlanID uuid.UUID `json:"dosePlanId"`
	Message    string    `json:"message"`
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func (h *Handler) ProcessAction(c echo.Context) error {
	action := c.Param("action")

	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	dosePlanID, err := uuid.Parse(req.DosePlanID)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "Invalid or expired action token")
	}

	result, err := h.svc.ProcessAction(c.Request().Context(), action, req.ActionToken, dosePlanID, req.SnoozeMinutes)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAction):
			return errorJSON(c, http.StatusBadRequest, "Invalid action")
		case errors.Is(err, ErrInvalidToken):
			return errorJSON(c, http.StatusUnauthorized, "Invalid or expired action token")
		case errors.Is(err, ErrTokenExpired):
			return errorJSON(c, http.StatusUnauthorized, "Action token has expired")
		case errors.Is(err, ErrDosePlanNotFound):
			return errorJSON(c, http.StatusNotFound, "Dose plan not found")
		case errors.Is(err, ErrIntakeWriteFailed):
			return errorJSON(c, http.StatusInternalServerError, "Failed to record intake")
		default:
			return errorJSON(c, http.StatusInternalServerError, "Internal server error")
		}
	}

	return c.JSON(http.StatusOK, actionResponse{
		Success:    true,
		Action:     result.Action,
		DosePlanID: result.DosePlanID,
		Message:    fmt.Sprintf("Medication %s recorded successfully", result.Action),
	})
}

func (h *Handler) CreateSchedule(c echo.Context) error {
	var sch Schedule
	if err := c.Bind(&sch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSchedule(c.Request().Context(), &sch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sch)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sch, err := h.svc.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule not found")
	}
	return c.JSON(http.StatusOK, sch)
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var sch Schedule
	if err := c.Bind(&sch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sch.ID = id
	if err := h.svc.UpdateSchedule(c.Request().Context(), &sch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sch)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSchedule(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSchedules(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateDosePlan(c echo.Context) error {
	var p DosePlan
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDosePlan(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetDosePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetDosePlan(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "dose plan not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListDosePlans(c echo.Context) error {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDosePlans(c.Request().Context(), scheduleID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListIntakes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListIntakes(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type tokenRequest struct {
	Type TokenType `json:"type"`
}

func (h *Handler) CreateActionToken(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Type == "" {
		req.Type = TokenConfirmIntake
	}
	t, err := h.svc.CreateActionToken(c.Request().Context(), id, req.Type)
	if err != nil {
		if errors.Is(err, ErrDosePlanNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dose plan not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}
