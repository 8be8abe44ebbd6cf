package handler

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-checkin/internal/middleware"
    "github.com/iliyamo/event-checkin/internal/service"
)

// CheckinService is the part of the check-in pipeline the HTTP layer uses.
type CheckinService interface {
    CheckIn(ctx context.Context, id string) (service.Summary, error)
    BulkSetCheckedIn(ctx context.Context, value bool) (service.BulkResult, error)
    DeleteAll(ctx context.Context) (int64, error)
    Generate(ctx context.Context, entries []service.Entry) ([]service.Record, error)
    FindBySeat(ctx context.Context, seat string) (service.Summary, error)
    Stats(ctx context.Context) (service.Stats, error)
}

// ParticipantHandler serves the /participants endpoints.
type ParticipantHandler struct {
    Svc CheckinService
}

func NewParticipantHandler(svc CheckinService) *ParticipantHandler {
    if svc == nil {
        panic("nil dependency passed to NewParticipantHandler")
    }
    return &ParticipantHandler{Svc: svc}
}

type checkinReq struct {
    ID string `json:"id"`
}

// Generate creates participants from a JSON array of entries and returns
// them with their QR payloads.
func (h *ParticipantHandler) Generate(c echo.Context) error {
    var entries []service.Entry
    if err := c.Bind(&entries); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body: expected an array of participants"})
    }
    if len(entries) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "no participants"})
    }

    // Batches can be large; QR rendering dominates.
    ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
    defer cancel()

    recs, err := h.Svc.Generate(ctx, entries)
    if err != nil {
        if errors.Is(err, service.ErrInvalidInput) {
            return c.JSON(http.StatusBadRequest, echo.Map{"message": "every participant needs an id"})
        }
        var gerr *service.GenerateError
        if errors.As(err, &gerr) {
            return c.JSON(http.StatusInternalServerError, echo.Map{
                "message":      "Error generating QR",
                "createdCount": len(gerr.Created),
            })
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error generating QR"})
    }
    return c.JSON(http.StatusOK, recs)
}

// CheckIn handles a scanned QR code.
func (h *ParticipantHandler) CheckIn(c echo.Context) error {
    var req checkinReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
    }
    if strings.TrimSpace(req.ID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    ctx = service.WithOperator(ctx, middleware.UserID(c))

    sum, err := h.Svc.CheckIn(ctx, req.ID)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, echo.Map{"message": "Check-in successful", "participant": sum})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Invalid QR"})
    case errors.Is(err, service.ErrAlreadyCheckedIn):
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Already checked in"})
    case errors.Is(err, service.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "id required"})
    default:
        slog.Error("check-in failed", "participant_id", req.ID, "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Check-in error"})
    }
}

// Stats returns the attendance snapshot.
func (h *ParticipantHandler) Stats(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    st, err := h.Svc.Stats(ctx)
    if err != nil {
        slog.Error("stats failed", "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Stats error"})
    }
    return c.JSON(http.StatusOK, st)
}

// FindBySeat looks a participant up by the :key route parameter.
func (h *ParticipantHandler) FindBySeat(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sum, err := h.Svc.FindBySeat(ctx, c.Param("key"))
    if err != nil {
        if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidInput) {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Không tìm thấy người tham gia với số ghế này"})
        }
        slog.Error("seat lookup failed", "seat", c.Param("key"), "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Lỗi khi tìm kiếm theo số ghế"})
    }
    return c.JSON(http.StatusOK, sum)
}

// DeleteAll removes every participant.
func (h *ParticipantHandler) DeleteAll(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    n, err := h.Svc.DeleteAll(ctx)
    if err != nil {
        slog.Error("delete all failed", "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Lỗi khi xóa tất cả đại biểu"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Đã xóa tất cả đại biểu", "deletedCount": n})
}

// SetAllCheckedIn handles /checkin/all/:value where value is true or false.
func (h *ParticipantHandler) SetAllCheckedIn(c echo.Context) error {
    var value bool
    switch c.Param("value") {
    case "true":
        value = true
    case "false":
        value = false
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "value must be true or false"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    res, err := h.Svc.BulkSetCheckedIn(ctx, value)
    if err != nil {
        slog.Error("bulk check-in failed", "value", value, "error", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Lỗi khi đặt tất cả check-in = " + c.Param("value")})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message":       "Đã đặt tất cả check-in = " + c.Param("value"),
        "matchedCount":  res.Matched,
        "modifiedCount": res.Modified,
    })
}
