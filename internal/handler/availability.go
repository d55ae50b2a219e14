package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// PublicHandler exposes unauthenticated read endpoints.  Guests can
// check a class's seat availability before signing in; the route sits
// behind the redis response cache with a short TTL since the numbers
// shift with every booking.
type PublicHandler struct {
    Svc BookingService
}

// NewPublicHandler constructs a PublicHandler.  The service must be non-nil.
func NewPublicHandler(svc BookingService) *PublicHandler {
    if svc == nil {
        panic("nil service passed to NewPublicHandler")
    }
    return &PublicHandler{Svc: svc}
}

// Availability handles GET /v1/classes/:id/availability.  Seat counts
// are derived from booking rows on every request; there is no cached
// seat counter to drift.
func (h *PublicHandler) Availability(c echo.Context) error {
    classID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
    }
    av, err := h.Svc.Availability(c.Request().Context(), classID)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": av})
}
