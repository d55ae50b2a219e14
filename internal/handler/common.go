package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/booking"
    "github.com/iliyamo/studio-booking/internal/model"
)

// BookingService is the slice of the booking engine the handlers need.
// The concrete *booking.Engine satisfies it; tests substitute a stub.
type BookingService interface {
    Book(ctx context.Context, classInstanceID, userID uint64) (*booking.BookResult, error)
    Cancel(ctx context.Context, bookingID, userID uint64) (*model.Booking, error)
    Promote(ctx context.Context, classInstanceID uint64) (*booking.PromoteResult, error)
    Availability(ctx context.Context, classInstanceID uint64) (*booking.Availability, error)
    WaitlistPosition(ctx context.Context, classInstanceID, userID uint64) (uint32, error)
    ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error)
    Waitlist(ctx context.Context, classInstanceID uint64) ([]model.Booking, error)
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// writeEngineError translates the engine's error taxonomy into an HTTP
// response.  Anything outside the taxonomy is a 500 with a generic
// message; the underlying error is left to the server logs.
func writeEngineError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, booking.ErrClassNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
    case errors.Is(err, booking.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, booking.ErrNotBookable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "class is not bookable"})
    case errors.Is(err, booking.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting booking"})
    case errors.Is(err, booking.ErrNoCredits):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "no usable credits"})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, booking.ErrSubscriptionConflict):
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "subscription state is inconsistent"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
