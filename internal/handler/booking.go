package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/model"
)

// MemberHandler serves the member-facing booking endpoints.  JWT
// authentication and role validation have already run in middleware;
// methods return 401 only when the user ID cannot be extracted from the
// context.
type MemberHandler struct {
    Svc BookingService
}

// NewMemberHandler constructs a MemberHandler.  The service must be non-nil.
func NewMemberHandler(svc BookingService) *MemberHandler {
    if svc == nil {
        panic("nil service passed to NewMemberHandler")
    }
    return &MemberHandler{Svc: svc}
}

// bookingView is the JSON shape returned for a member's booking.
type bookingView struct {
    ID               uint64              `json:"id"`
    ClassInstanceID  uint64              `json:"class_instance_id"`
    Status           model.BookingStatus `json:"status"`
    WaitlistPosition *uint32             `json:"waitlist_position,omitempty"`
    CreditSource     model.CreditSource  `json:"credit_source,omitempty"`
    BookedAt         *string             `json:"booked_at,omitempty"`
    CancelledAt      *string             `json:"cancelled_at,omitempty"`
    CreatedAt        string              `json:"created_at"`
}

func toBookingView(b *model.Booking) bookingView {
    v := bookingView{
        ID:               b.ID,
        ClassInstanceID:  b.ClassInstanceID,
        Status:           b.Status,
        WaitlistPosition: b.WaitlistPosition,
        CreditSource:     b.CreditSource,
        CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
    }
    if b.BookedAt != nil {
        s := b.BookedAt.UTC().Format(time.RFC3339)
        v.BookedAt = &s
    }
    if b.CancelledAt != nil {
        s := b.CancelledAt.UTC().Format(time.RFC3339)
        v.CancelledAt = &s
    }
    return v
}

// Book handles POST /v1/classes/:id/book.  It admits the member into the
// class or appends them to the waitlist when the class is full.  The
// response reports which outcome happened: 201 with status "booked" and
// the credit source that paid for the seat, or 201 with status
// "waitlisted" and the assigned queue position.
func (h *MemberHandler) Book(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    classID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
    }
    res, err := h.Svc.Book(c.Request().Context(), classID, userID)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// Cancel handles DELETE /v1/bookings/:id.  Members may only cancel their
// own bookings; cancelling frees the seat, refunds the credit once and
// triggers a waitlist promotion pass.  Returns the cancelled booking.
func (h *MemberHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Svc.Cancel(c.Request().Context(), bookingID, userID)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": toBookingView(b)})
}

// ListBookings handles GET /v1/my-bookings.  It returns the member's
// bookings newest first; an empty array when none exist.
func (h *MemberHandler) ListBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Svc.ListBookings(c.Request().Context(), userID)
    if err != nil {
        return writeEngineError(c, err)
    }
    views := make([]bookingView, 0, len(items))
    for i := range items {
        views = append(views, toBookingView(&items[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// WaitlistPosition handles GET /v1/classes/:id/waitlist/position.  It
// returns the member's 1-based queue position, or waitlisted=false when
// the member is not on the queue.
func (h *MemberHandler) WaitlistPosition(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    classID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
    }
    pos, err := h.Svc.WaitlistPosition(c.Request().Context(), classID, userID)
    if err != nil {
        return writeEngineError(c, err)
    }
    if pos == 0 {
        return c.JSON(http.StatusOK, echo.Map{"waitlisted": false})
    }
    return c.JSON(http.StatusOK, echo.Map{"waitlisted": true, "position": pos})
}

// StaffHandler serves studio-staff endpoints for waitlist management.
type StaffHandler struct {
    Svc BookingService
}

// NewStaffHandler constructs a StaffHandler.  The service must be non-nil.
func NewStaffHandler(svc BookingService) *StaffHandler {
    if svc == nil {
        panic("nil service passed to NewStaffHandler")
    }
    return &StaffHandler{Svc: svc}
}

// Promote handles POST /v1/classes/:id/promote.  Staff invoke it after
// raising a class's capacity; each freed seat needs one promotion pass,
// so the optional body {"seats": n} runs the pass n times (default 1,
// capped at 50).  The response lists the promotions that happened; the
// loop stops early once a pass promotes nobody.
func (h *StaffHandler) Promote(c echo.Context) error {
    classID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
    }
    var body struct {
        Seats int `json:"seats"`
    }
    if err := c.Bind(&body); err != nil && c.Request().ContentLength > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    seats := body.Seats
    if seats <= 0 {
        seats = 1
    }
    if seats > 50 {
        seats = 50
    }
    promoted := make([]any, 0, seats)
    for i := 0; i < seats; i++ {
        res, err := h.Svc.Promote(c.Request().Context(), classID)
        if err != nil {
            return writeEngineError(c, err)
        }
        if !res.Promoted {
            break
        }
        promoted = append(promoted, res)
    }
    return c.JSON(http.StatusOK, echo.Map{"promoted": promoted})
}

// Waitlist handles GET /v1/classes/:id/waitlist.  It returns the queue
// in admission order for staff review.
func (h *StaffHandler) Waitlist(c echo.Context) error {
    classID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
    }
    items, err := h.Svc.Waitlist(c.Request().Context(), classID)
    if err != nil {
        return writeEngineError(c, err)
    }
    type entry struct {
        BookingID uint64  `json:"booking_id"`
        UserID    uint64  `json:"user_id"`
        Position  *uint32 `json:"position"`
    }
    out := make([]entry, 0, len(items))
    for _, b := range items {
        out = append(out, entry{BookingID: b.ID, UserID: b.UserID, Position: b.WaitlistPosition})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
