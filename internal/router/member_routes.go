package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/handler"
    "github.com/iliyamo/studio-booking/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All
// routes require a valid JWT with the MEMBER role.  Members can book a
// class, cancel their own bookings, list their bookings and check their
// waitlist position.  The external authorization gate has already
// verified studio membership before these endpoints are reachable.
func RegisterMember(e *echo.Echo, h *handler.MemberHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("MEMBER"),
    )
    g.POST("/classes/:id/book", h.Book)
    g.DELETE("/bookings/:id", h.Cancel)
    g.GET("/my-bookings", h.ListBookings)
    g.GET("/classes/:id/waitlist/position", h.WaitlistPosition)
}
