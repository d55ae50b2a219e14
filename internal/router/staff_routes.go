package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/handler"
    "github.com/iliyamo/studio-booking/internal/middleware"
)

// RegisterStaff registers studio-staff endpoints under /v1.  All routes
// require a valid JWT with the STAFF role.  Staff can inspect a class's
// waitlist and run promotion passes after raising a class's capacity –
// each freed seat admits at most one member, so the promote endpoint
// accepts a seat count and loops the pass.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("STAFF"),
    )
    g.POST("/classes/:id/promote", h.Promote)
    g.GET("/classes/:id/waitlist", h.Waitlist)
}
