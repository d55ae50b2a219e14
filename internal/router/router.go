package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/studio-booking/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems use this endpoint to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated read endpoints.  The
// availability endpoint is safe for guests: it exposes only derived seat
// counts, never member data.  cacheMW is the redis response cache; pass
// nil middlewares when caching is disabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheMW echo.MiddlewareFunc) {
    if cacheMW != nil {
        e.GET("/v1/classes/:id/availability", p.Availability, cacheMW)
        return
    }
    e.GET("/v1/classes/:id/availability", p.Availability)
}
