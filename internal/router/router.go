package router // package router defines how HTTP routes are registered for the operator API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/jamesdwilson/byteball-merchant/internal/handler"    // handlers that implement the operator endpoints
	"github.com/jamesdwilson/byteball-merchant/internal/middleware" // middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers or monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterOps registers the operator API.  Token issuance lives under
// /v1/auth; everything else under /v1 requires a valid OPERATOR token.
func RegisterOps(e *echo.Echo, a *handler.AuthHandler, o *handler.OrdersHandler, jwtSecret string) {
	e.POST("/v1/auth/token", a.Token)

	ops := e.Group("/v1")
	ops.Use(middleware.JWTAuth(jwtSecret))
	ops.Use(middleware.RequireRole("OPERATOR"))
	ops.GET("/orders", o.List)
	ops.GET("/wallet", o.Wallet)
}
