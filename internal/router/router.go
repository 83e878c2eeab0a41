package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/heracore/backend/api/handler"
)

type Handlers struct {
	Procedure    *apiHandler.ProcedureHandler
	Organization *apiHandler.OrganizationHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Tenant bootstrap
	r.POST("/api/v1/organizations", authMiddleware(handlers.Organization.Create))
	r.GET("/api/v1/organizations/{id}", authMiddleware(handlers.Organization.Get))
	r.GET("/api/v1/organizations/{id}/transactions/{txn}", authMiddleware(handlers.Organization.GetTransaction))

	// Everything else goes through the universal procedure entry point
	r.POST("/api/v1/procedures/invoke", authMiddleware(handlers.Procedure.Invoke))

	return r
}
