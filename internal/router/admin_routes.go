package router

import (
	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/handler"
	"github.com/arenaops/ticket-pricing/internal/middleware"
)

// RegisterAdmin registers the authenticated write surface under
// /v1/admin. All routes require a valid JWT with the ADMIN role; the
// group deliberately skips the response cache so admins always read
// their own writes.
func RegisterAdmin(e *echo.Echo, rules *handler.AdminRuleHandler, hosp *handler.AdminHospitalityHandler, legacy *handler.AdminLegacyHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Markup rules.
	g.POST("/markup-rules", rules.UpsertRule)
	g.POST("/markup-rules/batch", rules.BatchUpsertRules)
	g.GET("/markup-rules", rules.ListRules)
	g.GET("/markup-rules/:id", rules.GetRule)
	g.DELETE("/markup-rules/:id", rules.DeleteRule)

	// Hospitality service catalog.
	g.POST("/hospitality-services", hosp.CreateService)
	g.PATCH("/hospitality-services/:id", hosp.UpdateService)
	g.GET("/hospitality-services", hosp.ListServices)
	g.DELETE("/hospitality-services/:id", hosp.DeleteService)

	// Hospitality assignments.
	g.POST("/hospitality-assignments", hosp.UpsertAssignment)
	g.PUT("/hospitality-assignments/replace", hosp.ReplaceAssignments)
	g.GET("/hospitality-assignments", hosp.ListAssignments)
	g.DELETE("/hospitality-assignments/:id", hosp.DeleteAssignment)

	// Legacy flat tables, kept writable during the migration window.
	g.POST("/legacy/ticket-markups", legacy.UpsertTicketMarkup)
	g.DELETE("/legacy/ticket-markups", legacy.DeleteTicketMarkup)
	g.POST("/legacy/ticket-hospitality", legacy.UpsertTicketHospitality)
	g.DELETE("/legacy/ticket-hospitality", legacy.DeleteTicketHospitality)
}
