// Package handler exposes HTTP handlers for both public and admin
// endpoints. This file defines the public read path: ticket/event
// display endpoints resolve markups and hospitality sets here without
// authentication. Resolution is read-only, so these routes are safe to
// cache and rate-limit at the middleware layer.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/pricing"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// PricingHandler aggregates the two resolution engines and the service
// catalog consumed by the public read endpoints.
type PricingHandler struct {
	Markup      *pricing.MarkupResolver
	Hospitality *pricing.HospitalityResolver
	ServiceRepo *repository.HospitalityServiceRepo
}

// NewPricingHandler constructs a PricingHandler and panics if any
// dependency is nil.
func NewPricingHandler(markup *pricing.MarkupResolver, hospitality *pricing.HospitalityResolver, services *repository.HospitalityServiceRepo) *PricingHandler {
	if markup == nil || hospitality == nil || services == nil {
		panic("nil dependency passed to NewPricingHandler")
	}
	return &PricingHandler{Markup: markup, Hospitality: hospitality, ServiceRepo: services}
}

// GetMarkup handles GET /v1/pricing/markup. It resolves the single
// effective markup for one ticket. A ticket with no applicable rule is
// answered with {"markup": null}, not an error: most tickets sell at
// face value.
func (h *PricingHandler) GetMarkup(c echo.Context) error {
	ancestry, msg := ancestryFromQuery(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	res, err := h.Markup.ResolveMarkup(c.Request().Context(), ancestry)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve markup"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ticket_id": ancestry.TicketID,
		"markup":    res,
	})
}

// GetEventMarkups handles GET /v1/events/:id/markups. It resolves
// markups for every requested ticket of one event with a constant
// number of queries, producing exactly the same per-ticket results as
// the single-ticket endpoint.
func (h *PricingHandler) GetEventMarkups(c echo.Context) error {
	ancestry, tickets, msg := eventAncestryFromRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	res, err := h.Markup.ResolveMarkupsForEvent(c.Request().Context(), ancestry, tickets)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve markups"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"event_id": ancestry.EventID,
		"markups":  res,
	})
}

// GetHospitality handles GET /v1/pricing/hospitality. It returns the
// full deduplicated set of hospitality services for one ticket, ordered
// for display. An empty list is a normal answer.
func (h *PricingHandler) GetHospitality(c echo.Context) error {
	ancestry, msg := ancestryFromQuery(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	recs, err := h.Hospitality.ResolveHospitalities(c.Request().Context(), ancestry)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve hospitality"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ticket_id":   ancestry.TicketID,
		"hospitality": recs,
	})
}

// GetEventHospitality handles GET /v1/events/:id/hospitality for a set
// of tickets. Dedup and precedence run per ticket; only the querying is
// shared.
func (h *PricingHandler) GetEventHospitality(c echo.Context) error {
	ancestry, tickets, msg := eventAncestryFromRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	res, err := h.Hospitality.ResolveHospitalitiesForEvent(c.Request().Context(), ancestry, tickets)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve hospitality"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"event_id":    ancestry.EventID,
		"hospitality": res,
	})
}

// GetPublicServices handles GET /v1/hospitality-services. It lists the
// active service catalog for storefront display, ordered by sort order
// then name.
func (h *PricingHandler) GetPublicServices(c echo.Context) error {
	services, err := h.ServiceRepo.List(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load services"})
	}
	type publicService struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		SortOrder   uint32 `json:"sort_order"`
	}
	out := make([]publicService, 0, len(services))
	for _, s := range services {
		out = append(out, publicService{ID: s.ID, Name: s.Name, Description: s.Description, SortOrder: s.SortOrder})
	}
	return c.JSON(http.StatusOK, out)
}
