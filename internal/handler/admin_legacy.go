package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/queue"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// AdminLegacyHandler exposes writes to the flat pre-hierarchy tables.
// These endpoints exist for the migration window only: storefront
// tooling that has not moved to scoped rules keeps writing here, and
// resolution gives these rows precedence at ticket level.
type AdminLegacyHandler struct {
	Legacy   *repository.LegacyRepo
	Services *repository.HospitalityServiceRepo
}

// NewAdminLegacyHandler constructs the handler and panics if any
// dependency is nil.
func NewAdminLegacyHandler(legacy *repository.LegacyRepo, services *repository.HospitalityServiceRepo) *AdminLegacyHandler {
	if legacy == nil || services == nil {
		panic("nil dependency passed to NewAdminLegacyHandler")
	}
	return &AdminLegacyHandler{Legacy: legacy, Services: services}
}

// UpsertTicketMarkup handles POST /v1/admin/legacy/ticket-markups.
func (h *AdminLegacyHandler) UpsertTicketMarkup(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p struct {
		EventID      string  `json:"event_id"`
		TicketID     string  `json:"ticket_id"`
		MarkupType   string  `json:"markup_type"`
		MarkupAmount float64 `json:"markup_amount"`
	}
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	p.EventID = strings.TrimSpace(p.EventID)
	p.TicketID = strings.TrimSpace(p.TicketID)
	switch {
	case p.EventID == "":
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_id is required"})
	case p.TicketID == "":
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ticket_id is required"})
	case p.MarkupType != model.MarkupFixed && p.MarkupType != model.MarkupPercentage:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "markup_type must be FIXED or PERCENTAGE"})
	case p.MarkupAmount < 0:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "markup_amount must not be negative"})
	}
	m := &model.LegacyTicketMarkup{
		EventID:      p.EventID,
		TicketID:     p.TicketID,
		MarkupType:   p.MarkupType,
		MarkupAmount: p.MarkupAmount,
	}
	if err := h.Legacy.UpsertTicketMarkup(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save legacy markup"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityLegacyMarkup,
		Action:   queue.ActionUpserted,
		EntityID: m.ID,
		EventID:  m.EventID,
		TicketID: m.TicketID,
		Level:    model.LevelTicket.String(),
		ActorID:  actorID,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"id":            m.ID,
		"event_id":      m.EventID,
		"ticket_id":     m.TicketID,
		"markup_type":   m.MarkupType,
		"markup_amount": m.MarkupAmount,
	})
}

// DeleteTicketMarkup handles DELETE /v1/admin/legacy/ticket-markups.
// The row is addressed by event_id and ticket_id query parameters.
func (h *AdminLegacyHandler) DeleteTicketMarkup(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	eventID := strings.TrimSpace(c.QueryParam("event"))
	ticketID := strings.TrimSpace(c.QueryParam("ticket"))
	if eventID == "" || ticketID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event and ticket are required"})
	}
	if err := h.Legacy.DeleteTicketMarkup(c.Request().Context(), eventID, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "legacy markup not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete legacy markup"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityLegacyMarkup,
		Action:   queue.ActionDeleted,
		EventID:  eventID,
		TicketID: ticketID,
		Level:    model.LevelTicket.String(),
		ActorID:  actorID,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "legacy markup deleted"})
}

// UpsertTicketHospitality handles POST /v1/admin/legacy/ticket-hospitality.
func (h *AdminLegacyHandler) UpsertTicketHospitality(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p struct {
		EventID       string `json:"event_id"`
		TicketID      string `json:"ticket_id"`
		HospitalityID uint64 `json:"hospitality_id"`
	}
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	p.EventID = strings.TrimSpace(p.EventID)
	p.TicketID = strings.TrimSpace(p.TicketID)
	switch {
	case p.EventID == "":
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event_id is required"})
	case p.TicketID == "":
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ticket_id is required"})
	case p.HospitalityID == 0:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "hospitality_id is required"})
	}
	if _, err := h.Services.GetByID(c.Request().Context(), p.HospitalityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown hospitality_id"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load service"})
	}
	a := &model.LegacyTicketAssignment{
		EventID:       p.EventID,
		TicketID:      p.TicketID,
		HospitalityID: p.HospitalityID,
	}
	if err := h.Legacy.UpsertTicketAssignment(c.Request().Context(), a); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save legacy assignment"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:        queue.EntityLegacyAssignment,
		Action:        queue.ActionUpserted,
		EntityID:      a.ID,
		EventID:       a.EventID,
		TicketID:      a.TicketID,
		HospitalityID: a.HospitalityID,
		Level:         model.LevelTicket.String(),
		ActorID:       actorID,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"id":             a.ID,
		"event_id":       a.EventID,
		"ticket_id":      a.TicketID,
		"hospitality_id": a.HospitalityID,
	})
}

// DeleteTicketHospitality handles DELETE /v1/admin/legacy/ticket-hospitality.
// The row is addressed by event, ticket and hospitality_id query
// parameters.
func (h *AdminLegacyHandler) DeleteTicketHospitality(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	eventID := strings.TrimSpace(c.QueryParam("event"))
	ticketID := strings.TrimSpace(c.QueryParam("ticket"))
	hospitalityID, err := strconv.ParseUint(c.QueryParam("hospitality_id"), 10, 64)
	if eventID == "" || ticketID == "" || err != nil || hospitalityID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "event, ticket and hospitality_id are required"})
	}
	if err := h.Legacy.DeleteTicketAssignment(c.Request().Context(), eventID, ticketID, hospitalityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "legacy assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete legacy assignment"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:        queue.EntityLegacyAssignment,
		Action:        queue.ActionDeleted,
		EventID:       eventID,
		TicketID:      ticketID,
		HospitalityID: hospitalityID,
		Level:         model.LevelTicket.String(),
		ActorID:       actorID,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "legacy assignment deleted"})
}
