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

// AdminHospitalityHandler exposes the authenticated write surface for
// the hospitality service catalog and for scope assignments.
type AdminHospitalityHandler struct {
	Services    *repository.HospitalityServiceRepo
	Assignments *repository.AssignmentRepo
}

// NewAdminHospitalityHandler constructs the handler and panics if any
// dependency is nil.
func NewAdminHospitalityHandler(services *repository.HospitalityServiceRepo, assignments *repository.AssignmentRepo) *AdminHospitalityHandler {
	if services == nil || assignments == nil {
		panic("nil dependency passed to NewAdminHospitalityHandler")
	}
	return &AdminHospitalityHandler{Services: services, Assignments: assignments}
}

// servicePayload is the request body for catalog writes.
type servicePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   uint32 `json:"sort_order"`
	Active      *bool  `json:"active"`
}

type serviceResponse struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	SortOrder   uint32 `json:"sort_order"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toServiceResponse(s *model.HospitalityService) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Active:      s.Active,
		SortOrder:   s.SortOrder,
		CreatedAt:   s.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		UpdatedAt:   s.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// CreateService handles POST /v1/admin/hospitality-services.
func (h *AdminHospitalityHandler) CreateService(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p servicePayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	svc := &model.HospitalityService{
		Name:        p.Name,
		Description: strings.TrimSpace(p.Description),
		Active:      active,
		SortOrder:   p.SortOrder,
	}
	if err := h.Services.Create(c.Request().Context(), svc); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create service"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityService,
		Action:   queue.ActionUpserted,
		EntityID: svc.ID,
		ActorID:  actorID,
	})
	return c.JSON(http.StatusCreated, toServiceResponse(svc))
}

// UpdateService handles PATCH /v1/admin/hospitality-services/:id.
// Omitted fields keep their stored values.
func (h *AdminHospitalityHandler) UpdateService(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid service id"})
	}
	svc, err := h.Services.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load service"})
	}
	var p struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		SortOrder   *uint32 `json:"sort_order"`
		Active      *bool   `json:"active"`
	}
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "name must not be empty"})
		}
		svc.Name = name
	}
	if p.Description != nil {
		svc.Description = strings.TrimSpace(*p.Description)
	}
	if p.SortOrder != nil {
		svc.SortOrder = *p.SortOrder
	}
	if p.Active != nil {
		svc.Active = *p.Active
	}
	if err := h.Services.Update(c.Request().Context(), svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update service"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityService,
		Action:   queue.ActionUpserted,
		EntityID: svc.ID,
		ActorID:  actorID,
	})
	return c.JSON(http.StatusOK, toServiceResponse(svc))
}

// ListServices handles GET /v1/admin/hospitality-services. Unlike the
// public catalog endpoint, inactive services are included by default.
func (h *AdminHospitalityHandler) ListServices(c echo.Context) error {
	activeOnly := false
	if raw := c.QueryParam("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "active must be a boolean"})
		}
		activeOnly = v
	}
	services, err := h.Services.List(c.Request().Context(), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list services"})
	}
	out := make([]serviceResponse, 0, len(services))
	for i := range services {
		out = append(out, toServiceResponse(&services[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"services": out})
}

// DeleteService handles DELETE /v1/admin/hospitality-services/:id. A
// service still referenced by any assignment, hierarchical or legacy,
// cannot be deleted; deactivate it instead.
func (h *AdminHospitalityHandler) DeleteService(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid service id"})
	}
	if err := h.Services.DeleteByID(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "service not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, map[string]string{"error": "service is still assigned; deactivate it instead"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete service"})
		}
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityService,
		Action:   queue.ActionDeleted,
		EntityID: id,
		ActorID:  actorID,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "service deleted"})
}

// assignmentPayload is the request body for single assignment writes.
type assignmentPayload struct {
	scopePayload
	HospitalityID uint64 `json:"hospitality_id"`
	Active        *bool  `json:"active"`
}

type assignmentResponse struct {
	ID            uint64 `json:"id"`
	SportType     string `json:"sport_type"`
	TournamentID  string `json:"tournament_id,omitempty"`
	TeamID        string `json:"team_id,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	TicketID      string `json:"ticket_id,omitempty"`
	Level         string `json:"level"`
	HospitalityID uint64 `json:"hospitality_id"`
	Active        bool   `json:"active"`
	CreatedBy     uint64 `json:"created_by"`
	UpdatedBy     uint64 `json:"updated_by"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toAssignmentResponse(a *model.HospitalityAssignment) assignmentResponse {
	return assignmentResponse{
		ID:            a.ID,
		SportType:     a.Scope.SportType,
		TournamentID:  a.Scope.TournamentID,
		TeamID:        a.Scope.TeamID,
		EventID:       a.Scope.EventID,
		TicketID:      a.Scope.TicketID,
		Level:         a.Scope.Level.String(),
		HospitalityID: a.HospitalityID,
		Active:        a.Active,
		CreatedBy:     a.CreatedBy,
		UpdatedBy:     a.UpdatedBy,
		CreatedAt:     a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		UpdatedAt:     a.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// UpsertAssignment handles POST /v1/admin/hospitality-assignments.
// Re-posting the same (scope, service) pair reactivates or refreshes
// the existing row rather than creating a duplicate.
func (h *AdminHospitalityHandler) UpsertAssignment(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p assignmentPayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	scope, err := p.toScopeKey()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "at least one scope field is required"})
	}
	if p.HospitalityID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "hospitality_id is required"})
	}
	if _, err := h.Services.GetByID(c.Request().Context(), p.HospitalityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown hospitality_id"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load service"})
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	as := &model.HospitalityAssignment{
		Scope:         scope,
		HospitalityID: p.HospitalityID,
		Active:        active,
		CreatedBy:     actorID,
		UpdatedBy:     actorID,
	}
	if err := h.Assignments.Upsert(c.Request().Context(), as); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save assignment"})
	}
	publishAudit(withScope(queue.RuleChangedEvent{
		Entity:        queue.EntityAssignment,
		Action:        queue.ActionUpserted,
		EntityID:      as.ID,
		HospitalityID: as.HospitalityID,
		ActorID:       actorID,
	}, scope))
	return c.JSON(http.StatusOK, toAssignmentResponse(as))
}

// ReplaceAssignments handles PUT /v1/admin/hospitality-assignments/replace.
// It atomically replaces the full service set at one exact scope; an
// empty hospitality_ids list clears the scope.
func (h *AdminHospitalityHandler) ReplaceAssignments(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p struct {
		scopePayload
		HospitalityIDs []uint64 `json:"hospitality_ids"`
	}
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	scope, err := p.toScopeKey()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "at least one scope field is required"})
	}
	seen := make(map[uint64]bool, len(p.HospitalityIDs))
	ids := make([]uint64, 0, len(p.HospitalityIDs))
	for _, id := range p.HospitalityIDs {
		if id == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "hospitality_ids must not contain zero"})
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	deleted, inserted, err := h.Assignments.ReplaceAtScope(c.Request().Context(), scope, ids, actorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to replace assignments"})
	}
	publishAudit(withScope(queue.RuleChangedEvent{
		Entity:  queue.EntityAssignment,
		Action:  queue.ActionReplaced,
		ActorID: actorID,
	}, scope))
	return c.JSON(http.StatusOK, map[string]any{
		"deleted_count":  deleted,
		"inserted_count": inserted,
	})
}

// ListAssignments handles GET /v1/admin/hospitality-assignments with
// optional sport, level, hospitality_id and active query filters.
func (h *AdminHospitalityHandler) ListAssignments(c echo.Context) error {
	f := repository.AssignmentFilter{
		SportType: c.QueryParam("sport"),
	}
	if lvl := c.QueryParam("level"); lvl != "" {
		parsed, err := model.ParseLevel(lvl)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown level"})
		}
		f.Level = parsed.String()
	}
	if raw := c.QueryParam("hospitality_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid hospitality_id"})
		}
		f.HospitalityID = id
	}
	if raw := c.QueryParam("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "active must be a boolean"})
		}
		f.Active = &v
	}
	assignments, err := h.Assignments.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list assignments"})
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for i := range assignments {
		out = append(out, toAssignmentResponse(&assignments[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"assignments": out})
}

// DeleteAssignment handles DELETE /v1/admin/hospitality-assignments/:id.
func (h *AdminHospitalityHandler) DeleteAssignment(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid assignment id"})
	}
	if err := h.Assignments.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete assignment"})
	}
	publishAudit(queue.RuleChangedEvent{
		Entity:   queue.EntityAssignment,
		Action:   queue.ActionDeleted,
		EntityID: id,
		ActorID:  actorID,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "assignment deleted"})
}
