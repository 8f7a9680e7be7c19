package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/queue"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// AdminRuleHandler exposes the authenticated write surface for markup
// rules. Every successful write publishes an audit event.
type AdminRuleHandler struct {
	Rules *repository.MarkupRuleRepo
}

// NewAdminRuleHandler constructs an AdminRuleHandler and panics if the
// repository is nil.
func NewAdminRuleHandler(rules *repository.MarkupRuleRepo) *AdminRuleHandler {
	if rules == nil {
		panic("nil repository passed to NewAdminRuleHandler")
	}
	return &AdminRuleHandler{Rules: rules}
}

// markupRulePayload is the request body for rule writes. Level is never
// accepted from the client; it is derived from which scope fields are
// set. Active defaults to true when omitted.
type markupRulePayload struct {
	scopePayload
	MarkupType   string            `json:"markup_type"`
	MarkupAmount float64           `json:"markup_amount"`
	DisplayNames map[string]string `json:"display_names"`
	Active       *bool             `json:"active"`
}

// toRule validates the payload and converts it to a model rule. The
// returned message is empty on success.
func (p markupRulePayload) toRule(actorID uint64) (*model.MarkupRule, string) {
	scope, err := p.toScopeKey()
	if err != nil {
		return nil, "at least one scope field is required"
	}
	if p.MarkupType != model.MarkupFixed && p.MarkupType != model.MarkupPercentage {
		return nil, "markup_type must be FIXED or PERCENTAGE"
	}
	if p.MarkupAmount < 0 {
		return nil, "markup_amount must not be negative"
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return &model.MarkupRule{
		Scope:        scope,
		MarkupType:   p.MarkupType,
		MarkupAmount: p.MarkupAmount,
		DisplayNames: p.DisplayNames,
		Active:       active,
		CreatedBy:    actorID,
		UpdatedBy:    actorID,
	}, ""
}

// ruleResponse is the JSON shape returned for a single rule.
type ruleResponse struct {
	ID           uint64            `json:"id"`
	SportType    string            `json:"sport_type"`
	TournamentID string            `json:"tournament_id,omitempty"`
	TeamID       string            `json:"team_id,omitempty"`
	EventID      string            `json:"event_id,omitempty"`
	TicketID     string            `json:"ticket_id,omitempty"`
	Level        string            `json:"level"`
	MarkupType   string            `json:"markup_type"`
	MarkupAmount float64           `json:"markup_amount"`
	DisplayNames map[string]string `json:"display_names,omitempty"`
	Active       bool              `json:"active"`
	CreatedBy    uint64            `json:"created_by"`
	UpdatedBy    uint64            `json:"updated_by"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

func toRuleResponse(r *model.MarkupRule) ruleResponse {
	return ruleResponse{
		ID:           r.ID,
		SportType:    r.Scope.SportType,
		TournamentID: r.Scope.TournamentID,
		TeamID:       r.Scope.TeamID,
		EventID:      r.Scope.EventID,
		TicketID:     r.Scope.TicketID,
		Level:        r.Scope.Level.String(),
		MarkupType:   r.MarkupType,
		MarkupAmount: r.MarkupAmount,
		DisplayNames: r.DisplayNames,
		Active:       r.Active,
		CreatedBy:    r.CreatedBy,
		UpdatedBy:    r.UpdatedBy,
		CreatedAt:    r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		UpdatedAt:    r.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// UpsertRule handles POST /v1/admin/markup-rules. Writing to an
// occupied scope overwrites the existing rule; the response carries the
// stored row either way.
func (h *AdminRuleHandler) UpsertRule(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var p markupRulePayload
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	rule, msg := p.toRule(actorID)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	if err := h.Rules.Upsert(c.Request().Context(), rule); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save rule"})
	}
	publishAudit(withScope(queue.RuleChangedEvent{
		Entity:   queue.EntityMarkupRule,
		Action:   queue.ActionUpserted,
		EntityID: rule.ID,
		ActorID:  actorID,
	}, rule.Scope))
	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

// BatchUpsertRules handles POST /v1/admin/markup-rules/batch. The batch
// is atomic: one invalid or failing rule rolls back the whole request.
func (h *AdminRuleHandler) BatchUpsertRules(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var body struct {
		Rules []markupRulePayload `json:"rules"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body.Rules) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "rules must not be empty"})
	}
	rules := make([]*model.MarkupRule, 0, len(body.Rules))
	for i, p := range body.Rules {
		rule, msg := p.toRule(actorID)
		if msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "rule " + strconv.Itoa(i) + ": " + msg,
			})
		}
		rules = append(rules, rule)
	}
	if err := h.Rules.BatchUpsert(c.Request().Context(), rules); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save rules"})
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, r := range rules {
		publishAudit(withScope(queue.RuleChangedEvent{
			Entity:   queue.EntityMarkupRule,
			Action:   queue.ActionUpserted,
			EntityID: r.ID,
			ActorID:  actorID,
		}, r.Scope))
		out = append(out, toRuleResponse(r))
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": out})
}

// ListRules handles GET /v1/admin/markup-rules with optional sport,
// level and active query filters.
func (h *AdminRuleHandler) ListRules(c echo.Context) error {
	f := repository.RuleFilter{
		SportType: c.QueryParam("sport"),
	}
	if lvl := c.QueryParam("level"); lvl != "" {
		parsed, err := model.ParseLevel(lvl)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown level"})
		}
		f.Level = parsed.String()
	}
	if raw := c.QueryParam("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "active must be a boolean"})
		}
		f.Active = &v
	}
	rules, err := h.Rules.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list rules"})
	}
	out := make([]ruleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, toRuleResponse(&rules[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"rules": out})
}

// GetRule handles GET /v1/admin/markup-rules/:id.
func (h *AdminRuleHandler) GetRule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid rule id"})
	}
	rule, err := h.Rules.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load rule"})
	}
	return c.JSON(http.StatusOK, toRuleResponse(rule))
}

// DeleteRule handles DELETE /v1/admin/markup-rules/:id.
func (h *AdminRuleHandler) DeleteRule(c echo.Context) error {
	actorID, err := getActorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid rule id"})
	}
	rule, err := h.Rules.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load rule"})
	}
	if err := h.Rules.DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete rule"})
	}
	publishAudit(withScope(queue.RuleChangedEvent{
		Entity:   queue.EntityMarkupRule,
		Action:   queue.ActionDeleted,
		EntityID: id,
		ActorID:  actorID,
	}, rule.Scope))
	return c.JSON(http.StatusOK, map[string]string{"message": "rule deleted"})
}
