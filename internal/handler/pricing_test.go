package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/pricing"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// staticMarkupSource answers every ticket with the same result, or
// nothing at all when result is nil.
type staticMarkupSource struct {
	name   string
	result *model.MarkupResult
}

func (s *staticMarkupSource) Name() string { return s.name }

func (s *staticMarkupSource) Resolve(_ context.Context, _ model.TicketAncestry) (*model.MarkupResult, error) {
	return s.result, nil
}

func (s *staticMarkupSource) ResolveBatch(_ context.Context, _ model.EventAncestry, ticketIDs []string) (map[string]*model.MarkupResult, error) {
	out := make(map[string]*model.MarkupResult, len(ticketIDs))
	if s.result != nil {
		for _, id := range ticketIDs {
			out[id] = s.result
		}
	}
	return out, nil
}

type emptyLegacyAssignments struct{}

func (emptyLegacyAssignments) TicketAssignments(context.Context, string, string) ([]repository.LegacyAssignmentDetail, error) {
	return nil, nil
}

func (emptyLegacyAssignments) TicketAssignmentsBatch(context.Context, string, []string) ([]repository.LegacyAssignmentDetail, error) {
	return nil, nil
}

type emptyAssignments struct{}

func (emptyAssignments) CandidatesForTicket(context.Context, model.TicketAncestry) ([]repository.AssignmentCandidate, error) {
	return nil, nil
}

func (emptyAssignments) CandidatesForEvent(context.Context, model.EventAncestry, []string) ([]repository.AssignmentCandidate, error) {
	return nil, nil
}

func newPricingHandler(t *testing.T, src pricing.MarkupSource) (*PricingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPricingHandler(
		pricing.NewMarkupResolverWithSources(src),
		pricing.NewHospitalityResolver(emptyLegacyAssignments{}, emptyAssignments{}),
		repository.NewHospitalityServiceRepo(db),
	), mock
}

func TestGetMarkupResolves(t *testing.T) {
	ruleID := uint64(7)
	h, _ := newPricingHandler(t, &staticMarkupSource{
		name: model.SourceRules,
		result: &model.MarkupResult{
			Level:        model.LevelEvent,
			LevelName:    model.LevelEvent.String(),
			Source:       model.SourceRules,
			MarkupType:   model.MarkupPercentage,
			MarkupAmount: 12.5,
			RuleID:       &ruleID,
		},
	})

	c, rec := newTestContext(t, "/v1/pricing/markup?sport=tennis&event=E1&ticket=T42")
	require.NoError(t, h.GetMarkup(c))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TicketID string `json:"ticket_id"`
		Markup   *struct {
			Level        string  `json:"level"`
			Source       string  `json:"source"`
			MarkupType   string  `json:"markup_type"`
			MarkupAmount float64 `json:"markup_amount"`
			RuleID       uint64  `json:"rule_id"`
		} `json:"markup"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "T42", body.TicketID)
	require.NotNil(t, body.Markup)
	assert.Equal(t, "EVENT", body.Markup.Level)
	assert.Equal(t, model.SourceRules, body.Markup.Source)
	assert.InDelta(t, 12.5, body.Markup.MarkupAmount, 0.0001)
	assert.Equal(t, ruleID, body.Markup.RuleID)
}

func TestGetMarkupNoRuleIsNull(t *testing.T) {
	h, _ := newPricingHandler(t, &staticMarkupSource{name: model.SourceRules})

	c, rec := newTestContext(t, "/v1/pricing/markup?sport=tennis&event=E1&ticket=T42")
	require.NoError(t, h.GetMarkup(c))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, "null", string(body["markup"]))
}

func TestGetMarkupValidation(t *testing.T) {
	h, _ := newPricingHandler(t, &staticMarkupSource{name: model.SourceRules})

	c, rec := newTestContext(t, "/v1/pricing/markup?sport=tennis&event=E1")
	require.NoError(t, h.GetMarkup(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ticket is required")
}

func TestGetEventMarkupsFillsEveryTicket(t *testing.T) {
	h, _ := newPricingHandler(t, &staticMarkupSource{name: model.SourceRules})

	c, rec := newTestContext(t, "/v1/events/E1/markups?sport=tennis&tickets=T1,T2")
	c.SetParamNames("id")
	c.SetParamValues("E1")
	require.NoError(t, h.GetEventMarkups(c))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		EventID string                     `json:"event_id"`
		Markups map[string]json.RawMessage `json:"markups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "E1", body.EventID)
	// Tickets without a markup are present with an explicit null.
	require.Len(t, body.Markups, 2)
	assert.JSONEq(t, "null", string(body.Markups["T1"]))
	assert.JSONEq(t, "null", string(body.Markups["T2"]))
}

func TestGetPublicServicesSanitizes(t *testing.T) {
	h, mock := newPricingHandler(t, &staticMarkupSource{name: model.SourceRules})

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, name, description, active, sort_order, created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "description", "active", "sort_order", "created_at", "updated_at"},
		).AddRow(1, "Lounge", "Lounge access", true, 10, now, now))

	c, rec := newTestContext(t, "/v1/hospitality-services")
	require.NoError(t, h.GetPublicServices(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Lounge"`)
	// Audit columns never leak onto the public surface.
	assert.NotContains(t, rec.Body.String(), "created_at")
	require.NoError(t, mock.ExpectationsWereMet())
}
