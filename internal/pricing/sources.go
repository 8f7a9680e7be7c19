// Package pricing implements the hierarchical markup and hospitality
// resolution engines. Resolution is read-only and stateless: every call
// is a pure function of the ticket's ancestry and the current store
// contents, so any number of callers may resolve concurrently against a
// consistent snapshot.
package pricing

import (
	"context"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// MarkupRuleStore is the slice of the rule store the engine needs:
// candidate queries over the hierarchical markup table. Implemented by
// repository.MarkupRuleRepo.
type MarkupRuleStore interface {
	CandidatesForTicket(ctx context.Context, a model.TicketAncestry) ([]repository.MarkupCandidate, error)
	CandidatesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) ([]repository.MarkupCandidate, error)
}

// LegacyMarkupStore reads the flat pre-hierarchy markup table.
// Implemented by repository.LegacyRepo.
type LegacyMarkupStore interface {
	TicketMarkup(ctx context.Context, eventID, ticketID string) (*model.LegacyTicketMarkup, error)
	TicketMarkups(ctx context.Context, eventID string, ticketIDs []string) ([]model.LegacyTicketMarkup, error)
}

// MarkupSource is one provider in the markup resolution chain. Sources
// are consulted in order; the first one that yields a result for a
// ticket wins outright, so compatibility stores can be added or removed
// by changing the chain rather than the algorithm.
type MarkupSource interface {
	// Name identifies the source in results ("legacy", "rules").
	Name() string
	// Resolve returns the source's markup for one ticket, or nil when
	// the source has nothing for it.
	Resolve(ctx context.Context, a model.TicketAncestry) (*model.MarkupResult, error)
	// ResolveBatch answers for many tickets of one event with a single
	// store query. Tickets the source has nothing for are simply absent
	// from the map.
	ResolveBatch(ctx context.Context, a model.EventAncestry, ticketIDs []string) (map[string]*model.MarkupResult, error)
}

// legacyMarkupSource adapts the flat ticket-only table to the source
// interface. Every hit is ticket level by definition.
type legacyMarkupSource struct {
	store LegacyMarkupStore
}

func (s *legacyMarkupSource) Name() string { return model.SourceLegacy }

func (s *legacyMarkupSource) Resolve(ctx context.Context, a model.TicketAncestry) (*model.MarkupResult, error) {
	m, err := s.store.TicketMarkup(ctx, a.EventID, a.TicketID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return legacyMarkupResult(m), nil
}

func (s *legacyMarkupSource) ResolveBatch(ctx context.Context, a model.EventAncestry, ticketIDs []string) (map[string]*model.MarkupResult, error) {
	rows, err := s.store.TicketMarkups(ctx, a.EventID, ticketIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.MarkupResult, len(rows))
	for i := range rows {
		out[rows[i].TicketID] = legacyMarkupResult(&rows[i])
	}
	return out, nil
}

func legacyMarkupResult(m *model.LegacyTicketMarkup) *model.MarkupResult {
	return &model.MarkupResult{
		Level:        model.LevelTicket,
		LevelName:    model.LevelTicket.String(),
		Source:       model.SourceLegacy,
		MarkupType:   m.MarkupType,
		MarkupAmount: m.MarkupAmount,
	}
}

// hierarchicalMarkupSource resolves against the scoped rule table with
// most-specific-wins semantics. Uniqueness is per exact scope, not per
// level: two rules can land on the same level for one ticket when one
// of them carries ancestor fields for audit (a ticket rule with and
// without its event_id set, say). Ties within a level go to the oldest
// rule (lowest id) so single and batch resolution agree regardless of
// row order.
type hierarchicalMarkupSource struct {
	store MarkupRuleStore
}

// betterCandidate reports whether c should replace best: more specific
// level first, lowest rule id within a level.
func betterCandidate(c, best *repository.MarkupCandidate) bool {
	if best == nil {
		return true
	}
	if c.Level != best.Level {
		return c.Level.MoreSpecificThan(best.Level)
	}
	return c.RuleID < best.RuleID
}

func (s *hierarchicalMarkupSource) Name() string { return model.SourceRules }

func (s *hierarchicalMarkupSource) Resolve(ctx context.Context, a model.TicketAncestry) (*model.MarkupResult, error) {
	cands, err := s.store.CandidatesForTicket(ctx, a)
	if err != nil {
		return nil, err
	}
	var best *repository.MarkupCandidate
	for i := range cands {
		if betterCandidate(&cands[i], best) {
			best = &cands[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	return ruleMarkupResult(best), nil
}

func (s *hierarchicalMarkupSource) ResolveBatch(ctx context.Context, a model.EventAncestry, ticketIDs []string) (map[string]*model.MarkupResult, error) {
	cands, err := s.store.CandidatesForEvent(ctx, a, ticketIDs)
	if err != nil {
		return nil, err
	}
	// Split the candidate set: ticket-level rules belong to exactly one
	// ticket, everything else is shared by the whole event.
	perTicket := make(map[string]*repository.MarkupCandidate)
	var bestShared *repository.MarkupCandidate
	for i := range cands {
		c := &cands[i]
		if c.Level == model.LevelTicket {
			if betterCandidate(c, perTicket[c.TicketID]) {
				perTicket[c.TicketID] = c
			}
			continue
		}
		if betterCandidate(c, bestShared) {
			bestShared = c
		}
	}
	out := make(map[string]*model.MarkupResult)
	for _, id := range ticketIDs {
		if c, ok := perTicket[id]; ok {
			out[id] = ruleMarkupResult(c)
		} else if bestShared != nil {
			out[id] = ruleMarkupResult(bestShared)
		}
	}
	return out, nil
}

func ruleMarkupResult(c *repository.MarkupCandidate) *model.MarkupResult {
	id := c.RuleID
	return &model.MarkupResult{
		Level:        c.Level,
		LevelName:    c.Level.String(),
		Source:       model.SourceRules,
		MarkupType:   c.MarkupType,
		MarkupAmount: c.MarkupAmount,
		RuleID:       &id,
	}
}
