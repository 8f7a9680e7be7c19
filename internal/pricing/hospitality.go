package pricing

import (
	"context"
	"sort"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// AssignmentStore is the slice of the rule store the hospitality engine
// needs. Implemented by repository.AssignmentRepo.
type AssignmentStore interface {
	CandidatesForTicket(ctx context.Context, a model.TicketAncestry) ([]repository.AssignmentCandidate, error)
	CandidatesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) ([]repository.AssignmentCandidate, error)
}

// LegacyAssignmentStore reads the flat pre-hierarchy hospitality table.
// Implemented by repository.LegacyRepo.
type LegacyAssignmentStore interface {
	TicketAssignments(ctx context.Context, eventID, ticketID string) ([]repository.LegacyAssignmentDetail, error)
	TicketAssignmentsBatch(ctx context.Context, eventID string, ticketIDs []string) ([]repository.LegacyAssignmentDetail, error)
}

// HospitalityResolver resolves the full additive set of hospitality
// services for a ticket. Unlike markup resolution, every matching level
// contributes; the result is the union across levels and sources,
// deduplicated per service by keeping the occurrence from the most
// specific level. Legacy rows count as ticket level and win ties
// against hierarchical ticket-level assignments, mirroring markup
// precedence.
//
// Markup and hospitality deliberately stay two separate algorithms
// sharing only the scope/level types: exclusive most-specific-wins and
// additive union-with-dedup do not unify cleanly, and forcing them
// through one generic resolver is how per-ticket results end up merged
// across tickets.
type HospitalityResolver struct {
	legacy LegacyAssignmentStore
	rules  AssignmentStore
}

// NewHospitalityResolver builds a resolver over the two stores.
func NewHospitalityResolver(legacy LegacyAssignmentStore, rules AssignmentStore) *HospitalityResolver {
	return &HospitalityResolver{legacy: legacy, rules: rules}
}

// hospitalityCandidate is an internal merge unit: a resolved record
// plus its source rank for tie-breaking (lower rank wins a level tie;
// legacy is rank 0).
type hospitalityCandidate struct {
	rec  model.HospitalityRecord
	rank int
}

// ResolveHospitalities returns every hospitality service applicable to
// the ticket, deduplicated per service id and ordered for display by
// (sort_order, name). An empty result is normal, not an error.
func (r *HospitalityResolver) ResolveHospitalities(ctx context.Context, a model.TicketAncestry) ([]model.HospitalityRecord, error) {
	legacyRows, err := r.legacy.TicketAssignments(ctx, a.EventID, a.TicketID)
	if err != nil {
		return nil, err
	}
	ruleRows, err := r.rules.CandidatesForTicket(ctx, a)
	if err != nil {
		return nil, err
	}
	cands := make([]hospitalityCandidate, 0, len(legacyRows)+len(ruleRows))
	for i := range legacyRows {
		cands = append(cands, legacyCandidate(&legacyRows[i]))
	}
	for i := range ruleRows {
		cands = append(cands, ruleCandidate(&ruleRows[i]))
	}
	return dedupHospitality(cands), nil
}

// ResolveHospitalitiesForEvent resolves hospitality sets for many
// tickets of one event sharing a single query per store. Only the
// querying is shared: dedup and precedence run independently per
// ticket, so a ticket-scoped assignment for one ticket never leaks into
// a sibling's result. Every requested id is present in the map, with an
// empty slice when nothing applies.
func (r *HospitalityResolver) ResolveHospitalitiesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) (map[string][]model.HospitalityRecord, error) {
	out := make(map[string][]model.HospitalityRecord, len(ticketIDs))
	for _, id := range ticketIDs {
		out[id] = []model.HospitalityRecord{}
	}
	if len(ticketIDs) == 0 {
		return out, nil
	}
	legacyRows, err := r.legacy.TicketAssignmentsBatch(ctx, a.EventID, ticketIDs)
	if err != nil {
		return nil, err
	}
	ruleRows, err := r.rules.CandidatesForEvent(ctx, a, ticketIDs)
	if err != nil {
		return nil, err
	}
	// Bucket ticket-bound candidates per ticket; everything at event
	// level and above is shared by the whole set.
	legacyByTicket := make(map[string][]hospitalityCandidate)
	for i := range legacyRows {
		t := legacyRows[i].TicketID
		legacyByTicket[t] = append(legacyByTicket[t], legacyCandidate(&legacyRows[i]))
	}
	ticketRules := make(map[string][]hospitalityCandidate)
	shared := make([]hospitalityCandidate, 0, len(ruleRows))
	for i := range ruleRows {
		c := ruleCandidate(&ruleRows[i])
		if ruleRows[i].Level == model.LevelTicket {
			ticketRules[ruleRows[i].TicketID] = append(ticketRules[ruleRows[i].TicketID], c)
		} else {
			shared = append(shared, c)
		}
	}
	for _, id := range ticketIDs {
		cands := make([]hospitalityCandidate, 0, len(shared)+len(legacyByTicket[id])+len(ticketRules[id]))
		cands = append(cands, legacyByTicket[id]...)
		cands = append(cands, ticketRules[id]...)
		cands = append(cands, shared...)
		out[id] = dedupHospitality(cands)
	}
	return out, nil
}

func legacyCandidate(d *repository.LegacyAssignmentDetail) hospitalityCandidate {
	id := d.AssignmentID
	return hospitalityCandidate{
		rec: model.HospitalityRecord{
			HospitalityID: d.HospitalityID,
			Name:          d.Name,
			Description:   d.Description,
			SortOrder:     d.SortOrder,
			Level:         model.LevelTicket,
			LevelName:     model.LevelTicket.String(),
			Source:        model.SourceLegacy,
			AssignmentID:  &id,
		},
		rank: 0,
	}
}

func ruleCandidate(c *repository.AssignmentCandidate) hospitalityCandidate {
	id := c.AssignmentID
	return hospitalityCandidate{
		rec: model.HospitalityRecord{
			HospitalityID: c.HospitalityID,
			Name:          c.Name,
			Description:   c.Description,
			SortOrder:     c.SortOrder,
			Level:         c.Level,
			LevelName:     c.Level.String(),
			Source:        model.SourceRules,
			AssignmentID:  &id,
		},
		rank: 1,
	}
}

// dedupHospitality keeps, per service id, the candidate from the most
// specific level, breaking level ties by source rank (legacy first).
// The survivors are ordered by (sort_order, name, id) for stable
// display output.
func dedupHospitality(cands []hospitalityCandidate) []model.HospitalityRecord {
	best := make(map[uint64]hospitalityCandidate, len(cands))
	for _, c := range cands {
		prev, ok := best[c.rec.HospitalityID]
		if !ok ||
			c.rec.Level.MoreSpecificThan(prev.rec.Level) ||
			(c.rec.Level == prev.rec.Level && c.rank < prev.rank) {
			best[c.rec.HospitalityID] = c
		}
	}
	out := make([]model.HospitalityRecord, 0, len(best))
	for _, c := range best {
		out = append(out, c.rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].HospitalityID < out[j].HospitalityID
	})
	return out
}
