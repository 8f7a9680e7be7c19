package pricing

import (
	"context"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// MarkupResolver resolves the single effective markup for a ticket by
// consulting an ordered chain of resolution sources. The default chain
// is [legacy, hierarchical]: a legacy ticket-level markup outranks every
// hierarchical rule, including a ticket-level one. That is a deliberate
// compatibility guarantee for integrations that still write the flat
// table, not an optimization.
type MarkupResolver struct {
	sources []MarkupSource
}

// NewMarkupResolver builds a resolver with the standard source chain.
func NewMarkupResolver(legacy LegacyMarkupStore, rules MarkupRuleStore) *MarkupResolver {
	return &MarkupResolver{
		sources: []MarkupSource{
			&legacyMarkupSource{store: legacy},
			&hierarchicalMarkupSource{store: rules},
		},
	}
}

// NewMarkupResolverWithSources builds a resolver over an explicit
// source chain, earliest source winning. Exists so compatibility
// sources can be reordered or dropped without touching the algorithm.
func NewMarkupResolverWithSources(sources ...MarkupSource) *MarkupResolver {
	return &MarkupResolver{sources: sources}
}

// ResolveMarkup returns the effective markup for one ticket, or nil
// when no rule at any level applies (face value stands). Percentage
// amounts are returned raw; applying them to a base price is the
// caller's job. Absence is never an error.
func (r *MarkupResolver) ResolveMarkup(ctx context.Context, a model.TicketAncestry) (*model.MarkupResult, error) {
	for _, src := range r.sources {
		res, err := src.Resolve(ctx, a)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// ResolveMarkupsForEvent resolves markups for a set of tickets in one
// event using one store query per source, regardless of the number of
// tickets. Results are identical, key by key, to calling ResolveMarkup
// once per ticket; every requested ticket id is present in the map,
// with a nil value when nothing applies.
func (r *MarkupResolver) ResolveMarkupsForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) (map[string]*model.MarkupResult, error) {
	out := make(map[string]*model.MarkupResult, len(ticketIDs))
	for _, id := range ticketIDs {
		out[id] = nil
	}
	if len(ticketIDs) == 0 {
		return out, nil
	}
	remaining := ticketIDs
	for _, src := range r.sources {
		if len(remaining) == 0 {
			break
		}
		batch, err := src.ResolveBatch(ctx, a, remaining)
		if err != nil {
			return nil, err
		}
		next := remaining[:0:0]
		for _, id := range remaining {
			if res, ok := batch[id]; ok && res != nil {
				out[id] = res
			} else {
				next = append(next, id)
			}
		}
		remaining = next
	}
	return out, nil
}
