// Package queue defines message payloads exchanged over the message broker.
package queue

// Entities referenced by RuleChangedEvent.Entity.
const (
	EntityMarkupRule       = "markup_rule"
	EntityAssignment       = "hospitality_assignment"
	EntityService          = "hospitality_service"
	EntityLegacyMarkup     = "legacy_ticket_markup"
	EntityLegacyAssignment = "legacy_ticket_assignment"
)

// Actions referenced by RuleChangedEvent.Action.
const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
	ActionReplaced = "replaced"
)

// RuleChangedEvent is published whenever an admin write changes pricing
// state: a markup rule, a hospitality assignment or service, or one of
// the legacy compatibility tables. It carries enough information for
// downstream consumers to build an audit trail without querying the
// primary database. Scope fields are empty for catalog and legacy
// entities where they do not apply.
type RuleChangedEvent struct {
	Entity        string `json:"entity"`
	Action        string `json:"action"`
	EntityID      uint64 `json:"entity_id,omitempty"`
	SportType     string `json:"sport_type,omitempty"`
	TournamentID  string `json:"tournament_id,omitempty"`
	TeamID        string `json:"team_id,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	TicketID      string `json:"ticket_id,omitempty"`
	Level         string `json:"level,omitempty"`
	HospitalityID uint64 `json:"hospitality_id,omitempty"`
	ActorID       uint64 `json:"actor_id"`
	ChangedAt     string `json:"changed_at"`
}
