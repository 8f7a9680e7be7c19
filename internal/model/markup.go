package model

import "time"

// Markup types.  FIXED adds a flat amount in the storefront currency's
// major units; PERCENTAGE is a percentage of the ticket's base price and
// is applied by the caller — the engine never sees base prices.
const (
	MarkupFixed      = "FIXED"
	MarkupPercentage = "PERCENTAGE"
)

// Resolution sources.  Legacy denotes the pre-hierarchy ticket-only
// tables, which always outrank hierarchical rules at ticket level.
const (
	SourceLegacy = "legacy"
	SourceRules  = "rules"
)

// MarkupRule is a price markup anchored to one exact scope.  At most one
// rule exists per scope tuple; writing to an occupied scope overwrites.
//
// Fields:
//  ID           – primary key identifier.
//  Scope        – hierarchical address including derived Level.
//  MarkupType   – FIXED or PERCENTAGE.
//  MarkupAmount – flat amount or percentage, per MarkupType.
//  DisplayNames – locale → storefront label, stored as JSON.
//  Active       – inactive rules are invisible to resolution.
//  CreatedBy    – admin user who created the rule.
//  UpdatedBy    – admin user who last modified it.
type MarkupRule struct {
	ID           uint64
	Scope        ScopeKey
	MarkupType   string
	MarkupAmount float64
	DisplayNames map[string]string
	Active       bool
	CreatedBy    uint64
	UpdatedBy    uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MarkupResult is the outcome of resolving a single ticket's markup.
// RuleID is nil for legacy results, which predate rule identifiers.
// A nil *MarkupResult means no markup applies and face value stands.
type MarkupResult struct {
	Level        Level   `json:"-"`
	LevelName    string  `json:"level"`
	Source       string  `json:"source"`
	MarkupType   string  `json:"markup_type"`
	MarkupAmount float64 `json:"markup_amount"`
	RuleID       *uint64 `json:"rule_id,omitempty"`
}

// LegacyTicketMarkup mirrors the flat pre-hierarchy markup table.  Rows
// are keyed by (event_id, ticket_id) only; there is no level column
// because every legacy row is implicitly ticket level.
type LegacyTicketMarkup struct {
	ID           uint64
	EventID      string
	TicketID     string
	MarkupType   string
	MarkupAmount float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
