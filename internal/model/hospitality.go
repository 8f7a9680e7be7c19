package model

import "time"

// HospitalityService is a catalog entry for an add-on (lounge access,
// parking, catering, ...).  Services have a lifecycle independent of
// their assignments: deactivating a service hides it from resolution
// without touching the assignment rows that reference it.
type HospitalityService struct {
	ID          uint64
	Name        string
	Description string
	Active      bool
	SortOrder   uint32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HospitalityAssignment attaches one service to one scope.  Unlike
// markup rules, several assignments may share a scope as long as they
// reference different services: uniqueness is per (scope, hospitality_id)
// pair, not per scope alone.
type HospitalityAssignment struct {
	ID            uint64
	Scope         ScopeKey
	HospitalityID uint64
	Active        bool
	CreatedBy     uint64
	UpdatedBy     uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HospitalityRecord is one resolved add-on for a ticket, carrying the
// service metadata from the catalog plus where in the hierarchy the
// winning assignment sits.  AssignmentID is the scoped assignment id
// for rule results and the legacy row id for legacy results.
type HospitalityRecord struct {
	HospitalityID uint64  `json:"hospitality_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	SortOrder     uint32  `json:"sort_order"`
	Level         Level   `json:"-"`
	LevelName     string  `json:"level"`
	Source        string  `json:"source"`
	AssignmentID  *uint64 `json:"assignment_id,omitempty"`
}

// LegacyTicketAssignment mirrors the flat pre-hierarchy hospitality
// table, keyed by (event_id, ticket_id, hospitality_id).
type LegacyTicketAssignment struct {
	ID            uint64
	EventID       string
	TicketID      string
	HospitalityID uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
