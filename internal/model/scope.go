package model

import (
	"errors"
	"fmt"
)

// ErrInvalidScope is returned when a scope carries no identifying field.
// Every rule or assignment must anchor to at least a sport type; writes
// are rejected with this error before touching storage.
var ErrInvalidScope = errors.New("invalid scope: no identifying field set")

// Level identifies which rung of the sport hierarchy a scope addresses.
// The ordinal encodes specificity: higher values are more specific, so
// precedence between candidate rules is a plain integer comparison
// instead of stringly-typed ordering in SQL.
type Level uint8

const (
	LevelSport Level = iota + 1
	LevelTournament
	LevelTeam
	LevelEvent
	LevelTicket
)

// MoreSpecificThan reports whether l outranks other in resolution
// precedence (Ticket > Event > Team > Tournament > Sport).
func (l Level) MoreSpecificThan(other Level) bool { return l > other }

// String returns the storage representation of the level.  Levels are
// persisted as uppercase strings, matching how other enumerations
// (markup types, sources) are stored.
func (l Level) String() string {
	switch l {
	case LevelSport:
		return "SPORT"
	case LevelTournament:
		return "TOURNAMENT"
	case LevelTeam:
		return "TEAM"
	case LevelEvent:
		return "EVENT"
	case LevelTicket:
		return "TICKET"
	}
	return fmt.Sprintf("LEVEL(%d)", uint8(l))
}

// ParseLevel converts a stored level string back to a Level.  Unknown
// values return an error so that corrupt rows surface loudly instead of
// silently losing precedence.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "SPORT":
		return LevelSport, nil
	case "TOURNAMENT":
		return LevelTournament, nil
	case "TEAM":
		return LevelTeam, nil
	case "EVENT":
		return LevelEvent, nil
	case "TICKET":
		return LevelTicket, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

// ScopeKey is the hierarchical address a markup rule or hospitality
// assignment applies to.  Unset fields are empty strings rather than SQL
// NULLs so the unique key over the scope tuple enforces at most one row
// per exact scope (MySQL unique indexes treat NULLs as distinct).
//
// The most specific non-empty field determines Level.  Less specific
// ancestor fields may be present for audit (a ticket-level rule usually
// records its event too) but do not participate in matching.
type ScopeKey struct {
	SportType    string // always required
	TournamentID string
	TeamID       string
	EventID      string
	TicketID     string
	Level        Level
}

// NewScopeKey validates the given fields and derives the Level from the
// most specific one that is set, inspecting ticket, event, team,
// tournament and finally sport.  It returns ErrInvalidScope when every
// field is empty.
func NewScopeKey(sportType, tournamentID, teamID, eventID, ticketID string) (ScopeKey, error) {
	k := ScopeKey{
		SportType:    sportType,
		TournamentID: tournamentID,
		TeamID:       teamID,
		EventID:      eventID,
		TicketID:     ticketID,
	}
	switch {
	case ticketID != "":
		k.Level = LevelTicket
	case eventID != "":
		k.Level = LevelEvent
	case teamID != "":
		k.Level = LevelTeam
	case tournamentID != "":
		k.Level = LevelTournament
	case sportType != "":
		k.Level = LevelSport
	default:
		return ScopeKey{}, ErrInvalidScope
	}
	return k, nil
}

// TicketAncestry locates one ticket inside the sport hierarchy on the
// read path.  TournamentID and TeamID may be empty when the upstream
// ticketing API does not report them; rules at those levels are then
// simply not candidates.
type TicketAncestry struct {
	SportType    string
	TournamentID string
	TeamID       string
	EventID      string
	TicketID     string
}

// EventAncestry is the batch-read counterpart of TicketAncestry: the
// shared ancestry of every ticket in one event.
type EventAncestry struct {
	SportType    string
	TournamentID string
	TeamID       string
	EventID      string
}

// ForTicket returns the full ancestry of a single ticket in the event.
func (a EventAncestry) ForTicket(ticketID string) TicketAncestry {
	return TicketAncestry{
		SportType:    a.SportType,
		TournamentID: a.TournamentID,
		TeamID:       a.TeamID,
		EventID:      a.EventID,
		TicketID:     ticketID,
	}
}
