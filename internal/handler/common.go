package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/ticket-pricing/internal/model"
)

// getActorID extracts the authenticated admin's user id from the echo
// context. The JWT middleware stores the subject claim under "user_id";
// depending on how the token was minted the claim may arrive as a
// number or a string, so both are accepted.
func getActorID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// scopePayload is the JSON shape admins use to address a scope. Empty
// fields mean "not set"; level is always derived server-side, never
// trusted from the client.
type scopePayload struct {
	SportType    string `json:"sport_type"`
	TournamentID string `json:"tournament_id"`
	TeamID       string `json:"team_id"`
	EventID      string `json:"event_id"`
	TicketID     string `json:"ticket_id"`
}

func (p scopePayload) toScopeKey() (model.ScopeKey, error) {
	return model.NewScopeKey(
		strings.TrimSpace(p.SportType),
		strings.TrimSpace(p.TournamentID),
		strings.TrimSpace(p.TeamID),
		strings.TrimSpace(p.EventID),
		strings.TrimSpace(p.TicketID),
	)
}

// ancestryFromQuery builds a single-ticket ancestry from query
// parameters. sport, event and ticket are required on the read path;
// tournament and team are optional because the upstream ticketing API
// does not always report them.
func ancestryFromQuery(c echo.Context) (model.TicketAncestry, string) {
	a := model.TicketAncestry{
		SportType:    strings.TrimSpace(c.QueryParam("sport")),
		TournamentID: strings.TrimSpace(c.QueryParam("tournament")),
		TeamID:       strings.TrimSpace(c.QueryParam("team")),
		EventID:      strings.TrimSpace(c.QueryParam("event")),
		TicketID:     strings.TrimSpace(c.QueryParam("ticket")),
	}
	switch {
	case a.SportType == "":
		return a, "sport is required"
	case a.EventID == "":
		return a, "event is required"
	case a.TicketID == "":
		return a, "ticket is required"
	}
	return a, ""
}

// eventAncestryFromRequest builds the shared event ancestry plus the
// ticket id set for batch endpoints. The event id comes from the path,
// tickets from a comma-separated query parameter.
func eventAncestryFromRequest(c echo.Context) (model.EventAncestry, []string, string) {
	a := model.EventAncestry{
		SportType:    strings.TrimSpace(c.QueryParam("sport")),
		TournamentID: strings.TrimSpace(c.QueryParam("tournament")),
		TeamID:       strings.TrimSpace(c.QueryParam("team")),
		EventID:      strings.TrimSpace(c.Param("id")),
	}
	if a.SportType == "" {
		return a, nil, "sport is required"
	}
	if a.EventID == "" {
		return a, nil, "event id is required"
	}
	raw := strings.Split(c.QueryParam("tickets"), ",")
	tickets := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			tickets = append(tickets, t)
		}
	}
	if len(tickets) == 0 {
		return a, nil, "tickets is required"
	}
	return a, tickets, ""
}
