package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaops/ticket-pricing/internal/model"
	"github.com/arenaops/ticket-pricing/internal/repository"
)

// fakeAssignmentStore serves assignment candidates from memory with the
// same matching semantics as the SQL candidate queries.
type fakeAssignmentStore struct {
	assignments []fakeAssignment
}

type fakeAssignment struct {
	id          uint64
	scope       model.ScopeKey
	active      bool
	hospitality uint64
	name        string
	description string
	sortOrder   uint32
}

func (s *fakeAssignmentStore) matches(as fakeAssignment, a model.TicketAncestry) bool {
	if !as.active || as.scope.SportType != a.SportType {
		return false
	}
	switch as.scope.Level {
	case model.LevelTicket:
		return as.scope.TicketID == a.TicketID
	case model.LevelEvent:
		return as.scope.EventID == a.EventID
	case model.LevelTeam:
		return a.TeamID != "" && as.scope.TeamID == a.TeamID
	case model.LevelTournament:
		return a.TournamentID != "" && as.scope.TournamentID == a.TournamentID
	case model.LevelSport:
		return true
	}
	return false
}

func (s *fakeAssignmentStore) candidate(as fakeAssignment) repository.AssignmentCandidate {
	return repository.AssignmentCandidate{
		AssignmentID: as.id, Level: as.scope.Level, TicketID: as.scope.TicketID,
		HospitalityID: as.hospitality, Name: as.name, Description: as.description,
		SortOrder: as.sortOrder,
	}
}

func (s *fakeAssignmentStore) CandidatesForTicket(_ context.Context, a model.TicketAncestry) ([]repository.AssignmentCandidate, error) {
	out := []repository.AssignmentCandidate{}
	for _, as := range s.assignments {
		if s.matches(as, a) {
			out = append(out, s.candidate(as))
		}
	}
	return out, nil
}

func (s *fakeAssignmentStore) CandidatesForEvent(ctx context.Context, a model.EventAncestry, ticketIDs []string) ([]repository.AssignmentCandidate, error) {
	seen := map[uint64]bool{}
	out := []repository.AssignmentCandidate{}
	for _, id := range ticketIDs {
		cands, _ := s.CandidatesForTicket(ctx, a.ForTicket(id))
		for _, c := range cands {
			if !seen[c.AssignmentID] {
				seen[c.AssignmentID] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func TestResolveHospitalitiesAdditiveAcrossLevels(t *testing.T) {
	ctx := context.Background()
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 1, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 10, name: "Parking", sortOrder: 2},
		{id: 2, scope: mustScope(t, "tennis", "wimbledon", "", "", ""), active: true, hospitality: 20, name: "Lounge", sortOrder: 1},
		{id: 3, scope: mustScope(t, "tennis", "wimbledon", "", "E1", ""), active: true, hospitality: 30, name: "Catering", sortOrder: 3},
	}}
	res := NewHospitalityResolver(&fakeLegacyStore{eventID: "E1"}, rules)

	got, err := res.ResolveHospitalities(ctx, tennisAncestry())
	require.NoError(t, err)
	// All three levels contribute: hospitality is a union, not
	// most-specific-wins.
	require.Len(t, got, 3)
	assert.Equal(t, "Lounge", got[0].Name)
	assert.Equal(t, "Parking", got[1].Name)
	assert.Equal(t, "Catering", got[2].Name)
}

func TestResolveHospitalitiesDedupKeepsMostSpecific(t *testing.T) {
	ctx := context.Background()
	// The same service assigned at sport and event level must appear
	// once, carrying event-level metadata.
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 1, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 10, name: "Parking", sortOrder: 1},
		{id: 2, scope: mustScope(t, "tennis", "wimbledon", "", "E1", ""), active: true, hospitality: 10, name: "Parking", sortOrder: 1},
	}}
	res := NewHospitalityResolver(&fakeLegacyStore{eventID: "E1"}, rules)

	got, err := res.ResolveHospitalities(ctx, tennisAncestry())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.LevelEvent, got[0].Level)
	require.NotNil(t, got[0].AssignmentID)
	assert.Equal(t, uint64(2), *got[0].AssignmentID)
}

func TestResolveHospitalitiesLegacyWinsTicketLevelTie(t *testing.T) {
	ctx := context.Background()
	legacy := &fakeLegacyStore{
		eventID: "E1",
		assignments: []repository.LegacyAssignmentDetail{
			{AssignmentID: 99, TicketID: "T42", HospitalityID: 10, Name: "Parking", SortOrder: 1},
		},
	}
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 5, scope: mustScope(t, "tennis", "wimbledon", "", "E1", "T42"), active: true, hospitality: 10, name: "Parking", sortOrder: 1},
	}}
	res := NewHospitalityResolver(legacy, rules)

	got, err := res.ResolveHospitalities(ctx, tennisAncestry())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SourceLegacy, got[0].Source)
	assert.Equal(t, model.LevelTicket, got[0].Level)
	require.NotNil(t, got[0].AssignmentID)
	assert.Equal(t, uint64(99), *got[0].AssignmentID)
}

func TestResolveHospitalitiesEmptyIsNotAnError(t *testing.T) {
	res := NewHospitalityResolver(&fakeLegacyStore{eventID: "E1"}, &fakeAssignmentStore{})
	got, err := res.ResolveHospitalities(context.Background(), tennisAncestry())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveHospitalitiesStableDisplayOrder(t *testing.T) {
	ctx := context.Background()
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 1, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 1, name: "Zulu Bar", sortOrder: 1},
		{id: 2, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 2, name: "Alpha Bar", sortOrder: 1},
		{id: 3, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 3, name: "Valet", sortOrder: 0},
	}}
	res := NewHospitalityResolver(&fakeLegacyStore{eventID: "E1"}, rules)

	got, err := res.ResolveHospitalities(ctx, tennisAncestry())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Valet", got[0].Name)
	assert.Equal(t, "Alpha Bar", got[1].Name)
	assert.Equal(t, "Zulu Bar", got[2].Name)
}

func TestResolveHospitalitiesForEventCrossTicketIsolation(t *testing.T) {
	ctx := context.Background()
	// T1 has a ticket-scoped assignment; T2 must never see it, even
	// though the batch path shares the candidate query.
	legacy := &fakeLegacyStore{
		eventID: "E1",
		assignments: []repository.LegacyAssignmentDetail{
			{AssignmentID: 50, TicketID: "T1", HospitalityID: 40, Name: "Champagne", SortOrder: 5},
		},
	}
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 1, scope: mustScope(t, "tennis", "wimbledon", "", "E1", "T1"), active: true, hospitality: 10, name: "Parking", sortOrder: 1},
		{id: 2, scope: mustScope(t, "tennis", "wimbledon", "", "E1", ""), active: true, hospitality: 20, name: "Lounge", sortOrder: 2},
	}}
	res := NewHospitalityResolver(legacy, rules)

	event := model.EventAncestry{SportType: "tennis", TournamentID: "wimbledon", EventID: "E1"}
	batch, err := res.ResolveHospitalitiesForEvent(ctx, event, []string{"T1", "T2"})
	require.NoError(t, err)
	require.Len(t, batch, 2)

	t1IDs := hospitalityIDs(batch["T1"])
	t2IDs := hospitalityIDs(batch["T2"])
	assert.ElementsMatch(t, []uint64{10, 20, 40}, t1IDs)
	assert.ElementsMatch(t, []uint64{20}, t2IDs, "ticket-scoped services for T1 must not leak into T2")
}

func TestResolveHospitalitiesForEventMatchesSingleResolution(t *testing.T) {
	ctx := context.Background()
	legacy := &fakeLegacyStore{
		eventID: "E1",
		assignments: []repository.LegacyAssignmentDetail{
			{AssignmentID: 50, TicketID: "T1", HospitalityID: 10, Name: "Parking", SortOrder: 1},
		},
	}
	rules := &fakeAssignmentStore{assignments: []fakeAssignment{
		{id: 1, scope: mustScope(t, "tennis", "", "", "", ""), active: true, hospitality: 10, name: "Parking", sortOrder: 1},
		{id: 2, scope: mustScope(t, "tennis", "wimbledon", "", "E1", ""), active: true, hospitality: 20, name: "Lounge", sortOrder: 2},
		{id: 3, scope: mustScope(t, "tennis", "wimbledon", "", "E1", "T2"), active: true, hospitality: 30, name: "Catering", sortOrder: 3},
	}}
	res := NewHospitalityResolver(legacy, rules)

	event := model.EventAncestry{SportType: "tennis", TournamentID: "wimbledon", EventID: "E1"}
	tickets := []string{"T1", "T2", "T3"}
	batch, err := res.ResolveHospitalitiesForEvent(ctx, event, tickets)
	require.NoError(t, err)

	for _, id := range tickets {
		single, err := res.ResolveHospitalities(ctx, event.ForTicket(id))
		require.NoError(t, err)
		assert.Equal(t, single, batch[id], "batch result for %s must equal single resolution", id)
	}
}

func TestResolveHospitalitiesForEventEmptySets(t *testing.T) {
	res := NewHospitalityResolver(&fakeLegacyStore{eventID: "E1"}, &fakeAssignmentStore{})
	batch, err := res.ResolveHospitalitiesForEvent(context.Background(),
		model.EventAncestry{SportType: "tennis", EventID: "E1"}, []string{"T1"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Empty(t, batch["T1"])
}

func hospitalityIDs(recs []model.HospitalityRecord) []uint64 {
	out := make([]uint64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.HospitalityID)
	}
	return out
}
