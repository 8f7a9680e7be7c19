package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenaops/ticket-pricing/internal/model"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetActorID(t *testing.T) {
	cases := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{"float64 claim", float64(42), 42, false},
		{"string claim", "17", 17, false},
		{"uint64 claim", uint64(3), 3, false},
		{"int claim", 9, 9, false},
		{"garbage string", "abc", 0, true},
		{"missing", nil, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestContext(t, "/")
			if tc.value != nil {
				c.Set("user_id", tc.value)
			}
			got, err := getActorID(c)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScopePayloadDerivesLevel(t *testing.T) {
	p := scopePayload{SportType: " tennis ", EventID: "E1"}
	scope, err := p.toScopeKey()
	require.NoError(t, err)
	assert.Equal(t, model.LevelEvent, scope.Level)
	assert.Equal(t, "tennis", scope.SportType)

	_, err = scopePayload{}.toScopeKey()
	assert.ErrorIs(t, err, model.ErrInvalidScope)
}

func TestAncestryFromQuery(t *testing.T) {
	c, _ := newTestContext(t, "/v1/pricing/markup?sport=tennis&tournament=wimbledon&event=E1&ticket=T42")
	a, msg := ancestryFromQuery(c)
	require.Empty(t, msg)
	assert.Equal(t, "tennis", a.SportType)
	assert.Equal(t, "wimbledon", a.TournamentID)
	assert.Empty(t, a.TeamID)
	assert.Equal(t, "E1", a.EventID)
	assert.Equal(t, "T42", a.TicketID)

	c, _ = newTestContext(t, "/v1/pricing/markup?sport=tennis&event=E1")
	_, msg = ancestryFromQuery(c)
	assert.Equal(t, "ticket is required", msg)

	c, _ = newTestContext(t, "/v1/pricing/markup?event=E1&ticket=T42")
	_, msg = ancestryFromQuery(c)
	assert.Equal(t, "sport is required", msg)
}

func TestEventAncestryFromRequest(t *testing.T) {
	c, _ := newTestContext(t, "/v1/events/E1/markups?sport=tennis&tickets=T1,%20T2,T1,,T3")
	c.SetParamNames("id")
	c.SetParamValues("E1")

	a, tickets, msg := eventAncestryFromRequest(c)
	require.Empty(t, msg)
	assert.Equal(t, "E1", a.EventID)
	// Duplicates and blanks are dropped, order preserved.
	assert.Equal(t, []string{"T1", "T2", "T3"}, tickets)

	c, _ = newTestContext(t, "/v1/events/E1/markups?sport=tennis")
	c.SetParamNames("id")
	c.SetParamValues("E1")
	_, _, msg = eventAncestryFromRequest(c)
	assert.Equal(t, "tickets is required", msg)
}
