package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pscheid92/chatpolls/internal/errors"
	"github.com/pscheid92/chatpolls/internal/poll"
)

func newOpenTestPoll(t *testing.T, id string, pollType poll.Type) *poll.Poll {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testEpoch)
	p, err := poll.New(id, poll.CreateRequest{
		Title:       "Next map",
		Description: "Vote for the next map",
		Options:     []string{"Desert", "Jungle", "Tundra"},
		Duration:    time.Hour,
		Type:        pollType,
	}, clock)
	require.NoError(t, err)
	clock.Advance(time.Second)
	return p
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestListOwners(t *testing.T) {
	app := newMockPollService()
	owner := uuid.New()
	app.add(owner, newOpenTestPoll(t, "100001", poll.TypeSingle))
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/api/owners")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"owners":["`+owner.String()+`"]}`, rec.Body.String())
}

func TestListPolls(t *testing.T) {
	app := newMockPollService()
	owner := uuid.New()
	p := newOpenTestPoll(t, "100001", poll.TypeSingle)
	require.True(t, p.CastVote(uuid.New(), "Jungle"))
	app.add(owner, p)
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/"+owner.String()+"/polls")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Polls []pollSummary `json:"polls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Polls, 1)
	assert.Equal(t, "100001", body.Polls[0].ID)
	assert.Equal(t, "SINGLE", body.Polls[0].Type)
	assert.Equal(t, "open", body.Polls[0].Status)
	assert.Equal(t, 1, body.Polls[0].Voters)
}

func TestListPolls_UnknownOwnerIsEmpty(t *testing.T) {
	srv := newTestServer(t, newMockPollService())

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/"+uuid.NewString()+"/polls")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"polls":[]}`, rec.Body.String())
}

func TestListPolls_InvalidOwner(t *testing.T) {
	srv := newTestServer(t, newMockPollService())

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/not-a-uuid/polls")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeValidation, resp.Type)
	assert.Equal(t, "not-a-uuid", resp.Context["owner"])
}

func TestGetPoll_Single(t *testing.T) {
	app := newMockPollService()
	owner := uuid.New()
	p := newOpenTestPoll(t, "100002", poll.TypeSingle)
	require.True(t, p.CastVote(uuid.New(), "Tundra"))
	require.True(t, p.CastVote(uuid.New(), "Tundra"))
	require.True(t, p.CastVote(uuid.New(), "Desert"))
	p.AddReward(poll.NewExperienceReward(100, nil))
	app.add(owner, p)
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/"+owner.String()+"/polls/100002")
	require.Equal(t, http.StatusOK, rec.Code)

	var got pollDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Vote for the next map", got.Description)
	assert.Equal(t, map[string]int{"Desert": 1, "Jungle": 0, "Tundra": 2}, got.OptionVotes)
	assert.Equal(t, "Tundra", got.Winner)
	assert.Equal(t, []string{"100 XP"}, got.Rewards)
	assert.Equal(t, 3, got.Voters)
}

func TestGetPoll_RankedOmitsTally(t *testing.T) {
	app := newMockPollService()
	owner := uuid.New()
	p := newOpenTestPoll(t, "100003", poll.TypeRanked)
	require.True(t, p.CastRankedVote(uuid.New(), []string{"Jungle", "Desert"}))
	app.add(owner, p)
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/"+owner.String()+"/polls/100003")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "option_votes")
	assert.Equal(t, "Jungle", raw["winner"])
	assert.Equal(t, "RANKED", raw["type"])
}

func TestGetPoll_NotFound(t *testing.T) {
	srv := newTestServer(t, newMockPollService())

	rec := doRequest(t, srv, http.MethodGet, "/api/owners/"+uuid.NewString()+"/polls/999999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)
}

func TestSave(t *testing.T) {
	app := newMockPollService()
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodPost, "/api/save")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"saved"}`, rec.Body.String())
	assert.Equal(t, 1, app.getSaves())
}

func TestSave_StoreUnavailable(t *testing.T) {
	app := newMockPollService()
	app.saveErr = apperrors.UnavailableError("failed to save polls", errors.New("redis down"))
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodPost, "/api/save")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"unavailable"`)
}

func TestMetricsRoute(t *testing.T) {
	called := false
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	srv := newTestServer(t, newMockPollService(), withMetricsHandler(metricsHandler))

	rec := doRequest(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestMetricsRoute_DisabledWithoutHandler(t *testing.T) {
	srv := newTestServer(t, newMockPollService())

	rec := doRequest(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, newMockPollService())

	rec := doRequest(t, srv, http.MethodGet, "/health/live")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get(correlationHeader))
}
