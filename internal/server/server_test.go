package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betledger/internal/bet"
	"betledger/internal/config"
	"betledger/internal/controller"
	"betledger/internal/db"
	"betledger/internal/gateway"
	"betledger/internal/stats"
)

func newTestServer(t *testing.T) (*httptest.Server, *db.Store) {
	t.Helper()
	database, err := db.Open(db.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, database))
	store := db.NewStore(database)
	_, err = store.SeedMethods(ctx, config.DefaultConfig().Server.SeedMethods)
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	srv := httptest.NewServer(New(store, cfg).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func errorText(t *testing.T, data []byte) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return e.Error
}

const validBet = `{"timestamp":"2025-03-01T21:00","game":"Flamengo x Vasco","methodId":1,"risk":10,"profitLoss":8}`

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	status, data := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "healthy")
}

func TestSeededMethods(t *testing.T) {
	srv, _ := newTestServer(t)
	status, data := do(t, srv, http.MethodGet, "/methods", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":1,"name":"lay 0x1"},{"id":2,"name":"lay 1x0"}]`, string(data))
}

func TestCreateBet_ResponseCarriesDerivedFields(t *testing.T) {
	srv, _ := newTestServer(t)
	status, data := do(t, srv, http.MethodPost, "/bets", validBet)
	require.Equal(t, http.StatusCreated, status, string(data))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "lay 0x1", raw["methodName"])
	assert.Equal(t, "win", raw["status"])
	assert.Equal(t, 80.0, raw["returnPct"])
	assert.Equal(t, "2025-03-01T21:00", raw["timestamp"])
	assert.NotZero(t, raw["id"])
}

func TestCreateBet_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing risk", `{"timestamp":"2025-03-01T21:00","game":"A","methodId":1,"profitLoss":8}`, "risk is required"},
		{"zero risk", `{"timestamp":"2025-03-01T21:00","game":"A","methodId":1,"risk":0,"profitLoss":8}`, "invalid risk"},
		{"risk as string", `{"timestamp":"2025-03-01T21:00","game":"A","methodId":1,"risk":"10","profitLoss":8}`, "invalid request body"},
		{"blank game", `{"timestamp":"2025-03-01T21:00","game":"  ","methodId":1,"risk":10,"profitLoss":8}`, "invalid game"},
		{"unknown method", `{"timestamp":"2025-03-01T21:00","game":"A","methodId":42,"risk":10,"profitLoss":8}`, "unknown method"},
		{"bad timestamp", `{"timestamp":"yesterday","game":"A","methodId":1,"risk":10,"profitLoss":8}`, "invalid request body"},
		{"overflowing return", `{"timestamp":"2025-03-01T21:00","game":"A","methodId":1,"risk":1e-300,"profitLoss":1e10}`, "invalid risk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, data := do(t, srv, http.MethodPost, "/bets", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, errorText(t, data), tc.want)
		})
	}
}

func TestCreateBet_OverflowingReturnIsNotStored(t *testing.T) {
	srv, _ := newTestServer(t)
	status, _ := do(t, srv, http.MethodPost, "/bets",
		`{"timestamp":"2025-03-01T21:00","game":"A","methodId":1,"risk":1e-300,"profitLoss":1e10}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, data := do(t, srv, http.MethodGet, "/bets", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))

	status, data = do(t, srv, http.MethodGet, "/statistics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"count":0`)
}

func TestRespondJSON_EncodeFailureIs500(t *testing.T) {
	_, store := newTestServer(t)
	s := New(store, config.DefaultConfig().Server)

	rec := httptest.NewRecorder()
	s.respondJSON(rec, http.StatusOK, map[string]float64{"roiPct": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "could not encode response", errorText(t, rec.Body.Bytes()))
}

func TestListBets_NewestFirst(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/bets", validBet)
	do(t, srv, http.MethodPost, "/bets",
		`{"timestamp":"2025-03-05T16:00","game":"Later","methodId":2,"risk":20,"profitLoss":-15}`)

	status, data := do(t, srv, http.MethodGet, "/bets", "")
	require.Equal(t, http.StatusOK, status)
	var bets []bet.Bet
	require.NoError(t, json.Unmarshal(data, &bets))
	require.Len(t, bets, 2)
	assert.Equal(t, "Later", bets[0].Game)
	assert.Equal(t, "lay 1x0", bets[0].MethodName)
}

func TestListBets_EmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t)
	status, data := do(t, srv, http.MethodGet, "/bets", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))
}

func TestUpdateBet_PartialMerge(t *testing.T) {
	srv, _ := newTestServer(t)
	_, data := do(t, srv, http.MethodPost, "/bets", validBet)
	var created bet.Bet
	require.NoError(t, json.Unmarshal(data, &created))

	path := "/bets/" + itoa(created.ID)
	status, data := do(t, srv, http.MethodPut, path, `{"profitLoss":-10}`)
	require.Equal(t, http.StatusOK, status, string(data))

	var updated bet.Bet
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, -10.0, updated.ProfitLoss)
	assert.Equal(t, "Flamengo x Vasco", updated.Game)
	assert.Equal(t, 10.0, updated.Risk)
	assert.Equal(t, bet.StatusLoss, updated.Status())

	status, data = do(t, srv, http.MethodPut, path, `{"risk":-1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorText(t, data), "risk")

	status, _ = do(t, srv, http.MethodPut, "/bets/999", `{"risk":1}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodPut, "/bets/abc", `{"risk":1}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteBet(t *testing.T) {
	srv, _ := newTestServer(t)
	_, data := do(t, srv, http.MethodPost, "/bets", validBet)
	var created bet.Bet
	require.NoError(t, json.Unmarshal(data, &created))

	status, _ := do(t, srv, http.MethodDelete, "/bets/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNoContent, status)

	status, data = do(t, srv, http.MethodDelete, "/bets/"+itoa(created.ID), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, errorText(t, data))
}

func TestMethods_CRUDAndConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	status, data := do(t, srv, http.MethodPost, "/methods", `{"name":"  back the draw "}`)
	require.Equal(t, http.StatusCreated, status, string(data))
	assert.JSONEq(t, `{"id":3,"name":"back the draw"}`, string(data))

	status, data = do(t, srv, http.MethodPost, "/methods", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorText(t, data), "name")

	status, _ = do(t, srv, http.MethodPost, "/methods", `{"name":"lay 0x1"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, data = do(t, srv, http.MethodPut, "/methods/3", `{"name":"draw"}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":3,"name":"draw"}`, string(data))

	status, _ = do(t, srv, http.MethodPut, "/methods/99", `{"name":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, srv, http.MethodDelete, "/methods/3", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestDeleteMethod_BlockedWhileReferenced(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/bets", validBet)

	status, data := do(t, srv, http.MethodDelete, "/methods/1", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, errorText(t, data), "1 bet(s)")
}

func TestStatistics(t *testing.T) {
	srv, _ := newTestServer(t)

	status, data := do(t, srv, http.MethodGet, "/statistics", "")
	require.Equal(t, http.StatusOK, status)
	var empty stats.Snapshot
	require.NoError(t, json.Unmarshal(data, &empty))
	assert.True(t, empty.Empty())
	assert.Nil(t, empty.LossChancePct)

	do(t, srv, http.MethodPost, "/bets", validBet)
	do(t, srv, http.MethodPost, "/bets",
		`{"timestamp":"2025-03-02T16:00","game":"B","methodId":2,"risk":20,"profitLoss":-15}`)

	_, data = do(t, srv, http.MethodGet, "/statistics", "")
	var snap stats.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.NotNil(t, snap.LossChancePct)
	assert.Equal(t, 50.0, *snap.LossChancePct)
	assert.Equal(t, 8.0, *snap.MaxProfit)
	assert.Equal(t, -15.0, *snap.MaxLoss)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/bets", validBet)

	status, data := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `betledger_mutations_total{action="create",entity="bet"} 1`)
	assert.Contains(t, string(data), "betledger_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/bets", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestClientAgainstServer drives the controller through the real gateway
// client and server.
func TestClientAgainstServer(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	client := gateway.NewClient(config.GatewayConfig{BaseURL: srv.URL})
	require.NoError(t, client.Health(ctx))

	c := controller.New(client, config.UIConfig{NotificationTTL: config.Duration{Duration: time.Minute}})
	require.NoError(t, c.Refresh(ctx))
	require.Len(t, c.Methods(), 2)

	require.NoError(t, c.SetBetInput(bet.Input{
		Timestamp: "2025-03-01T21:00", Game: "A x B", MethodID: "1", Risk: "10", ProfitLoss: "8",
	}))
	created, err := c.SubmitBet(ctx)
	require.NoError(t, err)

	bets := c.Bets()
	require.Len(t, bets, 1)
	assert.Equal(t, created.ID, bets[0].ID)
	assert.Equal(t, 1, c.Snapshot().Count)

	// A rejected create leaves the input and collections untouched.
	bad := bet.Input{Timestamp: "2025-03-01T22:00", Game: "C x D", MethodID: "42", Risk: "5", ProfitLoss: "1"}
	require.NoError(t, c.SetBetInput(bad))
	_, err = c.SubmitBet(ctx)
	re, ok := gateway.AsRequestError(err)
	require.True(t, ok, "want RequestError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, bad, c.BetForm().Input)
	assert.Len(t, c.Bets(), 1)

	err = c.DeleteMethod(ctx, 1)
	re, ok = gateway.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, re.Status)

	require.NoError(t, c.DeleteBet(ctx, created.ID))
	assert.Empty(t, c.Bets())
	assert.True(t, c.Snapshot().Empty())
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
