package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betledger/internal/bet"
	"betledger/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.GatewayConfig{BaseURL: srv.URL + "/", UserAgent: "betledger-test"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListBets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bets", r.URL.Path)
		assert.Equal(t, "betledger-test", r.Header.Get("User-Agent"))
		io.WriteString(w, `[{"id":4,"timestamp":"2025-03-01T21:00","game":"A x B","methodId":2,
			"methodName":"lay 0x1","risk":10,"profitLoss":-10,"status":"loss","returnPct":-100}]`)
	})

	bets, err := c.ListBets(context.Background())
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, int64(4), bets[0].ID)
	assert.Equal(t, "lay 0x1", bets[0].MethodName)
	assert.Equal(t, -10.0, bets[0].ProfitLoss)
	assert.Equal(t, bet.StatusLoss, bets[0].Status())
	assert.Equal(t, "2025-03-01T21:00", bets[0].Timestamp.String())
}

func TestCreateBet_SendsNumbers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, float64(10), raw["risk"])
		assert.Equal(t, float64(8), raw["profitLoss"])
		assert.Equal(t, float64(1), raw["methodId"])
		assert.NotContains(t, raw, "id")

		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 11, "timestamp": raw["timestamp"], "game": raw["game"],
			"methodId": 1, "risk": 10, "profitLoss": 8,
		})
	})

	ts, _ := bet.ParseTimestamp("2025-03-01T21:00")
	created, err := c.CreateBet(context.Background(), bet.Fields{
		Timestamp: ts, Game: "A x B", MethodID: 1, Risk: 10, ProfitLoss: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), created.ID)
	assert.Equal(t, "A x B", created.Game)
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, map[string]any{"id": 5, "name": "renamed"})
		}
	})

	ctx := context.Background()
	_, err := c.UpdateBet(ctx, 5, bet.Fields{})
	require.NoError(t, err)
	require.NoError(t, c.DeleteBet(ctx, 5))
	m, err := c.UpdateMethod(ctx, 5, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", m.Name)
	require.NoError(t, c.DeleteMethod(ctx, 5))

	assert.Equal(t, []string{
		"PUT /bets/5",
		"DELETE /bets/5",
		"PUT /methods/5",
		"DELETE /methods/5",
	}, seen)
}

func TestRequestError_CarriesGatewayMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "method is used by 2 bets"})
	})

	err := c.DeleteMethod(context.Background(), 1)
	re, ok := AsRequestError(err)
	require.True(t, ok, "want RequestError, got %v", err)
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.Equal(t, "method is used by 2 bets", re.Message)
	assert.False(t, IsNetwork(err))
	assert.Equal(t, "could not delete method: method is used by 2 bets", UserMessage(err, "could not delete method"))
}

func TestRequestError_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.ListMethods(context.Background())
	re, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "upstream exploded", re.Message)
}

func TestRequestError_EmptyBodyUsesStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteBet(context.Background(), 99)
	re, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "Not Found", re.Message)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(config.GatewayConfig{BaseURL: url})
	_, err := c.ListBets(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	_, isReq := AsRequestError(err)
	assert.False(t, isReq)
	assert.Equal(t, "could not load bets", UserMessage(err, "could not load bets"))
}

func TestTimeout_IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.GatewayConfig{
		BaseURL: srv.URL,
		Timeout: config.Duration{Duration: 20 * time.Millisecond},
	})
	_, err := c.Statistics(context.Background())
	assert.True(t, IsNetwork(err))
}

func TestStatistics_UnavailableFieldsStayNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics", r.URL.Path)
		io.WriteString(w, `{"count":0,"wins":0,"losses":0,"periodStart":null,"periodEnd":null,
			"lossChancePct":null,"maxProfit":null,"avgProfit":null,"minProfit":null,
			"maxLoss":null,"avgLoss":null,"minLoss":null}`)
	})

	s, err := c.Statistics(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Nil(t, s.LossChancePct)
	assert.Nil(t, s.PeriodStart)
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	})

	_, err := c.ListBets(context.Background())
	require.Error(t, err)
	assert.False(t, IsNetwork(err))
}

func TestEmptySuccessBody_IsErrorWhenResultExpected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	bets, err := c.ListBets(ctx)
	require.Error(t, err)
	assert.Nil(t, bets)
	assert.Contains(t, err.Error(), "empty response body")
	assert.False(t, IsNetwork(err))

	_, err = c.CreateBet(ctx, bet.Fields{})
	require.Error(t, err)
	_, err = c.UpdateBet(ctx, 1, bet.Fields{})
	require.Error(t, err)
	_, err = c.ListMethods(ctx)
	require.Error(t, err)
	_, err = c.Statistics(ctx)
	require.Error(t, err)

	require.NoError(t, c.DeleteBet(ctx, 1))
	require.NoError(t, c.DeleteMethod(ctx, 1))
}
