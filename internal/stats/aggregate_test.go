package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betledger/internal/bet"
)

func mkBet(id int64, day int, risk, pl float64) bet.Bet {
	return bet.Bet{
		ID: id,
		Fields: bet.Fields{
			Timestamp:  bet.NewTimestamp(time.Date(2025, 5, day, 18, 0, 0, 0, time.Local)),
			Game:       "game",
			MethodID:   1,
			Risk:       risk,
			ProfitLoss: pl,
		},
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil)

	assert.True(t, s.Empty())
	assert.Nil(t, s.PeriodStart)
	assert.Nil(t, s.PeriodEnd)
	assert.Nil(t, s.LossChancePct, "empty collection must not report a zero loss chance")
	assert.Nil(t, s.MaxProfit)
	assert.Nil(t, s.AvgProfit)
	assert.Nil(t, s.MinProfit)
	assert.Nil(t, s.MaxLoss)
	assert.Nil(t, s.AvgLoss)
	assert.Nil(t, s.MinLoss)
	assert.Nil(t, s.ROIPct)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Nil(t, raw["lossChancePct"])
	assert.Contains(t, raw, "lossChancePct")
}

func TestAggregate_Fixture(t *testing.T) {
	s := Aggregate([]bet.Bet{
		mkBet(1, 1, 10, 8),
		mkBet(2, 2, 20, -15),
	})

	require.NotNil(t, s.LossChancePct)
	assert.Equal(t, 50.0, *s.LossChancePct)
	require.NotNil(t, s.MaxProfit)
	assert.Equal(t, 8.0, *s.MaxProfit)
	require.NotNil(t, s.MaxLoss)
	assert.Equal(t, -15.0, *s.MaxLoss)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, -7.0, *s.NetProfitLoss)
	assert.Equal(t, 30.0, *s.TotalRisk)
}

func TestAggregate_LossChanceMatchesManualComputation(t *testing.T) {
	bets := []bet.Bet{
		mkBet(1, 1, 10, 5),
		mkBet(2, 2, 10, -10),
		mkBet(3, 3, 10, 0),
	}
	s := Aggregate(bets)

	losses := 0
	for _, b := range bets {
		if b.ProfitLoss < 0 {
			losses++
		}
	}
	want := float64(losses) / float64(len(bets)) * 100
	assert.Equal(t, want, *s.LossChancePct)
}

func TestAggregate_SignedLossOrdering(t *testing.T) {
	s := Aggregate([]bet.Bet{
		mkBet(1, 1, 10, -5),
		mkBet(2, 2, 30, -25),
		mkBet(3, 3, 10, -0.5),
	})

	assert.Equal(t, -25.0, *s.MaxLoss)
	assert.Equal(t, -0.5, *s.MinLoss)
	assert.InDelta(t, -10.1666666, *s.AvgLoss, 1e-6)
	assert.Nil(t, s.MaxProfit, "no wins means profit metrics are unavailable")
	assert.Nil(t, s.AvgProfit)
	assert.Nil(t, s.MinProfit)
	assert.Equal(t, 100.0, *s.LossChancePct)
}

func TestAggregate_OnlyWins(t *testing.T) {
	s := Aggregate([]bet.Bet{
		mkBet(1, 1, 10, 1.1),
		mkBet(2, 2, 10, 2.2),
	})

	assert.Equal(t, 0.0, *s.LossChancePct)
	assert.Equal(t, 2.2, *s.MaxProfit)
	assert.Equal(t, 1.1, *s.MinProfit)
	assert.Equal(t, 1.65, *s.AvgProfit)
	assert.Nil(t, s.MaxLoss)
	assert.Nil(t, s.AvgLoss)
	assert.Nil(t, s.MinLoss)
}

func TestAggregate_Period(t *testing.T) {
	s := Aggregate([]bet.Bet{
		mkBet(1, 9, 10, 1),
		mkBet(2, 3, 10, 1),
		mkBet(3, 20, 10, -1),
	})

	require.NotNil(t, s.PeriodStart)
	require.NotNil(t, s.PeriodEnd)
	assert.Equal(t, 3, s.PeriodStart.Day())
	assert.Equal(t, 20, s.PeriodEnd.Day())
}

func TestAggregate_ZeroProfitIsWin(t *testing.T) {
	s := Aggregate([]bet.Bet{mkBet(1, 1, 10, 0)})
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 0.0, *s.MaxProfit)
}

func TestAggregate_OverflowingTotalsAreUnavailable(t *testing.T) {
	bets := []bet.Bet{mkBet(1, 1, 1.5e308, 1e308), mkBet(2, 2, 1.5e308, 1e308)}
	s := Aggregate(bets)

	assert.Nil(t, s.TotalRisk)
	assert.Nil(t, s.NetProfitLoss)
	require.NotNil(t, s.ROIPct)
	assert.InDelta(t, 66.67, *s.ROIPct, 0.01)
	require.NotNil(t, s.AvgProfit)
	assert.InDelta(t, 1e308, *s.AvgProfit, 1e300)

	_, err := json.Marshal(s)
	require.NoError(t, err)
}

func TestLines_UnavailableForEmpty(t *testing.T) {
	for _, l := range Lines(Aggregate(nil)) {
		if l.Label == "Bets" {
			assert.Equal(t, "0", l.Value)
			continue
		}
		assert.Equal(t, Unavailable, l.Value, l.Label)
	}
}

func TestLines_Formatting(t *testing.T) {
	lines := Lines(Aggregate([]bet.Bet{mkBet(1, 1, 10, 8), mkBet(2, 2, 20, -15)}))
	got := make(map[string]string, len(lines))
	for _, l := range lines {
		got[l.Label] = l.Value
	}
	assert.Equal(t, "50.00%", got["Loss chance"])
	assert.Equal(t, "8.00", got["Max profit"])
	assert.Equal(t, "-15.00", got["Max loss"])
	assert.Equal(t, "2 (1 win / 1 loss)", got["Bets"])
	assert.Equal(t, "01/05/2025 18:00 - 02/05/2025 18:00", got["Period"])
}

func TestLogSnapshot(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	LogSnapshot(log, Aggregate([]bet.Bet{mkBet(1, 1, 10, 8)}))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["bets"])
	assert.Equal(t, "0.00%", entry.Data["loss_chance_pct"])
}
