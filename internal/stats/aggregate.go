package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"betledger/internal/bet"
)

// Snapshot contains summary metrics over a bet collection. Nil pointers mean
// "unavailable": the collection (or the win/loss subset the metric is taken
// over) is empty, or the value overflows a float64.
type Snapshot struct {
	Count  int `json:"count"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	PeriodStart *bet.Timestamp `json:"periodStart"`
	PeriodEnd   *bet.Timestamp `json:"periodEnd"`

	LossChancePct *float64 `json:"lossChancePct"`

	MaxProfit *float64 `json:"maxProfit"`
	AvgProfit *float64 `json:"avgProfit"`
	MinProfit *float64 `json:"minProfit"`

	// Loss metrics are signed. MaxLoss is the loss of greatest magnitude
	// (most negative), MinLoss the one closest to zero.
	MaxLoss *float64 `json:"maxLoss"`
	AvgLoss *float64 `json:"avgLoss"`
	MinLoss *float64 `json:"minLoss"`

	TotalRisk     *float64 `json:"totalRisk"`
	NetProfitLoss *float64 `json:"netProfitLoss"`
	ROIPct        *float64 `json:"roiPct"`
}

// Empty reports whether the snapshot was computed over no bets.
func (s Snapshot) Empty() bool { return s.Count == 0 }

// Aggregate computes a Snapshot over bets. It never divides by zero.
func Aggregate(bets []bet.Bet) Snapshot {
	var s Snapshot
	if len(bets) == 0 {
		return s
	}

	var (
		start, end     bet.Timestamp
		wins, losses   []decimal.Decimal
		totalRisk, net = decimal.Zero, decimal.Zero
	)
	for _, b := range bets {
		if !b.Timestamp.IsZero() {
			if start.IsZero() || b.Timestamp.Before(start.Time) {
				start = b.Timestamp
			}
			if end.IsZero() || b.Timestamp.After(end.Time) {
				end = b.Timestamp
			}
		}

		pl := decimal.NewFromFloat(b.ProfitLoss)
		net = net.Add(pl)
		totalRisk = totalRisk.Add(decimal.NewFromFloat(b.Risk))
		if b.IsWin() {
			wins = append(wins, pl)
		} else {
			losses = append(losses, pl)
		}
	}

	s.Count = len(bets)
	s.Wins = len(wins)
	s.Losses = len(losses)
	if !start.IsZero() {
		s.PeriodStart = &start
		s.PeriodEnd = &end
	}
	s.LossChancePct = ptr(float64(s.Losses) / float64(s.Count) * 100)

	if len(wins) > 0 {
		lo, mean, hi := summarize(wins)
		s.MaxProfit, s.AvgProfit, s.MinProfit = ptr(hi), ptr(mean), ptr(lo)
	}
	if len(losses) > 0 {
		lo, mean, hi := summarize(losses)
		s.MaxLoss, s.AvgLoss, s.MinLoss = ptr(lo), ptr(mean), ptr(hi)
	}

	s.TotalRisk = ptr(totalRisk.InexactFloat64())
	s.NetProfitLoss = ptr(net.InexactFloat64())
	if totalRisk.IsPositive() {
		s.ROIPct = ptr(net.Div(totalRisk).Mul(decimal.NewFromInt(100)).InexactFloat64())
	}
	return s
}

// summarize returns the min, mean and max of a non-empty slice.
func summarize(values []decimal.Decimal) (lo, mean, hi float64) {
	minV, maxV, sum := values[0], values[0], decimal.Zero
	for _, v := range values {
		if v.LessThan(minV) {
			minV = v
		}
		if v.GreaterThan(maxV) {
			maxV = v
		}
		sum = sum.Add(v)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(values))))
	return minV.InexactFloat64(), avg.InexactFloat64(), maxV.InexactFloat64()
}

// ptr returns nil for values that do not fit a finite float64, so an
// overflowing sum reads as unavailable instead of breaking JSON encoding.
func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
