package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Unavailable is how a nil metric is displayed.
const Unavailable = "-"

// Line is one labelled, display-formatted metric.
type Line struct {
	Label string
	Value string
}

// Lines renders the snapshot in display order.
func Lines(s Snapshot) []Line {
	period := Unavailable
	if s.PeriodStart != nil && s.PeriodEnd != nil {
		period = s.PeriodStart.Display() + " - " + s.PeriodEnd.Display()
	}
	return []Line{
		{"Period", period},
		{"Bets", formatCount(s)},
		{"Loss chance", Percent(s.LossChancePct)},
		{"Max profit", Money(s.MaxProfit)},
		{"Avg profit", Money(s.AvgProfit)},
		{"Min profit", Money(s.MinProfit)},
		{"Max loss", Money(s.MaxLoss)},
		{"Avg loss", Money(s.AvgLoss)},
		{"Min loss", Money(s.MinLoss)},
		{"Total risk", Money(s.TotalRisk)},
		{"Net profit/loss", Money(s.NetProfitLoss)},
		{"ROI", Percent(s.ROIPct)},
	}
}

// Money formats a currency amount with two decimals.
func Money(v *float64) string {
	if v == nil {
		return Unavailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// Percent formats a percentage with two decimals.
func Percent(v *float64) string {
	if v == nil {
		return Unavailable
	}
	return decimal.NewFromFloat(*v).StringFixed(2) + "%"
}

// LogSnapshot logs the snapshot as structured fields.
func LogSnapshot(log logrus.FieldLogger, s Snapshot) {
	log.WithFields(logrus.Fields{
		"bets":            s.Count,
		"wins":            s.Wins,
		"losses":          s.Losses,
		"loss_chance_pct": Percent(s.LossChancePct),
		"max_profit":      Money(s.MaxProfit),
		"avg_profit":      Money(s.AvgProfit),
		"max_loss":        Money(s.MaxLoss),
		"avg_loss":        Money(s.AvgLoss),
		"net":             Money(s.NetProfitLoss),
		"roi_pct":         Percent(s.ROIPct),
	}).Info("statistics snapshot")
}

func formatCount(s Snapshot) string {
	if s.Empty() {
		return "0"
	}
	return fmt.Sprintf("%d (%d win / %d loss)", s.Count, s.Wins, s.Losses)
}
