package bet

import (
	"encoding/json"
	"math"
	"strings"
)

// Status is the derived win/loss classification of a bet.
type Status string

const (
	StatusWin  Status = "win"
	StatusLoss Status = "loss"
)

// Fields are the user-supplied attributes of a bet. This is also the request
// body for creating or replacing a bet on the gateway.
type Fields struct {
	Timestamp  Timestamp `json:"timestamp"`
	Game       string    `json:"game"`
	MethodID   int64     `json:"methodId"`
	Risk       float64   `json:"risk"`
	ProfitLoss float64   `json:"profitLoss"`
}

// Bet is one recorded wager. ID is assigned by the storage layer.
type Bet struct {
	ID int64 `json:"id"`
	Fields
	MethodName string `json:"methodName,omitempty"`
}

// Status reports "win" when ProfitLoss >= 0 and "loss" otherwise.
func (f Fields) Status() Status {
	if f.ProfitLoss >= 0 {
		return StatusWin
	}
	return StatusLoss
}

// ReturnPct is ProfitLoss / Risk * 100. ok is false when Risk is not a
// positive finite number or the ratio overflows, in which case the return
// is undefined.
func (f Fields) ReturnPct() (pct float64, ok bool) {
	if !finite(f.Risk) || f.Risk <= 0 || !finite(f.ProfitLoss) {
		return 0, false
	}
	pct = f.ProfitLoss / f.Risk * 100
	if !finite(pct) {
		return 0, false
	}
	return pct, true
}

// IsWin is shorthand for Status() == StatusWin.
func (f Fields) IsWin() bool { return f.Status() == StatusWin }

// MarshalJSON adds the derived status and returnPct to the stored fields.
func (b Bet) MarshalJSON() ([]byte, error) {
	type plain Bet
	out := struct {
		plain
		Status    Status   `json:"status"`
		ReturnPct *float64 `json:"returnPct"`
	}{
		plain:  plain(b),
		Status: b.Status(),
	}
	if pct, ok := b.ReturnPct(); ok {
		out.ReturnPct = &pct
	}
	return json.Marshal(out)
}

// Validate checks the invariants every stored bet must satisfy.
func Validate(f Fields) error {
	if f.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	if strings.TrimSpace(f.Game) == "" {
		return &ValidationError{Field: "game", Reason: "is required"}
	}
	if f.MethodID <= 0 {
		return &ValidationError{Field: "methodId", Reason: "must reference a method"}
	}
	if !finite(f.Risk) {
		return &ValidationError{Field: "risk", Reason: "must be a finite number"}
	}
	if f.Risk <= 0 {
		return &ValidationError{Field: "risk", Reason: "must be greater than zero"}
	}
	if !finite(f.ProfitLoss) {
		return &ValidationError{Field: "profitLoss", Reason: "must be a finite number"}
	}
	if _, ok := f.ReturnPct(); !ok {
		return &ValidationError{Field: "risk", Reason: "is too small for the profit/loss"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
