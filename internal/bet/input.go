package bet

import (
	"strconv"
	"strings"
	"time"
)

// Input holds the raw text a user typed into the bet form.
type Input struct {
	Timestamp  string
	Game       string
	MethodID   string
	Risk       string
	ProfitLoss string
}

// IsEmpty reports whether every field is blank.
func (in Input) IsEmpty() bool {
	return in == Input{}
}

// Parse converts form text into Fields, failing with a *ValidationError on the
// first field that is missing, non-numeric, non-finite or out of range.
func Parse(in Input) (Fields, error) {
	var f Fields

	tsText := strings.TrimSpace(in.Timestamp)
	if tsText == "" {
		return Fields{}, &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	ts, err := ParseTimestamp(tsText)
	if err != nil {
		return Fields{}, &ValidationError{Field: "timestamp", Reason: err.Error()}
	}
	f.Timestamp = ts

	f.Game = strings.TrimSpace(in.Game)

	idText := strings.TrimSpace(in.MethodID)
	if idText == "" {
		return Fields{}, &ValidationError{Field: "methodId", Reason: "is required"}
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return Fields{}, &ValidationError{Field: "methodId", Reason: "must be a whole number"}
	}
	f.MethodID = id

	if f.Risk, err = parseAmount("risk", in.Risk); err != nil {
		return Fields{}, err
	}
	if f.ProfitLoss, err = parseAmount("profitLoss", in.ProfitLoss); err != nil {
		return Fields{}, err
	}

	if err := Validate(f); err != nil {
		return Fields{}, err
	}
	return f, nil
}

// ToInput renders a stored bet back into form text for editing.
func ToInput(b Bet) Input {
	return Input{
		Timestamp:  b.Timestamp.String(),
		Game:       b.Game,
		MethodID:   strconv.FormatInt(b.MethodID, 10),
		Risk:       strconv.FormatFloat(b.Risk, 'f', -1, 64),
		ProfitLoss: strconv.FormatFloat(b.ProfitLoss, 'f', -1, 64),
	}
}

// NowInput is the timestamp text for the current minute.
func NowInput(now time.Time) string {
	return NewTimestamp(now).String()
}

// parseAmount accepts a decimal point or a decimal comma.
func parseAmount(field, text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	if !strings.Contains(text, ".") {
		text = strings.Replace(text, ",", ".", 1)
	}
	if !plainDecimal(text) {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if !finite(v) {
		return 0, &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	return v, nil
}

// plainDecimal reports whether text uses only signs, digits, one decimal
// point and an optional exponent. ParseFloat alone would also accept hex
// floats, underscores, "Inf" and "NaN".
func plainDecimal(text string) bool {
	digits, dot, exp := false, false, false
	for i, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '+' || r == '-':
			if i != 0 && text[i-1] != 'e' && text[i-1] != 'E' {
				return false
			}
		case r == '.':
			if dot || exp {
				return false
			}
			dot = true
		case r == 'e' || r == 'E':
			if exp || !digits {
				return false
			}
			exp, digits = true, false
		default:
			return false
		}
	}
	return digits
}
