package models

// Result is the outcome of a single board or of a whole match.
// For a Game white/black refer to piece colors, for a Match they refer
// to the white-side and black-side teams.
type Result string

const (
	ResultPending  Result = "pending"
	ResultWhiteWin Result = "white_win"
	ResultBlackWin Result = "black_win"
	ResultDraw     Result = "draw"
)

// IsOutcome reports whether r is a final result that can be submitted.
func (r Result) IsOutcome() bool {
	return r == ResultWhiteWin || r == ResultBlackWin || r == ResultDraw
}

func (r Result) Valid() bool {
	return r == ResultPending || r.IsOutcome()
}

// Scores returns the points each color earns for r. Pending yields zeros.
func (r Result) Scores() (white, black float64) {
	switch r {
	case ResultWhiteWin:
		return 1, 0
	case ResultBlackWin:
		return 0, 1
	case ResultDraw:
		return 0.5, 0.5
	}
	return 0, 0
}

// ResultFromScores compares two side totals.
func ResultFromScores(white, black float64) Result {
	switch {
	case white > black:
		return ResultWhiteWin
	case black > white:
		return ResultBlackWin
	}
	return ResultDraw
}
