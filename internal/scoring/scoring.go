// Package scoring computes case scores. Every function is pure and safe to
// call from any goroutine.
package scoring

import (
	"math"
	"strconv"

	"github.com/playperu/treesleuth/internal/treesleuth"
)

const (
	BaseScore                  = 100
	EvidencePenaltyUnit        = 10
	MaxSpeedBonus              = 50
	WrongHighConfidencePenalty = 80
	MinScore                   = 0

	// CaseTimeLimit is the default case length in seconds.
	CaseTimeLimit = 120
	// SpeedBonusThreshold is the elapsed time in seconds within which the
	// full speed bonus is paid.
	SpeedBonusThreshold = 60
)

var multipliers = map[treesleuth.Confidence]float64{
	treesleuth.Confidence50: 1.0,
	treesleuth.Confidence75: 1.3,
	treesleuth.Confidence90: 1.7,
}

// Breakdown exposes every component of a score.
type Breakdown struct {
	BaseScore                  int     `json:"baseScore"`
	EvidencePenalty            int     `json:"evidencePenalty"`
	SpeedBonus                 int     `json:"speedBonus"`
	ConfidenceMultiplier       float64 `json:"confidenceMultiplier"`
	WrongHighConfidencePenalty int     `json:"wrongHighConfidencePenalty"`
	TotalScore                 int     `json:"totalScore"`
}

// Outcome is the final tally of a case. A zero TotalTime means CaseTimeLimit.
type Outcome struct {
	Correct       bool
	TilesRevealed int
	TimeRemaining int
	Confidence    treesleuth.Confidence
	TotalTime     int
}

// SpeedBonus returns the bonus for answering with timeRemaining seconds left
// out of totalTime. Full bonus up to SpeedBonusThreshold elapsed seconds, then
// a linear decay to zero at totalTime.
func SpeedBonus(timeRemaining, totalTime int) int {
	if timeRemaining <= 0 {
		return 0
	}
	elapsed := totalTime - timeRemaining
	if elapsed <= SpeedBonusThreshold {
		return MaxSpeedBonus
	}

	window := float64(totalTime - SpeedBonusThreshold)
	over := float64(elapsed - SpeedBonusThreshold)
	ratio := math.Max(0, 1-over/window)
	return int(math.Round(MaxSpeedBonus * ratio))
}

// EvidencePenalty charges for every tile beyond the free initial clue.
func EvidencePenalty(tilesRevealed int) int {
	return max(0, tilesRevealed-1) * EvidencePenaltyUnit
}

// ConfidenceMultiplier returns the multiplier for c, or 1.0 for values
// outside the accepted levels.
func ConfidenceMultiplier(c treesleuth.Confidence) float64 {
	if m, ok := multipliers[c]; ok {
		return m
	}
	return 1.0
}

// WrongPenalty is the flat penalty for a wrong answer at confidence c.
func WrongPenalty(c treesleuth.Confidence) int {
	if c == treesleuth.Confidence90 {
		return WrongHighConfidencePenalty
	}
	return 0
}

func Calculate(o Outcome) Breakdown {
	total := o.TotalTime
	if total == 0 {
		total = CaseTimeLimit
	}
	mult := ConfidenceMultiplier(o.Confidence)

	if !o.Correct {
		penalty := WrongPenalty(o.Confidence)
		return Breakdown{
			ConfidenceMultiplier:       mult,
			WrongHighConfidencePenalty: penalty,
			TotalScore:                 -penalty,
		}
	}

	b := Breakdown{
		BaseScore:            BaseScore,
		EvidencePenalty:      EvidencePenalty(o.TilesRevealed),
		SpeedBonus:           SpeedBonus(o.TimeRemaining, total),
		ConfidenceMultiplier: mult,
	}
	// Floor after the multiplier, not before.
	pre := float64(b.BaseScore - b.EvidencePenalty + b.SpeedBonus)
	b.TotalScore = max(MinScore, int(math.Round(pre*mult)))
	return b
}

// Preview returns the correct-answer breakdown for every confidence level,
// lowest first.
func Preview(tilesRevealed, timeRemaining, totalTime int) []Breakdown {
	out := make([]Breakdown, 0, len(treesleuth.ConfidenceLevels))
	for _, c := range treesleuth.ConfidenceLevels {
		out = append(out, Calculate(Outcome{
			Correct:       true,
			TilesRevealed: tilesRevealed,
			TimeRemaining: timeRemaining,
			Confidence:    c,
			TotalTime:     totalTime,
		}))
	}
	return out
}

// Format renders a score with an explicit sign: "+150", "-80", "0".
func Format(score int) string {
	if score > 0 {
		return "+" + strconv.Itoa(score)
	}
	return strconv.Itoa(score)
}

// ExpectedValue is the average outcome of betting confidence c when the
// player believes they are right with probability accuracy.
func ExpectedValue(accuracy float64, c treesleuth.Confidence, baseScore int) float64 {
	accuracy = math.Min(1, math.Max(0, accuracy))
	correct := accuracy * float64(baseScore) * ConfidenceMultiplier(c)
	wrong := (1 - accuracy) * float64(WrongPenalty(c))
	return correct - wrong
}
