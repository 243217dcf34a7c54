package server

import (
	"time"

	"github.com/playperu/treesleuth/internal/catalog"
	"github.com/playperu/treesleuth/internal/game"
	"github.com/playperu/treesleuth/internal/scoring"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

// SpeciesSummary is the short form used in candidate lists and search
// results.
type SpeciesSummary struct {
	ID             string            `json:"id"`
	CommonName     string            `json:"commonName"`
	ScientificName string            `json:"scientificName"`
	Family         treesleuth.Family `json:"family"`
}

func summarize(species []treesleuth.TreeSpecies) []SpeciesSummary {
	out := make([]SpeciesSummary, len(species))
	for i, s := range species {
		out[i] = SpeciesSummary{
			ID:             s.ID,
			CommonName:     s.CommonName,
			ScientificName: s.ScientificName,
			Family:         s.Family,
		}
	}
	return out
}

type TileView struct {
	Type       treesleuth.EvidenceType `json:"type"`
	Label      string                  `json:"label"`
	Revealed   bool                    `json:"isRevealed"`
	RevealedAt *time.Time              `json:"revealedAt,omitempty"`
	Evidence   *treesleuth.Evidence    `json:"evidence,omitempty"`
}

// PreviewTier is what submitting now at a confidence level would score.
type PreviewTier struct {
	Confidence treesleuth.Confidence `json:"confidence"`
	IfCorrect  int                   `json:"ifCorrect"`
	IfWrong    int                   `json:"ifWrong"`
}

// CaseView hides the target species and unrevealed evidence until the case
// is complete.
type CaseView struct {
	Number        int                     `json:"caseNumber"`
	Tiles         []TileView              `json:"evidenceTiles"`
	Revealed      int                     `json:"evidenceRevealed"`
	TimeRemaining int                     `json:"timeRemaining"`
	TotalTime     int                     `json:"totalTime"`
	StartedAt     time.Time               `json:"startTime"`
	Complete      bool                    `json:"isComplete"`
	Correct       *bool                   `json:"isCorrect"`
	Guess         *game.Guess             `json:"guess"`
	Score         int                     `json:"score"`
	ScoreText     string                  `json:"scoreText"`
	Breakdown     *scoring.Breakdown      `json:"breakdown,omitempty"`
	Preview       []PreviewTier           `json:"preview,omitempty"`
	Target        *treesleuth.TreeSpecies `json:"targetSpecies,omitempty"`
	Lookalikes    []SpeciesSummary        `json:"lookalikes,omitempty"`
}

type StateView struct {
	Scene            game.Scene       `json:"scene"`
	Mode             game.Mode        `json:"mode"`
	Run              game.Run         `json:"run,omitempty"`
	PracticeCategory string           `json:"practiceCategory,omitempty"`
	Case             *CaseView        `json:"currentCase"`
	Candidates       []SpeciesSummary `json:"candidates,omitempty"`
}

func newStateView(cat *catalog.Catalog, s game.State, candidates []SpeciesSummary) StateView {
	v := StateView{
		Scene:            s.Scene,
		Mode:             s.Mode,
		Run:              s.Run,
		PracticeCategory: s.PracticeCategory,
	}
	if s.Case == nil {
		return v
	}
	v.Case = newCaseView(cat, s.Case)
	if !s.Case.Complete {
		v.Candidates = candidates
	}
	return v
}

func newCaseView(cat *catalog.Catalog, c *game.Case) *CaseView {
	cv := &CaseView{
		Number:        c.Number,
		Tiles:         make([]TileView, len(c.Tiles)),
		Revealed:      c.Revealed,
		TimeRemaining: c.TimeRemaining,
		TotalTime:     c.TotalTime,
		StartedAt:     c.StartedAt,
		Complete:      c.Complete,
		Correct:       c.Correct,
		Guess:         c.Guess,
		Score:         c.Score,
		ScoreText:     scoring.Format(c.Score),
		Breakdown:     c.Breakdown,
	}

	for i, t := range c.Tiles {
		tv := TileView{
			Type:       t.Type,
			Label:      t.Type.Label(),
			Revealed:   t.Revealed,
			RevealedAt: t.RevealedAt,
		}
		if t.Revealed || c.Complete {
			if ev, ok := c.Target.Evidence.For(t.Type); ok {
				tv.Evidence = &ev
			}
		}
		cv.Tiles[i] = tv
	}

	if c.Complete {
		target := c.Target
		cv.Target = &target
		cv.Lookalikes = summarize(cat.Lookalikes(target))
		return cv
	}

	for i, b := range scoring.Preview(c.Revealed, c.TimeRemaining, c.TotalTime) {
		conf := treesleuth.ConfidenceLevels[i]
		cv.Preview = append(cv.Preview, PreviewTier{
			Confidence: conf,
			IfCorrect:  b.TotalScore,
			IfWrong:    -scoring.WrongPenalty(conf),
		})
	}
	return cv
}
