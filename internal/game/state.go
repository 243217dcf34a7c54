// Package game holds the case lifecycle: evidence reveal, guess, scoring and
// results. State only changes through Reduce.
package game

import (
	"time"

	"github.com/playperu/treesleuth/internal/scoring"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

type Scene string

const (
	SceneBoot       Scene = "boot"
	SceneTitle      Scene = "title"
	SceneHowToPlay  Scene = "how-to-play"
	SceneModeSelect Scene = "mode-select"
	ScenePlaying    Scene = "playing"
	SceneResults    Scene = "results"
	SceneGameOver   Scene = "game-over"
)

func (s Scene) Valid() bool {
	switch s {
	case SceneBoot, SceneTitle, SceneHowToPlay, SceneModeSelect, ScenePlaying, SceneResults, SceneGameOver:
		return true
	}
	return false
}

type Mode string

const (
	ModeNone       Mode = ""
	ModeDaily      Mode = "daily"
	ModeExpedition Mode = "expedition"
	ModePractice   Mode = "practice"
	ModeVersus     Mode = "versus"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeDaily, ModeExpedition, ModePractice, ModeVersus:
		return true
	}
	return false
}

const (
	// ExpeditionTreeCount is the number of trees in an expedition run.
	ExpeditionTreeCount = 10
	// ExpeditionTimeLimit is the run length in seconds.
	ExpeditionTimeLimit = 600

	// TimerWarningAt is the remaining time at which the warning cue fires.
	TimerWarningAt = 30
	// TimerTickFrom is the remaining time from which every tick is audible.
	TimerTickFrom = 10
)

type Tile struct {
	Type       treesleuth.EvidenceType `json:"type"`
	Revealed   bool                    `json:"isRevealed"`
	RevealedAt *time.Time              `json:"revealedAt,omitempty"`
}

type Guess struct {
	SpeciesID  string                `json:"speciesId"`
	Confidence treesleuth.Confidence `json:"confidence"`
	At         time.Time             `json:"timestamp"`
}

// Case is one round. Once Complete is set it never changes again.
type Case struct {
	Number        int                    `json:"caseNumber"`
	Target        treesleuth.TreeSpecies `json:"targetSpecies"`
	Tiles         []Tile                 `json:"evidenceTiles"`
	Revealed      int                    `json:"evidenceRevealed"`
	TimeRemaining int                    `json:"timeRemaining"`
	TotalTime     int                    `json:"totalTime"`
	StartedAt     time.Time              `json:"startTime"`
	Guess         *Guess                 `json:"guess"`
	Complete      bool                   `json:"isComplete"`
	Correct       *bool                  `json:"isCorrect"`
	Score         int                    `json:"score"`
	Breakdown     *scoring.Breakdown     `json:"breakdown,omitempty"`
}

func newCase(number int, species treesleuth.TreeSpecies, totalTime int, at time.Time) *Case {
	tiles := make([]Tile, len(treesleuth.EvidenceTypes))
	for i, et := range treesleuth.EvidenceTypes {
		tiles[i] = Tile{Type: et}
	}
	// The first tile is the free initial clue.
	first := at
	tiles[0].Revealed = true
	tiles[0].RevealedAt = &first

	return &Case{
		Number:        number,
		Target:        species,
		Tiles:         tiles,
		Revealed:      1,
		TimeRemaining: totalTime,
		TotalTime:     totalTime,
		StartedAt:     at,
	}
}

// clone copies c deeply enough that the copy can be modified without
// touching c.
func (c *Case) clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Tiles = make([]Tile, len(c.Tiles))
	copy(cp.Tiles, c.Tiles)
	return &cp
}

// Tile returns the tile for t.
func (c *Case) Tile(t treesleuth.EvidenceType) (Tile, bool) {
	for _, tile := range c.Tiles {
		if tile.Type == t {
			return tile, true
		}
	}
	return Tile{}, false
}

func countRevealed(tiles []Tile) int {
	n := 0
	for _, t := range tiles {
		if t.Revealed {
			n++
		}
	}
	return n
}

// Run is the per-mode run data. Exactly one variant is valid at a time:
// *PracticeRun, *DailyRun or *ExpeditionRun.
type Run interface {
	Mode() Mode
}

type PracticeRun struct {
	Category string `json:"category,omitempty"`
}

func (*PracticeRun) Mode() Mode { return ModePractice }

type DailyRun struct {
	Date      string `json:"date"`
	Completed bool   `json:"isCompleted"`
}

func (*DailyRun) Mode() Mode { return ModeDaily }

// ExpeditionRun tracks a multi-tree run. Advancing between trees is not
// implemented yet; the run is created so the mode has its own data.
type ExpeditionRun struct {
	TotalTrees       int               `json:"totalTrees"`
	CurrentTreeIndex int               `json:"currentTreeIndex"`
	TotalScore       int               `json:"totalScore"`
	RunTimeRemaining int               `json:"runTimeRemaining"`
	Region           treesleuth.Region `json:"region,omitempty"`
	Complete         bool              `json:"isComplete"`
}

func (*ExpeditionRun) Mode() Mode { return ModeExpedition }

// State is the root game state.
type State struct {
	Scene            Scene  `json:"scene"`
	Mode             Mode   `json:"mode"`
	Run              Run    `json:"run,omitempty"`
	Case             *Case  `json:"currentCase"`
	PracticeCategory string `json:"practiceCategory,omitempty"`
	CasesStarted     int    `json:"casesStarted"`

	// CaseTime is the length of new cases in seconds.
	CaseTime int `json:"-"`
}

// NewState returns the initial state. caseTime <= 0 means
// scoring.CaseTimeLimit.
func NewState(caseTime int) State {
	if caseTime <= 0 {
		caseTime = scoring.CaseTimeLimit
	}
	return State{Scene: SceneTitle, CaseTime: caseTime}
}
