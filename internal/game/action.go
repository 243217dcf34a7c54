package game

import (
	"time"

	"github.com/playperu/treesleuth/internal/treesleuth"
)

// Action is a user intent or timer event. The set is closed: only types in
// this package implement it.
type Action interface {
	action()
}

type SetScene struct {
	Scene Scene
}

type StartGame struct {
	Mode    Mode
	Species treesleuth.TreeSpecies
	At      time.Time
	// Region is carried into an expedition run.
	Region treesleuth.Region
}

type RevealEvidence struct {
	Type treesleuth.EvidenceType
	At   time.Time
}

type MakeGuess struct {
	SpeciesID  string
	Confidence treesleuth.Confidence
	At         time.Time
}

type TickTimer struct{}

type CompleteCase struct{}

type NextTree struct{}

type ResetGame struct{}

type SetPracticeCategory struct {
	CategoryID string
}

func (SetScene) action()            {}
func (StartGame) action()           {}
func (RevealEvidence) action()      {}
func (MakeGuess) action()           {}
func (TickTimer) action()           {}
func (CompleteCase) action()        {}
func (NextTree) action()            {}
func (ResetGame) action()           {}
func (SetPracticeCategory) action() {}
