package game

import "github.com/playperu/treesleuth/internal/scoring"

// Cue names a presentation side effect of a transition.
type Cue string

const (
	CueClick        Cue = "click"
	CueReveal       Cue = "reveal"
	CueCorrect      Cue = "correct"
	CueWrong        Cue = "wrong"
	CueSelect       Cue = "select"
	CueTimerWarning Cue = "timerWarning"
	CueTimerTick    Cue = "timerTick"
	CueSubmit       Cue = "submit"
)

// Reduce applies a to s and returns the next state with the cues the
// transition produced. s is never modified. Actions that do not apply to the
// current state return s unchanged and no cues.
func Reduce(s State, a Action) (State, []Cue) {
	switch a := a.(type) {
	case SetScene:
		if !a.Scene.Valid() {
			return s, nil
		}
		s.Scene = a.Scene
		return s, []Cue{CueClick}

	case StartGame:
		return startGame(s, a)

	case RevealEvidence:
		return revealEvidence(s, a)

	case MakeGuess:
		return makeGuess(s, a)

	case TickTimer:
		return tickTimer(s)

	case CompleteCase:
		s.Scene = SceneResults
		return s, nil

	case NextTree:
		s.Scene = SceneTitle
		s.Case = nil
		return s, []Cue{CueClick}

	case ResetGame:
		next := NewState(s.CaseTime)
		next.CasesStarted = s.CasesStarted
		return next, nil

	case SetPracticeCategory:
		s.PracticeCategory = a.CategoryID
		return s, nil
	}
	return s, nil
}

func startGame(s State, a StartGame) (State, []Cue) {
	if !a.Mode.Valid() {
		return s, nil
	}
	caseTime := s.CaseTime
	if caseTime <= 0 {
		caseTime = scoring.CaseTimeLimit
	}

	s.Scene = ScenePlaying
	s.Mode = a.Mode
	s.CasesStarted++
	s.Case = newCase(s.CasesStarted, a.Species, caseTime, a.At)

	switch a.Mode {
	case ModePractice:
		s.Run = &PracticeRun{Category: s.PracticeCategory}
	case ModeDaily:
		s.Run = &DailyRun{Date: a.At.UTC().Format("2006-01-02")}
	case ModeExpedition:
		s.Run = &ExpeditionRun{
			TotalTrees:       ExpeditionTreeCount,
			RunTimeRemaining: ExpeditionTimeLimit,
			Region:           a.Region,
		}
	default:
		s.Run = nil
	}
	return s, []Cue{CueSelect}
}

func activeCase(s State) bool {
	return s.Case != nil && !s.Case.Complete
}

func revealEvidence(s State, a RevealEvidence) (State, []Cue) {
	if !activeCase(s) {
		return s, nil
	}
	idx := -1
	for i, t := range s.Case.Tiles {
		if t.Type == a.Type {
			idx = i
			break
		}
	}
	if idx < 0 || s.Case.Tiles[idx].Revealed {
		return s, nil
	}

	c := s.Case.clone()
	at := a.At
	c.Tiles[idx].Revealed = true
	c.Tiles[idx].RevealedAt = &at
	c.Revealed = countRevealed(c.Tiles)
	s.Case = c
	return s, []Cue{CueReveal}
}

func makeGuess(s State, a MakeGuess) (State, []Cue) {
	if !activeCase(s) || !a.Confidence.Valid() {
		return s, nil
	}

	c := s.Case.clone()
	correct := a.SpeciesID == c.Target.ID
	b := scoring.Calculate(scoring.Outcome{
		Correct:       correct,
		TilesRevealed: c.Revealed,
		TimeRemaining: c.TimeRemaining,
		Confidence:    a.Confidence,
		TotalTime:     c.TotalTime,
	})

	c.Guess = &Guess{SpeciesID: a.SpeciesID, Confidence: a.Confidence, At: a.At}
	c.Correct = &correct
	c.Complete = true
	c.Score = b.TotalScore
	c.Breakdown = &b

	s.Case = c
	s.Scene = SceneResults
	s.Run = finishRun(s.Run, c.Score)

	if correct {
		return s, []Cue{CueSubmit, CueCorrect}
	}
	return s, []Cue{CueSubmit, CueWrong}
}

func tickTimer(s State) (State, []Cue) {
	if !activeCase(s) {
		return s, nil
	}

	c := s.Case.clone()
	c.TimeRemaining = max(0, c.TimeRemaining-1)
	s.Case = c

	if c.TimeRemaining == 0 {
		correct := false
		c.Complete = true
		c.Correct = &correct
		c.Score = 0
		s.Scene = SceneResults
		s.Run = finishRun(s.Run, 0)
		return s, []Cue{CueWrong}
	}

	switch {
	case c.TimeRemaining == TimerWarningAt:
		return s, []Cue{CueTimerWarning}
	case c.TimeRemaining <= TimerTickFrom:
		return s, []Cue{CueTimerTick}
	}
	return s, nil
}

// finishRun records a completed case on a copy of r.
func finishRun(r Run, score int) Run {
	switch r := r.(type) {
	case *DailyRun:
		cp := *r
		cp.Completed = true
		return &cp
	case *ExpeditionRun:
		cp := *r
		cp.TotalScore += score
		return &cp
	}
	return r
}
