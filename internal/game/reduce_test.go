package game

import (
	"slices"
	"testing"
	"time"

	"github.com/playperu/treesleuth/internal/scoring"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

var (
	t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	redMaple   = treesleuth.TreeSpecies{ID: "red-maple", CommonName: "Red Maple", Family: treesleuth.FamilyMaple}
	sugarMaple = treesleuth.TreeSpecies{ID: "sugar-maple", CommonName: "Sugar Maple", Family: treesleuth.FamilyMaple}
)

func started(t *testing.T, species treesleuth.TreeSpecies) State {
	t.Helper()
	s, cues := Reduce(NewState(0), StartGame{Mode: ModePractice, Species: species, At: t0})
	if !slices.Equal(cues, []Cue{CueSelect}) {
		t.Fatalf("start cues = %v, want [select]", cues)
	}
	return s
}

func assertRevealedInvariant(t *testing.T, c *Case) {
	t.Helper()
	if got := countRevealed(c.Tiles); got != c.Revealed {
		t.Fatalf("evidenceRevealed = %d but %d tiles revealed", c.Revealed, got)
	}
}

func TestStartGame(t *testing.T) {
	s := started(t, redMaple)

	if s.Scene != ScenePlaying {
		t.Errorf("scene = %q, want %q", s.Scene, ScenePlaying)
	}
	if s.Mode != ModePractice {
		t.Errorf("mode = %q, want %q", s.Mode, ModePractice)
	}
	if _, ok := s.Run.(*PracticeRun); !ok {
		t.Errorf("run = %T, want *PracticeRun", s.Run)
	}

	c := s.Case
	if c == nil {
		t.Fatal("expected a case")
	}
	if len(c.Tiles) != treesleuth.EvidenceTileCount {
		t.Fatalf("tiles = %d, want %d", len(c.Tiles), treesleuth.EvidenceTileCount)
	}
	for i, tile := range c.Tiles {
		if tile.Type != treesleuth.EvidenceTypes[i] {
			t.Errorf("tile %d type = %q, want %q", i, tile.Type, treesleuth.EvidenceTypes[i])
		}
		if tile.Revealed != (i == 0) {
			t.Errorf("tile %d revealed = %v", i, tile.Revealed)
		}
	}
	if c.Revealed != 1 {
		t.Errorf("evidenceRevealed = %d, want 1", c.Revealed)
	}
	if c.TimeRemaining != scoring.CaseTimeLimit || c.TotalTime != scoring.CaseTimeLimit {
		t.Errorf("time = %d/%d, want %d", c.TimeRemaining, c.TotalTime, scoring.CaseTimeLimit)
	}
	if c.Guess != nil || c.Complete || c.Correct != nil {
		t.Errorf("fresh case not clean: %+v", c)
	}
	if !c.StartedAt.Equal(t0) {
		t.Errorf("startTime = %v, want %v", c.StartedAt, t0)
	}
}

func TestStartGameModeRuns(t *testing.T) {
	tests := []struct {
		mode Mode
		want Run
	}{
		{ModePractice, &PracticeRun{Category: "conifers"}},
		{ModeDaily, &DailyRun{Date: "2026-03-14"}},
		{ModeExpedition, &ExpeditionRun{TotalTrees: ExpeditionTreeCount, RunTimeRemaining: ExpeditionTimeLimit, Region: treesleuth.RegionNortheast}},
		{ModeVersus, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s := NewState(0)
			s, _ = Reduce(s, SetPracticeCategory{CategoryID: "conifers"})
			s, _ = Reduce(s, StartGame{Mode: tt.mode, Species: redMaple, At: t0, Region: treesleuth.RegionNortheast})

			if tt.want == nil {
				if s.Run != nil {
					t.Fatalf("run = %#v, want nil", s.Run)
				}
				return
			}
			if s.Run == nil || s.Run.Mode() != tt.mode {
				t.Fatalf("run = %#v, want mode %q", s.Run, tt.mode)
			}
			switch want := tt.want.(type) {
			case *PracticeRun:
				if got := s.Run.(*PracticeRun); *got != *want {
					t.Errorf("run = %+v, want %+v", got, want)
				}
			case *DailyRun:
				if got := s.Run.(*DailyRun); *got != *want {
					t.Errorf("run = %+v, want %+v", got, want)
				}
			case *ExpeditionRun:
				if got := s.Run.(*ExpeditionRun); *got != *want {
					t.Errorf("run = %+v, want %+v", got, want)
				}
			}
		})
	}
}

func TestStartGameInvalidModeIgnored(t *testing.T) {
	s := NewState(0)
	next, cues := Reduce(s, StartGame{Mode: "arcade", Species: redMaple, At: t0})
	if next.Case != nil || cues != nil || next.Scene != SceneTitle {
		t.Fatalf("invalid mode changed state: %+v %v", next, cues)
	}
}

func TestStartGameUsesConfiguredCaseTime(t *testing.T) {
	s, _ := Reduce(NewState(45), StartGame{Mode: ModePractice, Species: redMaple, At: t0})
	if s.Case.TimeRemaining != 45 || s.Case.TotalTime != 45 {
		t.Fatalf("time = %d/%d, want 45/45", s.Case.TimeRemaining, s.Case.TotalTime)
	}
}

func TestRevealEvidence(t *testing.T) {
	s := started(t, redMaple)
	at := t0.Add(5 * time.Second)

	s, cues := Reduce(s, RevealEvidence{Type: treesleuth.EvidenceBark, At: at})
	if !slices.Equal(cues, []Cue{CueReveal}) {
		t.Errorf("cues = %v, want [reveal]", cues)
	}
	tile, ok := s.Case.Tile(treesleuth.EvidenceBark)
	if !ok || !tile.Revealed {
		t.Fatalf("bark not revealed: %+v", tile)
	}
	if tile.RevealedAt == nil || !tile.RevealedAt.Equal(at) {
		t.Errorf("revealedAt = %v, want %v", tile.RevealedAt, at)
	}
	if s.Case.Revealed != 2 {
		t.Errorf("evidenceRevealed = %d, want 2", s.Case.Revealed)
	}
	assertRevealedInvariant(t, s.Case)
}

func TestRevealEvidenceIdempotent(t *testing.T) {
	s := started(t, redMaple)
	s, _ = Reduce(s, RevealEvidence{Type: treesleuth.EvidenceSeed, At: t0})

	again, cues := Reduce(s, RevealEvidence{Type: treesleuth.EvidenceSeed, At: t0.Add(time.Second)})
	if cues != nil {
		t.Errorf("cues = %v, want none", cues)
	}
	if again.Case != s.Case {
		t.Error("re-reveal produced a new case")
	}

	// The free tile cannot be counted twice either.
	again, _ = Reduce(again, RevealEvidence{Type: treesleuth.EvidenceLeaf, At: t0})
	if again.Case.Revealed != 2 {
		t.Errorf("evidenceRevealed = %d, want 2", again.Case.Revealed)
	}
}

func TestRevealAllEvidence(t *testing.T) {
	s := started(t, redMaple)
	prev := s.Case.Revealed
	for round := 0; round < 2; round++ {
		for _, et := range treesleuth.EvidenceTypes {
			s, _ = Reduce(s, RevealEvidence{Type: et, At: t0})
			if s.Case.Revealed < prev {
				t.Fatalf("evidenceRevealed decreased from %d to %d", prev, s.Case.Revealed)
			}
			if s.Case.Revealed > treesleuth.EvidenceTileCount {
				t.Fatalf("evidenceRevealed = %d exceeds %d", s.Case.Revealed, treesleuth.EvidenceTileCount)
			}
			prev = s.Case.Revealed
			assertRevealedInvariant(t, s.Case)
		}
	}
	if s.Case.Revealed != treesleuth.EvidenceTileCount {
		t.Errorf("evidenceRevealed = %d, want %d", s.Case.Revealed, treesleuth.EvidenceTileCount)
	}
}

func TestRevealEvidenceIgnored(t *testing.T) {
	tests := []struct {
		name  string
		state func(t *testing.T) State
		typ   treesleuth.EvidenceType
	}{
		{"no case", func(*testing.T) State { return NewState(0) }, treesleuth.EvidenceBark},
		{"unknown type", func(t *testing.T) State { return started(t, redMaple) }, "root"},
		{"completed case", func(t *testing.T) State {
			s, _ := Reduce(started(t, redMaple), MakeGuess{SpeciesID: "red-maple", Confidence: 50, At: t0})
			return s
		}, treesleuth.EvidenceBark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state(t)
			next, cues := Reduce(s, RevealEvidence{Type: tt.typ, At: t0})
			if cues != nil {
				t.Errorf("cues = %v, want none", cues)
			}
			if next.Case != s.Case {
				t.Error("case changed")
			}
		})
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := started(t, redMaple)
	before := *s.Case
	beforeTiles := slices.Clone(s.Case.Tiles)

	Reduce(s, RevealEvidence{Type: treesleuth.EvidenceBud, At: t0})
	Reduce(s, TickTimer{})
	Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 90, At: t0})

	if !slices.Equal(s.Case.Tiles, beforeTiles) {
		t.Error("tiles of the input state were modified")
	}
	if s.Case.TimeRemaining != before.TimeRemaining || s.Case.Complete || s.Case.Guess != nil {
		t.Errorf("input case modified: %+v", s.Case)
	}
}

func TestMakeGuessCorrect(t *testing.T) {
	s := started(t, redMaple)
	at := t0.Add(10 * time.Second)

	s, cues := Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: treesleuth.Confidence75, At: at})
	if !slices.Equal(cues, []Cue{CueSubmit, CueCorrect}) {
		t.Errorf("cues = %v, want [submit correct]", cues)
	}
	if s.Scene != SceneResults {
		t.Errorf("scene = %q, want results", s.Scene)
	}
	c := s.Case
	if !c.Complete || c.Correct == nil || !*c.Correct {
		t.Fatalf("case not completed as correct: %+v", c)
	}
	if c.Guess == nil || c.Guess.SpeciesID != "red-maple" || c.Guess.Confidence != 75 || !c.Guess.At.Equal(at) {
		t.Errorf("guess = %+v", c.Guess)
	}
	if c.Score != 195 {
		t.Errorf("score = %d, want 195", c.Score)
	}
	if c.Breakdown == nil || c.Breakdown.TotalScore != c.Score || c.Breakdown.SpeedBonus != 50 {
		t.Errorf("breakdown = %+v", c.Breakdown)
	}
}

func TestMakeGuessWrong(t *testing.T) {
	tests := []struct {
		confidence treesleuth.Confidence
		wantScore  int
	}{
		{treesleuth.Confidence50, 0},
		{treesleuth.Confidence75, 0},
		{treesleuth.Confidence90, -80},
	}
	for _, tt := range tests {
		s := started(t, redMaple)
		s, cues := Reduce(s, MakeGuess{SpeciesID: "sugar-maple", Confidence: tt.confidence, At: t0})
		if !slices.Equal(cues, []Cue{CueSubmit, CueWrong}) {
			t.Errorf("confidence %d: cues = %v", tt.confidence, cues)
		}
		if s.Case.Correct == nil || *s.Case.Correct {
			t.Errorf("confidence %d: expected incorrect", tt.confidence)
		}
		if s.Case.Score != tt.wantScore {
			t.Errorf("confidence %d: score = %d, want %d", tt.confidence, s.Case.Score, tt.wantScore)
		}
	}
}

func TestMakeGuessUnknownSpeciesIsIncorrect(t *testing.T) {
	s := started(t, redMaple)
	s, _ = Reduce(s, MakeGuess{SpeciesID: "dragon-tree", Confidence: 50, At: t0})
	if s.Case.Correct == nil || *s.Case.Correct || !s.Case.Complete {
		t.Fatalf("unknown species should complete as incorrect: %+v", s.Case)
	}
}

func TestMakeGuessUsesRevealedAndTime(t *testing.T) {
	s := started(t, redMaple)
	for _, et := range []treesleuth.EvidenceType{treesleuth.EvidenceBark, treesleuth.EvidenceSeed, treesleuth.EvidenceBud} {
		s, _ = Reduce(s, RevealEvidence{Type: et, At: t0})
	}
	for range 90 {
		s, _ = Reduce(s, TickTimer{})
	}
	s, _ = Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 50, At: t0})

	// 4 tiles: -30; 90s elapsed of 120: bonus 25.
	if s.Case.Score != 95 {
		t.Errorf("score = %d, want 95", s.Case.Score)
	}
}

func TestMakeGuessIgnored(t *testing.T) {
	t.Run("no case", func(t *testing.T) {
		s := NewState(0)
		next, cues := Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 50, At: t0})
		if next.Case != nil || cues != nil || next.Scene != SceneTitle {
			t.Fatalf("state changed: %+v", next)
		}
	})
	t.Run("already complete", func(t *testing.T) {
		s, _ := Reduce(started(t, redMaple), MakeGuess{SpeciesID: "sugar-maple", Confidence: 50, At: t0})
		next, cues := Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 90, At: t0})
		if cues != nil || next.Case != s.Case {
			t.Fatal("second guess changed the case")
		}
	})
	t.Run("invalid confidence", func(t *testing.T) {
		s := started(t, redMaple)
		next, cues := Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 100, At: t0})
		if cues != nil || next.Case.Complete {
			t.Fatal("invalid confidence was scored")
		}
	})
}

func TestTimerRunsOut(t *testing.T) {
	s := started(t, redMaple)

	completions := 0
	var warnings, ticks int
	for i := 0; i < scoring.CaseTimeLimit; i++ {
		wasComplete := s.Case.Complete
		var cues []Cue
		s, cues = Reduce(s, TickTimer{})
		for _, c := range cues {
			switch c {
			case CueTimerWarning:
				warnings++
			case CueTimerTick:
				ticks++
			}
		}
		if !wasComplete && s.Case.Complete {
			completions++
		}
	}

	if completions != 1 {
		t.Fatalf("completed %d times, want 1", completions)
	}
	c := s.Case
	if c.TimeRemaining != 0 {
		t.Errorf("timeRemaining = %d, want 0", c.TimeRemaining)
	}
	if c.Correct == nil || *c.Correct || c.Score != 0 || c.Guess != nil {
		t.Errorf("expired case = %+v", c)
	}
	if s.Scene != SceneResults {
		t.Errorf("scene = %q, want results", s.Scene)
	}
	if warnings != 1 {
		t.Errorf("timer warnings = %d, want 1", warnings)
	}
	if ticks != TimerTickFrom {
		t.Errorf("audible ticks = %d, want %d", ticks, TimerTickFrom)
	}

	// Late ticks are ignored.
	late, cues := Reduce(s, TickTimer{})
	if cues != nil || late.Case != s.Case {
		t.Error("tick after completion changed state")
	}
}

func TestTimeNeverIncreases(t *testing.T) {
	s := started(t, redMaple)
	prev := s.Case.TimeRemaining
	for i := 0; i < scoring.CaseTimeLimit+10; i++ {
		s, _ = Reduce(s, TickTimer{})
		if s.Case.TimeRemaining > prev || s.Case.TimeRemaining < 0 {
			t.Fatalf("timeRemaining went from %d to %d", prev, s.Case.TimeRemaining)
		}
		prev = s.Case.TimeRemaining
	}
}

func TestNewGameReplacesCase(t *testing.T) {
	s := started(t, redMaple)
	s, _ = Reduce(s, RevealEvidence{Type: treesleuth.EvidenceBark, At: t0})
	s, _ = Reduce(s, TickTimer{})
	s, _ = Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 90, At: t0})
	first := s.Case

	s, _ = Reduce(s, StartGame{Mode: ModePractice, Species: sugarMaple, At: t0.Add(time.Minute)})
	c := s.Case
	if c == first {
		t.Fatal("case was not replaced")
	}
	if c.Target.ID != "sugar-maple" {
		t.Errorf("target = %q", c.Target.ID)
	}
	if c.Revealed != 1 || c.Guess != nil || c.Complete || c.Correct != nil || c.Score != 0 || c.Breakdown != nil {
		t.Errorf("residual data in new case: %+v", c)
	}
	if c.TimeRemaining != scoring.CaseTimeLimit {
		t.Errorf("timeRemaining = %d", c.TimeRemaining)
	}
	if c.Number != first.Number+1 {
		t.Errorf("case number = %d, want %d", c.Number, first.Number+1)
	}
	if s.Scene != ScenePlaying {
		t.Errorf("scene = %q", s.Scene)
	}
}

func TestNavigation(t *testing.T) {
	s := NewState(0)

	s, cues := Reduce(s, SetScene{Scene: SceneHowToPlay})
	if s.Scene != SceneHowToPlay || !slices.Equal(cues, []Cue{CueClick}) {
		t.Fatalf("scene = %q cues = %v", s.Scene, cues)
	}
	next, cues := Reduce(s, SetScene{Scene: "lobby"})
	if next.Scene != SceneHowToPlay || cues != nil {
		t.Errorf("unknown scene accepted")
	}

	s, _ = Reduce(s, StartGame{Mode: ModePractice, Species: redMaple, At: t0})
	s, _ = Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 50, At: t0})
	s, _ = Reduce(s, NextTree{})
	if s.Scene != SceneTitle || s.Case != nil {
		t.Errorf("next tree: scene = %q case = %v", s.Scene, s.Case)
	}
}

func TestCompleteCase(t *testing.T) {
	s := started(t, redMaple)
	s, _ = Reduce(s, CompleteCase{})
	if s.Scene != SceneResults {
		t.Errorf("scene = %q, want results", s.Scene)
	}
}

func TestResetGame(t *testing.T) {
	s := started(t, redMaple)
	s, _ = Reduce(s, SetPracticeCategory{CategoryID: "conifers"})
	s, _ = Reduce(s, ResetGame{})

	if s.Scene != SceneTitle || s.Mode != ModeNone || s.Case != nil || s.Run != nil || s.PracticeCategory != "" {
		t.Errorf("reset state = %+v", s)
	}
	if s.CasesStarted != 1 {
		t.Errorf("casesStarted = %d, want 1", s.CasesStarted)
	}
}

type bogusAction struct{ Action }

func TestUnknownActionIsNoop(t *testing.T) {
	s := started(t, redMaple)
	next, cues := Reduce(s, bogusAction{})
	if cues != nil || next.Case != s.Case || next.Scene != s.Scene {
		t.Error("unknown action changed state")
	}
	next, cues = Reduce(s, nil)
	if cues != nil || next.Case != s.Case {
		t.Error("nil action changed state")
	}
}

func TestFinishRun(t *testing.T) {
	s, _ := Reduce(NewState(0), StartGame{Mode: ModeExpedition, Species: redMaple, At: t0})
	before := s.Run.(*ExpeditionRun)
	s, _ = Reduce(s, MakeGuess{SpeciesID: "red-maple", Confidence: 50, At: t0})

	after := s.Run.(*ExpeditionRun)
	if after.TotalScore != 150 {
		t.Errorf("expedition total = %d, want 150", after.TotalScore)
	}
	if before.TotalScore != 0 {
		t.Error("previous run variant was modified")
	}

	s, _ = Reduce(NewState(0), StartGame{Mode: ModeDaily, Species: redMaple, At: t0})
	for range scoring.CaseTimeLimit {
		s, _ = Reduce(s, TickTimer{})
	}
	if d := s.Run.(*DailyRun); !d.Completed {
		t.Error("daily run not marked complete after timeout")
	}
}
