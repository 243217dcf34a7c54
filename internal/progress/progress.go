// Package progress keeps the per-player herbarium, streaks, high scores and
// settings between sessions.
package progress

import (
	"time"

	"github.com/playperu/treesleuth/internal/game"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

// Storage keys of the two player documents.
const (
	KeyProgress = "treesleuth:progress"
	KeySettings = "treesleuth:settings"
)

const dateLayout = "2006-01-02"

// SpeciesMastery is the herbarium entry for one species.
type SpeciesMastery struct {
	Attempts        int     `json:"attempts"`
	Correct         int     `json:"correct"`
	BestScore       int     `json:"bestScore"`
	FirstIdentified *string `json:"firstIdentified"`
	LastAttempt     string  `json:"lastAttempt"`
}

type HighScores struct {
	Daily      int `json:"daily"`
	Expedition int `json:"expedition"`
}

type Progress struct {
	Herbarium     map[string]SpeciesMastery `json:"herbarium"`
	DailyStreak   int                       `json:"dailyStreak"`
	LongestStreak int                       `json:"longestStreak"`
	LastDailyDate *string                   `json:"lastDailyDate"`
	TotalGames    int                       `json:"totalGames"`
	TotalCorrect  int                       `json:"totalCorrect"`
	UnlockedTools []string                  `json:"unlockedTools"`
	HighScores    HighScores                `json:"highScores"`
}

func DefaultProgress() Progress {
	return Progress{
		Herbarium:     map[string]SpeciesMastery{},
		UnlockedTools: []string{},
	}
}

type Settings struct {
	SoundEnabled    bool                  `json:"soundEnabled"`
	MusicEnabled    bool                  `json:"musicEnabled"`
	Difficulty      treesleuth.Difficulty `json:"difficulty"`
	PreferredRegion treesleuth.Region     `json:"preferredRegion"`
	ReducedMotion   bool                  `json:"reducedMotion"`
}

func DefaultSettings() Settings {
	return Settings{
		SoundEnabled:    true,
		Difficulty:      treesleuth.DifficultyNormal,
		PreferredRegion: treesleuth.RegionNortheast,
	}
}

// normalize replaces invalid fields with their defaults.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if !s.Difficulty.Valid() {
		s.Difficulty = d.Difficulty
	}
	if !s.PreferredRegion.Valid() {
		s.PreferredRegion = d.PreferredRegion
	}
	return s
}

// Result is one finished case as seen by the progress tracker.
type Result struct {
	Mode      game.Mode `json:"mode"`
	SpeciesID string    `json:"speciesId"`
	Correct   bool      `json:"isCorrect"`
	Score     int       `json:"score"`
	// RunScore is the accumulated expedition score including this case.
	RunScore int       `json:"runScore,omitempty"`
	At       time.Time `json:"at"`
}

// ResultFrom extracts the result of the current case. ok is false while no
// case has completed.
func ResultFrom(s game.State, at time.Time) (Result, bool) {
	c := s.Case
	if c == nil || !c.Complete {
		return Result{}, false
	}
	r := Result{
		Mode:      s.Mode,
		SpeciesID: c.Target.ID,
		Correct:   c.Correct != nil && *c.Correct,
		Score:     c.Score,
		At:        at,
	}
	if run, ok := s.Run.(*game.ExpeditionRun); ok {
		r.RunScore = run.TotalScore
	}
	return r, true
}

// Record folds r into p and returns the updated progress. p is not modified.
func (p Progress) Record(r Result) Progress {
	next := p.clone()
	day := r.At.UTC().Format(dateLayout)

	next.TotalGames++
	if r.Correct {
		next.TotalCorrect++
	}

	m := next.Herbarium[r.SpeciesID]
	m.Attempts++
	m.LastAttempt = day
	if r.Correct {
		m.Correct++
		if m.FirstIdentified == nil {
			first := day
			m.FirstIdentified = &first
		}
	}
	m.BestScore = max(m.BestScore, r.Score)
	next.Herbarium[r.SpeciesID] = m

	switch r.Mode {
	case game.ModeDaily:
		next.HighScores.Daily = max(next.HighScores.Daily, r.Score)
		next.advanceStreak(r.At)
	case game.ModeExpedition:
		next.HighScores.Expedition = max(next.HighScores.Expedition, r.RunScore)
	}
	return next
}

// advanceStreak counts one daily completion on the UTC day of at. A second
// completion on the same day is ignored; a missed day restarts the streak.
func (p *Progress) advanceStreak(at time.Time) {
	day := at.UTC().Format(dateLayout)
	if p.LastDailyDate != nil && *p.LastDailyDate == day {
		return
	}
	yesterday := at.UTC().AddDate(0, 0, -1).Format(dateLayout)
	if p.LastDailyDate != nil && *p.LastDailyDate == yesterday {
		p.DailyStreak++
	} else {
		p.DailyStreak = 1
	}
	p.LongestStreak = max(p.LongestStreak, p.DailyStreak)
	p.LastDailyDate = &day
}

// PlayedDaily reports whether a daily case was already finished on the UTC
// day of at.
func (p Progress) PlayedDaily(at time.Time) bool {
	return p.LastDailyDate != nil && *p.LastDailyDate == at.UTC().Format(dateLayout)
}

// Mastery returns the share of attempts on a species that were correct.
func (m SpeciesMastery) Mastery() float64 {
	if m.Attempts == 0 {
		return 0
	}
	return float64(m.Correct) / float64(m.Attempts)
}

func (p Progress) clone() Progress {
	cp := p
	cp.Herbarium = make(map[string]SpeciesMastery, len(p.Herbarium))
	for k, v := range p.Herbarium {
		cp.Herbarium[k] = v
	}
	cp.UnlockedTools = append([]string{}, p.UnlockedTools...)
	return cp
}
