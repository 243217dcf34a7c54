package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/treesleuth/internal/game"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(":0", slog.New(slog.DiscardHandler), newTestPlay(t, PlayConfig{}), "", nil)
}

func newTestServerWithPlay(t *testing.T) (*Server, *Play) {
	t.Helper()
	p := newTestPlay(t, PlayConfig{})
	return New(":0", slog.New(slog.DiscardHandler), p, "", nil), p
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler, name string) SessionResponse {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/sessions", "", SessionRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", w.Code, w.Body.String())
	}
	var resp SessionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

// actionJSON mirrors ActionResponse with a decodable state.
type actionJSON struct {
	Cues  []game.Cue `json:"cues"`
	State struct {
		Scene      game.Scene       `json:"scene"`
		Mode       game.Mode        `json:"mode"`
		Case       *CaseView        `json:"currentCase"`
		Candidates []SpeciesSummary `json:"candidates"`
	} `json:"state"`
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	first := createSession(t, h, "  Maria ")
	if first.Name != "Maria" || first.Token == "" || first.PlayerID == "" {
		t.Fatalf("session = %+v", first)
	}

	// Empty body is allowed.
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("empty body: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name       string
		body       SessionRequest
		wantStatus int
	}{
		{"resume", SessionRequest{Resume: first.PlayerID}, http.StatusCreated},
		{"bad resume id", SessionRequest{Resume: "player-1"}, http.StatusBadRequest},
		{"long name", SessionRequest{Name: strings.Repeat("x", 41)}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/sessions", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestPlayRequiresSession(t *testing.T) {
	h := newTestServer(t).Handler()

	for _, token := range []string{"", "nope"} {
		w := do(t, h, http.MethodGet, "/api/play/state", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d", token, w.Code)
		}
	}
}

func TestPlayFlow(t *testing.T) {
	srv, p := newTestServerWithPlay(t)
	h := srv.Handler()
	sess := createSession(t, h, "Maria")

	w := do(t, h, http.MethodGet, "/api/play/state", sess.Token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"scene":"title"`) {
		t.Fatalf("initial state: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/play/start", sess.Token, StartRequest{Mode: game.ModePractice})
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	var started actionJSON
	json.NewDecoder(w.Body).Decode(&started)
	if started.State.Scene != game.ScenePlaying || started.State.Case == nil {
		t.Fatalf("started state = %+v", started.State)
	}
	if started.State.Case.Target != nil {
		t.Error("target species leaked before the case completed")
	}
	if len(started.State.Case.Tiles) != treesleuth.EvidenceTileCount || len(started.State.Case.Preview) != 3 {
		t.Errorf("case view = %+v", started.State.Case)
	}
	if len(started.State.Candidates) != treesleuth.DifficultyNormal.CandidateCount() {
		t.Errorf("candidates = %d", len(started.State.Candidates))
	}

	w = do(t, h, http.MethodPost, "/api/play/reveal", sess.Token, RevealRequest{EvidenceType: "bark"})
	var revealed actionJSON
	json.NewDecoder(w.Body).Decode(&revealed)
	if w.Code != http.StatusOK || revealed.State.Case.Revealed != 2 {
		t.Fatalf("reveal: %d %+v", w.Code, revealed)
	}
	for _, tile := range revealed.State.Case.Tiles {
		if (tile.Evidence != nil) != tile.Revealed {
			t.Errorf("tile %s: revealed=%v evidence=%v", tile.Type, tile.Revealed, tile.Evidence != nil)
		}
	}

	s, _ := p.Session(sess.Token)
	w = do(t, h, http.MethodPost, "/api/play/guess", sess.Token, GuessRequest{SpeciesID: target(s).ID, Confidence: 75})
	var guessed actionJSON
	json.NewDecoder(w.Body).Decode(&guessed)
	if w.Code != http.StatusOK || guessed.State.Scene != game.SceneResults {
		t.Fatalf("guess: %d %s", w.Code, w.Body.String())
	}
	c := guessed.State.Case
	if c.Target == nil || c.Correct == nil || !*c.Correct || c.Breakdown == nil || c.ScoreText == "" {
		t.Errorf("results case = %+v", c)
	}
	if len(guessed.State.Candidates) != 0 || len(c.Preview) != 0 {
		t.Error("candidates and preview must be hidden after the case")
	}

	w = do(t, h, http.MethodGet, "/api/progress", sess.Token, nil)
	var prog ProgressResponse
	json.NewDecoder(w.Body).Decode(&prog)
	if w.Code != http.StatusOK || prog.TotalCorrect != 1 || len(prog.History) != 1 {
		t.Errorf("progress: %d %+v", w.Code, prog)
	}

	w = do(t, h, http.MethodPost, "/api/play/next", sess.Token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"currentCase":null`) {
		t.Errorf("next: %d %s", w.Code, w.Body.String())
	}
}

func TestPlayErrors(t *testing.T) {
	h := newTestServer(t).Handler()
	sess := createSession(t, h, "Maria")

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
	}{
		{"reveal without case", "/api/play/reveal", RevealRequest{EvidenceType: "bark"}, http.StatusConflict},
		{"unknown mode", "/api/play/start", StartRequest{Mode: "speedrun"}, http.StatusBadRequest},
		{"unknown category", "/api/play/category", CategoryRequest{CategoryID: "palms"}, http.StatusBadRequest},
		{"unknown scene", "/api/play/scene", SceneRequest{Scene: "credits"}, http.StatusBadRequest},
		{"bad confidence", "/api/play/guess", GuessRequest{SpeciesID: "red-maple", Confidence: 100}, http.StatusBadRequest},
		{"scene ok", "/api/play/scene", SceneRequest{Scene: game.SceneModeSelect}, http.StatusOK},
		{"category ok", "/api/play/category", CategoryRequest{CategoryID: "conifers"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, sess.Token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/play/start", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", w.Code)
	}
}

func TestSpeciesEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"list", "/api/species", http.StatusOK, `"id":"red-maple"`},
		{"list by family", "/api/species?family=oak", http.StatusOK, `"id":"white-oak"`},
		{"detail", "/api/species/red-maple", http.StatusOK, `"resolvedLookalikes"`},
		{"missing", "/api/species/baobab", http.StatusNotFound, "species not found"},
		{"search", "/api/species/search?q=maple", http.StatusOK, `"id":"sugar-maple"`},
		{"search typo", "/api/species/search?q=sugar+mapel", http.StatusOK, `"id":"sugar-maple"`},
		{"search bad limit", "/api/species/search?q=oak&limit=x", http.StatusBadRequest, "invalid limit"},
		{"categories", "/api/categories", http.StatusOK, `"id":"street-trees"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, "", nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %s missing %s", w.Body.String(), tt.wantBody)
			}
		})
	}

	w := do(t, h, http.MethodGet, "/api/species?family=oak", "", nil)
	var oaks []SpeciesSummary
	json.NewDecoder(w.Body).Decode(&oaks)
	for _, s := range oaks {
		if s.Family != treesleuth.FamilyOak {
			t.Errorf("family filter returned %s", s.ID)
		}
	}
}

func TestSettings(t *testing.T) {
	srv, p := newTestServerWithPlay(t)
	h := srv.Handler()
	sess := createSession(t, h, "Maria")

	w := do(t, h, http.MethodGet, "/api/settings", sess.Token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"difficulty":"normal"`) {
		t.Fatalf("default settings: %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"bad difficulty", `{"difficulty":"brutal"}`, http.StatusBadRequest},
		{"bad region", `{"preferredRegion":"antarctica"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
		{"ok", `{"difficulty":"easy","preferredRegion":"midwest","reducedMotion":true}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+sess.Token)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	s, _ := p.Session(sess.Token)
	if got := p.store.Settings(context.Background(), s.ID); got.Difficulty != treesleuth.DifficultyEasy || !got.ReducedMotion {
		t.Errorf("stored settings = %+v", got)
	}

	w = do(t, h, http.MethodPost, "/api/play/start", sess.Token, StartRequest{Mode: game.ModePractice})
	var started actionJSON
	json.NewDecoder(w.Body).Decode(&started)
	if len(started.State.Candidates) != treesleuth.DifficultyEasy.CandidateCount() {
		t.Errorf("easy candidates = %d", len(started.State.Candidates))
	}
}

func TestLeaderboard(t *testing.T) {
	srv, p := newTestServerWithPlay(t)
	h := srv.Handler()
	day := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return day }

	sess := createSession(t, h, "Maria")
	do(t, h, http.MethodPost, "/api/play/start", sess.Token, StartRequest{Mode: game.ModeDaily})
	s, _ := p.Session(sess.Token)
	do(t, h, http.MethodPost, "/api/play/guess", sess.Token, GuessRequest{SpeciesID: target(s).ID, Confidence: 90})
	if w := do(t, h, http.MethodPost, "/api/play/start", sess.Token, StartRequest{Mode: game.ModeDaily}); w.Code != http.StatusConflict {
		t.Errorf("daily replay status = %d, want 409", w.Code)
	}

	w := do(t, h, http.MethodGet, "/api/leaderboard", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, sess.PlayerID) {
		t.Error("leaderboard leaks player ids")
	}
	var resp LeaderboardResponse
	json.Unmarshal([]byte(body), &resp)
	if resp.Date != "2026-10-15" || len(resp.Entries) != 1 || resp.Entries[0].Name != "Maria" || resp.Entries[0].Rank != 1 {
		t.Errorf("leaderboard = %+v", resp)
	}

	for path, want := range map[string]int{
		"/api/leaderboard?date=2026-10-14":      http.StatusOK,
		"/api/leaderboard?board=expedition":     http.StatusOK,
		"/api/leaderboard?board=weekly":         http.StatusBadRequest,
		"/api/leaderboard?limit=0":              http.StatusBadRequest,
		"/api/leaderboard?date=October+15+2026": http.StatusBadRequest,
	} {
		if w := do(t, h, http.MethodGet, path, "", nil); w.Code != want {
			t.Errorf("%s: status = %d, want %d", path, w.Code, want)
		}
	}
}

func TestEventsStream(t *testing.T) {
	srv, p := newTestServerWithPlay(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sess := createSession(t, srv.Handler(), "Maria")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/play/events?token="+sess.Token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content-type = %q", got)
	}

	events := make(chan eventJSON)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var ev eventJSON
			json.Unmarshal([]byte(data), &ev)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	next := func() eventJSON {
		select {
		case ev := <-events:
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return eventJSON{}
	}

	if ev := next(); ev.Type != eventState || ev.State.Scene != game.SceneTitle {
		t.Fatalf("initial event = %+v", ev)
	}

	s, _ := p.Session(sess.Token)
	if _, err := p.Apply(ctx, s, ActionRequest{Type: actionStart, Mode: game.ModeVersus}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ev := next(); len(ev.Cues) != 1 || ev.Cues[0] != game.CueSelect || ev.State.Case == nil {
		t.Errorf("start event = %+v", ev)
	}
}

func TestWebSocketPlay(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	sess := createSession(t, srv.Handler(), "Maria")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + ts.URL[len("http"):] + "/api/play/ws?token=" + sess.Token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var ev eventJSON
	if err := wsjson.Read(ctx, conn, &ev); err != nil || ev.Type != eventState {
		t.Fatalf("initial event = %+v, %v", ev, err)
	}

	if err := wsjson.Write(ctx, conn, ActionRequest{Type: actionStart, Mode: game.ModePractice}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &ev); err != nil || ev.State == nil || ev.State.Case == nil {
		t.Fatalf("start event = %+v, %v", ev, err)
	}

	if err := wsjson.Write(ctx, conn, ActionRequest{Type: actionReveal, EvidenceType: "smell"}); err != nil {
		t.Fatalf("write reveal: %v", err)
	}
	ev = eventJSON{}
	if err := wsjson.Read(ctx, conn, &ev); err != nil || ev.Type != eventError || ev.Error == "" {
		t.Errorf("error event = %+v, %v", ev, err)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestWebSocketRequiresSession(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws"+ts.URL[len("http"):]+"/api/play/ws?token=nope", nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v", resp)
	}
}
