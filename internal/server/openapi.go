package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/treesleuth/internal/catalog"
	"github.com/playperu/treesleuth/internal/progress"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthCheck struct {
	Status string `json:"status"`
}

// HealthResponse maps each dependency name to its status.
type HealthResponse map[string]HealthCheck

type speciesPath struct {
	ID string `path:"id"`
}

type speciesQuery struct {
	Family string `query:"family"`
	Region string `query:"region"`
}

type searchQuery struct {
	Q     string `query:"q"`
	Limit int    `query:"limit"`
}

type leaderboardQuery struct {
	Board string `query:"board" enum:"daily,expedition"`
	Date  string `query:"date" description:"UTC day, YYYY-MM-DD"`
	Limit int    `query:"limit"`
}

type tokenQuery struct {
	Token string `query:"token"`
}

type playOp struct {
	method, path, summary, description string
	req                                any
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "TreeSleuth API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the TreeSleuth tree identification game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	postSession.SetSummary("Create session")
	postSession.SetDescription("Starts a play session. Pass resume to continue an earlier player's progress. Returns a session token.")
	postSession.AddReqStructure(SessionRequest{})
	postSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSession)

	// GET /api/species
	listSpecies, _ := r.NewOperationContext(http.MethodGet, "/api/species")
	listSpecies.SetSummary("List species")
	listSpecies.SetDescription("Returns the field guide, optionally filtered by family and region.")
	listSpecies.AddReqStructure(speciesQuery{})
	listSpecies.AddRespStructure([]SpeciesSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listSpecies)

	// GET /api/species/search
	searchSpecies, _ := r.NewOperationContext(http.MethodGet, "/api/species/search")
	searchSpecies.SetSummary("Search species")
	searchSpecies.SetDescription("Matches common and scientific names. Falls back to typo-tolerant matching when nothing contains the query.")
	searchSpecies.AddReqStructure(searchQuery{})
	searchSpecies.AddRespStructure([]SpeciesSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	searchSpecies.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(searchSpecies)

	// GET /api/species/{id}
	getSpecies, _ := r.NewOperationContext(http.MethodGet, "/api/species/{id}")
	getSpecies.SetSummary("Get species")
	getSpecies.SetDescription("Returns a species with all evidence and its resolved lookalikes.")
	getSpecies.AddReqStructure(speciesPath{})
	getSpecies.AddRespStructure(SpeciesDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getSpecies.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSpecies)

	// GET /api/categories
	getCategories, _ := r.NewOperationContext(http.MethodGet, "/api/categories")
	getCategories.SetSummary("Practice categories")
	getCategories.AddRespStructure([]catalog.Category{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCategories)

	// GET /api/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Best score per player. Daily boards are per UTC day; the expedition board is all-time.")
	getLeaderboard.AddReqStructure(leaderboardQuery{})
	getLeaderboard.AddRespStructure(LeaderboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/progress")
	getProgress.SetSummary("Player progress")
	getProgress.SetDescription("Herbarium, streaks, high scores and recent results. Requires Bearer token.")
	getProgress.AddRespStructure(ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProgress)

	// GET /api/settings
	getSettings, _ := r.NewOperationContext(http.MethodGet, "/api/settings")
	getSettings.SetSummary("Get settings")
	getSettings.SetDescription("Requires Bearer token.")
	getSettings.AddRespStructure(progress.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	getSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSettings)

	// PUT /api/settings
	putSettings, _ := r.NewOperationContext(http.MethodPut, "/api/settings")
	putSettings.SetSummary("Update settings")
	putSettings.SetDescription("Replaces the player's settings. Requires Bearer token.")
	putSettings.AddReqStructure(progress.Settings{})
	putSettings.AddRespStructure(progress.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	putSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putSettings)

	// GET /api/play/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/play/state")
	getState.SetSummary("Get play state")
	getState.SetDescription("Scene, mode and current case. The target species is hidden until the case completes. Requires Bearer token.")
	getState.AddRespStructure(StateView{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/play/*
	for _, op := range []playOp{
		{http.MethodPost, "/api/play/start", "Start case", "Picks a species for the mode and starts the countdown. The daily case can be finished once per UTC day.", StartRequest{}},
		{http.MethodPost, "/api/play/reveal", "Reveal evidence", "Reveals one evidence tile of the active case.", RevealRequest{}},
		{http.MethodPost, "/api/play/guess", "Submit guess", "Scores a guess. name is resolved through species search.", GuessRequest{}},
		{http.MethodPost, "/api/play/next", "Next tree", "Leaves the current case and returns to the title scene.", nil},
		{http.MethodPost, "/api/play/scene", "Change scene", "", SceneRequest{}},
		{http.MethodPost, "/api/play/reset", "Reset game", "", nil},
		{http.MethodPost, "/api/play/category", "Set practice category", "", CategoryRequest{}},
		{http.MethodPost, "/api/play/complete", "Show results", "Moves to the results scene. An unfinished case keeps running and still ends by guess or timeout.", nil},
	} {
		oc, _ := r.NewOperationContext(op.method, op.path)
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description + " Requires Bearer token.")
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(ActionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		_ = r.AddOperation(oc)
	}

	// GET /api/play/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/play/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of state changes and cues. Pass token as query parameter.")
	getEvents.AddReqStructure(tokenQuery{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/play/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/play/ws")
	getWS.SetSummary("WebSocket play channel")
	getWS.SetDescription("Upgrades to a WebSocket. Send action JSON messages; receive the same events as the SSE stream.")
	getWS.AddReqStructure(tokenQuery{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
