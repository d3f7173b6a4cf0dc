package worker

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/leo-guinan/pathofgreatness/internal/config"
	"github.com/leo-guinan/pathofgreatness/internal/costs"
	dbgorm "github.com/leo-guinan/pathofgreatness/internal/db/gorm"
	"github.com/leo-guinan/pathofgreatness/internal/fault"
	"github.com/leo-guinan/pathofgreatness/internal/gateway"
	"github.com/leo-guinan/pathofgreatness/internal/journey"
	"github.com/leo-guinan/pathofgreatness/internal/pipeline"
	"github.com/leo-guinan/pathofgreatness/pkg/models"
)

// stubGen answers every prompt with a response keyed off the prompt text,
// the same routing the engine tests use.
type stubGen struct {
	err error
}

func (g *stubGen) Generate(_ context.Context, prompt gateway.Prompt, _ int) (*gateway.Result, error) {
	if g.err != nil {
		return nil, g.err
	}

	text := "A narrative paragraph."
	switch {
	case strings.Contains(prompt.System, "analyzing what people admire"):
		text = `{"order":"zen","archetypes":["Sage"],"explanation":"contemplative","admired_person_traits":["calm"]}`
	case strings.Contains(prompt.System, "master copywriter"):
		text = `{"headline":"H","hook":"K","transformation_proof":"P","offer_description":"O","guarantee":"G","cta":"C","urgency":"U"}`
	}

	return &gateway.Result{
		Text:    text,
		Usage:   models.Usage{PromptTokens: 10, CompletionTokens: 5},
		CostUSD: 0.0001,
		Model:   "anthropic/claude-3-haiku",
	}, nil
}

// testService builds a Service backed by a temp database and stub generator.
func testService(t *testing.T) (*Service, *stubGen) {
	t.Helper()

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     filepath.Join(t.TempDir(), "journey.db"),
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gen := &stubGen{}
	ledger := costs.NewLedger(dbgorm.NewCostStore(store))
	engine := journey.NewEngine(
		dbgorm.NewSessionStore(store),
		dbgorm.NewCharacterStore(store),
		dbgorm.NewTimelineStore(store),
		ledger,
		pipeline.New(gen, ledger),
	)

	return NewService("test-version", config.Get(), engine), gen
}

func doJSON(t *testing.T, svc *Service, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func createSession(t *testing.T, svc *Service) string {
	t.Helper()
	rec := doJSON(t, svc, http.MethodPost, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "welcome", body["state"])
	return sessionID
}

func TestHandleCreateAndGetSession(t *testing.T) {
	svc, _ := testService(t)
	sessionID := createSession(t, svc)

	rec := doJSON(t, svc, http.MethodGet, "/api/session/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "welcome", body["state"])
	ui, ok := body["ui_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The Path of Greatness", ui["title"])
}

func TestHandleGetSessionNotFound(t *testing.T) {
	svc, _ := testService(t)

	rec := doJSON(t, svc, http.MethodGet, "/api/session/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "not found")
}

func TestHandleTransitionWalk(t *testing.T) {
	svc, _ := testService(t)
	sessionID := createSession(t, svc)

	rec := doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{
		SessionID: sessionID,
		Action:    "begin",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "greatness_mirror", decodeBody(t, rec)["next_state"])

	rec = doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{
		SessionID: sessionID,
		Action:    "submit_mirror",
		Data:      models.JSONMap{"admired_person": "Marcus Aurelius"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "order_reveal", body["next_state"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "zen", data["order"])
}

func TestHandleTransitionValidation(t *testing.T) {
	svc, _ := testService(t)
	sessionID := createSession(t, svc)

	// Missing session_id in the body.
	rec := doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{Action: "begin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown session.
	rec = doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{
		SessionID: "missing", Action: "begin",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing required input for the mirror step.
	doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{SessionID: sessionID, Action: "begin"})
	rec = doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{SessionID: sessionID, Action: "submit"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTransitionGatewayFailureMapsTo502(t *testing.T) {
	svc, gen := testService(t)
	sessionID := createSession(t, svc)
	doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{SessionID: sessionID, Action: "begin"})

	gen.err = fault.New(fault.KindGatewayExhausted, "3 attempts failed")
	rec := doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{
		SessionID: sessionID,
		Action:    "submit_mirror",
		Data:      models.JSONMap{"admired_person": "Marcus Aurelius"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleCostAndTimeline(t *testing.T) {
	svc, _ := testService(t)
	sessionID := createSession(t, svc)
	doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{SessionID: sessionID, Action: "begin"})
	doJSON(t, svc, http.MethodPost, "/api/transition", transitionRequest{
		SessionID: sessionID,
		Action:    "submit_mirror",
		Data:      models.JSONMap{"admired_person": "Marcus Aurelius"},
	})

	rec := doJSON(t, svc, http.MethodGet, "/api/cost/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["num_api_calls"])
	assert.InDelta(t, 0.0001, body["total_cost_usd"].(float64), 1e-9)

	rec = doJSON(t, svc, http.MethodGet, "/api/timeline/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	timeline, ok := decodeBody(t, rec)["timeline"].([]any)
	require.True(t, ok)
	assert.Empty(t, timeline)
}

func TestHandleDeleteSession(t *testing.T) {
	svc, _ := testService(t)
	sessionID := createSession(t, svc)

	rec := doJSON(t, svc, http.MethodDelete, "/api/session/"+sessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = doJSON(t, svc, http.MethodGet, "/api/session/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	svc, _ := testService(t)

	rec := doJSON(t, svc, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test-version", body["version"])
}

func TestServeIndex(t *testing.T) {
	svc, _ := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "The Path of Greatness")
}

func TestServeAssets(t *testing.T) {
	svc, _ := testService(t)

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/static/nope.css", nil)
	rec = httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
