package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/cmd"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence/file"
	"github.com/planline/planline/pkg/planner"
	"github.com/planline/planline/pkg/session"
	"github.com/planline/planline/pkg/targets"
	"github.com/planline/planline/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())
	registry := cmd.NewRegistry(logger)

	sessions := session.NewService(
		store,
		planner.NewBuilder(registry, logger),
		executor.NewExecutor(store, registry, logger),
		approval.NewGate(logger),
		targets.NewDefaultCatalog(),
		nil,
		logger,
	)

	handlers := web.NewAPIHandlers(sessions, store, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()

	body, err := json.Marshal(web.CreateSessionRequest{
		Goal:       "Launch Q3 product",
		Audience:   "CTOs",
		Components: []string{"email"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Session

	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)

	return created.ID
}

func buildPlan(t *testing.T, app *fiber.App, sessionID string, targetNames []string) web.PlanResponse {
	t.Helper()

	body, err := json.Marshal(web.BuildPlanRequest{TargetNames: targetNames})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/plan", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var plan web.PlanResponse

	decodeBody(t, resp, &plan)

	return plan
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestAPIHandlers_CreateSession_Validation(t *testing.T) {
	app := setupTestApp(t)

	body := []byte(`{"goal":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_BuildPlan(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)

	plan := buildPlan(t, app, sessionID, []string{"TechCorp", "FinanceHub"})

	assert.Equal(t, sessionID, plan.SessionID)
	assert.Equal(t, 10, plan.TotalSteps)
	assert.Equal(t, 0, plan.CurrentStepIndex)
	require.Len(t, plan.Steps, 10)
	assert.Equal(t, "research", plan.Steps[0].AgentType)
	assert.True(t, plan.Steps[1].Gated)
}

func TestAPIHandlers_BuildPlan_UnknownTarget(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)

	body := []byte(`{"target_names":["NoSuchCo"]}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/plan", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ExecutePauseDecideComplete(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)
	buildPlan(t, app, sessionID, []string{"TechCorp"})

	// Execute until the gate.
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/execute", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var execution web.ExecutionResponse

	decodeBody(t, resp, &execution)
	assert.Equal(t, "paused", execution.Status)
	assert.Equal(t, "TechCorp", execution.PausedFor)

	// Approvals list has the gated pair.
	req = httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID+"/approvals", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var approvals struct {
		Pending map[string][]approval.PendingStep `json:"pending"`
	}

	decodeBody(t, resp, &approvals)
	assert.Len(t, approvals.Pending["TechCorp"], 2)

	// Approve.
	body, err := json.Marshal(web.DecideRequest{TargetName: "TechCorp", Action: "approve"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/approvals", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Execute to completion.
	req = httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/execute", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decodeBody(t, resp, &execution)
	assert.Equal(t, "completed", execution.Status)

	// Status reflects the finished plan.
	req = httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID+"/status", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status session.Status

	decodeBody(t, resp, &status)
	assert.Equal(t, models.CampaignStatusExecuted, status.CampaignStatus)
	assert.Equal(t, status.TotalSteps, status.CompletedSteps)
}

func TestAPIHandlers_Decide_Validation(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)
	buildPlan(t, app, sessionID, []string{"TechCorp"})

	body := []byte(`{"target_name":"TechCorp","action":"escalate"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/approvals", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_Decide_NothingPending(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)
	buildPlan(t, app, sessionID, []string{"TechCorp"})

	body := []byte(`{"target_name":"RetailMax","action":"approve"}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/approvals", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetSession_NotFound(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ExecuteWithoutPlan_Conflict(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/execute", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_DeactivateThenExecute_Conflict(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)
	buildPlan(t, app, sessionID, []string{"TechCorp"})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+sessionID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/execute", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The session is gone from the active listing.
	req = httptest.NewRequest(http.MethodGet, "/sessions", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active web.ActiveSessionsResponse

	decodeBody(t, resp, &active)
	assert.NotContains(t, active.SessionIDs, sessionID)
}

func TestAPIHandlers_Resume(t *testing.T) {
	app := setupTestApp(t)
	sessionID := createSession(t, app)
	buildPlan(t, app, sessionID, []string{"TechCorp"})

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/resume", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info session.ResumeInfo

	decodeBody(t, resp, &info)
	assert.Equal(t, sessionID, info.SessionID)
	assert.Equal(t, "run the next execution pass", info.NextAction)
}
