package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/session"
)

type APIHandlers struct {
	sessions  *session.Service
	store     persistence.Persistence
	validator *validator.Validate
}

func NewAPIHandlers(sessions *session.Service, store persistence.Persistence, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		sessions:  sessions,
		store:     store,
		validator: validator,
	}
}

// RegisterRoutes wires all session endpoints onto the app.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	app.Post("/sessions", h.CreateSession)
	app.Get("/sessions", h.ListSessions)
	app.Get("/sessions/:id", h.GetSession)
	app.Delete("/sessions/:id", h.DeactivateSession)

	app.Post("/sessions/:id/plan", h.BuildPlan)
	app.Post("/sessions/:id/execute", h.ExecutePlan)
	app.Get("/sessions/:id/approvals", h.GetApprovals)
	app.Post("/sessions/:id/approvals", h.Decide)
	app.Get("/sessions/:id/status", h.GetStatus)
	app.Post("/sessions/:id/resume", h.Resume)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Planline API is healthy"
	httpStatus := http.StatusOK

	err := h.store.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Planline API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.sessions.Create(c.Context(), session.CampaignRequest{
		Goal:       req.Goal,
		Audience:   req.Audience,
		Components: req.Components,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ListSessions(c fiber.Ctx) error {
	ids, err := h.sessions.ListActive(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(ActiveSessionsResponse{
		SessionIDs: ids,
		Count:      len(ids),
	})
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	found, err := h.sessions.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) BuildPlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	var req BuildPlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.sessions.BuildPlan(c.Context(), id, req.TargetNames, req.Replace)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(planResponse(updated))
}

func (h *APIHandlers) ExecutePlan(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	result, err := h.sessions.ExecutePlan(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executionResponse(id, result))
}

func (h *APIHandlers) GetApprovals(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	pending, err := h.sessions.PendingApprovals(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"pending":    pending,
	})
}

func (h *APIHandlers) Decide(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	var req DecideRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := h.sessions.Decide(c.Context(), id, req.TargetName, approval.Action(req.Action), req.Feedback)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(outcome)
}

func (h *APIHandlers) GetStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	status, err := h.sessions.Status(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) Resume(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	info, err := h.sessions.Resume(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(info)
}

func (h *APIHandlers) DeactivateSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	err := h.sessions.Deactivate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func planResponse(s *models.Session) PlanResponse {
	resp := PlanResponse{
		SessionID: s.ID,
	}

	if s.Plan == nil {
		return resp
	}

	resp.TotalSteps = len(s.Plan.Steps)
	resp.CurrentStepIndex = s.Plan.CurrentStepIndex
	resp.Context = s.Plan.Context
	resp.Steps = make([]PlanStepResponse, 0, len(s.Plan.Steps))

	for _, step := range s.Plan.Steps {
		resp.Steps = append(resp.Steps, PlanStepResponse{
			ID:             step.ID,
			Name:           step.Name,
			AgentType:      string(step.AgentType),
			Function:       step.Function,
			TargetName:     step.TargetName(),
			Gated:          step.RequiresHumanApproval,
			ApprovalStatus: string(step.ApprovalStatus),
			IsCompleted:    step.IsCompleted,
		})
	}

	return resp
}

func executionResponse(sessionID string, result *executor.Result) ExecutionResponse {
	resp := ExecutionResponse{
		SessionID: sessionID,
		Status:    string(result.Status),
		Summary:   result.Summary,
		StepsRun:  result.StepsRun,
	}

	if result.PausedStep != nil {
		resp.PausedStep = result.PausedStep.Name
		resp.PausedFor = result.PausedStep.TargetName()
	}

	return resp
}
