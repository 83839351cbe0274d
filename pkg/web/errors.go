package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/planner"
	"github.com/planline/planline/pkg/targets"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, errType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(errType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service layer errors onto RFC 7807 responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsSessionNotFound(err):
		return notFound(c, "session not found")

	case persistence.IsSessionInactive(err):
		return conflict(c, "session_inactive", "session is no longer active")

	case approval.IsNothingPending(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("nothing_pending").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, approval.ErrUnknownAction),
		errors.Is(err, planner.ErrNoTargets),
		errors.Is(err, planner.ErrNoComponents),
		errors.Is(err, planner.ErrInvalidTarget),
		errors.Is(err, targets.ErrTargetNotFound):
		return badRequest(c, err.Error())

	case errors.Is(err, executor.ErrNoPlan):
		return conflict(c, "no_plan", "session has no plan to execute")

	default:
		return internalError(c, err)
	}
}
