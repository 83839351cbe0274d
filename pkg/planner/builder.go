// Package planner expands a campaign request into a concrete execution plan.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/registry"
)

var (
	ErrNoTargets     = errors.New("plan requires at least one resolved target")
	ErrNoComponents  = errors.New("plan requires at least one content component")
	ErrPlanExists    = errors.New("session already has a plan")
	ErrNoCampaign    = errors.New("session has no campaign")
	ErrInvalidTarget = errors.New("target profile is invalid")
)

// Builder produces the fan-out plan shape: one leading research step, a block
// per target (gated brief, gated review, one content step per component, one
// deploy step), and one trailing launch coordination step. The step count is
// always 1 + targets*(3+components) + 1.
//
// The builder is deterministic: the same campaign and the same ordered target
// list produce steps in the same order, so a persisted cursor stays valid
// across rebuilds of the process.
type Builder struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewBuilder(reg *registry.Registry, logger *slog.Logger) *Builder {
	return &Builder{
		registry: reg,
		logger:   logger.With("module", "planner"),
	}
}

// Build creates the plan for a campaign. Errors are synchronous; no partial
// plan is returned. Target order is taken as-is from the resolver.
func (b *Builder) Build(campaign *models.Campaign, targets []models.TargetProfile) (*models.Plan, error) {
	if campaign == nil {
		return nil, ErrNoCampaign
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	if len(campaign.Components) == 0 {
		return nil, ErrNoComponents
	}

	for _, target := range targets {
		if target.Name == "" {
			return nil, fmt.Errorf("%w: missing name", ErrInvalidTarget)
		}
	}

	steps := make([]*models.Step, 0, 2+len(targets)*(3+len(campaign.Components)))

	steps = append(steps, b.researchStep(campaign, targets))

	for _, target := range targets {
		steps = append(steps, b.briefStep(campaign, target))
		steps = append(steps, b.reviewStep(target))

		for _, component := range campaign.Components {
			steps = append(steps, b.contentStep(campaign, target, component))
		}

		steps = append(steps, b.deployStep(campaign, target))
	}

	steps = append(steps, b.coordinateStep(targets))

	for _, step := range steps {
		if err := b.registry.ValidateParameters(step.AgentType, step.Function, step.Parameters); err != nil {
			return nil, fmt.Errorf("step %q rejected: %w", step.Name, err)
		}
	}

	plan := &models.Plan{
		CampaignID:       campaign.ID,
		Steps:            steps,
		CurrentStepIndex: 0,
		Context: fmt.Sprintf(
			"Campaign %q fanned out over %d targets with %d content components per target",
			campaign.Goal, len(targets), len(campaign.Components),
		),
		CreatedAt: time.Now().UTC(),
	}

	b.logger.Info("Built campaign plan",
		"campaign_id", campaign.ID,
		"targets", len(targets),
		"components", len(campaign.Components),
		"steps", len(steps),
	)

	return plan, nil
}

func (b *Builder) researchStep(campaign *models.Campaign, targets []models.TargetProfile) *models.Step {
	industries := make([]string, 0, len(targets))
	seen := make(map[string]bool)

	for _, target := range targets {
		if !seen[target.Industry] {
			seen[target.Industry] = true
			industries = append(industries, target.Industry)
		}
	}

	return newStep(
		"Industry research",
		"Compile industry insights covering all resolved targets",
		models.AgentResearch,
		models.FunctionIndustryInsights,
		map[string]any{
			models.ParamGoal:     campaign.Goal,
			models.ParamAudience: campaign.Audience,
			"industries":         industries,
		},
		false,
	)
}

func (b *Builder) briefStep(campaign *models.Campaign, target models.TargetProfile) *models.Step {
	return newStep(
		fmt.Sprintf("Generate brief for %s", target.Name),
		fmt.Sprintf("Draft the campaign brief for %s (%s)", target.Name, target.Industry),
		models.AgentContent,
		models.FunctionGenerateBrief,
		map[string]any{
			models.ParamTargetName: target.Name,
			models.ParamIndustry:   target.Industry,
			models.ParamGoal:       campaign.Goal,
			models.ParamAudience:   campaign.Audience,
		},
		true,
	)
}

func (b *Builder) reviewStep(target models.TargetProfile) *models.Step {
	return newStep(
		fmt.Sprintf("Review brief for %s", target.Name),
		fmt.Sprintf("Human-reviewed check of the brief drafted for %s", target.Name),
		models.AgentReview,
		models.FunctionReviewBrief,
		map[string]any{
			models.ParamTargetName: target.Name,
		},
		true,
	)
}

func (b *Builder) contentStep(campaign *models.Campaign, target models.TargetProfile, component string) *models.Step {
	return newStep(
		fmt.Sprintf("Generate %s for %s", component, target.Name),
		fmt.Sprintf("Produce the %s component tailored to %s", component, target.Name),
		models.AgentContent,
		models.FunctionGenerateContent,
		map[string]any{
			models.ParamTargetName: target.Name,
			models.ParamIndustry:   target.Industry,
			models.ParamComponent:  component,
			models.ParamGoal:       campaign.Goal,
			models.ParamAudience:   campaign.Audience,
		},
		false,
	)
}

func (b *Builder) deployStep(campaign *models.Campaign, target models.TargetProfile) *models.Step {
	return newStep(
		fmt.Sprintf("Deploy to %s", target.Name),
		fmt.Sprintf("Stage generated components for delivery to %s", target.Name),
		models.AgentDeploy,
		models.FunctionDeployToTarget,
		map[string]any{
			models.ParamTargetName: target.Name,
			"components":           append([]string(nil), campaign.Components...),
		},
		false,
	)
}

func (b *Builder) coordinateStep(targets []models.TargetProfile) *models.Step {
	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, target.Name)
	}

	return newStep(
		"Coordinate final deployment",
		"Summarize per-target deployments into one launch report",
		models.AgentDeploy,
		models.FunctionCoordinateLaunch,
		map[string]any{
			"target_names":  names,
			"total_targets": len(names),
		},
		false,
	)
}

func newStep(
	name, description string,
	agentType models.AgentType,
	function string,
	params map[string]any,
	gated bool,
) *models.Step {
	step := &models.Step{
		ID:                    uuid.New().String(),
		Name:                  name,
		Description:           description,
		AgentType:             agentType,
		Function:              function,
		Parameters:            params,
		RequiresHumanApproval: gated,
		ApprovalStatus:        models.ApprovalNotRequired,
	}

	if gated {
		step.ApprovalStatus = models.ApprovalPendingReview
	}

	return step
}
